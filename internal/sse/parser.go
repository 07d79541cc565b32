// Package sse implements the server-sent-events line protocol used
// between the tutor backend, this gateway, and its clients.
package sse

import (
	"bytes"
	"io"
	"strings"
)

// Frame is one parsed unit of an SSE stream. Data frames carry the event
// type in effect when the data line arrived. Comment frames surface `:`
// lines so callers can inspect out-of-band metadata such as the session
// identifier announcement.
type Frame struct {
	Event   string
	Data    []byte
	Comment string
}

// IsComment reports whether the frame is a comment line
func (f Frame) IsComment() bool {
	return f.Comment != ""
}

// SessionID extracts a session identifier from a `: session_id: <id>`
// comment frame, returning false for any other frame.
func (f Frame) SessionID() (string, bool) {
	const prefix = "session_id:"
	c := strings.TrimSpace(f.Comment)
	if !strings.HasPrefix(c, prefix) {
		return "", false
	}
	id := strings.TrimSpace(strings.TrimPrefix(c, prefix))
	return id, id != ""
}

// Parser splits an incrementally-delivered byte stream into frames.
// A partial line split across reads is held back until completed, so
// frames are identical regardless of how the network fragments the
// stream. Frames are yielded strictly in arrival order.
type Parser struct {
	r     io.Reader
	buf   []byte
	event string
	read  []byte
	eof   bool
}

// NewParser creates a parser reading from r
func NewParser(r io.Reader) *Parser {
	return &Parser{r: r, read: make([]byte, 4096)}
}

// Next returns the next frame, or io.EOF when the stream is exhausted.
// An incomplete trailing line at end of stream is discarded.
func (p *Parser) Next() (Frame, error) {
	for {
		if line, ok := p.nextLine(); ok {
			if f, ok := p.consumeLine(line); ok {
				return f, nil
			}
			continue
		}

		if p.eof {
			return Frame{}, io.EOF
		}

		n, err := p.r.Read(p.read)
		if n > 0 {
			p.buf = append(p.buf, p.read[:n]...)
		}
		if err != nil {
			if err == io.EOF {
				p.eof = true
				continue
			}
			return Frame{}, err
		}
	}
}

// nextLine pops one complete line off the buffer, holding back the
// trailing partial line as new buffer state.
func (p *Parser) nextLine() (string, bool) {
	i := bytes.IndexByte(p.buf, '\n')
	if i < 0 {
		return "", false
	}
	line := string(bytes.TrimSuffix(p.buf[:i], []byte("\r")))
	p.buf = p.buf[i+1:]
	return line, true
}

// consumeLine applies one line to the parser state, returning a frame
// when the line yields one.
func (p *Parser) consumeLine(line string) (Frame, bool) {
	switch {
	case line == "":
		// A blank line ends the current event block.
		p.event = ""
		return Frame{}, false
	case strings.HasPrefix(line, ":"):
		return Frame{Comment: strings.TrimPrefix(line, ":")}, true
	case strings.HasPrefix(line, "event:"):
		p.event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		return Frame{}, false
	case strings.HasPrefix(line, "data:"):
		data := strings.TrimPrefix(line, "data:")
		data = strings.TrimPrefix(data, " ")
		return Frame{Event: p.event, Data: []byte(data)}, true
	default:
		// Unknown field names are ignored per the SSE spec.
		return Frame{}, false
	}
}
