package sse

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkReader delivers at most n bytes per Read to simulate network
// fragmentation.
type chunkReader struct {
	data []byte
	n    int
	off  int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.off >= len(r.data) {
		return 0, io.EOF
	}
	end := r.off + r.n
	if end > len(r.data) {
		end = len(r.data)
	}
	n := copy(p, r.data[r.off:end])
	r.off += n
	return n, nil
}

func collect(t *testing.T, r io.Reader) []Frame {
	t.Helper()
	var frames []Frame
	p := NewParser(r)
	for {
		f, err := p.Next()
		if err == io.EOF {
			return frames
		}
		require.NoError(t, err)
		frames = append(frames, f)
	}
}

const wellFormed = ": session_id: s1\n\n" +
	"event: chunk\n" +
	"data: {\"content\":\"Hi\"}\n\n" +
	"event: rag_search\n" +
	"data: {\"status\":\"searching\",\"query\":\"photosynthesis\"}\n\n" +
	"event: chunk\n" +
	"data: {\"content\":\" there\"}\n\n" +
	"event: done\n" +
	"data: {}\n\n"

func TestParser_Frames(t *testing.T) {
	frames := collect(t, strings.NewReader(wellFormed))
	require.Len(t, frames, 5)

	assert.True(t, frames[0].IsComment())
	id, ok := frames[0].SessionID()
	assert.True(t, ok)
	assert.Equal(t, "s1", id)

	assert.Equal(t, "chunk", frames[1].Event)
	assert.JSONEq(t, `{"content":"Hi"}`, string(frames[1].Data))
	assert.Equal(t, "rag_search", frames[2].Event)
	assert.Equal(t, "chunk", frames[3].Event)
	assert.Equal(t, "done", frames[4].Event)
}

// Every fragmentation of the byte stream must yield the identical
// ordered frame sequence.
func TestParser_FragmentationInvariance(t *testing.T) {
	want := collect(t, strings.NewReader(wellFormed))

	for size := 1; size <= len(wellFormed); size++ {
		got := collect(t, &chunkReader{data: []byte(wellFormed), n: size})
		require.Equal(t, want, got, "chunk size %d", size)
	}
}

func TestParser_CRLF(t *testing.T) {
	input := strings.ReplaceAll(wellFormed, "\n", "\r\n")
	assert.Equal(t, collect(t, strings.NewReader(wellFormed)), collect(t, strings.NewReader(input)))
}

func TestParser_EventTypeResetOnBlankLine(t *testing.T) {
	input := "event: chunk\n" +
		"data: {\"content\":\"a\"}\n\n" +
		"data: {\"type\":\"finish\"}\n\n"

	frames := collect(t, strings.NewReader(input))
	require.Len(t, frames, 2)
	assert.Equal(t, "chunk", frames[0].Event)
	// The blank line ended the chunk block; the bare data line has no
	// event type.
	assert.Equal(t, "", frames[1].Event)
}

func TestParser_DiscardsIncompleteTrailingLine(t *testing.T) {
	input := "event: chunk\n" +
		"data: {\"content\":\"a\"}\n\n" +
		"data: {\"content\":\"trunc"

	frames := collect(t, strings.NewReader(input))
	require.Len(t, frames, 1)
	assert.JSONEq(t, `{"content":"a"}`, string(frames[0].Data))
}

func TestParser_UnknownFieldIgnored(t *testing.T) {
	input := "id: 42\nretry: 1000\ndata: {\"content\":\"x\"}\n\n"
	frames := collect(t, strings.NewReader(input))
	require.Len(t, frames, 1)
}

func TestFrame_SessionID(t *testing.T) {
	tests := []struct {
		name    string
		comment string
		want    string
		ok      bool
	}{
		{"with session", " session_id: abc-123", "abc-123", true},
		{"no marker", " keepalive", "", false},
		{"empty id", " session_id: ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := Frame{Comment: tt.comment}.SessionID()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, id)
		})
	}
}
