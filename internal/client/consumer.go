package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avelsk/tutor-gateway/internal/domain"
	"github.com/avelsk/tutor-gateway/internal/sse"
	"github.com/avelsk/tutor-gateway/internal/stream"
	"github.com/google/uuid"
)

// ErrEmptyMessage is returned for a send with no text
var ErrEmptyMessage = errors.New("message is empty")

// Send submits a user message and consumes the resulting stream,
// applying each event to the transcript as it arrives. It blocks until
// the stream terminates, the context is canceled, or an error occurs.
//
// A second Send while one is in flight returns ErrSendInFlight without
// dispatching anything. Canceling ctx aborts the stream cleanly:
// partial assistant content stays in place and no error bubble is
// rendered.
func (c *Client) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	if !c.beginSend() {
		return ErrSendInFlight
	}
	defer c.endSend()

	// Credential snapshot for the whole operation.
	token := c.store.Token()

	sessionID, err := c.ensureSession(ctx, token, text)
	if err != nil {
		// Creation failed: the message is not transmitted at all.
		c.appendErrorBubble("Failed to create conversation: " + err.Error())
		return err
	}

	c.beginTranscript(text)

	req, err := c.newRequest(ctx, http.MethodPost, "/chat", token, domain.ChatRequest{
		Message:   text,
		SessionID: sessionID,
	})
	if err != nil {
		c.applyFailure(err.Error())
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			c.finishAborted()
			return ctx.Err()
		}
		c.applyFailure(err.Error())
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		resp.Body.Close()
		apiErr := &APIError{Code: resp.StatusCode, Message: errorMessage(payload)}
		c.applyFailure(apiErr.Message)
		return apiErr
	}

	return c.consume(ctx, resp.Body)
}

// beginTranscript appends the user message and the assistant
// placeholder, and enters the analyzing stage before any byte is read.
func (c *Client) beginTranscript(text string) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages,
		domain.Message{
			ID:        uuid.NewString(),
			Role:      domain.RoleUser,
			Content:   text,
			CreatedAt: now,
		},
		domain.Message{
			ID:        uuid.NewString(),
			Role:      domain.RoleAssistant,
			CreatedAt: now,
		},
	)
	c.openIdx = len(c.messages) - 1
	c.stage = StageAnalyzing
	c.search = SearchState{}
	c.flushLocked()
}

// consume reads frames until a terminal event, stream end, or abort.
// The body is always closed in the deferred cleanup so the underlying
// connection is never leaked.
func (c *Client) consume(ctx context.Context, body io.ReadCloser) error {
	defer body.Close()

	parser := sse.NewParser(body)
	for {
		frame, err := parser.Next()
		if err != nil {
			if err == io.EOF {
				// Stream ended without a terminal event. The stage is
				// deliberately left as-is; see the silent-truncation
				// note in the package tests.
				return nil
			}
			if ctx.Err() != nil {
				c.finishAborted()
				return ctx.Err()
			}
			c.applyFailure(err.Error())
			return err
		}

		if frame.IsComment() {
			// Fallback session announcement for callers that created
			// the session server-side.
			if id, ok := frame.SessionID(); ok && c.store.ActiveSession() == "" {
				c.store.SetActiveSession(id)
			}
			continue
		}

		event, ok := stream.Normalize(frame)
		if !ok {
			continue
		}

		c.apply(event)
		if event.Terminal() {
			return nil
		}
	}
}

// apply reduces one normalized event into transcript state. This is the
// single point where events are consumed; the switch is exhaustive over
// the event union.
func (c *Client) apply(event stream.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	open := c.openLocked()
	if open == nil {
		return
	}

	switch ev := event.(type) {
	case stream.Chunk:
		open.Content += ev.Content
		c.stage = StageStreaming
	case stream.SearchUpdate:
		switch ev.Status {
		case stream.SearchSearching:
			open.RAGSearched = true
			c.search = SearchState{Query: ev.Query}
			c.stage = StageSearching
		case stream.SearchCompleted:
			c.search.Completed = true
			c.search.ResultsCount = ev.ResultsCount
			c.search.ProcessingTime = ev.ProcessingTime
			if ev.Query != "" {
				c.search.Query = ev.Query
			}
			c.stage = StageFound
		}
	case stream.Completion:
		// Last write wins on the open slot, so a replayed terminal
		// event cannot duplicate the finalized message.
		if ev.Content != "" {
			open.Content = ev.Content
		}
		open.Sources = ev.Sources
		c.stage = StageIdle
	case stream.Failure:
		open.IsError = true
		if open.Content == "" {
			open.Content = ev.Message
		}
		c.stage = StageError
	}

	c.flushLocked()
}

// openLocked returns the assistant message currently receiving deltas
func (c *Client) openLocked() *domain.Message {
	if c.openIdx < 0 || c.openIdx >= len(c.messages) {
		return nil
	}
	return &c.messages[c.openIdx]
}

// applyFailure renders an inline assistant-role error bubble without
// clearing prior messages.
func (c *Client) applyFailure(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if open := c.openLocked(); open != nil {
		open.IsError = true
		if open.Content == "" {
			open.Content = message
		}
	} else {
		c.messages = append(c.messages, domain.Message{
			ID:        uuid.NewString(),
			Role:      domain.RoleAssistant,
			Content:   message,
			CreatedAt: time.Now(),
			IsError:   true,
		})
	}
	c.stage = StageError
	c.flushLocked()
}

// appendErrorBubble adds an assistant-role error message for failures
// that happen before any stream is opened.
func (c *Client) appendErrorBubble(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleAssistant,
		Content:   message,
		CreatedAt: time.Now(),
		IsError:   true,
	})
	c.stage = StageError
	c.flushLocked()
}

// finishAborted marks the stream terminal after an abort, leaving
// whatever partial content accumulated in place.
func (c *Client) finishAborted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stage = StageIdle
	c.flushLocked()
}
