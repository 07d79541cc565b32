// Package backend is the HTTP client for the tutor backend service,
// which owns authentication, document storage, retrieval, and the LLM.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/avelsk/tutor-gateway/internal/domain"
)

// StatusError is a non-2xx backend response. The gateway passes its
// status code and body through to callers unchanged.
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status %d", e.Code)
}

// Client talks to the tutor backend's chat API
type Client struct {
	baseURL string
	client  *http.Client
	// streamClient carries no timeout: a message stream is bounded by
	// the backend's own response lifetime and the caller's context.
	streamClient *http.Client
}

// NewClient creates a backend client. timeout bounds non-streaming
// requests only.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:      baseURL,
		client:       &http.Client{Timeout: timeout},
		streamClient: &http.Client{},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, token, body)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		return &StatusError{Code: resp.StatusCode, Body: payload}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// CreateSession creates a new conversation on the backend
func (c *Client) CreateSession(ctx context.Context, token string, input domain.SessionCreate) (*domain.ChatSession, error) {
	var session domain.ChatSession
	if err := c.doJSON(ctx, http.MethodPost, "/chat/sessions", token, input, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions returns the caller's sessions, newest first
func (c *Client) ListSessions(ctx context.Context, token string, limit, offset int) (*domain.SessionList, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var list domain.SessionList
	if err := c.doJSON(ctx, http.MethodGet, "/chat/sessions?"+q.Encode(), token, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetSession returns one session with its message history
func (c *Client) GetSession(ctx context.Context, token, id string) (*domain.SessionDetail, error) {
	var detail domain.SessionDetail
	if err := c.doJSON(ctx, http.MethodGet, "/chat/sessions/"+url.PathEscape(id), token, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// UpdateSession updates a session's title or status
func (c *Client) UpdateSession(ctx context.Context, token, id string, input domain.SessionUpdate) (*domain.ChatSession, error) {
	var session domain.ChatSession
	if err := c.doJSON(ctx, http.MethodPatch, "/chat/sessions/"+url.PathEscape(id), token, input, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// DeleteSession deletes a session
func (c *Client) DeleteSession(ctx context.Context, token, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/chat/sessions/"+url.PathEscape(id), token, nil, nil)
}

// StreamMessage posts a message to a session and returns the backend's
// raw SSE response. The caller owns the response body, including for
// non-2xx statuses, which are returned as-is for pass-through.
func (c *Client) StreamMessage(ctx context.Context, token, sessionID, message string) (*http.Response, error) {
	body := map[string]string{"message": message}
	req, err := c.newRequest(ctx, http.MethodPost, "/chat/sessions/"+url.PathEscape(sessionID)+"/messages", token, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}
