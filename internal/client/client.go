package client

import (
	"errors"
	"net/http"
	"sync"

	"github.com/avelsk/tutor-gateway/internal/domain"
)

// ErrSendInFlight is returned when a send arrives while a prior send,
// including its conversation-creation step, is still in flight. The
// request is rejected, not queued.
var ErrSendInFlight = errors.New("a send is already in flight")

// Options configures a Client
type Options struct {
	// BaseURL is the gateway's API root, e.g. http://host:8080/api/v1.
	BaseURL string
	// ModelID is sent when a new conversation is created.
	ModelID string
	// PromptID, when set, selects the active system prompt for new
	// conversations.
	PromptID string
	// Renderer receives transcript updates. Defaults to NopRenderer.
	Renderer Renderer
	// Store holds the credential and active session id. Defaults to an
	// empty MemoryStore.
	Store Store
	// HTTPClient defaults to a client with no timeout; streams are
	// bounded by the caller's context.
	HTTPClient *http.Client
}

// Client consumes the gateway's chat stream and manages the
// conversation lifecycle. All exported methods are safe for concurrent
// use, but at most one send is ever in flight.
type Client struct {
	baseURL  string
	modelID  string
	promptID string
	http     *http.Client
	store    Store
	renderer Renderer

	mu       sync.Mutex
	sending  bool
	stage    Stage
	search   SearchState
	messages []domain.Message
	openIdx  int
	sessions []domain.ChatSession
}

// New creates a chat client
func New(opts Options) *Client {
	c := &Client{
		baseURL:  opts.BaseURL,
		modelID:  opts.ModelID,
		promptID: opts.PromptID,
		http:     opts.HTTPClient,
		store:    opts.Store,
		renderer: opts.Renderer,
		stage:    StageIdle,
		openIdx:  -1,
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.store == nil {
		c.store = NewMemoryStore()
	}
	if c.renderer == nil {
		c.renderer = NopRenderer{}
	}
	return c
}

// Store returns the client's credential/session store
func (c *Client) Store() Store {
	return c.store
}

// Messages returns a snapshot of the transcript
func (c *Client) Messages() []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Stage returns the current loading stage
func (c *Client) Stage() Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage
}

// Search returns the retrieval search state of the current send
func (c *Client) Search() SearchState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.search
}

// Sessions returns the most recently fetched conversation list
func (c *Client) Sessions() []domain.ChatSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.ChatSession, len(c.sessions))
	copy(out, c.sessions)
	return out
}

// beginSend acquires the at-most-one-in-flight guard
func (c *Client) beginSend() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sending {
		return false
	}
	c.sending = true
	return true
}

func (c *Client) endSend() {
	c.mu.Lock()
	c.sending = false
	c.mu.Unlock()
}

func (c *Client) snapshotLocked() []domain.Message {
	out := make([]domain.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// flushLocked pushes the current state to the renderer. Called with the
// mutex held; the renderer must not call back into the client.
func (c *Client) flushLocked() {
	c.renderer.Flush(c.snapshotLocked(), c.stage, c.search)
}
