package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avelsk/tutor-gateway/internal/domain"
	"github.com/rs/zerolog/log"
)

// titleLimit bounds the human-readable title derived from the first
// message of a new conversation.
const titleLimit = 50

// deriveTitle truncates the first user message into a session title
func deriveTitle(text string) string {
	t := strings.TrimSpace(text)
	runes := []rune(t)
	if len(runes) <= titleLimit {
		return t
	}
	return string(runes[:titleLimit]) + "..."
}

// ensureSession returns the active session identifier, creating the
// conversation lazily on the first send of a new thread. A conversation
// is never created speculatively: creation happens here and nowhere
// else, and the send guard prevents it from running twice for one
// logical new-thread session.
func (c *Client) ensureSession(ctx context.Context, token, firstMessage string) (string, error) {
	if id := c.store.ActiveSession(); id != "" {
		return id, nil
	}

	input := domain.SessionCreate{
		ModelID:  c.modelID,
		Title:    deriveTitle(firstMessage),
		PromptID: c.promptID,
	}

	var session domain.ChatSession
	if err := c.doJSON(ctx, http.MethodPost, "/chat/sessions", token, input, &session); err != nil {
		return "", err
	}

	c.store.SetActiveSession(session.ID)

	// The conversation list refresh is cosmetic; it must not delay the
	// message send.
	go c.refreshSessions(token)

	return session.ID, nil
}

func (c *Client) refreshSessions(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := c.RefreshSessions(ctx, token); err != nil {
		log.Debug().Err(err).Msg("Conversation list refresh failed")
	}
}

// RefreshSessions reloads the conversation list from the gateway
func (c *Client) RefreshSessions(ctx context.Context, token string) error {
	var list domain.SessionList
	if err := c.doJSON(ctx, http.MethodGet, "/chat/sessions?limit=50&offset=0", token, nil, &list); err != nil {
		return err
	}

	c.mu.Lock()
	c.sessions = list.Sessions
	c.mu.Unlock()
	return nil
}

// SwitchSession makes another conversation active and replaces the
// local transcript with the backend-persisted history. The richer
// message list with tool-call pairs is preferred when present.
func (c *Client) SwitchSession(ctx context.Context, id string) error {
	if !c.beginSend() {
		return ErrSendInFlight
	}
	defer c.endSend()

	token := c.store.Token()

	var detail domain.SessionDetail
	if err := c.doJSON(ctx, http.MethodGet, "/chat/sessions/"+url.PathEscape(id), token, nil, &detail); err != nil {
		return err
	}

	history := detail.Messages
	if len(detail.RealMessages) > 0 {
		history = detail.RealMessages
	}

	c.store.SetActiveSession(id)

	c.mu.Lock()
	c.messages = history
	c.openIdx = -1
	c.stage = StageIdle
	c.flushLocked()
	c.mu.Unlock()
	return nil
}

// NewConversation discards the local transcript and clears the active
// identifier; the next send will create a fresh session.
func (c *Client) NewConversation() {
	c.store.SetActiveSession("")

	c.mu.Lock()
	c.messages = nil
	c.openIdx = -1
	c.stage = StageIdle
	c.flushLocked()
	c.mu.Unlock()
}
