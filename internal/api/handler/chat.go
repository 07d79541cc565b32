package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/avelsk/tutor-gateway/internal/api/middleware"
	"github.com/avelsk/tutor-gateway/internal/api/response"
	"github.com/avelsk/tutor-gateway/internal/backend"
	"github.com/avelsk/tutor-gateway/internal/domain"
	"github.com/avelsk/tutor-gateway/internal/sse"
	"github.com/avelsk/tutor-gateway/internal/stream"
	"github.com/rs/zerolog/log"
)

// SessionInvalidator drops cached session state after a chat stream
// ends, so the next history read sees the new messages.
type SessionInvalidator interface {
	Invalidate(ctx context.Context, sessionID string)
}

// ChatHandler relays chat messages to the tutor backend and streams the
// normalized events back to the caller.
type ChatHandler struct {
	backend  *backend.Client
	sessions SessionInvalidator
}

// NewChatHandler creates a new chat handler
func NewChatHandler(client *backend.Client, sessions SessionInvalidator) *ChatHandler {
	return &ChatHandler{backend: client, sessions: sessions}
}

// Stream handles POST /chat. It resolves the newest user message from
// whichever body shape the caller used, requires a pre-existing session
// identifier, forwards the message to the backend's per-session message
// endpoint, and re-frames the backend SSE stream for the caller. A
// conversation is never created here; the caller must create the
// session first.
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.GetToken(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	message, ok := domain.ResolveUserMessage(req)
	if !ok {
		response.BadRequest(w, "no user message found")
		return
	}

	sessionID := resolveSessionID(req, r)
	if sessionID == "" {
		response.BadRequest(w, "missing session ID")
		return
	}

	resp, err := h.backend.StreamMessage(r.Context(), token, sessionID, message)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("Backend stream request failed")
		response.Error(w, http.StatusBadGateway, "backend unavailable")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		response.PassThrough(w, resp.StatusCode, body)
		return
	}

	w.Header().Set("X-Session-Id", sessionID)
	out := sse.NewWriter(w)

	// Announce the session identifier first, for callers that only see
	// the stream.
	if err := out.Comment("session_id: " + sessionID); err != nil {
		return
	}

	h.relay(r, out, resp.Body, sessionID)
}

// relay re-frames backend events until a terminal event or stream end.
// If the backend stream is exhausted without a terminal frame, the
// relay simply ends; no terminal event is synthesized and the caller
// must treat the truncation as an implicit error.
func (h *ChatHandler) relay(r *http.Request, out *sse.Writer, body io.Reader, sessionID string) {
	// The request context is already canceled when the caller
	// disconnected mid-stream, which is exactly when the cached history
	// is stale. Invalidation must survive that.
	defer h.sessions.Invalidate(context.WithoutCancel(r.Context()), sessionID)

	parser := sse.NewParser(body)
	for {
		frame, err := parser.Next()
		if err != nil {
			if err != io.EOF {
				log.Warn().Err(err).Str("session_id", sessionID).Msg("Backend stream read failed")
			}
			return
		}

		event, ok := stream.Normalize(frame)
		if !ok {
			continue
		}

		payload, err := stream.EncodeClient(event)
		if err != nil {
			log.Error().Err(err).Msg("Failed to encode stream event")
			continue
		}
		if err := out.Raw(payload); err != nil {
			// Caller went away; the deferred invalidation still runs.
			return
		}

		if event.Terminal() {
			return
		}
	}
}

// resolveSessionID checks the body fields first, then the header
func resolveSessionID(req domain.ChatRequest, r *http.Request) string {
	if req.ThreadID != "" {
		return req.ThreadID
	}
	if req.SessionID != "" {
		return req.SessionID
	}
	return r.Header.Get("X-Session-Id")
}

// passBackendError relays backend status errors verbatim and maps
// everything else to a 502.
func passBackendError(w http.ResponseWriter, err error) {
	var statusErr *backend.StatusError
	if errors.As(err, &statusErr) {
		response.PassThrough(w, statusErr.Code, statusErr.Body)
		return
	}
	response.Error(w, http.StatusBadGateway, "backend unavailable")
}
