package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/avelsk/tutor-gateway/internal/api/middleware"
	"github.com/avelsk/tutor-gateway/internal/api/response"
	"github.com/avelsk/tutor-gateway/internal/domain"
	"github.com/avelsk/tutor-gateway/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// SessionHandler proxies session management to the tutor backend
type SessionHandler struct {
	sessions *service.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Create creates a new session
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.GetToken(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req domain.SessionCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	session, err := h.sessions.Create(r.Context(), token, req)
	if err != nil {
		passBackendError(w, err)
		return
	}

	response.Created(w, session)
}

// List returns the caller's sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.GetToken(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	limit := 20
	offset := 0

	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}

	list, err := h.sessions.List(r.Context(), token, limit, offset)
	if err != nil {
		passBackendError(w, err)
		return
	}

	response.OK(w, list)
}

// Get returns one session including its message history
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.GetToken(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		response.BadRequest(w, "missing session ID")
		return
	}

	detail, err := h.sessions.Get(r.Context(), token, sessionID)
	if err != nil {
		passBackendError(w, err)
		return
	}

	response.OK(w, detail)
}

// Update updates a session's title or status
func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.GetToken(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		response.BadRequest(w, "missing session ID")
		return
	}

	var req domain.SessionUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	session, err := h.sessions.Update(r.Context(), token, sessionID, req)
	if err != nil {
		passBackendError(w, err)
		return
	}

	response.OK(w, session)
}

// Delete deletes a session
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.GetToken(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		response.BadRequest(w, "missing session ID")
		return
	}

	if err := h.sessions.Delete(r.Context(), token, sessionID); err != nil {
		passBackendError(w, err)
		return
	}

	response.OK(w, map[string]string{"message": "Session deleted"})
}
