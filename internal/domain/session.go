package domain

import (
	"time"
)

// SessionStatus represents the lifecycle state of a chat session
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// ChatSession represents a conversation thread owned by the tutor backend.
// The identifier is backend-assigned and opaque to this service.
type ChatSession struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	ModelID      string        `json:"model_id"`
	PromptID     string        `json:"prompt_id,omitempty"`
	Status       SessionStatus `json:"status"`
	MessageCount int           `json:"message_count"`
	CreatedAt    time.Time     `json:"created_at"`
}

// SessionCreate contains parameters for creating a new session
type SessionCreate struct {
	ModelID  string `json:"model_id" validate:"required"`
	Title    string `json:"title" validate:"required,max=255"`
	PromptID string `json:"prompt_id,omitempty"`
}

// SessionUpdate contains updatable session fields
type SessionUpdate struct {
	Title  string        `json:"title,omitempty"`
	Status SessionStatus `json:"status,omitempty"`
}

// SessionList is the backend's paginated session listing
type SessionList struct {
	Sessions []ChatSession `json:"sessions"`
	Total    int           `json:"total"`
}

// SessionDetail includes the session record plus its message history.
// Messages is the simplified transcript; RealMessages carries the full
// tool-call/tool-result pairs for clients that render tool activity.
type SessionDetail struct {
	ChatSession
	Messages     []Message `json:"messages"`
	RealMessages []Message `json:"real_messages,omitempty"`
}
