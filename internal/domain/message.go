package domain

import (
	"encoding/json"
	"time"
)

// MessageRole represents the sender of a message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
	RoleTool      MessageRole = "tool"
)

// RAGSource is a single retrieved document chunk cited by the assistant.
// Multiple sources may reference the same document with different pages;
// no deduplication is performed.
type RAGSource struct {
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	Page       int     `json:"page"`
	Similarity float64 `json:"similarity"`
	ChunkIndex *int    `json:"chunk_index,omitempty"`
}

// ToolCall describes a tool invocation made by the assistant mid-answer
type ToolCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	Result    string          `json:"result,omitempty"`
}

// RefinedPrompt records a backend rewrite of the user's question
type RefinedPrompt struct {
	Original string `json:"original"`
	Refined  string `json:"refined"`
}

// Message represents one entry in a conversation transcript. Assistant
// content grows incrementally while a stream is open; all prior messages
// are immutable once a stream completes or errors.
type Message struct {
	ID            string         `json:"id"`
	Role          MessageRole    `json:"role"`
	Content       string         `json:"content"`
	CreatedAt     time.Time      `json:"created_at,omitempty"`
	Sources       []RAGSource    `json:"sources,omitempty"`
	RAGSearched   bool           `json:"rag_searched,omitempty"`
	ToolCalls     []ToolCall     `json:"tool_calls,omitempty"`
	RefinedPrompt *RefinedPrompt `json:"refined_prompt,omitempty"`
	IsError       bool           `json:"is_error,omitempty"`
}

// MessagePart is one segment of a structured message body
type MessagePart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// IncomingMessage is a message as submitted by a caller. Content is kept
// raw because callers have historically sent it as a plain string or as
// an array of typed parts.
type IncomingMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content,omitempty"`
	Parts   []MessagePart   `json:"parts,omitempty"`
}

// ChatRequest is the transport proxy's inbound body. ThreadID and
// SessionID are interchangeable; the X-Session-Id header is a further
// fallback handled by the proxy.
type ChatRequest struct {
	Messages  []IncomingMessage `json:"messages,omitempty"`
	Message   string            `json:"message,omitempty"`
	ThreadID  string            `json:"threadId,omitempty"`
	SessionID string            `json:"sessionId,omitempty"`
}

// messageShape extracts text from one historical message encoding,
// returning false when the message is not in that shape.
type messageShape func(IncomingMessage) (string, bool)

// Tried in order, first match wins.
var messageShapes = []messageShape{
	textFromParts,
	textFromString,
	textFromPartArray,
}

func textFromParts(m IncomingMessage) (string, bool) {
	for _, p := range m.Parts {
		if p.Type == "text" && p.Text != "" {
			return p.Text, true
		}
	}
	return "", false
}

func textFromString(m IncomingMessage) (string, bool) {
	if len(m.Content) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(m.Content, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}

func textFromPartArray(m IncomingMessage) (string, bool) {
	if len(m.Content) == 0 {
		return "", false
	}
	var parts []MessagePart
	if err := json.Unmarshal(m.Content, &parts); err != nil {
		return "", false
	}
	for _, p := range parts {
		if p.Type == "text" && p.Text != "" {
			return p.Text, true
		}
	}
	return "", false
}

// ResolveUserMessage returns the most recent user-authored text from a
// chat request, whichever input shape was supplied.
func ResolveUserMessage(req ChatRequest) (string, bool) {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		m := req.Messages[i]
		if m.Role != string(RoleUser) {
			continue
		}
		for _, shape := range messageShapes {
			if text, ok := shape(m); ok {
				return text, true
			}
		}
	}
	if req.Message != "" {
		return req.Message, true
	}
	return "", false
}
