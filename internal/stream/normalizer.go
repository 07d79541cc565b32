// Package stream maps the tutor backend's wire events onto a single
// discriminated event type, independent of which historical wire format
// produced them.
package stream

import (
	"encoding/json"

	"github.com/avelsk/tutor-gateway/internal/domain"
	"github.com/avelsk/tutor-gateway/internal/sse"
	"github.com/rs/zerolog/log"
)

// SearchStatus is the phase of a retrieval search
type SearchStatus string

const (
	SearchSearching SearchStatus = "searching"
	SearchCompleted SearchStatus = "completed"
)

// Event is the normalized stream event. The concrete types below are the
// only implementations; consumers switch exhaustively over them at a
// single point.
type Event interface {
	// Terminal reports whether no further events for the request are
	// meaningful after this one.
	Terminal() bool
}

// Chunk is a streaming fragment of assistant text
type Chunk struct {
	Content string
}

// SearchUpdate reports retrieval search progress
type SearchUpdate struct {
	Status         SearchStatus
	Query          string
	ResultsCount   int
	ProcessingTime float64
}

// Completion ends a stream successfully. Content, when non-empty,
// replaces the accumulated text; Sources carries every retrieved chunk
// without deduplication.
type Completion struct {
	Content string
	Sources []domain.RAGSource
}

// Failure ends a stream with a backend-reported error
type Failure struct {
	Message string
}

func (Chunk) Terminal() bool        { return false }
func (SearchUpdate) Terminal() bool { return false }
func (Completion) Terminal() bool   { return true }
func (Failure) Terminal() bool      { return true }

// wireEvent covers every shape the backend and the gateway have ever
// put on the wire. Named SSE events carry the type out of band; data-only
// frames carry it in the payload.
type wireEvent struct {
	Type           string       `json:"type"`
	Content        string       `json:"content"`
	TextDelta      string       `json:"textDelta"`
	Delta          string       `json:"delta"`
	FinishReason   string       `json:"finishReason"`
	Status         SearchStatus `json:"status"`
	Query          string       `json:"query"`
	ResultsCount   int          `json:"results_count"`
	ProcessingTime float64      `json:"processing_time"`
	Sources        []wireSource `json:"sources"`
	Error          string       `json:"error"`
	Message        string       `json:"message"`
}

// wireSource accepts both historical key sets for citations
type wireSource struct {
	DocumentID   string  `json:"document_id"`
	Filename     string  `json:"filename"`
	DocumentName string  `json:"document_name"`
	Page         int     `json:"page"`
	PageNumber   int     `json:"page_number"`
	Similarity   float64 `json:"similarity"`
	Score        float64 `json:"score"`
	ChunkIndex   *int    `json:"chunk_index"`
}

func (s wireSource) normalize() domain.RAGSource {
	src := domain.RAGSource{
		DocumentID: s.DocumentID,
		Filename:   s.Filename,
		Page:       s.Page,
		Similarity: s.Similarity,
		ChunkIndex: s.ChunkIndex,
	}
	if src.Filename == "" {
		src.Filename = s.DocumentName
	}
	if src.Page == 0 {
		src.Page = s.PageNumber
	}
	if src.Similarity == 0 {
		src.Similarity = s.Score
	}
	return src
}

// Normalize maps one SSE frame to a normalized event. It returns false
// for frames that carry nothing for the UI: comments, the user_message
// echo, unknown event types, and malformed payloads. A malformed frame
// is logged and dropped so a single bad frame cannot abort an otherwise
// healthy stream. Normalize never mutates state and never panics past
// this boundary.
func Normalize(f sse.Frame) (Event, bool) {
	if f.IsComment() {
		return nil, false
	}

	var w wireEvent
	if err := json.Unmarshal(f.Data, &w); err != nil {
		log.Debug().Err(err).Str("event", f.Event).Msg("Dropping malformed stream frame")
		return nil, false
	}

	kind := f.Event
	if kind == "" {
		kind = w.Type
	}

	switch kind {
	case "chunk":
		if w.Content == "" {
			return nil, false
		}
		return Chunk{Content: w.Content}, true
	case "text-delta", "textDelta":
		delta := w.TextDelta
		if delta == "" {
			delta = w.Delta
		}
		if delta == "" {
			return nil, false
		}
		return Chunk{Content: delta}, true
	case "rag_search", "rag-search":
		return SearchUpdate{
			Status:         w.Status,
			Query:          w.Query,
			ResultsCount:   w.ResultsCount,
			ProcessingTime: w.ProcessingTime,
		}, true
	case "done", "finish":
		done := Completion{Content: w.Content}
		for _, s := range w.Sources {
			done.Sources = append(done.Sources, s.normalize())
		}
		return done, true
	case "error":
		msg := w.Error
		if msg == "" {
			msg = w.Message
		}
		if msg == "" {
			msg = "stream failed"
		}
		return Failure{Message: msg}, true
	case "user_message":
		// Echo of the caller's own message, never forwarded.
		return nil, false
	default:
		log.Debug().Str("event", kind).Msg("Dropping unknown stream event type")
		return nil, false
	}
}
