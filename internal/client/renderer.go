// Package client is the Go consumer of the gateway's chat stream. It
// reduces the normalized event stream into transcript state and manages
// the conversation lifecycle against the gateway's session API.
package client

import (
	"github.com/avelsk/tutor-gateway/internal/domain"
)

// Stage is the client-local loading state machine. It is ephemeral and
// reset at the start of every send.
type Stage string

const (
	StageIdle      Stage = "idle"
	StageAnalyzing Stage = "analyzing"
	StageSearching Stage = "searching"
	StageFound     Stage = "found"
	StageStreaming Stage = "streaming"
	StageError     Stage = "error"
)

// SearchState describes the retrieval search of the current send, so a
// UI can show the active query while searching and "found N sources in
// T seconds" once the search completes. The zero value means no search
// has been reported yet.
type SearchState struct {
	Query          string
	ResultsCount   int
	ProcessingTime float64
	Completed      bool
}

// Renderer receives transcript state after every applied event. Flush
// must make the update visible before returning: the consumer does not
// read the next chunk until Flush returns, trading throughput for
// visible text growth that tracks network delivery.
type Renderer interface {
	Flush(messages []domain.Message, stage Stage, search SearchState)
}

// NopRenderer discards updates
type NopRenderer struct{}

// Flush implements Renderer
func (NopRenderer) Flush([]domain.Message, Stage, SearchState) {}
