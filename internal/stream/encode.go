package stream

import (
	"encoding/json"
	"fmt"

	"github.com/avelsk/tutor-gateway/internal/domain"
)

// clientFrame is the gateway's browser-facing wire shape. Text arrives
// as text-delta frames and terminal frames are typed finish/error, which
// Normalize accepts back on the consumer side.
type clientFrame struct {
	Type           string             `json:"type"`
	TextDelta      string             `json:"textDelta,omitempty"`
	Status         SearchStatus       `json:"status,omitempty"`
	Query          string             `json:"query,omitempty"`
	ResultsCount   int                `json:"results_count,omitempty"`
	ProcessingTime float64            `json:"processing_time,omitempty"`
	FinishReason   string             `json:"finishReason,omitempty"`
	Content        string             `json:"content,omitempty"`
	Sources        []domain.RAGSource `json:"sources,omitempty"`
	Error          string             `json:"error,omitempty"`
}

// EncodeClient marshals a normalized event into the gateway's outbound
// data frame payload.
func EncodeClient(e Event) ([]byte, error) {
	var f clientFrame

	switch ev := e.(type) {
	case Chunk:
		f = clientFrame{Type: "text-delta", TextDelta: ev.Content}
	case SearchUpdate:
		f = clientFrame{
			Type:           "rag_search",
			Status:         ev.Status,
			Query:          ev.Query,
			ResultsCount:   ev.ResultsCount,
			ProcessingTime: ev.ProcessingTime,
		}
	case Completion:
		f = clientFrame{
			Type:         "finish",
			FinishReason: "stop",
			Content:      ev.Content,
			Sources:      ev.Sources,
		}
	case Failure:
		f = clientFrame{Type: "error", Error: ev.Message}
	default:
		return nil, fmt.Errorf("unknown event type %T", e)
	}

	return json.Marshal(f)
}
