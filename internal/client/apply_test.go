package client

import (
	"strings"
	"testing"

	"github.com/avelsk/tutor-gateway/internal/domain"
	"github.com/avelsk/tutor-gateway/internal/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_ReplayedCompletionIsIdempotent(t *testing.T) {
	c := New(Options{})
	c.beginTranscript("question")

	c.apply(stream.Chunk{Content: "partial"})
	c.apply(stream.Completion{
		Content: "final answer",
		Sources: []domain.RAGSource{{Filename: "a.pdf", Page: 1}},
	})

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "final answer", msgs[1].Content)

	// A replayed terminal event rewrites the same open slot instead of
	// appending a second finalized message.
	c.apply(stream.Completion{Content: "final answer"})

	msgs = c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "final answer", msgs[1].Content)
	assert.Equal(t, StageIdle, c.Stage())
}

func TestApply_CompletionWithoutContentKeepsAccumulated(t *testing.T) {
	c := New(Options{})
	c.beginTranscript("question")

	c.apply(stream.Chunk{Content: "Hi"})
	c.apply(stream.Chunk{Content: " there"})
	c.apply(stream.Completion{})

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Hi there", msgs[1].Content)
}

func TestApply_FailureKeepsPartialText(t *testing.T) {
	c := New(Options{})
	c.beginTranscript("question")

	c.apply(stream.Chunk{Content: "some text"})
	c.apply(stream.Failure{Message: "backend exploded"})

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.True(t, msgs[1].IsError)
	assert.Equal(t, "some text", msgs[1].Content)
	assert.Equal(t, StageError, c.Stage())
}

func TestApply_SearchStateResetOnNextSend(t *testing.T) {
	c := New(Options{})
	c.beginTranscript("first question")

	c.apply(stream.SearchUpdate{Status: stream.SearchSearching, Query: "osmosis"})
	c.apply(stream.SearchUpdate{Status: stream.SearchCompleted, ResultsCount: 2, ProcessingTime: 0.5})
	c.apply(stream.Completion{Content: "answer"})

	assert.True(t, c.Search().Completed)
	assert.Equal(t, 2, c.Search().ResultsCount)

	// The next transcript turn starts with a clean search state.
	c.beginTranscript("second question")
	assert.Equal(t, SearchState{}, c.Search())
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "short message passes through",
			input:    "what is osmosis?",
			expected: "what is osmosis?",
		},
		{
			name:     "surrounding whitespace trimmed",
			input:    "  hello  ",
			expected: "hello",
		},
		{
			name:     "exactly at the limit",
			input:    strings.Repeat("a", 50),
			expected: strings.Repeat("a", 50),
		},
		{
			name:     "one past the limit",
			input:    strings.Repeat("a", 51),
			expected: strings.Repeat("a", 50) + "...",
		},
		{
			name:     "multibyte runes counted as one",
			input:    strings.Repeat("é", 51),
			expected: strings.Repeat("é", 50) + "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, deriveTitle(tt.input))
		})
	}
}
