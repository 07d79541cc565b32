package client_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/avelsk/tutor-gateway/internal/client"
	"github.com/avelsk/tutor-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_CreatesSessionOnceBeforeMessage(t *testing.T) {
	b := &testBackend{script: []string{
		"event: chunk\ndata: {\"content\":\"ok\"}\n\n",
	}}
	c := newStack(t, b, client.Options{})

	require.Empty(t, c.Store().ActiveSession())
	require.NoError(t, c.Send(context.Background(), "first question"))

	assert.EqualValues(t, 1, b.createCalls.Load())
	assert.EqualValues(t, 1, b.messageCalls.Load())
	assert.Equal(t, "sess-1", c.Store().ActiveSession())

	// Creation must complete before the message dispatch. The async
	// list refresh may interleave anywhere, so only relative order of
	// create and message matters.
	createIdx, messageIdx := -1, -1
	for i, ep := range b.hits() {
		switch ep {
		case "create":
			createIdx = i
		case "message":
			messageIdx = i
		}
	}
	require.GreaterOrEqual(t, createIdx, 0)
	require.GreaterOrEqual(t, messageIdx, 0)
	assert.Less(t, createIdx, messageIdx)
}

func TestSend_CreationFailureAbortsSend(t *testing.T) {
	b := &testBackend{failCreate: true}
	c := newStack(t, b, client.Options{})

	err := c.Send(context.Background(), "first question")
	require.Error(t, err)

	// The message is never transmitted.
	assert.EqualValues(t, 0, b.messageCalls.Load())
	assert.Empty(t, c.Store().ActiveSession())

	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.RoleAssistant, msgs[0].Role)
	assert.True(t, msgs[0].IsError)
	assert.Contains(t, msgs[0].Content, "Failed to create conversation")
	assert.Equal(t, client.StageError, c.Stage())
}

func TestSend_ReusesExistingSession(t *testing.T) {
	b := &testBackend{script: []string{
		"event: chunk\ndata: {\"content\":\"ok\"}\n\n",
	}}
	c := newStack(t, b, client.Options{})

	require.NoError(t, c.Send(context.Background(), "first"))
	require.NoError(t, c.Send(context.Background(), "second"))

	assert.EqualValues(t, 1, b.createCalls.Load())
	assert.EqualValues(t, 2, b.messageCalls.Load())
}

func TestSend_DerivedTitleIsTruncated(t *testing.T) {
	b := &testBackend{script: []string{
		"event: chunk\ndata: {\"content\":\"ok\"}\n\n",
	}}
	c := newStack(t, b, client.Options{})

	long := strings.Repeat("ü", 80)
	require.NoError(t, c.Send(context.Background(), long))

	title, _ := b.lastTitle.Load().(string)
	assert.Equal(t, strings.Repeat("ü", 50)+"...", title)
}

func TestSwitchSession_PrefersPersistedRealMessages(t *testing.T) {
	display := []domain.Message{{ID: "m1", Role: domain.RoleUser, Content: "hi"}}
	real := []domain.Message{
		{ID: "m1", Role: domain.RoleUser, Content: "hi"},
		{ID: "m2", Role: domain.RoleAssistant, Content: "hello"},
		{ID: "m3", Role: domain.RoleTool, Content: "search(hi)"},
	}
	b := &testBackend{detail: &domain.SessionDetail{
		ChatSession:  domain.ChatSession{ID: "sess-9", Title: "old"},
		Messages:     display,
		RealMessages: real,
	}}
	c := newStack(t, b, client.Options{})

	require.NoError(t, c.SwitchSession(context.Background(), "sess-9"))

	assert.Equal(t, "sess-9", c.Store().ActiveSession())
	msgs := c.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "search(hi)", msgs[2].Content)
	assert.Equal(t, client.StageIdle, c.Stage())
}

func TestNewConversation_ClearsTranscriptAndSession(t *testing.T) {
	b := &testBackend{script: []string{
		"event: chunk\ndata: {\"content\":\"ok\"}\n\n",
	}}
	c := newStack(t, b, client.Options{})

	require.NoError(t, c.Send(context.Background(), "hello"))
	require.NotEmpty(t, c.Messages())

	c.NewConversation()

	assert.Empty(t, c.Messages())
	assert.Empty(t, c.Store().ActiveSession())
	assert.Equal(t, client.StageIdle, c.Stage())
}

func TestRefreshSessions_PopulatesList(t *testing.T) {
	b := &testBackend{}
	c := newStack(t, b, client.Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.RefreshSessions(ctx, "test-token"))

	sessions := c.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, "sess-1", sessions[0].ID)
}
