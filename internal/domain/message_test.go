package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveUserMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
		ok   bool
	}{
		{
			name: "parts shape",
			body: `{"messages":[{"role":"user","parts":[{"type":"text","text":"from parts"}]}]}`,
			want: "from parts",
			ok:   true,
		},
		{
			name: "string content shape",
			body: `{"messages":[{"role":"user","content":"plain string"}]}`,
			want: "plain string",
			ok:   true,
		},
		{
			name: "part array content shape",
			body: `{"messages":[{"role":"user","content":[{"type":"text","text":"from array"}]}]}`,
			want: "from array",
			ok:   true,
		},
		{
			name: "bare message field",
			body: `{"message":"hello"}`,
			want: "hello",
			ok:   true,
		},
		{
			name: "most recent user message wins",
			body: `{"messages":[
				{"role":"user","content":"first"},
				{"role":"assistant","content":"reply"},
				{"role":"user","content":"second"}
			]}`,
			want: "second",
			ok:   true,
		},
		{
			name: "assistant only",
			body: `{"messages":[{"role":"assistant","content":"reply"}]}`,
			ok:   false,
		},
		{
			name: "empty request",
			body: `{}`,
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req ChatRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))

			got, ok := ResolveUserMessage(req)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

// Shape detectors are tried in order; parts win over content when both
// are present.
func TestResolveUserMessage_ShapePriority(t *testing.T) {
	body := `{"messages":[{
		"role":"user",
		"parts":[{"type":"text","text":"from parts"}],
		"content":"from content"
	}]}`

	var req ChatRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	got, ok := ResolveUserMessage(req)
	require.True(t, ok)
	assert.Equal(t, "from parts", got)
}
