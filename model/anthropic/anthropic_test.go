package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hupe1980/campaignmesh/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModel_Generate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-sonnet-20241022",
			"content": [{"type": "text", "text": "campaign ready"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 4, "output_tokens": 2}
		}`))
	}))
	defer srv.Close()

	m := NewModel(func(o *Options) {
		o.APIKey = "test-key"
		o.BaseURL = srv.URL + "/"
	})

	req := model.NewPrompt("plan it", 0.8)
	req.Instructions = "you are a strategist"
	out, err := model.Complete(context.Background(), m, req)
	require.NoError(t, err)
	assert.Equal(t, "campaign ready", out)

	assert.InDelta(t, 0.8, body["temperature"], 1e-9)
	system := body["system"].([]any)
	require.Len(t, system, 1)
	assert.Equal(t, "you are a strategist", system[0].(map[string]any)["text"])
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].(map[string]any)["role"])
}

func TestModel_Info(t *testing.T) {
	m := NewModel(func(o *Options) { o.APIKey = "k" })
	info := m.Info()
	assert.Equal(t, "anthropic", info.Provider)
	assert.NotEmpty(t, info.Name)
}
