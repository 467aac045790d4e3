package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplete_CannedResponse(t *testing.T) {
	m := NewMockModel("mock", "mock")
	m.AddResponse("hello", "  world  ")

	out, err := Complete(context.Background(), m, NewPrompt("hello", 0.4))
	require.NoError(t, err)
	assert.Equal(t, "world", out)

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	require.NotNil(t, reqs[0].Temperature)
	assert.Equal(t, 0.4, *reqs[0].Temperature)
}

func TestComplete_Streaming(t *testing.T) {
	m := NewMockModel("mock", "mock")
	m.AddResponse("stream", "abc")

	req := NewPrompt("stream", 0.7)
	req.Stream = true
	out, err := Complete(context.Background(), m, req)
	require.NoError(t, err)
	assert.Equal(t, "abc", out)
}

func TestComplete_DefaultAndFallback(t *testing.T) {
	m := NewMockModel("mock", "mock")
	out, err := Complete(context.Background(), m, NewPrompt("q", 0))
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: q", out)

	m.SetFallback(func(Request) (string, error) { return "", errors.New("offline") })
	_, err = Complete(context.Background(), m, NewPrompt("q", 0))
	assert.EqualError(t, err, "offline")
}

func TestComplete_NoMessages(t *testing.T) {
	m := NewMockModel("mock", "mock")
	_, err := Complete(context.Background(), m, Request{})
	assert.Error(t, err)
}

func TestRequest_LastUserText(t *testing.T) {
	r := Request{Messages: []Message{
		{Role: RoleUser, Content: "first"},
		{Role: RoleAssistant, Content: "reply"},
		{Role: RoleUser, Content: "second"},
	}}
	assert.Equal(t, "second", r.LastUserText())
	assert.Equal(t, "", Request{}.LastUserText())
}
