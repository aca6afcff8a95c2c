package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProvider_CannedResponse(t *testing.T) {
	p := NewMockProvider("test-model")
	p.AddResponse("ping", "pong")

	resp, err := p.Chat(context.Background(), &Request{
		Messages: []Message{{Role: RoleUser, Text: "ping"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "pong", resp.Text)
	assert.Equal(t, "stop", resp.FinishReason)
}

func TestMockProvider_DeterministicFallback(t *testing.T) {
	p := NewMockProvider("test-model")

	resp, err := p.Chat(context.Background(), &Request{
		Messages: []Message{
			{Role: RoleAssistant, Text: "earlier turn"},
			{Role: RoleUser, Text: "summarize this"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: summarize this", resp.Text, "the fallback echoes the last message")
}

func TestMockProvider_NoMessages(t *testing.T) {
	p := NewMockProvider("test-model")
	_, err := p.Chat(context.Background(), &Request{})
	assert.ErrorContains(t, err, "no messages")
}

func TestMockProvider_CanceledContext(t *testing.T) {
	p := NewMockProvider("test-model")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Chat(ctx, &Request{Messages: []Message{{Role: RoleUser, Text: "x"}}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockProvider_Info(t *testing.T) {
	p := NewMockProvider("test-model")
	info := p.Info()
	assert.Equal(t, "test-model", info.Name)
	assert.Equal(t, "mock", info.Provider)
}
