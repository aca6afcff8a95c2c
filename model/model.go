package model

import (
	"context"
	"fmt"
)

// Role identifies the author of a chat message.
type Role string

const (
	// RoleSystem marks instruction messages.
	RoleSystem Role = "system"
	// RoleUser marks end-user input.
	RoleUser Role = "user"
	// RoleAssistant marks prior model output.
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat transcript.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Request captures the normalized provider input produced by role workers.
type Request struct {
	System   string    `json:"system,omitempty"`
	Messages []Message `json:"messages"`
}

// TokenUsage captures token accounting for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the terminal output of one provider call.
type Response struct {
	Text         string      `json:"text"`
	FinishReason string      `json:"finish_reason,omitempty"`
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a provider implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", ...
}

// Provider is the minimal interface role workers use to drive generation.
// Vendors implement it so the rest of the mesh stays decoupled from SDKs.
type Provider interface {
	Chat(ctx context.Context, req *Request) (*Response, error)

	// Info returns information about the provider implementation.
	Info() Info
}

// MockProvider is a lightweight in-memory Provider for tests and examples.
type MockProvider struct {
	info      Info
	responses map[string]string
}

// NewMockProvider constructs a MockProvider under the given model name.
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockProvider) AddResponse(prompt, response string) { m.responses[prompt] = response }

// Chat implements Provider; echoes the canned completion for the last user
// message, or a deterministic fallback.
func (m *MockProvider) Chat(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("no messages provided")
	}

	input := req.Messages[len(req.Messages)-1].Text
	text := m.responses[input]
	if text == "" {
		text = fmt.Sprintf("Mock response to: %s", input)
	}

	return &Response{Text: text, FinishReason: "stop"}, nil
}

// Info implements Provider.
func (m *MockProvider) Info() Info { return m.info }
