package workflow

import (
	"github.com/hupe1980/actormesh/agent"
	"github.com/hupe1980/actormesh/core"
	"github.com/hupe1980/actormesh/logging"
	"github.com/hupe1980/actormesh/model"
)

// RoleAgent is the worker behind one declared role. It answers chat requests
// with a single provider call and reports the result upward to its parent
// workflow actor.
type RoleAgent struct {
	agent.BaseAgent

	role     RoleDefinition
	provider model.Provider
	logger   logging.Logger
}

// NewRoleAgent constructs a worker agent for the given role.
func NewRoleAgent(name string, role RoleDefinition, provider model.Provider, logger logging.Logger) *RoleAgent {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	a := &RoleAgent{
		BaseAgent: agent.NewBaseAgent(name),
		role:      role,
		provider:  provider,
		logger:    logger,
	}

	a.On("chat", core.KindChatRequest, a.handleChat)

	return a
}

// Role returns the definition this worker executes.
func (a *RoleAgent) Role() RoleDefinition {
	return a.role
}

func (a *RoleAgent) handleChat(hctx *core.HandlerContext, env core.Envelope) error {
	req, ok := env.Payload.(core.ChatRequestPayload)
	if !ok {
		return nil
	}

	system := req.System
	if system == "" {
		system = a.role.SystemPrompt
	}

	resp := core.ChatResponsePayload{
		SessionID: req.SessionID,
		Final:     true,
		WorkerID:  hctx.ActorID,
	}

	result, err := a.provider.Chat(hctx.Context, &model.Request{
		System: system,
		Messages: []model.Message{
			{Role: model.RoleUser, Text: req.Prompt},
		},
	})
	if err != nil {
		a.logger.Error("provider call failed", "role", a.role.ID, "session_id", req.SessionID, "error", err)
		resp.Error = err.Error()
	} else {
		resp.Text = result.Text
	}

	return hctx.Publish(resp, core.DirectionUp)
}
