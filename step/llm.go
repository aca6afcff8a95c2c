package step

import (
	"github.com/hupe1980/actormesh/core"
	"github.com/hupe1980/actormesh/workflow"
)

// LLMCall executes a step by sending a chat request to the step's role
// worker and completing with the worker's response. The session id carries
// the (run, step) correlation across the request/response pair. A step
// naming no role falls back to the definition's single role; when none
// exists the request is published Self so a locally installed chat handler
// can serve it.
//
// Parameters:
//   - prompt: overrides the step input as the user prompt
//   - system: overrides the role's system prompt
type LLMCall struct {
	baseModule

	deps    workflow.ModuleDeps
	opts    Options
	pending *pendingSet
}

// NewLLMCall constructs the llm_call step module.
func NewLLMCall(deps workflow.ModuleDeps, opts Options) *LLMCall {
	return &LLMCall{
		baseModule: baseModule{name: TypeLLMCall, priority: stepPriority},
		deps:       deps,
		opts:       opts,
		pending:    newPendingSet(),
	}
}

// CanHandle implements core.EventModule.
func (m *LLMCall) CanHandle(env core.Envelope) bool {
	if _, ok := requestOfType(env, TypeLLMCall); ok {
		return true
	}
	_, ok := env.Payload.(core.ChatResponsePayload)
	return ok
}

// Handle implements core.EventModule.
func (m *LLMCall) Handle(hctx *core.HandlerContext, env core.Envelope) error {
	if req, ok := requestOfType(env, TypeLLMCall); ok {
		return m.request(hctx, req)
	}
	if resp, ok := env.Payload.(core.ChatResponsePayload); ok {
		return m.response(hctx, resp)
	}
	return nil
}

func (m *LLMCall) request(hctx *core.HandlerContext, req workflow.StepRequestPayload) error {
	workerID, ok := m.resolveWorker(req.TargetRole)
	if !ok && req.TargetRole != "" {
		return failStep(hctx, req.RunID, req.StepID, "no role worker for step")
	}

	sessionID := correlationID(req.RunID, req.StepID)
	chat := core.ChatRequestPayload{
		SessionID: sessionID,
		System:    paramString(req.Parameters, "system", ""),
		Prompt:    paramString(req.Parameters, "prompt", req.Input),
	}

	m.pending.add(sessionID, &pending{runID: req.RunID, stepID: req.StepID}, m.opts.PendingTimeout, func(p *pending) {
		_ = failStep(hctx, p.runID, p.stepID, "timeout waiting for chat response")
	})

	if !ok {
		return hctx.Publish(chat, core.DirectionSelf)
	}
	return hctx.SendTo(workerID, chat)
}

func (m *LLMCall) response(hctx *core.HandlerContext, resp core.ChatResponsePayload) error {
	if !resp.Final {
		return nil
	}
	p, ok := m.pending.take(resp.SessionID)
	if !ok {
		return nil
	}
	if resp.Error != "" {
		return failStep(hctx, p.runID, p.stepID, resp.Error)
	}
	return completeStep(hctx, p.runID, p.stepID, resp.Text, nil)
}

// resolveWorker picks the worker actor for the requested role. A step naming
// no role falls back to the definition's single role, if there is one.
func (m *LLMCall) resolveWorker(targetRole string) (string, bool) {
	if m.deps.Roles == nil {
		return "", false
	}
	if targetRole != "" {
		return m.deps.Roles(targetRole)
	}
	if m.deps.Definition != nil && len(m.deps.Definition.Roles) == 1 {
		return m.deps.Roles(m.deps.Definition.Roles[0].ID)
	}
	return "", false
}
