package step

import (
	"github.com/hupe1980/actormesh/core"
	"github.com/hupe1980/actormesh/workflow"
)

// ToolCall executes a step by invoking a registered tool through the agent's
// tool module and completing with the tool's result.
//
// Parameters:
//   - tool: name of the registered tool (required)
//   - arguments: argument map passed to the tool; the step input is added
//     under "input" when the map does not set it
type ToolCall struct {
	baseModule

	deps    workflow.ModuleDeps
	opts    Options
	pending *pendingSet
}

// NewToolCall constructs the tool_call step module.
func NewToolCall(deps workflow.ModuleDeps, opts Options) *ToolCall {
	return &ToolCall{
		baseModule: baseModule{name: TypeToolCall, priority: stepPriority},
		deps:       deps,
		opts:       opts,
		pending:    newPendingSet(),
	}
}

// CanHandle implements core.EventModule.
func (m *ToolCall) CanHandle(env core.Envelope) bool {
	if _, ok := requestOfType(env, TypeToolCall); ok {
		return true
	}
	_, ok := env.Payload.(core.ToolResultPayload)
	return ok
}

// Handle implements core.EventModule.
func (m *ToolCall) Handle(hctx *core.HandlerContext, env core.Envelope) error {
	if req, ok := requestOfType(env, TypeToolCall); ok {
		return m.request(hctx, req)
	}
	if res, ok := env.Payload.(core.ToolResultPayload); ok {
		return m.result(hctx, res)
	}
	return nil
}

func (m *ToolCall) request(hctx *core.HandlerContext, req workflow.StepRequestPayload) error {
	name := paramString(req.Parameters, "tool", "")
	if name == "" {
		return failStep(hctx, req.RunID, req.StepID, "tool_call step requires a tool parameter")
	}

	args := map[string]any{}
	if raw, ok := req.Parameters["arguments"].(map[string]any); ok {
		for k, v := range raw {
			args[k] = v
		}
	}
	if _, ok := args["input"]; !ok {
		args["input"] = req.Input
	}

	callID := correlationID(req.RunID, req.StepID)
	m.pending.add(callID, &pending{runID: req.RunID, stepID: req.StepID}, m.opts.PendingTimeout, func(p *pending) {
		_ = failStep(hctx, p.runID, p.stepID, "timeout waiting for tool result")
	})

	return hctx.Publish(core.ToolCallPayload{CallID: callID, Name: name, Arguments: args}, core.DirectionSelf)
}

func (m *ToolCall) result(hctx *core.HandlerContext, res core.ToolResultPayload) error {
	p, ok := m.pending.take(res.CallID)
	if !ok {
		return nil
	}
	if res.Error != "" {
		return failStep(hctx, p.runID, p.stepID, res.Error)
	}
	return completeStep(hctx, p.runID, p.stepID, res.Output, nil)
}
