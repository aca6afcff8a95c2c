package step

import (
	"github.com/hupe1980/actormesh/core"
	"github.com/hupe1980/actormesh/workflow"
)

// WorkflowCall composes workflows: it starts a child workflow actor with a
// derived run id and completes once the child's terminal event arrives back
// upward. The derived run id carries the (parent run, step) correlation so
// concurrent parent runs never cross wires.
//
// The target child is the actor behind the step's target role when one is
// declared; otherwise the start event is broadcast down to all children.
type WorkflowCall struct {
	baseModule

	deps    workflow.ModuleDeps
	opts    Options
	pending *pendingSet
}

// NewWorkflowCall constructs the workflow_call step module.
func NewWorkflowCall(deps workflow.ModuleDeps, opts Options) *WorkflowCall {
	return &WorkflowCall{
		baseModule: baseModule{name: TypeWorkflowCall, priority: stepPriority},
		deps:       deps,
		opts:       opts,
		pending:    newPendingSet(),
	}
}

// CanHandle implements core.EventModule.
func (m *WorkflowCall) CanHandle(env core.Envelope) bool {
	if _, ok := requestOfType(env, TypeWorkflowCall); ok {
		return true
	}
	_, ok := env.Payload.(workflow.WorkflowCompletedPayload)
	return ok
}

// Handle implements core.EventModule.
func (m *WorkflowCall) Handle(hctx *core.HandlerContext, env core.Envelope) error {
	if req, ok := requestOfType(env, TypeWorkflowCall); ok {
		return m.request(hctx, req)
	}
	if p, ok := env.Payload.(workflow.WorkflowCompletedPayload); ok {
		return m.completed(hctx, p)
	}
	return nil
}

func (m *WorkflowCall) request(hctx *core.HandlerContext, req workflow.StepRequestPayload) error {
	childRunID := correlationID(req.RunID, req.StepID)
	start := workflow.StartWorkflowPayload{RunID: childRunID, Input: req.Input}

	m.pending.add(childRunID, &pending{runID: req.RunID, stepID: req.StepID}, m.opts.PendingTimeout, func(p *pending) {
		_ = failStep(hctx, p.runID, p.stepID, "timeout waiting for sub-workflow")
	})

	if req.TargetRole != "" && m.deps.Roles != nil {
		if workerID, ok := m.deps.Roles(req.TargetRole); ok {
			return hctx.SendTo(workerID, start)
		}
	}

	return hctx.Publish(start, core.DirectionDown)
}

func (m *WorkflowCall) completed(hctx *core.HandlerContext, p workflow.WorkflowCompletedPayload) error {
	entry, ok := m.pending.take(p.RunID)
	if !ok {
		return nil
	}
	if !p.Success {
		errText := p.Error
		if errText == "" {
			errText = "sub-workflow failed"
		}
		return failStep(hctx, entry.runID, entry.stepID, errText)
	}
	return completeStep(hctx, entry.runID, entry.stepID, p.Output, nil)
}
