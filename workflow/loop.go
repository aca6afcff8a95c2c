package workflow

import (
	"context"
	"maps"
	"strings"

	"github.com/hupe1980/actormesh/core"
)

// ModuleNameOrchestrator is the registry name of the workflow loop module.
// Installation always includes it.
const ModuleNameOrchestrator = "orchestrator"

// loopState enumerates the orchestrator's lifecycle.
type loopState int

const (
	loopIdle loopState = iota
	loopRunning
	loopCompleted
)

// Orchestrator is the workflow state machine: Idle -> Running(runId,
// currentStepId) -> Completed. A new StartWorkflow on a completed loop
// begins a fresh cycle; starting while running supersedes the active run
// (latest write wins through the run registry).
//
// The loop only ever reacts to step completions of its own run whose step id
// belongs to the compiled graph; completions of dynamically generated
// sub-steps never advance it.
type Orchestrator struct {
	def  *Definition
	runs *core.RunRegistry

	state   loopState
	runID   string
	current string
	last    string
	runCtx  context.Context
	end     func()
}

// NewOrchestrator constructs the loop module for one compiled definition.
func NewOrchestrator(def *Definition, runs *core.RunRegistry) *Orchestrator {
	return &Orchestrator{def: def, runs: runs}
}

// Name implements core.EventModule.
func (o *Orchestrator) Name() string { return ModuleNameOrchestrator }

// Priority implements core.EventModule. The loop runs before step modules
// so a freshly dispatched request is observed in order.
func (o *Orchestrator) Priority() int { return 10 }

// CanHandle implements core.EventModule.
func (o *Orchestrator) CanHandle(env core.Envelope) bool {
	if env.Payload == nil {
		return false
	}
	switch env.Payload.Kind() {
	case KindStartWorkflow, KindStepCompleted:
		return true
	default:
		return false
	}
}

// Handle implements core.EventModule.
func (o *Orchestrator) Handle(hctx *core.HandlerContext, env core.Envelope) error {
	switch p := env.Payload.(type) {
	case StartWorkflowPayload:
		return o.start(hctx, p)
	case StepCompletedPayload:
		return o.advance(hctx, p)
	default:
		return nil
	}
}

func (o *Orchestrator) start(hctx *core.HandlerContext, p StartWorkflowPayload) error {
	runID := p.RunID
	if runID == "" {
		runID = core.NewID()
	}

	if o.runs != nil {
		runCtx, cancel := o.runs.Begin(hctx.Context, hctx.ActorID)
		o.runCtx = runCtx
		o.end = cancel
	}

	entry := o.def.EntryStep()
	if entry == nil {
		o.state = loopCompleted
		o.runID = runID
		hctx.Logger().Warn("workflow started with no steps", "workflow", o.def.Name, "run_id", runID)
		return o.terminate(hctx, WorkflowCompletedPayload{RunID: runID, Success: false, Error: "no steps"})
	}

	o.state = loopRunning
	o.runID = runID
	o.last = p.Input
	hctx.Logger().Info("workflow started", "workflow", o.def.Name, "run_id", runID, "entry", entry.ID)
	return o.dispatch(hctx, entry, p.Input)
}

func (o *Orchestrator) advance(hctx *core.HandlerContext, p StepCompletedPayload) error {
	if o.state != loopRunning || p.RunID != o.runID {
		return nil
	}
	if o.runCtx != nil && o.runCtx.Err() != nil {
		// Superseded by a newer run for this scope.
		return nil
	}
	step, ok := o.def.GetStep(p.StepID)
	if !ok {
		// Internal or sub-step noise; must not advance the loop.
		return nil
	}

	if !p.Success {
		o.state = loopCompleted
		hctx.Logger().Warn("workflow failed", "workflow", o.def.Name, "run_id", o.runID, "step", p.StepID, "error", p.Error)
		return o.terminate(hctx, WorkflowCompletedPayload{RunID: o.runID, Success: false, Error: p.Error})
	}

	o.last = p.Output

	next := o.nextStep(step, p)
	if next == nil {
		o.state = loopCompleted
		hctx.Logger().Info("workflow completed", "workflow", o.def.Name, "run_id", o.runID)
		return o.terminate(hctx, WorkflowCompletedPayload{RunID: o.runID, Success: true, Output: o.last})
	}
	return o.dispatch(hctx, next, p.Output)
}

// nextStep resolves the successor: a branch selected by the completed step
// takes precedence over the explicit next pointer and positional order.
func (o *Orchestrator) nextStep(step *StepDefinition, p StepCompletedPayload) *StepDefinition {
	if len(step.Branches) > 0 {
		if key, ok := p.Metadata[MetaBranch]; ok {
			if target, declared := step.Branches[key]; declared {
				next, _ := o.def.GetStep(target)
				return next
			}
		}
	}
	return o.def.GetNextStep(step.ID)
}

// dispatch packages a step as a Self-directed request. Roles declaring a
// connector allowlist get it injected as the allowed_connectors parameter
// for downstream policy enforcement.
func (o *Orchestrator) dispatch(hctx *core.HandlerContext, step *StepDefinition, input string) error {
	o.current = step.ID

	params := map[string]any{}
	maps.Copy(params, step.Parameters)
	if step.TargetRole != "" {
		if role, ok := o.def.Role(step.TargetRole); ok && len(role.Connectors) > 0 {
			params["allowed_connectors"] = strings.Join(role.Connectors, ",")
		}
	}

	return hctx.Publish(StepRequestPayload{
		RunID:      o.runID,
		StepID:     step.ID,
		StepType:   step.Type,
		TargetRole: step.TargetRole,
		Input:      input,
		Parameters: params,
	}, core.DirectionSelf)
}

// terminate emits the single terminal event of a run: Self for local
// observers and Up so a parent workflow composing this one as a sub-workflow
// sees the completion.
func (o *Orchestrator) terminate(hctx *core.HandlerContext, p WorkflowCompletedPayload) error {
	if o.end != nil {
		o.end()
		o.end = nil
	}
	if err := hctx.Publish(p, core.DirectionSelf); err != nil {
		return err
	}
	return hctx.Publish(p, core.DirectionUp)
}
