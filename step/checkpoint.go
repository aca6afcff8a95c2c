package step

import (
	"github.com/hupe1980/actormesh/core"
	"github.com/hupe1980/actormesh/workflow"
)

// Checkpoint snapshots the step input into the hosting agent's state and
// passes it through unchanged.
//
// Parameters:
//   - key: state key (default "checkpoint:<stepId>")
type Checkpoint struct {
	baseModule

	deps workflow.ModuleDeps
}

// NewCheckpoint constructs the checkpoint step module.
func NewCheckpoint(deps workflow.ModuleDeps) *Checkpoint {
	return &Checkpoint{
		baseModule: baseModule{name: TypeCheckpoint, priority: stepPriority},
		deps:       deps,
	}
}

// CanHandle implements core.EventModule.
func (m *Checkpoint) CanHandle(env core.Envelope) bool {
	_, ok := requestOfType(env, TypeCheckpoint)
	return ok
}

// Handle implements core.EventModule.
func (m *Checkpoint) Handle(hctx *core.HandlerContext, env core.Envelope) error {
	req, ok := requestOfType(env, TypeCheckpoint)
	if !ok {
		return nil
	}

	key := paramString(req.Parameters, "key", "checkpoint:"+req.StepID)
	hctx.SetState(key, req.Input)

	return completeStep(hctx, req.RunID, req.StepID, req.Input, nil)
}
