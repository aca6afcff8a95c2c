package step

import (
	"github.com/hupe1980/actormesh/core"
	"github.com/hupe1980/actormesh/workflow"
)

// Assign binds a value to a named workflow variable in the hosting agent's
// state and completes with that value as the output.
//
// Parameters:
//   - key: variable name (required)
//   - value: literal to assign; defaults to the step input
type Assign struct {
	baseModule

	deps workflow.ModuleDeps
}

// NewAssign constructs the assign step module.
func NewAssign(deps workflow.ModuleDeps) *Assign {
	return &Assign{
		baseModule: baseModule{name: TypeAssign, priority: stepPriority},
		deps:       deps,
	}
}

// CanHandle implements core.EventModule.
func (m *Assign) CanHandle(env core.Envelope) bool {
	_, ok := requestOfType(env, TypeAssign)
	return ok
}

// Handle implements core.EventModule.
func (m *Assign) Handle(hctx *core.HandlerContext, env core.Envelope) error {
	req, ok := requestOfType(env, TypeAssign)
	if !ok {
		return nil
	}

	key := paramString(req.Parameters, "key", "")
	if key == "" {
		return failStep(hctx, req.RunID, req.StepID, "assign step requires a key parameter")
	}

	value := paramString(req.Parameters, "value", req.Input)
	hctx.SetState("var:"+key, value)

	return completeStep(hctx, req.RunID, req.StepID, value, nil)
}
