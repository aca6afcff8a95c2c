package step

import (
	"strings"

	"github.com/hupe1980/actormesh/core"
	"github.com/hupe1980/actormesh/workflow"
)

// Conditional routes a run by testing the step input for a keyword. The
// result of the test is reported as the completion's branch metadata
// ("true"/"false") so the orchestrator can follow the step's declared
// branches; the input passes through unchanged as the output.
//
// Parameters:
//   - condition (alias keyword): substring tested case-insensitively
//     (required)
type Conditional struct {
	baseModule

	deps workflow.ModuleDeps
}

// NewConditional constructs the conditional step module.
func NewConditional(deps workflow.ModuleDeps) *Conditional {
	return &Conditional{
		baseModule: baseModule{name: TypeConditional, priority: stepPriority},
		deps:       deps,
	}
}

// CanHandle implements core.EventModule.
func (m *Conditional) CanHandle(env core.Envelope) bool {
	_, ok := requestOfType(env, TypeConditional)
	return ok
}

// Handle implements core.EventModule.
func (m *Conditional) Handle(hctx *core.HandlerContext, env core.Envelope) error {
	req, ok := requestOfType(env, TypeConditional)
	if !ok {
		return nil
	}

	keyword := paramString(req.Parameters, "condition", "")
	if keyword == "" {
		keyword = paramString(req.Parameters, "keyword", "")
	}
	if keyword == "" {
		return failStep(hctx, req.RunID, req.StepID, "conditional step requires a condition parameter")
	}

	branch := "false"
	if strings.Contains(strings.ToLower(req.Input), strings.ToLower(keyword)) {
		branch = "true"
	}

	return completeStep(hctx, req.RunID, req.StepID, req.Input, map[string]string{workflow.MetaBranch: branch})
}
