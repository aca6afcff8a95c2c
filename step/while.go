package step

import (
	"strings"
	"sync"

	"github.com/hupe1980/actormesh/core"
	"github.com/hupe1980/actormesh/workflow"
)

// While repeats a body sub-step as long as the current value contains a
// condition keyword, feeding each iteration's output into the next. The
// iteration cap guarantees termination regardless of the body's behavior.
//
// Parameters:
//   - condition: keyword tested case-insensitively against the current
//     value (required)
//   - body_step_type: sub-step type executed per iteration (default
//     transform)
//   - max_iterations: iteration cap (default 10)
type While struct {
	baseModule

	deps workflow.ModuleDeps
	opts Options

	mu    sync.Mutex
	loops map[string]*loopRun
}

type loopRun struct {
	runID   string
	stepID  string
	keyword string
	body    string
	role    string
	params  map[string]any
	iter    int
	max     int
}

// NewWhile constructs the while step module.
func NewWhile(deps workflow.ModuleDeps, opts Options) *While {
	return &While{
		baseModule: baseModule{name: TypeWhile, priority: stepPriority},
		deps:       deps,
		opts:       opts,
		loops:      make(map[string]*loopRun),
	}
}

// CanHandle implements core.EventModule.
func (m *While) CanHandle(env core.Envelope) bool {
	if _, ok := requestOfType(env, TypeWhile); ok {
		return true
	}
	p, ok := env.Payload.(workflow.StepCompletedPayload)
	if !ok {
		return false
	}
	parent, _, ok := splitSubStepID(p.StepID)
	if !ok {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, tracked := m.loops[correlationID(p.RunID, parent)]
	return tracked
}

// Handle implements core.EventModule.
func (m *While) Handle(hctx *core.HandlerContext, env core.Envelope) error {
	if req, ok := requestOfType(env, TypeWhile); ok {
		return m.start(hctx, req)
	}
	if p, ok := env.Payload.(workflow.StepCompletedPayload); ok {
		return m.iterate(hctx, p)
	}
	return nil
}

func (m *While) start(hctx *core.HandlerContext, req workflow.StepRequestPayload) error {
	keyword := paramString(req.Parameters, "condition", "")
	if keyword == "" {
		return failStep(hctx, req.RunID, req.StepID, "while step requires a condition parameter")
	}

	loop := &loopRun{
		runID:   req.RunID,
		stepID:  req.StepID,
		keyword: keyword,
		body:    paramString(req.Parameters, "body_step_type", TypeTransform),
		role:    req.TargetRole,
		params:  req.Parameters,
		max:     paramInt(req.Parameters, "max_iterations", 10),
	}

	return m.advance(hctx, loop, req.Input)
}

func (m *While) iterate(hctx *core.HandlerContext, p workflow.StepCompletedPayload) error {
	parent, _, ok := splitSubStepID(p.StepID)
	if !ok {
		return nil
	}

	key := correlationID(p.RunID, parent)
	m.mu.Lock()
	loop, tracked := m.loops[key]
	if tracked {
		delete(m.loops, key)
	}
	m.mu.Unlock()
	if !tracked {
		return nil
	}

	if !p.Success {
		return failStep(hctx, loop.runID, loop.stepID, p.Error)
	}

	return m.advance(hctx, loop, p.Output)
}

// advance runs the loop condition against the current value and either
// dispatches the next body iteration or completes the step.
func (m *While) advance(hctx *core.HandlerContext, loop *loopRun, value string) error {
	holds := strings.Contains(strings.ToLower(value), strings.ToLower(loop.keyword))
	if !holds || loop.iter >= loop.max {
		return completeStep(hctx, loop.runID, loop.stepID, value, nil)
	}

	sub := workflow.StepRequestPayload{
		RunID:      loop.runID,
		StepID:     subStepID(loop.stepID, loop.iter),
		StepType:   loop.body,
		TargetRole: loop.role,
		Input:      value,
		Parameters: loop.params,
	}
	loop.iter++

	m.mu.Lock()
	m.loops[correlationID(loop.runID, loop.stepID)] = loop
	m.mu.Unlock()

	return hctx.Publish(sub, core.DirectionSelf)
}
