package step

import (
	"strconv"
	"strings"
	"sync"

	"github.com/hupe1980/actormesh/core"
	"github.com/hupe1980/actormesh/workflow"
)

// Fanout implements the two composite scatter/gather step types:
//
//   - parallel_fanout dispatches N copies of the same input to sub-steps and
//     joins their outputs with the candidate separator, ready for a
//     downstream vote_consensus step.
//   - foreach splits the input into items, dispatches one sub-step per item
//     and joins the outputs line by line, order preserved.
//
// Sub-steps are regular StepRequest events of a configurable type (llm_call
// unless overridden) whose ids carry the "#index" marker, keeping them out
// of the orchestrator's graph. The first failed sub-step fails the whole
// composite.
//
// Parameters:
//   - count (parallel_fanout): number of sub-steps (default 2)
//   - separator (foreach): item delimiter (default "\n")
//   - fanout_step_type / foreach_step_type: sub-step type (default llm_call)
type Fanout struct {
	baseModule

	mode string
	deps workflow.ModuleDeps

	mu     sync.Mutex
	gather map[string]*gatherState
}

type gatherState struct {
	runID     string
	stepID    string
	outputs   []string
	received  []bool
	remaining int
}

// NewFanout constructs the composite module for the given mode, either
// TypeParallelFanout or TypeForeach.
func NewFanout(deps workflow.ModuleDeps, mode string) *Fanout {
	return &Fanout{
		baseModule: baseModule{name: mode, priority: stepPriority},
		mode:       mode,
		deps:       deps,
		gather:     make(map[string]*gatherState),
	}
}

// CanHandle implements core.EventModule.
func (m *Fanout) CanHandle(env core.Envelope) bool {
	if _, ok := requestOfType(env, m.mode); ok {
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
	_, tracked := m.gather[correlationID(p.RunID, parent)]
	return tracked
}

// Handle implements core.EventModule.
func (m *Fanout) Handle(hctx *core.HandlerContext, env core.Envelope) error {
	if req, ok := requestOfType(env, m.mode); ok {
		return m.scatter(hctx, req)
	}
	if p, ok := env.Payload.(workflow.StepCompletedPayload); ok {
		return m.collect(hctx, p)
	}
	return nil
}

func (m *Fanout) scatter(hctx *core.HandlerContext, req workflow.StepRequestPayload) error {
	inputs, errText := m.subInputs(req)
	if errText != "" {
		return failStep(hctx, req.RunID, req.StepID, errText)
	}

	subType := paramString(req.Parameters, m.mode+"_step_type", TypeLLMCall)

	m.mu.Lock()
	m.gather[correlationID(req.RunID, req.StepID)] = &gatherState{
		runID:     req.RunID,
		stepID:    req.StepID,
		outputs:   make([]string, len(inputs)),
		received:  make([]bool, len(inputs)),
		remaining: len(inputs),
	}
	m.mu.Unlock()

	for i, input := range inputs {
		sub := workflow.StepRequestPayload{
			RunID:      req.RunID,
			StepID:     subStepID(req.StepID, i),
			StepType:   subType,
			TargetRole: req.TargetRole,
			Input:      input,
			Parameters: req.Parameters,
		}
		if err := hctx.Publish(sub, core.DirectionSelf); err != nil {
			return err
		}
	}

	return nil
}

// subInputs computes the per-sub-step inputs for the composite, or a failure
// reason.
func (m *Fanout) subInputs(req workflow.StepRequestPayload) ([]string, string) {
	if m.mode == TypeParallelFanout {
		n := paramInt(req.Parameters, "count", 2)
		if n <= 0 {
			return nil, "parallel_fanout requires a positive count"
		}
		inputs := make([]string, n)
		for i := range inputs {
			inputs[i] = req.Input
		}
		return inputs, ""
	}

	sep := paramString(req.Parameters, "separator", "\n")
	var items []string
	for _, item := range strings.Split(req.Input, sep) {
		if strings.TrimSpace(item) != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return nil, "foreach has no items to iterate"
	}
	return items, ""
}

func (m *Fanout) collect(hctx *core.HandlerContext, p workflow.StepCompletedPayload) error {
	parent, index, ok := splitSubStepID(p.StepID)
	if !ok {
		return nil
	}

	key := correlationID(p.RunID, parent)

	m.mu.Lock()
	state, tracked := m.gather[key]
	if !tracked || index >= len(state.outputs) {
		m.mu.Unlock()
		return nil
	}
	if !p.Success {
		delete(m.gather, key)
		m.mu.Unlock()
		return failStep(hctx, state.runID, state.stepID, p.Error)
	}
	// Redelivered completions for an already-filled slot must not drain the
	// remaining count a second time.
	if state.received[index] {
		m.mu.Unlock()
		return nil
	}
	state.received[index] = true
	state.outputs[index] = p.Output
	state.remaining--
	done := state.remaining == 0
	if done {
		delete(m.gather, key)
	}
	m.mu.Unlock()

	if !done {
		return nil
	}

	joined := strings.Join(state.outputs, m.joinSeparator())
	return completeStep(hctx, state.runID, state.stepID, joined, nil)
}

func (m *Fanout) joinSeparator() string {
	if m.mode == TypeParallelFanout {
		return CandidateSeparator
	}
	return "\n"
}

// splitSubStepID parses the "#index" marker of a dynamically generated
// sub-step id.
func splitSubStepID(stepID string) (parent string, index int, ok bool) {
	i := strings.LastIndex(stepID, "#")
	if i < 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(stepID[i+1:])
	if err != nil || n < 0 {
		return "", 0, false
	}
	return stepID[:i], n, true
}
