package step

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/hupe1980/actormesh/core"
	"github.com/hupe1980/actormesh/workflow"
)

// Step type discriminators matched against StepDefinition.Type.
const (
	TypeLLMCall        = "llm_call"
	TypeToolCall       = "tool_call"
	TypeTransform      = "transform"
	TypeConditional    = "conditional"
	TypeVoteConsensus  = "vote_consensus"
	TypeWorkflowCall   = "workflow_call"
	TypeParallelFanout = "parallel_fanout"
	TypeForeach        = "foreach"
	TypeConnectorCall  = "connector_call"
	TypeCheckpoint     = "checkpoint"
	TypeAssign         = "assign"
	TypeWhile          = "while"
)

// Scorer ranks one consensus candidate; higher wins.
type Scorer func(candidate string) float64

// LongestScorer is the default Scorer: candidate length in bytes.
func LongestScorer(candidate string) float64 { return float64(len(candidate)) }

// Options tune the built-in step modules.
type Options struct {
	// PendingTimeout bounds how long an asynchronous step waits for its
	// response before failing with a timeout. Zero disables the bound.
	PendingTimeout time.Duration

	// Scorer ranks vote_consensus candidates. Defaults to LongestScorer.
	Scorer Scorer
}

// WithPendingTimeout sets the asynchronous step timeout.
func WithPendingTimeout(d time.Duration) func(o *Options) {
	return func(o *Options) { o.PendingTimeout = d }
}

// WithScorer sets the consensus scorer.
func WithScorer(s Scorer) func(o *Options) {
	return func(o *Options) { o.Scorer = s }
}

// RegisterAll installs every built-in step module factory into the registry.
func RegisterAll(reg *workflow.ModuleRegistry, optFns ...func(o *Options)) {
	opts := Options{Scorer: LongestScorer}
	for _, fn := range optFns {
		fn(&opts)
	}

	reg.Register(TypeLLMCall, func(deps workflow.ModuleDeps) core.EventModule { return NewLLMCall(deps, opts) })
	reg.Register(TypeToolCall, func(deps workflow.ModuleDeps) core.EventModule { return NewToolCall(deps, opts) })
	reg.Register(TypeTransform, func(deps workflow.ModuleDeps) core.EventModule { return NewTransform(deps) })
	reg.Register(TypeConditional, func(deps workflow.ModuleDeps) core.EventModule { return NewConditional(deps) })
	reg.Register(TypeVoteConsensus, func(deps workflow.ModuleDeps) core.EventModule { return NewVoteConsensus(deps, opts) })
	reg.Register(TypeWorkflowCall, func(deps workflow.ModuleDeps) core.EventModule { return NewWorkflowCall(deps, opts) })
	reg.Register(TypeParallelFanout, func(deps workflow.ModuleDeps) core.EventModule { return NewFanout(deps, TypeParallelFanout) })
	reg.Register(TypeForeach, func(deps workflow.ModuleDeps) core.EventModule { return NewFanout(deps, TypeForeach) })
	reg.Register(TypeConnectorCall, func(deps workflow.ModuleDeps) core.EventModule { return NewConnectorCall(deps) })
	reg.Register(TypeCheckpoint, func(deps workflow.ModuleDeps) core.EventModule { return NewCheckpoint(deps) })
	reg.Register(TypeAssign, func(deps workflow.ModuleDeps) core.EventModule { return NewAssign(deps) })
	reg.Register(TypeWhile, func(deps workflow.ModuleDeps) core.EventModule { return NewWhile(deps, opts) })
}

// baseModule carries the identity shared by all step modules.
type baseModule struct {
	name     string
	priority int
}

// Name implements core.EventModule.
func (b baseModule) Name() string { return b.name }

// Priority implements core.EventModule.
func (b baseModule) Priority() int { return b.priority }

// stepPriority orders step modules after the orchestrator so a dispatched
// request is observed once the loop's own bookkeeping ran.
const stepPriority = 50

// completeStep emits the successful StepCompleted for one request.
func completeStep(hctx *core.HandlerContext, runID, stepID, output string, meta map[string]string) error {
	return hctx.Publish(workflow.StepCompletedPayload{
		RunID:    runID,
		StepID:   stepID,
		Success:  true,
		Output:   output,
		WorkerID: hctx.ActorID,
		Metadata: meta,
	}, core.DirectionSelf)
}

// failStep emits the failed StepCompleted for one request.
func failStep(hctx *core.HandlerContext, runID, stepID, errText string) error {
	return hctx.Publish(workflow.StepCompletedPayload{
		RunID:    runID,
		StepID:   stepID,
		Success:  false,
		Error:    errText,
		WorkerID: hctx.ActorID,
	}, core.DirectionSelf)
}

// requestOfType extracts a StepRequest of the given step type from an
// envelope, if it carries one.
func requestOfType(env core.Envelope, stepType string) (workflow.StepRequestPayload, bool) {
	p, ok := env.Payload.(workflow.StepRequestPayload)
	if !ok || p.StepType != stepType {
		return workflow.StepRequestPayload{}, false
	}
	return p, true
}

// pending is one in-flight asynchronous request awaiting its response.
type pending struct {
	runID  string
	stepID string
	timer  *time.Timer
}

// pendingSet correlates asynchronous requests and responses by key. Entries
// expire through an optional timeout that fails the step instead of leaving
// the run hanging.
type pendingSet struct {
	mu      sync.Mutex
	entries map[string]*pending
}

func newPendingSet() *pendingSet {
	return &pendingSet{entries: make(map[string]*pending)}
}

// add registers an in-flight request. With a positive timeout the onTimeout
// callback fires once the deadline passes without a matching take.
func (s *pendingSet) add(key string, p *pending, timeout time.Duration, onTimeout func(p *pending)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timeout > 0 {
		p.timer = time.AfterFunc(timeout, func() {
			if expired, ok := s.take(key); ok {
				onTimeout(expired)
			}
		})
	}
	s.entries[key] = p
}

// take removes and returns the entry for key, stopping its timer.
func (s *pendingSet) take(key string) (*pending, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	delete(s.entries, key)
	if p.timer != nil {
		p.timer.Stop()
	}
	return p, true
}

// correlationID derives the pending key for one (run, step) pair.
func correlationID(runID, stepID string) string {
	return runID + "_" + stepID
}

// paramString reads a string parameter with a fallback.
func paramString(params map[string]any, key, fallback string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// paramInt reads an integer parameter with a fallback, accepting the numeric
// shapes YAML and JSON decoding produce.
func paramInt(params map[string]any, key string, fallback int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// subStepID names a dynamically generated child request of a composite step.
// The "#" marker keeps sub-step completions out of the orchestrator's step
// graph.
func subStepID(parentID string, i int) string {
	return fmt.Sprintf("%s#%d", parentID, i)
}
