package step

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/actormesh/core"
	"github.com/hupe1980/actormesh/workflow"
)

func subCompletion(runID, parentID string, index int, output string) core.Envelope {
	return core.NewEnvelope("wf-actor", core.DirectionSelf, workflow.StepCompletedPayload{
		RunID: runID, StepID: subStepID(parentID, index), Success: true, Output: output,
	})
}

func TestParallelFanout_ScatterGather(t *testing.T) {
	hctx, pub := newStepContext(t)
	m := NewFanout(workflow.ModuleDeps{}, TypeParallelFanout)

	req := stepRequest(workflow.StepRequestPayload{
		RunID: "r1", StepID: "spread", StepType: TypeParallelFanout,
		Input:      "draft this",
		Parameters: map[string]any{"count": 3},
	})
	require.NoError(t, m.Handle(hctx, req))

	subs := pub.All()
	require.Len(t, subs, 3)
	for i, s := range subs {
		sub := s.Payload.(workflow.StepRequestPayload)
		assert.Equal(t, fmt.Sprintf("spread#%d", i), sub.StepID)
		assert.Equal(t, TypeLLMCall, sub.StepType, "sub-steps default to llm_call")
		assert.Equal(t, "draft this", sub.Input, "every copy gets the full input")
	}

	// Sub-step completions are recognized only while the gather is tracked.
	require.True(t, m.CanHandle(subCompletion("r1", "spread", 0, "a")))
	require.False(t, m.CanHandle(subCompletion("r1", "other", 0, "a")))

	require.NoError(t, m.Handle(hctx, subCompletion("r1", "spread", 1, "beta")))
	require.NoError(t, m.Handle(hctx, subCompletion("r1", "spread", 0, "alpha")))
	require.NoError(t, m.Handle(hctx, subCompletion("r1", "spread", 2, "gamma")))

	done := lastCompletion(t, pub)
	assert.True(t, done.Success)
	assert.Equal(t, "spread", done.StepID)
	assert.Equal(t, "alpha"+CandidateSeparator+"beta"+CandidateSeparator+"gamma", done.Output,
		"outputs join in sub-step order, not completion order")
}

func TestParallelFanout_CustomSubStepType(t *testing.T) {
	hctx, pub := newStepContext(t)
	m := NewFanout(workflow.ModuleDeps{}, TypeParallelFanout)

	req := stepRequest(workflow.StepRequestPayload{
		RunID: "r1", StepID: "spread", StepType: TypeParallelFanout,
		Parameters: map[string]any{"count": 2, "parallel_fanout_step_type": TypeTransform},
	})
	require.NoError(t, m.Handle(hctx, req))

	last, _ := pub.Last()
	sub := last.Payload.(workflow.StepRequestPayload)
	assert.Equal(t, TypeTransform, sub.StepType)
}

func TestParallelFanout_NonPositiveCountFails(t *testing.T) {
	hctx, pub := newStepContext(t)
	m := NewFanout(workflow.ModuleDeps{}, TypeParallelFanout)

	req := stepRequest(workflow.StepRequestPayload{
		RunID: "r1", StepID: "spread", StepType: TypeParallelFanout,
		Parameters: map[string]any{"count": 0},
	})
	require.NoError(t, m.Handle(hctx, req))

	done := lastCompletion(t, pub)
	assert.False(t, done.Success)
	assert.Contains(t, done.Error, "positive count")
}

func TestParallelFanout_SubStepFailurePropagates(t *testing.T) {
	hctx, pub := newStepContext(t)
	m := NewFanout(workflow.ModuleDeps{}, TypeParallelFanout)

	req := stepRequest(workflow.StepRequestPayload{
		RunID: "r1", StepID: "spread", StepType: TypeParallelFanout,
		Parameters: map[string]any{"count": 2},
	})
	require.NoError(t, m.Handle(hctx, req))

	failed := core.NewEnvelope("wf-actor", core.DirectionSelf, workflow.StepCompletedPayload{
		RunID: "r1", StepID: "spread#0", Success: false, Error: "worker unavailable",
	})
	require.NoError(t, m.Handle(hctx, failed))

	done := lastCompletion(t, pub)
	assert.False(t, done.Success)
	assert.Equal(t, "worker unavailable", done.Error)

	// The gather is dropped; stragglers of the failed composite are ignored.
	before := len(pub.All())
	require.NoError(t, m.Handle(hctx, subCompletion("r1", "spread", 1, "late")))
	assert.Len(t, pub.All(), before)
}

func TestParallelFanout_RedeliveredSubCompletionCountsOnce(t *testing.T) {
	hctx, pub := newStepContext(t)
	m := NewFanout(workflow.ModuleDeps{}, TypeParallelFanout)

	req := stepRequest(workflow.StepRequestPayload{
		RunID: "r1", StepID: "spread", StepType: TypeParallelFanout,
		Parameters: map[string]any{"count": 2},
	})
	require.NoError(t, m.Handle(hctx, req))

	// The same sub-step completes twice, as an at-least-once transport may
	// deliver it; the composite must still wait for the other slot.
	require.NoError(t, m.Handle(hctx, subCompletion("r1", "spread", 0, "alpha")))
	before := len(pub.All())
	require.NoError(t, m.Handle(hctx, subCompletion("r1", "spread", 0, "alpha")))
	assert.Len(t, pub.All(), before, "a redelivery must not complete the composite")

	require.NoError(t, m.Handle(hctx, subCompletion("r1", "spread", 1, "beta")))
	done := lastCompletion(t, pub)
	assert.True(t, done.Success)
	assert.Equal(t, "alpha"+CandidateSeparator+"beta", done.Output)
}

func TestForeach_SplitsItemsAndJoinsLines(t *testing.T) {
	hctx, pub := newStepContext(t)
	m := NewFanout(workflow.ModuleDeps{}, TypeForeach)

	req := stepRequest(workflow.StepRequestPayload{
		RunID: "r1", StepID: "each", StepType: TypeForeach,
		Input:      "alpha, beta, , gamma",
		Parameters: map[string]any{"separator": ",", "foreach_step_type": TypeTransform},
	})
	require.NoError(t, m.Handle(hctx, req))

	subs := pub.All()
	require.Len(t, subs, 3, "blank items are skipped")
	assert.Equal(t, "alpha", subs[0].Payload.(workflow.StepRequestPayload).Input)

	for i := 0; i < 3; i++ {
		out := fmt.Sprintf("out-%d", i)
		require.NoError(t, m.Handle(hctx, subCompletion("r1", "each", i, out)))
	}

	done := lastCompletion(t, pub)
	assert.True(t, done.Success)
	assert.Equal(t, "out-0\nout-1\nout-2", done.Output)
}

func TestForeach_EmptyInputFails(t *testing.T) {
	hctx, pub := newStepContext(t)
	m := NewFanout(workflow.ModuleDeps{}, TypeForeach)

	req := stepRequest(workflow.StepRequestPayload{
		RunID: "r1", StepID: "each", StepType: TypeForeach, Input: "  \n  ",
	})
	require.NoError(t, m.Handle(hctx, req))

	done := lastCompletion(t, pub)
	assert.False(t, done.Success)
	assert.Equal(t, "foreach has no items to iterate", done.Error)
}

func TestFanout_ConcurrentRunsStayIsolated(t *testing.T) {
	hctx, pub := newStepContext(t)
	m := NewFanout(workflow.ModuleDeps{}, TypeParallelFanout)

	for _, runID := range []string{"r1", "r2"} {
		req := stepRequest(workflow.StepRequestPayload{
			RunID: runID, StepID: "spread", StepType: TypeParallelFanout,
			Input: runID, Parameters: map[string]any{"count": 1},
		})
		require.NoError(t, m.Handle(hctx, req))
	}

	require.NoError(t, m.Handle(hctx, subCompletion("r2", "spread", 0, "second")))

	done := lastCompletion(t, pub)
	assert.Equal(t, "r2", done.RunID)
	assert.Equal(t, "second", done.Output)

	require.NoError(t, m.Handle(hctx, subCompletion("r1", "spread", 0, "first")))
	done = lastCompletion(t, pub)
	assert.Equal(t, "r1", done.RunID)
}
