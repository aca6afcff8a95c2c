package step

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/actormesh/core"
	"github.com/hupe1980/actormesh/internal/testutil"
	"github.com/hupe1980/actormesh/workflow"
)

// newStepContext builds a handler context suitable for driving step modules
// directly, with outbound events captured by the returned publisher.
func newStepContext(t *testing.T) (*core.HandlerContext, *testutil.CapturePublisher) {
	t.Helper()
	pub := testutil.NewCapturePublisher()
	hctx, closeScope := core.NewHandlerContext(context.Background(), "wf-actor", pub, map[string]any{}, nil)
	t.Cleanup(closeScope)
	return hctx, pub
}

// stepRequest wraps a StepRequest payload in a Self envelope.
func stepRequest(p workflow.StepRequestPayload) core.Envelope {
	return core.NewEnvelope("wf-actor", core.DirectionSelf, p)
}

// lastCompletion asserts the most recent publication is a StepCompleted and
// returns it.
func lastCompletion(t *testing.T, pub *testutil.CapturePublisher) workflow.StepCompletedPayload {
	t.Helper()
	last, ok := pub.Last()
	require.True(t, ok, "no publication captured")
	p, ok := last.Payload.(workflow.StepCompletedPayload)
	require.True(t, ok, "last publication is %T, not a step completion", last.Payload)
	assert.Equal(t, core.DirectionSelf, last.Direction)
	return p
}

func TestParamString(t *testing.T) {
	params := map[string]any{"s": "value", "empty": "", "n": 42}
	assert.Equal(t, "value", paramString(params, "s", "fb"))
	assert.Equal(t, "fb", paramString(params, "empty", "fb"))
	assert.Equal(t, "fb", paramString(params, "n", "fb"))
	assert.Equal(t, "fb", paramString(params, "missing", "fb"))
}

func TestParamInt(t *testing.T) {
	params := map[string]any{
		"int":     3,
		"int64":   int64(4),
		"float":   5.0,
		"numeric": "6",
		"junk":    "six",
	}
	assert.Equal(t, 3, paramInt(params, "int", 1))
	assert.Equal(t, 4, paramInt(params, "int64", 1))
	assert.Equal(t, 5, paramInt(params, "float", 1))
	assert.Equal(t, 6, paramInt(params, "numeric", 1))
	assert.Equal(t, 1, paramInt(params, "junk", 1))
	assert.Equal(t, 1, paramInt(params, "missing", 1))
}

func TestSubStepID_RoundTrip(t *testing.T) {
	id := subStepID("gather", 3)
	assert.Equal(t, "gather#3", id)

	parent, index, ok := splitSubStepID(id)
	require.True(t, ok)
	assert.Equal(t, "gather", parent)
	assert.Equal(t, 3, index)

	_, _, ok = splitSubStepID("plain-step")
	assert.False(t, ok)
	_, _, ok = splitSubStepID("step#nan")
	assert.False(t, ok)
}

func TestPendingSet_TakeStopsTimeout(t *testing.T) {
	s := newPendingSet()
	fired := make(chan struct{}, 1)

	s.add("k", &pending{runID: "r", stepID: "s"}, 20*time.Millisecond, func(*pending) {
		fired <- struct{}{}
	})

	p, ok := s.take("k")
	require.True(t, ok)
	assert.Equal(t, "r", p.runID)

	_, ok = s.take("k")
	assert.False(t, ok)

	select {
	case <-fired:
		t.Fatal("timeout fired after the entry was taken")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestPendingSet_TimeoutFiresOnce(t *testing.T) {
	s := newPendingSet()
	fired := make(chan *pending, 2)

	s.add("k", &pending{runID: "r", stepID: "s"}, 10*time.Millisecond, func(p *pending) {
		fired <- p
	})

	select {
	case p := <-fired:
		assert.Equal(t, "s", p.stepID)
	case <-time.After(time.Second):
		t.Fatal("timeout never fired")
	}

	_, ok := s.take("k")
	assert.False(t, ok, "expired entries are removed")
}

func TestRegisterAll_CoversEveryStepType(t *testing.T) {
	reg := workflow.NewModuleRegistry()
	RegisterAll(reg)

	for _, name := range []string{
		TypeLLMCall, TypeToolCall, TypeTransform, TypeConditional,
		TypeVoteConsensus, TypeWorkflowCall, TypeParallelFanout, TypeForeach,
		TypeConnectorCall, TypeCheckpoint, TypeAssign, TypeWhile,
	} {
		f, ok := reg.Resolve(name)
		require.True(t, ok, "missing factory for %s", name)
		assert.Equal(t, name, f(workflow.ModuleDeps{}).Name())
	}
}
