package step

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/actormesh/core"
	"github.com/hupe1980/actormesh/workflow"
)

func TestWorkflowCall_TargetsDeclaredRole(t *testing.T) {
	hctx, pub := newStepContext(t)
	m := NewWorkflowCall(roleDeps(map[string]string{"child": "wf-actor/child"}, nil), Options{})

	req := stepRequest(workflow.StepRequestPayload{
		RunID: "r1", StepID: "delegate", StepType: TypeWorkflowCall,
		TargetRole: "child",
		Input:      "sub task",
	})
	require.NoError(t, m.Handle(hctx, req))

	last, ok := pub.Last()
	require.True(t, ok)
	assert.Equal(t, "wf-actor/child", last.Target)
	start := last.Payload.(workflow.StartWorkflowPayload)
	assert.Equal(t, "r1_delegate", start.RunID, "the child run id carries the parent correlation")
	assert.Equal(t, "sub task", start.Input)
}

func TestWorkflowCall_BroadcastsDownWithoutRole(t *testing.T) {
	hctx, pub := newStepContext(t)
	m := NewWorkflowCall(workflow.ModuleDeps{}, Options{})

	req := stepRequest(workflow.StepRequestPayload{
		RunID: "r1", StepID: "delegate", StepType: TypeWorkflowCall, Input: "sub task",
	})
	require.NoError(t, m.Handle(hctx, req))

	last, _ := pub.Last()
	assert.Equal(t, core.DirectionDown, last.Direction)
	assert.IsType(t, workflow.StartWorkflowPayload{}, last.Payload)
}

func TestWorkflowCall_ChildCompletionCompletesStep(t *testing.T) {
	hctx, pub := newStepContext(t)
	m := NewWorkflowCall(workflow.ModuleDeps{}, Options{})

	req := stepRequest(workflow.StepRequestPayload{
		RunID: "r1", StepID: "delegate", StepType: TypeWorkflowCall,
	})
	require.NoError(t, m.Handle(hctx, req))

	childDone := core.NewEnvelope("child-wf", core.DirectionUp, workflow.WorkflowCompletedPayload{
		RunID: "r1_delegate", Success: true, Output: "child result",
	})
	require.True(t, m.CanHandle(childDone))
	require.NoError(t, m.Handle(hctx, childDone))

	done := lastCompletion(t, pub)
	assert.True(t, done.Success)
	assert.Equal(t, "delegate", done.StepID)
	assert.Equal(t, "child result", done.Output)
}

func TestWorkflowCall_ChildFailurePropagates(t *testing.T) {
	hctx, pub := newStepContext(t)
	m := NewWorkflowCall(workflow.ModuleDeps{}, Options{})

	req := stepRequest(workflow.StepRequestPayload{RunID: "r1", StepID: "delegate", StepType: TypeWorkflowCall})
	require.NoError(t, m.Handle(hctx, req))

	childDone := core.NewEnvelope("child-wf", core.DirectionUp, workflow.WorkflowCompletedPayload{
		RunID: "r1_delegate", Success: false,
	})
	require.NoError(t, m.Handle(hctx, childDone))

	done := lastCompletion(t, pub)
	assert.False(t, done.Success)
	assert.Equal(t, "sub-workflow failed", done.Error, "a missing child error gets a generic reason")
}

func TestWorkflowCall_ForeignCompletionIgnored(t *testing.T) {
	hctx, pub := newStepContext(t)
	m := NewWorkflowCall(workflow.ModuleDeps{}, Options{})

	req := stepRequest(workflow.StepRequestPayload{RunID: "r1", StepID: "delegate", StepType: TypeWorkflowCall})
	require.NoError(t, m.Handle(hctx, req))
	before := len(pub.All())

	foreign := core.NewEnvelope("child-wf", core.DirectionUp, workflow.WorkflowCompletedPayload{
		RunID: "unrelated-run", Success: true,
	})
	require.NoError(t, m.Handle(hctx, foreign))
	assert.Len(t, pub.All(), before)
}
