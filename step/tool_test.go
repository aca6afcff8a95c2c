package step

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/actormesh/core"
	"github.com/hupe1980/actormesh/workflow"
)

func TestToolCall_RequestAndResult(t *testing.T) {
	hctx, pub := newStepContext(t)
	m := NewToolCall(workflow.ModuleDeps{}, Options{})

	req := stepRequest(workflow.StepRequestPayload{
		RunID: "r1", StepID: "count", StepType: TypeToolCall,
		Input:      "some text",
		Parameters: map[string]any{"tool": "word_count", "arguments": map[string]any{"mode": "strict"}},
	})
	require.True(t, m.CanHandle(req))
	require.NoError(t, m.Handle(hctx, req))

	last, ok := pub.Last()
	require.True(t, ok)
	call := last.Payload.(core.ToolCallPayload)
	assert.Equal(t, "word_count", call.Name)
	assert.Equal(t, "r1_count", call.CallID)
	assert.Equal(t, "strict", call.Arguments["mode"])
	assert.Equal(t, "some text", call.Arguments["input"], "step input is injected when arguments omit it")

	result := core.NewEnvelope("wf-actor", core.DirectionSelf, core.ToolResultPayload{CallID: call.CallID, Name: "word_count", Output: "2"})
	require.True(t, m.CanHandle(result))
	require.NoError(t, m.Handle(hctx, result))

	done := lastCompletion(t, pub)
	assert.True(t, done.Success)
	assert.Equal(t, "2", done.Output)
	assert.Equal(t, "count", done.StepID)
}

func TestToolCall_ExplicitInputArgumentWins(t *testing.T) {
	hctx, pub := newStepContext(t)
	m := NewToolCall(workflow.ModuleDeps{}, Options{})

	req := stepRequest(workflow.StepRequestPayload{
		RunID: "r1", StepID: "count", StepType: TypeToolCall,
		Input:      "ignored",
		Parameters: map[string]any{"tool": "word_count", "arguments": map[string]any{"input": "explicit"}},
	})
	require.NoError(t, m.Handle(hctx, req))

	last, _ := pub.Last()
	call := last.Payload.(core.ToolCallPayload)
	assert.Equal(t, "explicit", call.Arguments["input"])
}

func TestToolCall_ErrorResultFailsStep(t *testing.T) {
	hctx, pub := newStepContext(t)
	m := NewToolCall(workflow.ModuleDeps{}, Options{})

	req := stepRequest(workflow.StepRequestPayload{
		RunID: "r1", StepID: "count", StepType: TypeToolCall,
		Parameters: map[string]any{"tool": "word_count"},
	})
	require.NoError(t, m.Handle(hctx, req))

	result := core.NewEnvelope("wf-actor", core.DirectionSelf, core.ToolResultPayload{CallID: "r1_count", Error: "tool not registered"})
	require.NoError(t, m.Handle(hctx, result))

	done := lastCompletion(t, pub)
	assert.False(t, done.Success)
	assert.Equal(t, "tool not registered", done.Error)
}

func TestToolCall_MissingToolParameterFails(t *testing.T) {
	hctx, pub := newStepContext(t)
	m := NewToolCall(workflow.ModuleDeps{}, Options{})

	req := stepRequest(workflow.StepRequestPayload{RunID: "r1", StepID: "count", StepType: TypeToolCall})
	require.NoError(t, m.Handle(hctx, req))

	done := lastCompletion(t, pub)
	assert.False(t, done.Success)
	assert.Contains(t, done.Error, "tool parameter")
}

func TestToolCall_UncorrelatedResultIgnored(t *testing.T) {
	hctx, pub := newStepContext(t)
	m := NewToolCall(workflow.ModuleDeps{}, Options{})

	result := core.NewEnvelope("wf-actor", core.DirectionSelf, core.ToolResultPayload{CallID: "never-asked", Output: "x"})
	require.NoError(t, m.Handle(hctx, result))
	_, ok := pub.Last()
	assert.False(t, ok)
}
