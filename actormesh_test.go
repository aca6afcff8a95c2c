package actormesh

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/actormesh/core"
	"github.com/hupe1980/actormesh/step"
	"github.com/hupe1980/actormesh/tool"
	"github.com/hupe1980/actormesh/workflow"
)

func runCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestRunWorkflow_TransformPipeline(t *testing.T) {
	mesh := New()

	definition := []byte(`
name: cleanup
steps:
  - id: tidy
    type: transform
    parameters:
      op: trim
  - id: shout
    type: transform
    parameters:
      op: uppercase
`)

	result, err := mesh.RunWorkflow(runCtx(t), definition, "  hello mesh  ")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "HELLO MESH", result.Output)
	assert.Empty(t, result.Error)
	assert.NotEmpty(t, result.RunID)
}

func TestRunWorkflow_ConditionalBranching(t *testing.T) {
	mesh := New()

	// Both branches converge on the terminal checkpoint; escalate needs the
	// explicit next pointer to skip past archive.
	definition := []byte(`
name: triage
steps:
  - id: check
    type: conditional
    parameters:
      condition: urgent
    branches:
      "true": escalate
      "false": archive
  - id: escalate
    type: transform
    parameters:
      op: uppercase
    next: done
  - id: archive
    type: transform
    parameters:
      op: lowercase
  - id: done
    type: checkpoint
`)

	result, err := mesh.RunWorkflow(runCtx(t), definition, "Urgent: disk failing")
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, "URGENT: DISK FAILING", result.Output)

	result, err = mesh.RunWorkflow(runCtx(t), definition, "Routine Notice")
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, "routine notice", result.Output)
}

func TestRunWorkflow_EmptyDefinitionFails(t *testing.T) {
	mesh := New()

	result, err := mesh.RunWorkflow(runCtx(t), []byte("name: hollow\n"), "input")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "no steps", result.Error)
}

func TestRunWorkflow_MockRoleWorker(t *testing.T) {
	mesh := New()

	definition := []byte(`
name: drafting
roles:
  - id: writer
    systemPrompt: You write drafts.
steps:
  - id: draft
    type: llm_call
    targetRole: writer
`)

	result, err := mesh.RunWorkflow(runCtx(t), definition, "a mesh haiku")
	require.NoError(t, err)
	require.True(t, result.Success, "run failed: %s", result.Error)
	assert.Equal(t, "Mock response to: a mesh haiku", result.Output)
}

func TestRunWorkflow_FanoutVoteTool(t *testing.T) {
	tools := tool.NewRegistry()
	tools.Register(tool.NewFuncTool("word_count", "Count words in the input", func(_ context.Context, args map[string]any) (string, error) {
		text, _ := args["input"].(string)
		return strconv.Itoa(len(strings.Fields(text))), nil
	}))

	mesh := New(func(o *Options) {
		o.Tools = tools
		o.StepOptions = []func(o *step.Options){step.WithPendingTimeout(5 * time.Second)}
	})

	definition := []byte(`
name: research
roles:
  - id: researcher
steps:
  - id: gather
    type: parallel_fanout
    targetRole: researcher
    parameters:
      count: 2
  - id: pick
    type: vote_consensus
  - id: measure
    type: tool_call
    parameters:
      tool: word_count
`)

	result, err := mesh.RunWorkflow(runCtx(t), definition, "ocean currents")
	require.NoError(t, err)
	require.True(t, result.Success, "run failed: %s", result.Error)
	// Both fan-out drafts are "Mock response to: ocean currents" (5 words);
	// the vote picks one and the tool counts it.
	assert.Equal(t, "5", result.Output)
}

func TestRunWorkflow_ConnectorStep(t *testing.T) {
	mesh := New()

	// No connector registry configured, so the step must fail the run
	// instead of hanging it.
	definition := []byte(`
name: fetch
steps:
  - id: pull
    type: connector_call
    parameters:
      connector: crm
`)

	result, err := mesh.RunWorkflow(runCtx(t), definition, "x")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "no connector registry")
}

func TestCreateWorkflow_RejectsInvalidDefinitions(t *testing.T) {
	mesh := New()
	ctx := runCtx(t)

	_, err := mesh.CreateWorkflow(ctx, []byte("steps: []\n"))
	var verr *workflow.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = mesh.CreateWorkflow(ctx, []byte("name: x\nsteps:\n  - id: a\n    type: transform\n    next: ghost\n"))
	var cerr *workflow.CompilationError
	require.ErrorAs(t, err, &cerr)
}

func TestRunWorkflow_ContextCancellation(t *testing.T) {
	mesh := New()

	// With no tool registry nothing answers the tool call, and without a
	// pending timeout the step waits forever; cancellation must unblock the
	// caller.
	stuck := []byte(`
name: stalled
steps:
  - id: ask
    type: tool_call
    parameters:
      tool: word_count
`)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := mesh.RunWorkflow(ctx, stuck, "input")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMesh_RuntimeAndCodecExposed(t *testing.T) {
	mesh := New()
	require.NotNil(t, mesh.Runtime())
	require.NotNil(t, mesh.Codec())

	// The codec knows the workflow payload kinds out of the box.
	original := core.NewEnvelope("p", core.DirectionSelf, workflow.StartWorkflowPayload{RunID: "r1"})
	wire, err := mesh.Codec().Encode(original)
	require.NoError(t, err)
	env, err := mesh.Codec().Decode(wire)
	require.NoError(t, err)
	start, ok := env.Payload.(workflow.StartWorkflowPayload)
	require.True(t, ok)
	assert.Equal(t, "r1", start.RunID)
}
