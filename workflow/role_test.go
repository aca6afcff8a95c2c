package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/actormesh/core"
	"github.com/hupe1980/actormesh/internal/testutil"
	"github.com/hupe1980/actormesh/model"
)

type failingProvider struct{}

func (failingProvider) Chat(context.Context, *model.Request) (*model.Response, error) {
	return nil, errors.New("quota exceeded")
}

func (failingProvider) Info() model.Info { return model.Info{Name: "failing", Provider: "mock"} }

func dispatchChat(t *testing.T, a *RoleAgent, pub *testutil.CapturePublisher, req core.ChatRequestPayload) {
	t.Helper()
	hctx, closeScope := core.NewHandlerContext(context.Background(), "wf/writer", pub, map[string]any{}, nil)
	defer closeScope()
	env := core.NewEnvelope("wf-actor", core.DirectionUnspecified, req)
	require.NoError(t, a.HandleEvent(hctx, env))
}

func TestRoleAgent_AnswersChatRequests(t *testing.T) {
	provider := model.NewMockProvider("test-model")
	provider.AddResponse("write a tagline", "Actors all the way down.")

	role := RoleDefinition{ID: "writer", SystemPrompt: "You write copy."}
	a := NewRoleAgent("wf/writer", role, provider, nil)
	pub := testutil.NewCapturePublisher()

	dispatchChat(t, a, pub, core.ChatRequestPayload{SessionID: "s1", Prompt: "write a tagline"})

	last, ok := pub.Last()
	require.True(t, ok)
	assert.Equal(t, core.DirectionUp, last.Direction, "responses travel up to the workflow actor")
	resp := last.Payload.(core.ChatResponsePayload)
	assert.Equal(t, "s1", resp.SessionID)
	assert.True(t, resp.Final)
	assert.Equal(t, "Actors all the way down.", resp.Text)
	assert.Equal(t, "wf/writer", resp.WorkerID)
	assert.Empty(t, resp.Error)
}

func TestRoleAgent_ProviderErrorReportedInResponse(t *testing.T) {
	role := RoleDefinition{ID: "writer"}
	a := NewRoleAgent("wf/writer", role, failingProvider{}, nil)
	pub := testutil.NewCapturePublisher()

	dispatchChat(t, a, pub, core.ChatRequestPayload{SessionID: "s1", Prompt: "anything"})

	last, _ := pub.Last()
	resp := last.Payload.(core.ChatResponsePayload)
	assert.True(t, resp.Final, "errors still terminate the session")
	assert.Equal(t, "quota exceeded", resp.Error)
	assert.Empty(t, resp.Text)
}

func TestRoleAgent_ExposesRole(t *testing.T) {
	role := RoleDefinition{ID: "writer", SystemPrompt: "You write copy."}
	a := NewRoleAgent("wf/writer", role, model.NewMockProvider("m"), nil)
	assert.Equal(t, role, a.Role())
	assert.Equal(t, "wf/writer", a.Name())
}
