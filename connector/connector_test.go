package connector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Get("crm")
	assert.False(t, ok)

	r.Register(NewFunc("crm", func(context.Context, string, map[string]any) (string, error) {
		return "v1", nil
	}))
	r.Register(NewFunc("billing", func(context.Context, string, map[string]any) (string, error) {
		return "", nil
	}))

	c, ok := r.Get("crm")
	require.True(t, ok)
	out, err := c.Execute(context.Background(), "get", nil)
	require.NoError(t, err)
	assert.Equal(t, "v1", out)

	assert.Equal(t, []string{"billing", "crm"}, r.Names())

	// Re-registration replaces the previous connector.
	r.Register(NewFunc("crm", func(context.Context, string, map[string]any) (string, error) {
		return "v2", nil
	}))
	c, _ = r.Get("crm")
	out, _ = c.Execute(context.Background(), "get", nil)
	assert.Equal(t, "v2", out)
}

func TestFunc_PassesOperationAndParams(t *testing.T) {
	var gotOp string
	var gotParams map[string]any
	c := NewFunc("probe", func(_ context.Context, operation string, params map[string]any) (string, error) {
		gotOp = operation
		gotParams = params
		return "ok", nil
	})

	out, err := c.Execute(context.Background(), "query", map[string]any{"id": "42"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, "query", gotOp)
	assert.Equal(t, "42", gotParams["id"])
}

func TestFunc_WrapsErrorsWithName(t *testing.T) {
	c := NewFunc("flaky", func(context.Context, string, map[string]any) (string, error) {
		return "", errors.New("backend down")
	})

	_, err := c.Execute(context.Background(), "get", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connector flaky")
	assert.Contains(t, err.Error(), "backend down")
}
