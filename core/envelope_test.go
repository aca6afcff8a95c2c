package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEnvelope(t *testing.T) {
	env := NewEnvelope("actor-1", DirectionDown, MessagePayload{Text: "hi"})

	assert.NotEmpty(t, env.ID)
	assert.False(t, env.Timestamp.IsZero())
	assert.Equal(t, "actor-1", env.PublisherID)
	assert.Equal(t, DirectionDown, env.Direction)
	assert.Equal(t, []string{"actor-1"}, env.PublisherChain())
}

func TestEnvelope_HasVisitedExactToken(t *testing.T) {
	env := NewEnvelope("a", DirectionDown, MessagePayload{Text: "x"})
	env.AppendVisited("abc")

	assert.True(t, env.HasVisited("a"))
	assert.True(t, env.HasVisited("abc"))
	assert.False(t, env.HasVisited("b"))
	assert.False(t, env.HasVisited("ab"))
	assert.False(t, env.HasVisited("bc"))
}

func TestEnvelope_AppendVisited(t *testing.T) {
	env := NewEnvelope("a", DirectionDown, MessagePayload{Text: "x"})

	env.AppendVisited("b")
	env.AppendVisited("b")
	env.AppendVisited("")
	env.AppendVisited("c")

	assert.Equal(t, []string{"a", "b", "c"}, env.PublisherChain())
}

func TestEnvelope_CloneIndependentMetadata(t *testing.T) {
	env := NewEnvelope("a", DirectionBoth, MessagePayload{Text: "x"})
	env.Metadata["k"] = "v"

	clone := env.Clone()
	clone.Metadata["k"] = "changed"
	clone.AppendVisited("b")

	assert.Equal(t, "v", env.Metadata["k"])
	assert.Equal(t, []string{"a"}, env.PublisherChain())
	assert.Equal(t, []string{"a", "b"}, clone.PublisherChain())
	assert.Equal(t, env.ID, clone.ID)
}

func TestDirection_String(t *testing.T) {
	tests := []struct {
		direction Direction
		want      string
	}{
		{DirectionUnspecified, "unspecified"},
		{DirectionDown, "down"},
		{DirectionUp, "up"},
		{DirectionBoth, "both"},
		{DirectionSelf, "self"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.direction.String())
	}
}
