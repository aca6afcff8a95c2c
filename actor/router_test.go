package actor

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/actormesh/core"
	"github.com/hupe1980/actormesh/internal/testutil"
)

// routeSink records router deliveries for assertions.
type routeSink struct {
	mu       sync.Mutex
	self     int
	forwards []string
}

func (s *routeSink) selfHandler(context.Context, core.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.self++
	return nil
}

func (s *routeSink) forward(_ context.Context, targetID string, _ core.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forwards = append(s.forwards, targetID)
	return nil
}

func (s *routeSink) sortedForwards() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]string(nil), s.forwards...)
	sort.Strings(out)
	return out
}

func TestRouter_SelfStaysLocal(t *testing.T) {
	r := NewRouter("node")
	r.SetParent("parent")
	r.AddChild("child")
	sink := &routeSink{}

	env := testutil.NewEnvelopeBuilder().Publisher("node").Direction(core.DirectionSelf).Build()
	require.NoError(t, r.Route(context.Background(), env, sink.selfHandler, sink.forward))

	assert.Equal(t, 1, sink.self)
	assert.Empty(t, sink.forwards)
}

func TestRouter_DownTargetsExactlyChildren(t *testing.T) {
	r := NewRouter("node")
	r.SetParent("parent")
	r.AddChild("child-a")
	r.AddChild("child-b")
	sink := &routeSink{}

	env := testutil.NewEnvelopeBuilder().Publisher("node").Down().Build()
	require.NoError(t, r.Route(context.Background(), env, sink.selfHandler, sink.forward))

	assert.Equal(t, 0, sink.self)
	assert.Equal(t, []string{"child-a", "child-b"}, sink.sortedForwards())
}

func TestRouter_UpTargetsParentOnly(t *testing.T) {
	r := NewRouter("node")
	r.SetParent("parent")
	r.AddChild("child")
	sink := &routeSink{}

	env := testutil.NewEnvelopeBuilder().Publisher("node").Up().Build()
	require.NoError(t, r.Route(context.Background(), env, sink.selfHandler, sink.forward))

	assert.Equal(t, []string{"parent"}, sink.forwards)
}

func TestRouter_UpWithoutParentIsNoOp(t *testing.T) {
	r := NewRouter("node")
	sink := &routeSink{}

	env := testutil.NewEnvelopeBuilder().Publisher("node").Up().Build()
	require.NoError(t, r.Route(context.Background(), env, sink.selfHandler, sink.forward))

	assert.Empty(t, sink.forwards)
}

func TestRouter_BothTargetsParentAndChildren(t *testing.T) {
	r := NewRouter("node")
	r.SetParent("parent")
	r.AddChild("child-a")
	r.AddChild("child-b")
	sink := &routeSink{}

	env := testutil.NewEnvelopeBuilder().Publisher("node").Both().Build()
	require.NoError(t, r.Route(context.Background(), env, sink.selfHandler, sink.forward))

	assert.Equal(t, []string{"child-a", "child-b", "parent"}, sink.sortedForwards())
}

func TestRouter_UnspecifiedNeverRoutes(t *testing.T) {
	r := NewRouter("node")
	r.SetParent("parent")
	r.AddChild("child")
	sink := &routeSink{}

	env := testutil.NewEnvelopeBuilder().Publisher("node").Direction(core.DirectionUnspecified).Target("elsewhere").Build()
	require.NoError(t, r.Route(context.Background(), env, sink.selfHandler, sink.forward))

	assert.Equal(t, 0, sink.self)
	assert.Empty(t, sink.forwards)
}

func TestRouter_DropsRelayedEnvelopeAlreadyVisited(t *testing.T) {
	r := NewRouter("node")
	r.AddChild("child")
	sink := &routeSink{}

	env := testutil.NewEnvelopeBuilder().Publisher("origin").Down().Visited("node").Build()
	require.NoError(t, r.Route(context.Background(), env, sink.selfHandler, sink.forward))

	assert.Empty(t, sink.forwards, "a relayed envelope that already visited this actor is dropped")
}

func TestRouter_AuthorIsExemptFromCycleCheck(t *testing.T) {
	r := NewRouter("node")
	r.AddChild("child")
	sink := &routeSink{}

	// The chain is seeded with the publisher id at creation; the author's
	// own publishes must still route.
	env := testutil.NewEnvelopeBuilder().Publisher("node").Down().Build()
	require.True(t, env.HasVisited("node"))
	require.NoError(t, r.Route(context.Background(), env, sink.selfHandler, sink.forward))

	assert.Equal(t, []string{"child"}, sink.forwards)
}

func TestRouter_ClearChildren(t *testing.T) {
	r := NewRouter("node")
	r.AddChild("b")
	r.AddChild("a")

	assert.Equal(t, []string{"a", "b"}, r.ClearChildren())
	assert.Empty(t, r.Children())
}
