package actor

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/actormesh/core"
)

// ForwardFunc delivers an envelope to one hierarchy neighbor, identified by
// actor id.
type ForwardFunc func(ctx context.Context, targetID string, env core.Envelope) error

// SelfFunc handles an envelope locally without crossing an actor boundary.
type SelfFunc func(ctx context.Context, env core.Envelope) error

// Router is the per-actor hierarchy record: at most one parent id plus a set
// of child ids, and the direction-based delivery decision over them. Link
// and Unlink mutate the record through the runtime; Route snapshots the
// relation at dispatch time so concurrent link/unlink calls cannot race a
// delivery in flight.
type Router struct {
	actorID string

	mu       sync.RWMutex
	parentID string
	children map[string]struct{}
}

// NewRouter constructs a router for the given actor id with no parent and no
// children.
func NewRouter(actorID string) *Router {
	return &Router{actorID: actorID, children: make(map[string]struct{})}
}

// SetParent records the parent id. An empty id clears the parent.
func (r *Router) SetParent(parentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parentID = parentID
}

// Parent returns the current parent id, or "" for a root actor.
func (r *Router) Parent() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.parentID
}

// AddChild records a child id.
func (r *Router) AddChild(childID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.children[childID] = struct{}{}
}

// RemoveChild forgets a child id. Unknown ids are ignored.
func (r *Router) RemoveChild(childID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.children, childID)
}

// Children returns a sorted snapshot of the current child ids.
func (r *Router) Children() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.children))
	for id := range r.children {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ClearChildren forgets all children and returns the previous snapshot.
func (r *Router) ClearChildren() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.children))
	for id := range r.children {
		out = append(out, id)
	}
	r.children = make(map[string]struct{})
	sort.Strings(out)
	return out
}

// Route applies the direction decision table to the envelope:
//
//	Self  -> selfHandler only
//	Down  -> forward to every current child, concurrently
//	Up    -> forward to the parent, if present
//	Both  -> parent plus all children
//
// Before forwarding a relayed envelope (one this actor did not author), the
// publisher chain is checked for this actor's id as an exact token; a hit
// means the envelope already passed through here and it is dropped silently.
// Down fan-out is best-effort with no inter-child ordering; the first
// forward error is returned after all deliveries were attempted.
func (r *Router) Route(ctx context.Context, env core.Envelope, selfHandler SelfFunc, forward ForwardFunc) error {
	switch env.Direction {
	case core.DirectionSelf:
		return selfHandler(ctx, env)
	case core.DirectionDown:
		if r.dropAsCycle(env) {
			return nil
		}
		return r.fanOut(ctx, env, r.Children(), forward)
	case core.DirectionUp:
		if r.dropAsCycle(env) {
			return nil
		}
		if parent := r.Parent(); parent != "" {
			return forward(ctx, parent, env)
		}
		return nil
	case core.DirectionBoth:
		if r.dropAsCycle(env) {
			return nil
		}
		targets := r.Children()
		if parent := r.Parent(); parent != "" {
			targets = append(targets, parent)
		}
		return r.fanOut(ctx, env, targets, forward)
	default:
		// Unspecified envelopes are point-to-point; the publisher delivers
		// them directly and never routes through the hierarchy.
		return nil
	}
}

// dropAsCycle reports whether the envelope must not be forwarded because it
// already passed through this actor. The author's own publishes are exempt:
// the chain is seeded with the publisher id at creation.
func (r *Router) dropAsCycle(env core.Envelope) bool {
	return env.PublisherID != r.actorID && env.HasVisited(r.actorID)
}

func (r *Router) fanOut(ctx context.Context, env core.Envelope, targets []string, forward ForwardFunc) error {
	if len(targets) == 0 {
		return nil
	}
	var g errgroup.Group
	for _, target := range targets {
		g.Go(func() error {
			return forward(ctx, target, env)
		})
	}
	return g.Wait()
}
