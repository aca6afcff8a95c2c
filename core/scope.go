package core

import (
	"context"
	"sync"
)

// RunRegistry hands out per-scope run tokens with latest-write-wins
// supersession: beginning a new run for a scope id cancels any prior token
// for that same scope. The workflow loop uses it so a fresh StartWorkflow
// supersedes a still-running cycle for the same actor.
type RunRegistry struct {
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewRunRegistry constructs an empty registry.
func NewRunRegistry() *RunRegistry {
	return &RunRegistry{cancels: make(map[string]context.CancelFunc)}
}

// Begin derives a cancellable context for the given scope id, cancelling any
// previously issued token for that scope first.
func (r *RunRegistry) Begin(ctx context.Context, scopeID string) (context.Context, context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.cancels[scopeID]; ok {
		prev()
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancels[scopeID] = cancel
	return runCtx, cancel
}

// End cancels and forgets the current token for the scope id, if any.
func (r *RunRegistry) End(scopeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cancel, ok := r.cancels[scopeID]; ok {
		cancel()
		delete(r.cancels, scopeID)
	}
}
