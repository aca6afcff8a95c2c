package core

import (
	"context"
	"fmt"

	"github.com/hupe1980/actormesh/logging"
)

// HandlerContext is the explicit execution scope passed to every handler,
// module and hook invocation. It bundles:
//   - the ambient cancellation Context
//   - the identity of the hosting actor
//   - the actor's outbound Publisher
//   - write-scope state access (legal only while the scope is active)
//   - a structured logger
//
// A HandlerContext is writable for the duration of an activation or a single
// handler invocation; the actor closes the scope afterwards. Mutating agent
// state through a closed scope is a programming error and fails fast.
type HandlerContext struct {
	Context context.Context
	ActorID string
	RunID   string

	publisher Publisher
	state     map[string]any
	writable  *bool
	logger    logging.Logger
}

// NewHandlerContext constructs a handler context over the given actor state.
// The returned close function ends the write scope.
func NewHandlerContext(
	ctx context.Context,
	actorID string,
	publisher Publisher,
	state map[string]any,
	logger logging.Logger,
) (*HandlerContext, func()) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	writable := true
	hctx := &HandlerContext{
		Context:   ctx,
		ActorID:   actorID,
		publisher: publisher,
		state:     state,
		writable:  &writable,
		logger:    logger,
	}
	return hctx, func() { writable = false }
}

// Done returns the cancellation channel of the underlying context.
func (h *HandlerContext) Done() <-chan struct{} { return h.Context.Done() }

// Err returns the cancellation error of the underlying context, if any.
func (h *HandlerContext) Err() error { return h.Context.Err() }

// Logger returns the scope's structured logger.
func (h *HandlerContext) Logger() logging.Logger { return h.logger }

// Writable reports whether the write scope is still active.
func (h *HandlerContext) Writable() bool { return h.writable != nil && *h.writable }

// Publish emits a new envelope authored by the hosting actor in the given
// direction.
func (h *HandlerContext) Publish(payload Payload, direction Direction) error {
	if h.publisher == nil {
		return fmt.Errorf("actor %s has no publisher wired", h.ActorID)
	}
	return h.publisher.Publish(h.Context, payload, direction)
}

// SendTo emits a point-to-point envelope to the target actor, bypassing the
// hierarchy.
func (h *HandlerContext) SendTo(targetActorID string, payload Payload) error {
	if h.publisher == nil {
		return fmt.Errorf("actor %s has no publisher wired", h.ActorID)
	}
	return h.publisher.SendTo(h.Context, targetActorID, payload)
}

// GetState reads a value from the hosting agent's state.
func (h *HandlerContext) GetState(key string) (any, bool) {
	v, ok := h.state[key]
	return v, ok
}

// SetState mutates the hosting agent's state. Calling it outside an active
// write scope is a programming error, not a recoverable condition, and
// panics immediately.
func (h *HandlerContext) SetState(key string, value any) {
	if !h.Writable() {
		panic(fmt.Sprintf("actor %s: state mutation outside an active write scope (key %q)", h.ActorID, key))
	}
	h.state[key] = value
}

// DeleteState removes a key from the hosting agent's state under the same
// write-scope rule as SetState.
func (h *HandlerContext) DeleteState(key string) {
	if !h.Writable() {
		panic(fmt.Sprintf("actor %s: state mutation outside an active write scope (key %q)", h.ActorID, key))
	}
	delete(h.state, key)
}
