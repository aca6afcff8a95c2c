package actor

import (
	"context"
	"fmt"

	"github.com/hupe1980/actormesh/core"
	"github.com/hupe1980/actormesh/logging"
)

// Actor wraps exactly one agent instance and gives it a place in the
// hierarchy: a mailbox serializing event handling, a router holding the
// parent/child relation and a subscription to its own stream. Everything
// addressed to the actor (Up events from children, Down events from the
// parent, point-to-point sends) arrives on that stream; Self events go
// straight to the mailbox and never cross the actor boundary.
type Actor struct {
	id     string
	agent  core.Agent
	router *Router

	streams core.StreamProvider
	dedup   core.Deduplicator
	logger  logging.Logger

	mailbox *Mailbox
	sub     core.Subscription

	runCtx context.Context
	cancel context.CancelFunc
	state  map[string]any
}

// stateProvider is implemented by agents exposing their backing state map
// (agent.BaseAgent does). Agents without one get an actor-owned map.
type stateProvider interface {
	State() map[string]any
}

func newActor(
	id string,
	ag core.Agent,
	streams core.StreamProvider,
	dedup core.Deduplicator,
	logger logging.Logger,
) *Actor {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	state := map[string]any{}
	if sp, ok := ag.(stateProvider); ok {
		state = sp.State()
	}
	return &Actor{
		id:      id,
		agent:   ag,
		router:  NewRouter(id),
		streams: streams,
		dedup:   dedup,
		logger:  logger,
		mailbox: NewMailbox(),
		state:   state,
	}
}

// ID returns the actor's unique id.
func (a *Actor) ID() string { return a.id }

// Agent returns the wrapped agent instance. The agent is exclusively owned
// by this actor; callers must not invoke handler methods on it directly.
func (a *Actor) Agent() core.Agent { return a.agent }

// Router returns the actor's hierarchy record.
func (a *Actor) Router() *Router { return a.router }

// activate wires the actor: it subscribes to its own stream, starts the
// mailbox consumer and activates the agent inside a writable scope.
func (a *Actor) activate(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.runCtx = runCtx
	a.cancel = cancel

	st, err := a.streams.GetOrCreate(a.id)
	if err != nil {
		cancel()
		return fmt.Errorf("create stream for actor %s: %w", a.id, err)
	}
	sub, err := st.Subscribe(a.inbound)
	if err != nil {
		cancel()
		return fmt.Errorf("subscribe actor %s: %w", a.id, err)
	}
	a.sub = sub

	a.mailbox.Start(runCtx, a.process)

	hctx, closeScope := core.NewHandlerContext(runCtx, a.id, a, a.state, a.logger)
	defer closeScope()
	if err := a.agent.Activate(hctx); err != nil {
		a.sub.Unsubscribe()
		a.mailbox.Close()
		cancel()
		return fmt.Errorf("activate agent %s: %w", a.agent.Name(), err)
	}
	return nil
}

// deactivate reverses activate: unsubscribe, stop the mailbox, deactivate
// the agent.
func (a *Actor) deactivate(ctx context.Context) error {
	if a.sub != nil {
		a.sub.Unsubscribe()
	}
	a.mailbox.Close()

	hctx, closeScope := core.NewHandlerContext(ctx, a.id, a, a.state, a.logger)
	defer closeScope()
	err := a.agent.Deactivate(hctx)
	if a.cancel != nil {
		a.cancel()
	}
	return err
}

// HandleEvent enqueues an envelope for serialized handling. It is the entry
// point for Self-directed events and for tests driving an actor directly.
func (a *Actor) HandleEvent(env core.Envelope) error {
	return a.mailbox.Enqueue(env)
}

// inbound receives envelopes from the actor's stream. Duplicates (for
// at-least-once transports) and envelopes that already passed through this
// actor are dropped silently before they reach the mailbox.
func (a *Actor) inbound(_ context.Context, env core.Envelope) {
	if a.dedup != nil && a.dedup.Seen(env.ID) {
		return
	}
	if env.PublisherID != a.id && env.HasVisited(a.id) {
		a.logger.Debug("dropped cyclic envelope", "actor_id", a.id, "envelope_id", env.ID)
		return
	}
	if err := a.mailbox.Enqueue(env); err != nil {
		a.logger.Warn("dropped envelope", "actor_id", a.id, "envelope_id", env.ID, "error", err)
	}
}

// process handles one envelope from the mailbox: it opens a write scope,
// dispatches through the agent's pipeline and, for Down/Both envelopes
// relayed from the parent, re-broadcasts a clone further down to its own
// children with Up/Self leakage stripped.
func (a *Actor) process(env core.Envelope) {
	hctx, closeScope := core.NewHandlerContext(a.runCtx, a.id, a, a.state, a.logger)
	if err := a.agent.HandleEvent(hctx, env); err != nil {
		a.logger.Error("dispatch failed", "actor_id", a.id, "envelope_id", env.ID, "error", err)
	}
	closeScope()

	if (env.Direction == core.DirectionDown || env.Direction == core.DirectionBoth) && env.PublisherID != a.id {
		a.rebroadcastDown(env)
	}
}

// rebroadcastDown clones a relayed Down/Both envelope and forwards it to the
// current children. The clone is always Down: a Both envelope must not climb
// back up. This actor joins the publisher chain per delivered copy, after the
// router's cycle check; appending before it would make the router read the
// relay's own id as an already-visited hop and drop the clone.
func (a *Actor) rebroadcastDown(env core.Envelope) {
	children := a.router.Children()
	if len(children) == 0 {
		return
	}
	clone := env.Clone()
	clone.Direction = core.DirectionDown
	if err := a.router.Route(a.runCtx, clone, a.routeSelf, a.forwardRelay); err != nil {
		a.logger.Warn("re-broadcast failed", "actor_id", a.id, "envelope_id", env.ID, "error", err)
	}
}

// forwardRelay delivers one copy of a relayed envelope with this actor
// recorded in its publisher chain. Each target gets its own clone; the shared
// envelope is fanned out concurrently and must stay untouched.
func (a *Actor) forwardRelay(ctx context.Context, targetID string, env core.Envelope) error {
	relayed := env.Clone()
	relayed.AppendVisited(a.id)
	return a.forward(ctx, targetID, relayed)
}

// Publish implements core.Publisher. The envelope is routed per its
// direction; the publisher chain is seeded with this actor's id.
func (a *Actor) Publish(ctx context.Context, payload core.Payload, direction core.Direction) error {
	env := core.NewEnvelope(a.id, direction, payload)
	return a.router.Route(ctx, env, a.routeSelf, a.forward)
}

// SendTo implements core.Publisher: point-to-point delivery bypassing the
// hierarchy.
func (a *Actor) SendTo(ctx context.Context, targetActorID string, payload core.Payload) error {
	env := core.NewEnvelope(a.id, core.DirectionUnspecified, payload)
	env.TargetActorID = targetActorID
	return a.forward(ctx, targetActorID, env)
}

func (a *Actor) routeSelf(_ context.Context, env core.Envelope) error {
	return a.mailbox.Enqueue(env)
}

func (a *Actor) forward(ctx context.Context, targetID string, env core.Envelope) error {
	st, err := a.streams.GetOrCreate(targetID)
	if err != nil {
		return fmt.Errorf("forward to %s: %w", targetID, err)
	}
	return st.Produce(ctx, env)
}
