package core

import "context"

// EventModule is a runtime-installable strategy matched against incoming
// envelopes. Modules are the extension point shared by generic event handlers
// and workflow step executors.
//
// Dispatch collects every matching module and compiled handler for an
// envelope and runs all of them in priority order (ascending, ties broken by
// name); there is no short-circuit on first match. A module error or panic
// is isolated to that invocation and never aborts sibling matches.
type EventModule interface {
	// Name uniquely identifies the module within one agent.
	Name() string

	// Priority orders execution among all matches for one envelope. Lower
	// runs first.
	Priority() int

	// CanHandle reports whether the module wants the envelope.
	CanHandle(env Envelope) bool

	// Handle processes the envelope within the given write scope.
	Handle(hctx *HandlerContext, env Envelope) error
}

// Hook intercepts dispatch around each individual handler or module
// invocation. Hooks fire Start before the invocation and End after it,
// success or failure; OnError additionally fires when the invocation failed.
// Hook faults are swallowed and logged, never surfaced to the handler or its
// siblings.
type Hook interface {
	// Name identifies the hook for logging.
	Name() string

	// Priority orders the interceptor chain. Lower runs first.
	Priority() int

	// OnStart fires before a handler invocation.
	OnStart(hctx *HandlerContext, env Envelope, handlerName string)

	// OnEnd fires after a handler invocation, with the invocation's error
	// (nil on success).
	OnEnd(hctx *HandlerContext, env Envelope, handlerName string, err error)

	// OnError fires when a handler invocation failed or panicked.
	OnError(hctx *HandlerContext, env Envelope, handlerName string, err error)
}

// Agent is the unit of behavior hosted by an actor. It owns state, declares
// compiled handlers and hosts installed modules. All methods are invoked by
// the owning actor, one at a time; implementations never see concurrent
// calls.
type Agent interface {
	// Name returns the agent's type-level name.
	Name() string

	// Activate prepares the agent once its actor is wired. The scope is
	// writable for the duration of the call.
	Activate(hctx *HandlerContext) error

	// Deactivate releases agent resources.
	Deactivate(hctx *HandlerContext) error

	// HandleEvent dispatches the envelope through the agent's handler and
	// module pipeline.
	HandleEvent(hctx *HandlerContext, env Envelope) error

	// InstallModule adds a module at runtime.
	InstallModule(m EventModule)

	// UninstallModule removes a module by name.
	UninstallModule(name string)
}

// Publisher is the outbound side of an actor, consumed by agents.
type Publisher interface {
	// Publish routes a payload through the hierarchy in the given direction.
	Publish(ctx context.Context, payload Payload, direction Direction) error

	// SendTo delivers a payload point-to-point to the target actor,
	// bypassing the hierarchy.
	SendTo(ctx context.Context, targetActorID string, payload Payload) error
}
