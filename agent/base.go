package agent

import (
	"sort"
	"sync"

	"github.com/hupe1980/actormesh/core"
)

// HandlerFunc is the signature of a compiled event handler.
type HandlerFunc func(hctx *core.HandlerContext, env core.Envelope) error

// HandlerOptions customizes matching for a compiled handler.
type HandlerOptions struct {
	// Priority orders the handler among all matches for one envelope.
	Priority int

	// ExcludeSelf skips envelopes published by the hosting actor itself.
	ExcludeSelf bool

	// SelfOnly matches only envelopes published by the hosting actor.
	SelfOnly bool
}

// handlerEntry is one compiled handler declared at construction time.
type handlerEntry struct {
	name        string
	kind        string
	priority    int
	excludeSelf bool
	selfOnly    bool
	fn          HandlerFunc
}

// BaseAgent bundles the dispatch pipeline shared by all agents: compiled
// handler registration, dynamic module installation and the interceptor
// chain. Embed it in concrete agent implementations; Activate/Deactivate
// default to no-ops and may be shadowed.
//
// The owning actor serializes all calls through its mailbox, so BaseAgent
// state needs no locking on the dispatch path; the mutex guards only
// concurrent Install/Uninstall against a running dispatch snapshot.
type BaseAgent struct {
	name     string
	mu       sync.Mutex
	handlers []handlerEntry
	modules  []core.EventModule
	hooks    []core.Hook
	state    map[string]any
}

// NewBaseAgent constructs a BaseAgent with the given type-level name.
func NewBaseAgent(name string) BaseAgent {
	return BaseAgent{name: name, state: map[string]any{}}
}

// Name returns the agent's name.
func (b *BaseAgent) Name() string { return b.name }

// Activate implements core.Agent as a no-op.
func (b *BaseAgent) Activate(_ *core.HandlerContext) error { return nil }

// Deactivate implements core.Agent as a no-op.
func (b *BaseAgent) Deactivate(_ *core.HandlerContext) error { return nil }

// State exposes the agent's backing state map to the owning actor, which
// wires it into the write scope of every HandlerContext.
func (b *BaseAgent) State() map[string]any { return b.state }

// On declares a compiled handler for the given payload kind. Handlers
// declared through On participate in the same dispatch pipeline as installed
// modules.
func (b *BaseAgent) On(name, payloadKind string, fn HandlerFunc, opts ...HandlerOptions) {
	var o HandlerOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handlerEntry{
		name:        name,
		kind:        payloadKind,
		priority:    o.Priority,
		excludeSelf: o.ExcludeSelf,
		selfOnly:    o.SelfOnly,
		fn:          fn,
	})
}

// InstallModule adds a module to the dispatch pipeline, replacing any
// installed module with the same name.
func (b *BaseAgent) InstallModule(m core.EventModule) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, existing := range b.modules {
		if existing.Name() == m.Name() {
			b.modules[i] = m
			return
		}
	}
	b.modules = append(b.modules, m)
}

// UninstallModule removes a module by name. Unknown names are ignored.
func (b *BaseAgent) UninstallModule(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, m := range b.modules {
		if m.Name() == name {
			b.modules = append(b.modules[:i], b.modules[i+1:]...)
			return
		}
	}
}

// Modules returns a snapshot of the installed modules.
func (b *BaseAgent) Modules() []core.EventModule {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]core.EventModule, len(b.modules))
	copy(out, b.modules)
	return out
}

// AddHook appends an interceptor to the externally supplied hook channel.
func (b *BaseAgent) AddHook(h core.Hook) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hooks = append(b.hooks, h)
}

// dispatchEntry is one executable match for an envelope.
type dispatchEntry struct {
	name     string
	priority int
	run      func(hctx *core.HandlerContext, env core.Envelope) error
}

// HandleEvent implements core.Agent. It collects every compiled handler and
// installed module matching the envelope, merges them into one list ordered
// by priority ascending (ties by name) and executes every match
// sequentially. Execution never short-circuits on the first match; a fault
// in one entry is isolated and the remaining matches still run.
func (b *BaseAgent) HandleEvent(hctx *core.HandlerContext, env core.Envelope) error {
	matches := b.collectMatches(hctx, env)
	if len(matches) == 0 {
		return nil
	}

	hooks := b.hookChain()
	for _, entry := range matches {
		b.runEntry(hctx, env, entry, hooks)
	}
	return nil
}

func (b *BaseAgent) collectMatches(hctx *core.HandlerContext, env core.Envelope) []dispatchEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	var matches []dispatchEntry
	for _, h := range b.handlers {
		if env.Payload == nil || env.Payload.Kind() != h.kind {
			continue
		}
		fromSelf := env.PublisherID == hctx.ActorID
		if h.excludeSelf && fromSelf {
			continue
		}
		if h.selfOnly && !fromSelf {
			continue
		}
		matches = append(matches, dispatchEntry{name: h.name, priority: h.priority, run: h.fn})
	}
	for _, m := range b.modules {
		if !m.CanHandle(env) {
			continue
		}
		matches = append(matches, dispatchEntry{name: m.Name(), priority: m.Priority(), run: m.Handle})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].priority != matches[j].priority {
			return matches[i].priority < matches[j].priority
		}
		return matches[i].name < matches[j].name
	})
	return matches
}

// hookChain snapshots the installed hooks as one interceptor list, ordered
// by ascending priority. An embedding agent that wants first position
// registers a hook with a lower priority than everything else.
func (b *BaseAgent) hookChain() []core.Hook {
	b.mu.Lock()
	hooks := make([]core.Hook, len(b.hooks))
	copy(hooks, b.hooks)
	b.mu.Unlock()

	sort.SliceStable(hooks, func(i, j int) bool { return hooks[i].Priority() < hooks[j].Priority() })
	return hooks
}

// runEntry executes one match wrapped in the interceptor chain. Handler
// faults (errors and panics) are recovered, logged and reported to the
// hooks' OnError; they never abort sibling matches.
func (b *BaseAgent) runEntry(hctx *core.HandlerContext, env core.Envelope, entry dispatchEntry, hooks []core.Hook) {
	for _, h := range hooks {
		b.safeHook(hctx, func() { h.OnStart(hctx, env, entry.name) }, h.Name())
	}

	err := b.safeInvoke(hctx, env, entry)

	for _, h := range hooks {
		b.safeHook(hctx, func() { h.OnEnd(hctx, env, entry.name, err) }, h.Name())
	}
	if err != nil {
		hctx.Logger().Error("handler failed", "handler", entry.name, "payload", env.Payload.Kind(), "error", err)
		for _, h := range hooks {
			b.safeHook(hctx, func() { h.OnError(hctx, env, entry.name, err) }, h.Name())
		}
	}
}

func (b *BaseAgent) safeInvoke(hctx *core.HandlerContext, env core.Envelope, entry dispatchEntry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &HandlerFault{Handler: entry.name, Recovered: r}
		}
	}()
	return entry.run(hctx, env)
}

func (b *BaseAgent) safeHook(hctx *core.HandlerContext, fn func(), hookName string) {
	defer func() {
		if r := recover(); r != nil {
			hctx.Logger().Warn("hook panicked", "hook", hookName, "recovered", r)
		}
	}()
	fn()
}
