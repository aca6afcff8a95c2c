package actor

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/actormesh/core"
	"github.com/hupe1980/actormesh/logging"
	"github.com/hupe1980/actormesh/manifest"
	"github.com/hupe1980/actormesh/stream"
)

// AgentFactory constructs a fresh agent instance for the given actor id.
type AgentFactory func(id string) core.Agent

// Options configures a Runtime. All services default to in-memory
// implementations suitable for development and tests.
type Options struct {
	// Streams is the pub/sub backend keyed by actor id.
	Streams core.StreamProvider

	// Manifests persists actor records for restart-time restoration.
	Manifests core.ManifestStore

	// Deduplicator guards against redelivery on at-least-once transports.
	// Nil disables deduplication (correct for the in-memory provider).
	Deduplicator core.Deduplicator

	// Logger receives structured runtime logs. Defaults to NoOp.
	Logger logging.Logger
}

// Runtime creates, destroys and links actors and restores them from
// persisted manifests after a process restart. Enumeration is
// manifest-backed rather than transport-backed because not every stream
// backend can enumerate live instances.
type Runtime struct {
	streams   core.StreamProvider
	manifests core.ManifestStore
	dedup     core.Deduplicator
	logger    logging.Logger
	runs      *core.RunRegistry

	mu        sync.RWMutex
	factories map[string]AgentFactory
	actors    map[string]*Actor
}

// NewRuntime constructs a runtime with optional overrides.
func NewRuntime(optFns ...func(o *Options)) *Runtime {
	opts := Options{
		Streams:   stream.NewInMemoryProvider(),
		Manifests: manifest.NewInMemoryStore(),
		Logger:    logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Runtime{
		streams:   opts.Streams,
		manifests: opts.Manifests,
		dedup:     opts.Deduplicator,
		logger:    opts.Logger,
		runs:      core.NewRunRegistry(),
		factories: make(map[string]AgentFactory),
		actors:    make(map[string]*Actor),
	}
}

// RegisterAgentType installs a factory under a type name. Manifests record
// the type name so restored actors are rebuilt through the same factory.
func (r *Runtime) RegisterAgentType(typeName string, factory AgentFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[typeName] = factory
}

// Runs exposes the per-scope run token registry shared by all actors of
// this runtime.
func (r *Runtime) Runs() *core.RunRegistry { return r.runs }

// Streams exposes the runtime's stream provider.
func (r *Runtime) Streams() core.StreamProvider { return r.streams }

// Create allocates an actor of the registered type, persists its manifest
// and activates it. When id is omitted a new unique id is generated.
func (r *Runtime) Create(ctx context.Context, typeName string, id ...string) (*Actor, error) {
	r.mu.Lock()
	factory, ok := r.factories[typeName]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no agent type registered as %q", typeName)
	}

	actorID := core.NewID()
	if len(id) > 0 && id[0] != "" {
		actorID = id[0]
	}

	r.mu.Lock()
	if _, exists := r.actors[actorID]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("actor %s already exists", actorID)
	}
	a := newActor(actorID, factory(actorID), r.streams, r.dedup, r.logger)
	r.actors[actorID] = a
	r.mu.Unlock()

	if err := r.manifests.Save(core.Manifest{ID: actorID, TypeName: typeName}); err != nil {
		r.forget(actorID)
		return nil, fmt.Errorf("persist manifest for %s: %w", actorID, err)
	}
	if err := a.activate(ctx); err != nil {
		r.forget(actorID)
		_ = r.manifests.Delete(actorID)
		return nil, err
	}

	r.logger.Debug("runtime created actor", "actor_id", actorID, "type", typeName)
	return a, nil
}

// Destroy unlinks the actor from its parent, clears its children,
// deactivates it and removes its stream and manifest.
func (r *Runtime) Destroy(ctx context.Context, id string) error {
	a, ok := r.Get(id)
	if !ok {
		return fmt.Errorf("actor %s not found", id)
	}

	if parent := a.Router().Parent(); parent != "" {
		if err := r.Unlink(id); err != nil {
			r.logger.Warn("unlink from parent failed during destroy", "actor_id", id, "error", err)
		}
	}
	for _, childID := range a.Router().ClearChildren() {
		if child, ok := r.Get(childID); ok {
			child.Router().SetParent("")
		}
	}

	if err := a.deactivate(ctx); err != nil {
		r.logger.Warn("deactivate failed during destroy", "actor_id", id, "error", err)
	}
	if err := r.streams.Remove(id); err != nil {
		r.logger.Warn("stream removal failed during destroy", "actor_id", id, "error", err)
	}
	if err := r.manifests.Delete(id); err != nil {
		return fmt.Errorf("remove manifest for %s: %w", id, err)
	}
	r.forget(id)
	r.runs.End(id)
	return nil
}

// Link records childID under parentID. An actor has at most one parent;
// linking an already linked child fails.
func (r *Runtime) Link(parentID, childID string) error {
	parent, ok := r.Get(parentID)
	if !ok {
		return fmt.Errorf("parent actor %s not found", parentID)
	}
	child, ok := r.Get(childID)
	if !ok {
		return fmt.Errorf("child actor %s not found", childID)
	}
	if parentID == childID {
		return fmt.Errorf("actor %s cannot be its own parent", parentID)
	}
	if current := child.Router().Parent(); current != "" && current != parentID {
		return fmt.Errorf("actor %s already linked under %s", childID, current)
	}

	parent.Router().AddChild(childID)
	child.Router().SetParent(parentID)
	return nil
}

// Unlink reverses Link for the given child.
func (r *Runtime) Unlink(childID string) error {
	child, ok := r.Get(childID)
	if !ok {
		return fmt.Errorf("child actor %s not found", childID)
	}
	parentID := child.Router().Parent()
	if parentID == "" {
		return nil
	}
	if parent, ok := r.Get(parentID); ok {
		parent.Router().RemoveChild(childID)
	}
	child.Router().SetParent("")
	return nil
}

// Get returns the live actor for the given id.
func (r *Runtime) Get(id string) (*Actor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.actors[id]
	return a, ok
}

// GetAll enumerates the persisted manifests of all actors.
func (r *Runtime) GetAll() ([]core.Manifest, error) {
	return r.manifests.List()
}

// RestoreAll replays persisted manifests and reconstructs any actor that is
// not already live. Restoration is idempotent; manifests with an unknown
// type name are skipped with a warning.
func (r *Runtime) RestoreAll(ctx context.Context) error {
	records, err := r.manifests.List()
	if err != nil {
		return fmt.Errorf("list manifests: %w", err)
	}

	for _, m := range records {
		if _, exists := r.Get(m.ID); exists {
			continue
		}
		r.mu.Lock()
		factory, ok := r.factories[m.TypeName]
		r.mu.Unlock()
		if !ok {
			r.logger.Warn("no agent type registered, skipping actor", "type", m.TypeName, "actor_id", m.ID)
			continue
		}

		r.mu.Lock()
		a := newActor(m.ID, factory(m.ID), r.streams, r.dedup, r.logger)
		r.actors[m.ID] = a
		r.mu.Unlock()

		if err := a.activate(ctx); err != nil {
			r.forget(m.ID)
			return fmt.Errorf("restore actor %s: %w", m.ID, err)
		}
		r.logger.Debug("runtime restored actor", "actor_id", m.ID, "type", m.TypeName)
	}
	return nil
}

func (r *Runtime) forget(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.actors, id)
}
