// Package connector exposes external systems to workflow steps through a
// uniform operation interface, gated by per-role allowlists enforced at
// dispatch time.
package connector

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Connector is a named gateway to an external system. Operations are
// connector-specific verbs ("get", "post", "query", ...); parameters carry
// the step's configuration.
type Connector interface {
	// Name returns the unique identifier of this connector.
	Name() string

	// Execute runs one operation and returns its textual output.
	Execute(ctx context.Context, operation string, params map[string]any) (string, error)
}

// Registry is a concurrency-safe, name-keyed connector collection.
type Registry struct {
	mu         sync.RWMutex
	connectors map[string]Connector
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{connectors: make(map[string]Connector)}
}

// Register installs a connector, replacing any previous connector with the
// same name.
func (r *Registry) Register(c Connector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectors[c.Name()] = c
}

// Get returns the connector registered under name.
func (r *Registry) Get(name string) (Connector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.connectors[name]
	return c, ok
}

// Names returns the sorted registered connector names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.connectors))
	for name := range r.connectors {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Func adapts a plain function into a Connector. Useful for tests and small
// in-process integrations.
type Func struct {
	name string
	fn   func(ctx context.Context, operation string, params map[string]any) (string, error)
}

// NewFunc constructs a function-backed connector.
func NewFunc(name string, fn func(ctx context.Context, operation string, params map[string]any) (string, error)) *Func {
	return &Func{name: name, fn: fn}
}

// Name implements Connector.
func (c *Func) Name() string { return c.name }

// Execute implements Connector.
func (c *Func) Execute(ctx context.Context, operation string, params map[string]any) (string, error) {
	out, err := c.fn(ctx, operation, params)
	if err != nil {
		return "", fmt.Errorf("connector %s: %w", c.name, err)
	}
	return out, nil
}
