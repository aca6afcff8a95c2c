package workflow

import (
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/actormesh/connector"
	"github.com/hupe1980/actormesh/core"
	"github.com/hupe1980/actormesh/logging"
	"github.com/hupe1980/actormesh/tool"
)

// RoleResolver maps a declared role id to the actor id executing it.
type RoleResolver func(roleID string) (string, bool)

// ModuleDeps carries the wiring a step module may need. Factories pick what
// they use and ignore the rest.
type ModuleDeps struct {
	Definition *Definition
	Roles      RoleResolver
	Connectors *connector.Registry
	Tools      *tool.Registry
	Runs       *core.RunRegistry
	Logger     logging.Logger
}

// ModuleFactory builds one module instance for a workflow actor.
type ModuleFactory func(deps ModuleDeps) core.EventModule

// ModuleRegistry is the explicit name-keyed factory table replacing any
// reflection-based module lookup. Missing entries are skipped with a
// warning during installation, never a hard failure, so optional extensions
// stay optional.
type ModuleRegistry struct {
	mu        sync.RWMutex
	factories map[string]ModuleFactory
}

// NewModuleRegistry constructs an empty registry.
func NewModuleRegistry() *ModuleRegistry {
	return &ModuleRegistry{factories: make(map[string]ModuleFactory)}
}

// Register installs a factory under the given module name, replacing any
// previous registration.
func (r *ModuleRegistry) Register(name string, f ModuleFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Resolve returns the factory registered under name.
func (r *ModuleRegistry) Resolve(name string) (ModuleFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// Names returns the sorted registered module names.
func (r *ModuleRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// stepTypeParamSuffix marks parameters declaring dynamically generated
// sub-step module types (fanout_step_type, body_step_type, ...).
const stepTypeParamSuffix = "_step_type"

// implicitDeps maps a step type to module names it transitively requires at
// runtime beyond its declared parameters.
var implicitDeps = map[string][]string{
	"parallel_fanout": {"llm_call"},
	"foreach":         {"llm_call"},
}

// RequiredModules walks the compiled step tree, including nested children
// and dynamic *_step_type parameters, and computes the minimal module set a
// workflow actor must install, always including the orchestrator.
func RequiredModules(def *Definition) []string {
	seen := map[string]struct{}{ModuleNameOrchestrator: {}}
	var walk func(steps []StepDefinition)
	walk = func(steps []StepDefinition) {
		for _, s := range steps {
			if s.Type != "" {
				addModuleWithDeps(seen, s.Type)
			}
			for key, val := range s.Parameters {
				if !strings.HasSuffix(key, stepTypeParamSuffix) {
					continue
				}
				if name, ok := val.(string); ok && name != "" {
					addModuleWithDeps(seen, name)
				}
			}
			walk(s.Children)
		}
	}
	walk(def.Steps)

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func addModuleWithDeps(seen map[string]struct{}, name string) {
	if _, ok := seen[name]; ok {
		return
	}
	seen[name] = struct{}{}
	for _, dep := range implicitDeps[name] {
		addModuleWithDeps(seen, dep)
	}
}
