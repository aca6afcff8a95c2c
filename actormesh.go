// Package actormesh provides a high-level façade over the actor runtime and
// the workflow engine. Most applications interact with this package by:
//  1. Creating a Mesh via New() (optionally overriding defaults)
//  2. Registering tools and connectors the workflows may call
//  3. Running declarative workflow definitions via RunWorkflow
//
// The façade delegates event routing to the actor runtime and step execution
// to the workflow module pipeline while keeping setup ergonomics concise.
// All defaults are safe for local development and testing; production
// deployments typically supply real model providers and a structured logger.
package actormesh

import (
	"context"
	"fmt"

	"github.com/hupe1980/actormesh/actor"
	"github.com/hupe1980/actormesh/connector"
	"github.com/hupe1980/actormesh/core"
	"github.com/hupe1980/actormesh/logging"
	"github.com/hupe1980/actormesh/model"
	"github.com/hupe1980/actormesh/model/anthropic"
	"github.com/hupe1980/actormesh/model/openai"
	"github.com/hupe1980/actormesh/step"
	"github.com/hupe1980/actormesh/tool"
	"github.com/hupe1980/actormesh/workflow"
)

// Options configures the Mesh instance.
type Options struct {
	// Streams overrides the in-memory stream provider.
	Streams core.StreamProvider
	// Manifests overrides the in-memory manifest store.
	Manifests core.ManifestStore
	// Deduplicator overrides the default delivery deduplicator.
	Deduplicator core.Deduplicator

	// Registry resolves step module factories. Defaults to a registry with
	// every built-in step type installed.
	Registry *workflow.ModuleRegistry

	// Providers resolves chat providers for workflow roles. The default
	// resolver dispatches on the role's Provider field ("anthropic",
	// "openai", anything else gets a deterministic mock).
	Providers workflow.ProviderResolver

	// Tools backs tool_call steps. Nil disables the tool subsystem.
	Tools *tool.Registry

	// Connectors backs connector_call steps.
	Connectors *connector.Registry

	// StepOptions tune the built-in step modules (timeouts, scorer).
	StepOptions []func(o *step.Options)

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Mesh is the high-level façade aggregating the actor runtime, the workflow
// module registry and the wire codec.
type Mesh struct {
	opts    Options
	runtime *actor.Runtime
	codec   *core.Codec
}

// New creates a new Mesh with optional overrides. Any unset service is
// initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *Mesh {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Registry == nil {
		opts.Registry = workflow.NewModuleRegistry()
		step.RegisterAll(opts.Registry, opts.StepOptions...)
	}
	if opts.Providers == nil {
		opts.Providers = DefaultProviderResolver
	}

	runtime := actor.NewRuntime(func(o *actor.Options) {
		if opts.Streams != nil {
			o.Streams = opts.Streams
		}
		if opts.Manifests != nil {
			o.Manifests = opts.Manifests
		}
		o.Deduplicator = opts.Deduplicator
		o.Logger = opts.Logger
	})

	codec := core.NewCodec()
	core.RegisterBuiltinPayloads(codec)
	workflow.RegisterWorkflowPayloads(codec)

	return &Mesh{opts: opts, runtime: runtime, codec: codec}
}

// Runtime exposes the underlying actor runtime for direct actor management.
func (m *Mesh) Runtime() *actor.Runtime { return m.runtime }

// Codec exposes the wire codec with all built-in payload kinds registered.
func (m *Mesh) Codec() *core.Codec { return m.codec }

// Result is the outcome of one synchronous workflow run.
type Result struct {
	RunID   string
	Success bool
	Output  string
	Error   string
}

// CreateWorkflow parses, validates and activates a workflow actor for the
// given definition document (YAML or JSON). The caller owns the actor's
// lifecycle and destroys it through the runtime when done.
func (m *Mesh) CreateWorkflow(ctx context.Context, definition []byte) (*actor.Actor, error) {
	def, err := workflow.Parse(definition)
	if err != nil {
		return nil, err
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	typeName := "workflow:" + def.Name
	m.runtime.RegisterAgentType(typeName, func(id string) core.Agent {
		return workflow.NewRootAgent(typeName, def, workflow.RootAgentOptions{
			Registry:   m.opts.Registry,
			Runtime:    m.runtime,
			Providers:  m.opts.Providers,
			Tools:      m.opts.Tools,
			Connectors: m.opts.Connectors,
			Logger:     m.opts.Logger,
		})
	})

	return m.runtime.Create(ctx, typeName)
}

// RunWorkflow executes a workflow definition synchronously: it creates the
// workflow actor, starts one run with the given input and blocks until the
// run's terminal event or context cancellation. The actor is destroyed
// before returning.
func (m *Mesh) RunWorkflow(ctx context.Context, definition []byte, input string) (*Result, error) {
	a, err := m.CreateWorkflow(ctx, definition)
	if err != nil {
		return nil, err
	}
	defer func() { _ = m.runtime.Destroy(context.WithoutCancel(ctx), a.ID()) }()

	runID := core.NewID()
	watcher := workflow.NewCompletionWatcher(runID)
	a.Agent().InstallModule(watcher)

	if err := a.Publish(ctx, workflow.StartWorkflowPayload{RunID: runID, Input: input}, core.DirectionSelf); err != nil {
		return nil, fmt.Errorf("start workflow: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case p := <-watcher.Done():
		return &Result{RunID: p.RunID, Success: p.Success, Output: p.Output, Error: p.Error}, nil
	}
}

// DefaultProviderResolver dispatches on the role's Provider field. Unknown
// vendors resolve to a deterministic mock so definitions stay runnable in
// tests and examples without credentials.
func DefaultProviderResolver(role workflow.RoleDefinition) (model.Provider, error) {
	switch role.Provider {
	case "anthropic":
		var optFns []func(o *anthropic.Options)
		if role.Model != "" {
			optFns = append(optFns, anthropic.WithModel(role.Model))
		}
		return anthropic.New(optFns...), nil
	case "openai":
		var optFns []func(o *openai.Options)
		if role.Model != "" {
			optFns = append(optFns, openai.WithModel(role.Model))
		}
		return openai.New(optFns...), nil
	default:
		name := role.Model
		if name == "" {
			name = "mock"
		}
		return model.NewMockProvider(name), nil
	}
}
