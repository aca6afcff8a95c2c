package workflow

import (
	"fmt"

	"github.com/hupe1980/actormesh/actor"
	"github.com/hupe1980/actormesh/agent"
	"github.com/hupe1980/actormesh/connector"
	"github.com/hupe1980/actormesh/core"
	"github.com/hupe1980/actormesh/logging"
	"github.com/hupe1980/actormesh/model"
	"github.com/hupe1980/actormesh/tool"
)

// ProviderResolver returns the chat provider configured for a role. The
// role's Provider field selects the vendor, its Model field the model id.
type ProviderResolver func(role RoleDefinition) (model.Provider, error)

// RootAgentOptions configures a RootAgent.
type RootAgentOptions struct {
	// Registry resolves step module factories. Required.
	Registry *ModuleRegistry
	// Runtime creates and links the role worker actors. Required.
	Runtime *actor.Runtime
	// Providers resolves chat providers for role workers. Required when the
	// definition declares roles.
	Providers ProviderResolver
	// Tools, when non-nil, installs the tool execution module.
	Tools *tool.Registry
	// Connectors backs connector_call steps.
	Connectors *connector.Registry
	// Logger defaults to the no-op logger.
	Logger logging.Logger
}

// RootAgent hosts one workflow definition. On activation it installs the
// orchestrator and every step module the definition requires, then spawns
// and links a worker actor per declared role.
type RootAgent struct {
	agent.BaseAgent

	def     *Definition
	opts    RootAgentOptions
	roleIDs map[string]string
}

// NewRootAgent constructs a root agent for the given compiled definition.
func NewRootAgent(name string, def *Definition, opts RootAgentOptions) *RootAgent {
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &RootAgent{
		BaseAgent: agent.NewBaseAgent(name),
		def:       def,
		opts:      opts,
		roleIDs:   make(map[string]string),
	}
}

// Activate installs the module pipeline and spawns the role workers.
func (a *RootAgent) Activate(hctx *core.HandlerContext) error {
	if err := a.BaseAgent.Activate(hctx); err != nil {
		return err
	}

	if err := a.spawnRoles(hctx); err != nil {
		return err
	}

	deps := ModuleDeps{
		Definition: a.def,
		Roles:      a.resolveRole,
		Connectors: a.opts.Connectors,
		Tools:      a.opts.Tools,
		Runs:       a.opts.Runtime.Runs(),
		Logger:     a.opts.Logger,
	}

	a.InstallModule(NewOrchestrator(a.def, a.opts.Runtime.Runs()))

	if a.opts.Tools != nil {
		a.InstallModule(tool.NewModule(a.opts.Tools))
	}

	for _, name := range RequiredModules(a.def) {
		if name == ModuleNameOrchestrator {
			continue
		}

		factory, ok := a.opts.Registry.Resolve(name)
		if !ok {
			a.opts.Logger.Warn("no module registered for step type, skipping", "module", name, "workflow", a.def.Name)
			continue
		}

		a.InstallModule(factory(deps))
	}

	return nil
}

// Deactivate tears down the role worker actors.
func (a *RootAgent) Deactivate(hctx *core.HandlerContext) error {
	for _, actorID := range a.roleIDs {
		if err := a.opts.Runtime.Destroy(hctx.Context, actorID); err != nil {
			a.opts.Logger.Warn("failed to destroy role worker", "actor_id", actorID, "error", err)
		}
	}

	return a.BaseAgent.Deactivate(hctx)
}

// resolveRole implements RoleResolver over the workers spawned on activation.
func (a *RootAgent) resolveRole(roleID string) (string, bool) {
	id, ok := a.roleIDs[roleID]
	return id, ok
}

func (a *RootAgent) spawnRoles(hctx *core.HandlerContext) error {
	for _, role := range a.def.Roles {
		if a.opts.Providers == nil {
			return fmt.Errorf("workflow %q declares role %q but no provider resolver is configured", a.def.Name, role.ID)
		}

		provider, err := a.opts.Providers(role)
		if err != nil {
			return fmt.Errorf("resolve provider for role %q: %w", role.ID, err)
		}

		role := role
		typeName := fmt.Sprintf("role:%s:%s", a.Name(), role.ID)
		a.opts.Runtime.RegisterAgentType(typeName, func(id string) core.Agent {
			return NewRoleAgent(id, role, provider, a.opts.Logger)
		})

		workerID := fmt.Sprintf("%s/%s", hctx.ActorID, role.ID)
		if _, err := a.opts.Runtime.Create(hctx.Context, typeName, workerID); err != nil {
			return fmt.Errorf("create role worker %q: %w", workerID, err)
		}

		if err := a.opts.Runtime.Link(hctx.ActorID, workerID); err != nil {
			return fmt.Errorf("link role worker %q: %w", workerID, err)
		}

		a.roleIDs[role.ID] = workerID
	}

	return nil
}
