package tool

import (
	"github.com/hupe1980/actormesh/core"
)

// ModuleName is the registry name of the tool execution module.
const ModuleName = "tools"

// Module is the event module executing tool calls for its hosting agent. It
// answers every ToolCall envelope with exactly one Self-directed ToolResult
// carrying the same call id; unknown tools and execution failures report
// through the result's Error field rather than failing dispatch.
type Module struct {
	registry *Registry
}

// NewModule constructs the tool execution module over the given registry.
func NewModule(registry *Registry) *Module {
	return &Module{registry: registry}
}

// Name implements core.EventModule.
func (m *Module) Name() string { return ModuleName }

// Priority implements core.EventModule.
func (m *Module) Priority() int { return 100 }

// CanHandle implements core.EventModule.
func (m *Module) CanHandle(env core.Envelope) bool {
	return env.Payload != nil && env.Payload.Kind() == core.KindToolCall
}

// Handle implements core.EventModule.
func (m *Module) Handle(hctx *core.HandlerContext, env core.Envelope) error {
	call, ok := env.Payload.(core.ToolCallPayload)
	if !ok {
		return nil
	}

	result := core.ToolResultPayload{CallID: call.CallID, Name: call.Name}

	t, found := m.registry.Get(call.Name)
	if !found {
		result.Error = NewToolError(call.Name, "tool not registered").Error()
		return hctx.Publish(result, core.DirectionSelf)
	}

	out, err := t.Execute(hctx.Context, call.Arguments)
	if err != nil {
		result.Error = err.Error()
	} else {
		result.Output = out
	}

	return hctx.Publish(result, core.DirectionSelf)
}
