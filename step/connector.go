package step

import (
	"strings"

	"github.com/hupe1980/actormesh/core"
	"github.com/hupe1980/actormesh/workflow"
)

// ConnectorCall executes an operation against a registered connector. When
// the dispatching role declares a connector allowlist, the orchestrator
// injects it as the allowed_connectors parameter and this module enforces it
// before touching the registry.
//
// Parameters:
//   - connector: name of the registered connector (required)
//   - operation: connector-specific verb (default "get")
//   - allowed_connectors: comma-separated allowlist, injected at dispatch
type ConnectorCall struct {
	baseModule

	deps workflow.ModuleDeps
}

// NewConnectorCall constructs the connector_call step module.
func NewConnectorCall(deps workflow.ModuleDeps) *ConnectorCall {
	return &ConnectorCall{
		baseModule: baseModule{name: TypeConnectorCall, priority: stepPriority},
		deps:       deps,
	}
}

// CanHandle implements core.EventModule.
func (m *ConnectorCall) CanHandle(env core.Envelope) bool {
	_, ok := requestOfType(env, TypeConnectorCall)
	return ok
}

// Handle implements core.EventModule.
func (m *ConnectorCall) Handle(hctx *core.HandlerContext, env core.Envelope) error {
	req, ok := requestOfType(env, TypeConnectorCall)
	if !ok {
		return nil
	}

	name := paramString(req.Parameters, "connector", "")
	if name == "" {
		return failStep(hctx, req.RunID, req.StepID, "connector_call step requires a connector parameter")
	}

	if allowed := paramString(req.Parameters, "allowed_connectors", ""); allowed != "" {
		if !allowlisted(name, allowed) {
			return failStep(hctx, req.RunID, req.StepID, "connector not allowed: "+name)
		}
	}

	if m.deps.Connectors == nil {
		return failStep(hctx, req.RunID, req.StepID, "no connector registry configured")
	}
	conn, found := m.deps.Connectors.Get(name)
	if !found {
		return failStep(hctx, req.RunID, req.StepID, "unknown connector: "+name)
	}

	params := map[string]any{}
	for k, v := range req.Parameters {
		params[k] = v
	}
	params["input"] = req.Input

	out, err := conn.Execute(hctx.Context, paramString(req.Parameters, "operation", "get"), params)
	if err != nil {
		return failStep(hctx, req.RunID, req.StepID, err.Error())
	}

	return completeStep(hctx, req.RunID, req.StepID, out, nil)
}

// allowlisted tests exact membership in a comma-separated list.
func allowlisted(name, allowed string) bool {
	for _, entry := range strings.Split(allowed, ",") {
		if strings.TrimSpace(entry) == name {
			return true
		}
	}
	return false
}
