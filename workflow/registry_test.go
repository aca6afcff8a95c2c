package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/actormesh/core"
)

type nopModule struct{ name string }

func (m nopModule) Name() string                                     { return m.name }
func (m nopModule) Priority() int                                    { return 0 }
func (m nopModule) CanHandle(core.Envelope) bool                     { return false }
func (m nopModule) Handle(*core.HandlerContext, core.Envelope) error { return nil }

func TestModuleRegistry_RegisterResolve(t *testing.T) {
	r := NewModuleRegistry()

	_, ok := r.Resolve("transform")
	assert.False(t, ok)

	r.Register("transform", func(ModuleDeps) core.EventModule { return nopModule{name: "v1"} })
	r.Register("llm_call", func(ModuleDeps) core.EventModule { return nopModule{name: "llm"} })

	f, ok := r.Resolve("transform")
	require.True(t, ok)
	assert.Equal(t, "v1", f(ModuleDeps{}).Name())

	// Re-registration replaces the previous factory.
	r.Register("transform", func(ModuleDeps) core.EventModule { return nopModule{name: "v2"} })
	f, _ = r.Resolve("transform")
	assert.Equal(t, "v2", f(ModuleDeps{}).Name())

	assert.Equal(t, []string{"llm_call", "transform"}, r.Names())
}

func TestRequiredModules(t *testing.T) {
	def, err := Parse([]byte(`
name: mixed
steps:
  - id: a
    type: transform
  - id: b
    type: while
    parameters:
      condition: again
      body_step_type: tool_call
  - id: c
    type: foreach
    children:
      - id: c1
        type: connector_call
`))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"connector_call",
		"foreach",
		"llm_call",
		ModuleNameOrchestrator,
		"tool_call",
		"transform",
		"while",
	}, RequiredModules(def))
}

func TestRequiredModules_AlwaysIncludesOrchestrator(t *testing.T) {
	assert.Equal(t, []string{ModuleNameOrchestrator}, RequiredModules(&Definition{Name: "empty"}))
}

func TestRequiredModules_ImplicitFanoutWorkerModule(t *testing.T) {
	def, err := Parse([]byte(`
name: fan
steps:
  - id: spread
    type: parallel_fanout
    parameters:
      count: 2
`))
	require.NoError(t, err)

	mods := RequiredModules(def)
	assert.Contains(t, mods, "llm_call", "fan-out defaults its sub-steps to llm_call")
	assert.Contains(t, mods, "parallel_fanout")
}
