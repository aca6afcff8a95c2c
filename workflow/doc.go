// Package workflow compiles declarative multi-step definitions into the
// module pipeline of a root workflow actor.
//
// A Definition is parsed from YAML or JSON and validated up front; the
// Orchestrator module then drives it as a small state machine, dispatching
// one step at a time as Self-directed StepRequest events and advancing on
// the matching StepCompleted. Step execution itself lives in pluggable
// modules resolved through a ModuleRegistry, so the set of step types is
// open for extension without touching the loop.
//
// RootAgent wires it all together: on activation it installs the
// orchestrator plus every module the definition requires and spawns a
// linked worker actor per declared role.
package workflow
