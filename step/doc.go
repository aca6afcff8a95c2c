// Package step provides the built-in step executor modules of the workflow
// engine. Each step type is one core.EventModule reacting to StepRequest
// events of its type and concluding with exactly one StepCompleted event,
// successful or not.
//
// Asynchronous steps (model calls, tool calls, sub-workflows) bridge their
// request/response pairs through a pending set keyed by correlation id; an
// optional timeout converts abandoned requests into failed completions so a
// run never hangs on a lost response.
//
// RegisterAll installs every built-in type into a workflow.ModuleRegistry.
package step
