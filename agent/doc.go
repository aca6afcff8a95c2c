// Package agent provides BaseAgent, the dispatch pipeline shared by every
// agent implementation: compiled handler registration, runtime module
// installation and the priority-ordered interceptor chain around each
// invocation.
package agent
