// Package core defines the shared contracts of the actor mesh: the event
// envelope and its tagged payload union, direction semantics for hierarchical
// routing, the module / hook / agent contracts, the stream abstraction and
// the explicit write-scope handler context.
//
// Nothing in this package performs I/O; concrete runtimes (package actor),
// transports (package stream) and behaviors (package agent, step) build on
// these types.
package core
