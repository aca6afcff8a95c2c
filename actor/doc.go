// Package actor implements the hierarchical actor runtime: per-actor
// routers with direction-based delivery and cycle prevention, FIFO
// single-consumer mailboxes, the actor wrapper around one agent instance and
// the manifest-backed runtime managing creation, linking and restoration.
package actor
