// Package stream provides the in-memory StreamProvider used by default and
// an in-memory Deduplicator for at-least-once transports. Broker-backed
// providers implement the same core interfaces.
package stream
