package core

import "context"

// StreamHandler consumes envelopes delivered by a stream subscription.
type StreamHandler func(ctx context.Context, env Envelope)

// Subscription is the handle returned by Stream.Subscribe; Unsubscribe is
// idempotent.
type Subscription interface {
	Unsubscribe()
}

// Stream is one pub/sub channel, keyed by actor id. Implementations must
// preserve per-stream produce order when delivering to a subscriber so that
// mailbox FIFO semantics hold end to end.
type Stream interface {
	// Produce delivers the envelope to all current subscribers.
	Produce(ctx context.Context, env Envelope) error

	// Subscribe registers a handler for every subsequently produced
	// envelope.
	Subscribe(handler StreamHandler) (Subscription, error)
}

// StreamProvider manages the set of streams backing a runtime. An in-memory
// channel implementation and a distributed broker-backed implementation are
// both valid; the runtime never assumes the backend can enumerate live
// streams.
type StreamProvider interface {
	// GetOrCreate returns the stream for the given actor id, creating it on
	// first use.
	GetOrCreate(actorID string) (Stream, error)

	// Remove tears down the stream for the given actor id.
	Remove(actorID string) error
}

// Deduplicator narrows at-least-once transports to effectively-once
// processing. Seen reports whether the envelope id was observed before and
// records it.
type Deduplicator interface {
	Seen(envelopeID string) bool
}

// Manifest is the persisted record enabling an actor to be reconstructed
// after a process restart.
type Manifest struct {
	ID       string `json:"id"`
	TypeName string `json:"type_name"`
}

// ManifestStore persists actor manifests. GetAll-style enumeration is
// manifest-backed rather than transport-backed because not every stream
// backend can enumerate live instances.
type ManifestStore interface {
	Save(m Manifest) error
	Delete(id string) error
	List() ([]Manifest, error)
}
