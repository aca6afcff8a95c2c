package core

import (
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Direction describes how an envelope travels through the actor hierarchy
// relative to its publisher.
type Direction int

const (
	// DirectionUnspecified is used for point-to-point deliveries (SendTo)
	// that bypass the hierarchy.
	DirectionUnspecified Direction = iota
	// DirectionDown targets the publisher's linked children.
	DirectionDown
	// DirectionUp targets the publisher's parent, if any.
	DirectionUp
	// DirectionBoth targets parent and children.
	DirectionBoth
	// DirectionSelf stays within the publishing actor and never crosses an
	// actor boundary.
	DirectionSelf
)

// String returns the wire label for the direction.
func (d Direction) String() string {
	switch d {
	case DirectionDown:
		return "down"
	case DirectionUp:
		return "up"
	case DirectionBoth:
		return "both"
	case DirectionSelf:
		return "self"
	default:
		return "unspecified"
	}
}

// MetaPublisherChain is the metadata key holding the comma-delimited list of
// actor ids an envelope has already visited. Routers consult it to prevent
// delivery cycles.
const MetaPublisherChain = "publisher_chain"

// Envelope is the typed message exchanged between actors. It is created once
// per publish and treated as immutable after routing; re-broadcast downward
// produces a Clone with mutated metadata instead of touching the original.
type Envelope struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Payload       Payload           `json:"-"`
	PublisherID   string            `json:"publisher_id"`
	Direction     Direction         `json:"direction"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	TargetActorID string            `json:"target_actor_id,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// NewEnvelope constructs an envelope published by the given actor. The
// publisher is recorded as the first entry of the publisher chain.
func NewEnvelope(publisherID string, direction Direction, payload Payload) Envelope {
	env := Envelope{
		ID:          uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		Payload:     payload,
		PublisherID: publisherID,
		Direction:   direction,
		Metadata:    map[string]string{},
	}
	if publisherID != "" {
		env.Metadata[MetaPublisherChain] = publisherID
	}
	return env
}

// Clone returns a deep copy of the envelope with an independent metadata map.
// The payload is shared; payloads are value types and never mutated after
// publication.
func (e Envelope) Clone() Envelope {
	c := e
	c.Metadata = make(map[string]string, len(e.Metadata))
	maps.Copy(c.Metadata, e.Metadata)
	return c
}

// PublisherChain returns the ordered list of actor ids the envelope has
// visited so far.
func (e Envelope) PublisherChain() []string {
	raw, ok := e.Metadata[MetaPublisherChain]
	if !ok || raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

// HasVisited reports whether actorID appears in the publisher chain. The
// check is an exact token comparison; substring matching would make actor id
// "a" falsely shadow "abc".
func (e Envelope) HasVisited(actorID string) bool {
	for _, id := range e.PublisherChain() {
		if id == actorID {
			return true
		}
	}
	return false
}

// AppendVisited records actorID at the end of the publisher chain. It is a
// no-op if the id is already present.
func (e *Envelope) AppendVisited(actorID string) {
	if actorID == "" || e.HasVisited(actorID) {
		return
	}
	if e.Metadata == nil {
		e.Metadata = map[string]string{}
	}
	if raw := e.Metadata[MetaPublisherChain]; raw != "" {
		e.Metadata[MetaPublisherChain] = raw + "," + actorID
	} else {
		e.Metadata[MetaPublisherChain] = actorID
	}
}

// NewID generates a unique identifier for envelopes, runs and actors.
func NewID() string { return uuid.NewString() }
