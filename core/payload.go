package core

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Payload is the typed body of an envelope. Each payload kind carries a
// stable string discriminator used for wire encoding and handler matching.
type Payload interface {
	Kind() string
}

// WirePayload is the serialized form of a payload: a type tag plus raw bytes.
type WirePayload struct {
	TypeTag string          `json:"type_tag"`
	Bytes   json.RawMessage `json:"bytes"`
}

// WireEnvelope is the transport representation of an Envelope with the
// payload flattened into its tagged-union wire shape.
type WireEnvelope struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Payload       WirePayload       `json:"payload"`
	PublisherID   string            `json:"publisher_id"`
	Direction     string            `json:"direction"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	TargetActorID string            `json:"target_actor_id,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Decoder turns raw payload bytes back into a concrete Payload.
type Decoder func(data []byte) (Payload, error)

// Codec maps payload discriminators to decoders so broker-backed stream
// providers can round-trip envelopes. Encoding needs no registration; any
// Payload marshals via encoding/json. Decoding an unregistered kind fails
// with an explicit error rather than guessing.
type Codec struct {
	mu       sync.RWMutex
	decoders map[string]Decoder
}

// NewCodec returns a codec with no registered payload kinds.
func NewCodec() *Codec {
	return &Codec{decoders: make(map[string]Decoder)}
}

// Register installs a decoder for the given payload kind, replacing any
// previous registration.
func (c *Codec) Register(kind string, dec Decoder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decoders[kind] = dec
}

// RegisterPayload is a generic convenience that registers a JSON decoder for
// the payload type P under its zero value's kind.
func RegisterPayload[P Payload](c *Codec) {
	var zero P
	c.Register(zero.Kind(), func(data []byte) (Payload, error) {
		var p P
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	})
}

// Encode converts an envelope into its wire representation.
func (c *Codec) Encode(env Envelope) (WireEnvelope, error) {
	if env.Payload == nil {
		return WireEnvelope{}, fmt.Errorf("envelope %s has no payload", env.ID)
	}
	raw, err := json.Marshal(env.Payload)
	if err != nil {
		return WireEnvelope{}, fmt.Errorf("marshal payload %q: %w", env.Payload.Kind(), err)
	}
	return WireEnvelope{
		ID:            env.ID,
		Timestamp:     env.Timestamp,
		Payload:       WirePayload{TypeTag: env.Payload.Kind(), Bytes: raw},
		PublisherID:   env.PublisherID,
		Direction:     env.Direction.String(),
		CorrelationID: env.CorrelationID,
		TargetActorID: env.TargetActorID,
		Metadata:      env.Metadata,
	}, nil
}

// Decode reconstructs an envelope from its wire representation using the
// registered decoder for the payload's type tag.
func (c *Codec) Decode(w WireEnvelope) (Envelope, error) {
	c.mu.RLock()
	dec, ok := c.decoders[w.Payload.TypeTag]
	c.mu.RUnlock()
	if !ok {
		return Envelope{}, fmt.Errorf("no decoder registered for payload kind %q", w.Payload.TypeTag)
	}
	payload, err := dec(w.Payload.Bytes)
	if err != nil {
		return Envelope{}, fmt.Errorf("decode payload %q: %w", w.Payload.TypeTag, err)
	}
	return Envelope{
		ID:            w.ID,
		Timestamp:     w.Timestamp,
		Payload:       payload,
		PublisherID:   w.PublisherID,
		Direction:     parseDirection(w.Direction),
		CorrelationID: w.CorrelationID,
		TargetActorID: w.TargetActorID,
		Metadata:      w.Metadata,
	}, nil
}

func parseDirection(s string) Direction {
	switch s {
	case "down":
		return DirectionDown
	case "up":
		return DirectionUp
	case "both":
		return DirectionBoth
	case "self":
		return DirectionSelf
	default:
		return DirectionUnspecified
	}
}
