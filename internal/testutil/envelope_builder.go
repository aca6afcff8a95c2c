package testutil

import (
	"github.com/hupe1980/actormesh/core"
)

// EnvelopeBuilder provides a fluent helper for constructing envelopes in
// tests. Example:
//
//	env := NewEnvelopeBuilder().Publisher("root").Down().Text("hello").Build()
//
// Chain only the parts you need; sensible defaults are applied.
type EnvelopeBuilder struct {
	id            string
	publisherID   string
	direction     core.Direction
	correlationID string
	target        string
	payload       core.Payload
	metadata      map[string]string
	visited       []string
}

// NewEnvelopeBuilder creates a builder with default publisher "test".
func NewEnvelopeBuilder() *EnvelopeBuilder {
	return &EnvelopeBuilder{publisherID: "test", direction: core.DirectionSelf}
}

// ID overrides the auto-generated envelope ID (chainable). Use mainly in
// tests where determinism matters.
func (b *EnvelopeBuilder) ID(id string) *EnvelopeBuilder { b.id = id; return b }

// Publisher sets the publishing actor id (chainable).
func (b *EnvelopeBuilder) Publisher(id string) *EnvelopeBuilder { b.publisherID = id; return b }

// Correlation sets the correlation id (chainable).
func (b *EnvelopeBuilder) Correlation(id string) *EnvelopeBuilder { b.correlationID = id; return b }

// Target sets the point-to-point target actor id (chainable).
func (b *EnvelopeBuilder) Target(id string) *EnvelopeBuilder { b.target = id; return b }

// Direction sets an explicit routing direction (chainable).
func (b *EnvelopeBuilder) Direction(d core.Direction) *EnvelopeBuilder { b.direction = d; return b }

// Down routes the envelope toward children (chainable).
func (b *EnvelopeBuilder) Down() *EnvelopeBuilder { b.direction = core.DirectionDown; return b }

// Up routes the envelope toward the parent (chainable).
func (b *EnvelopeBuilder) Up() *EnvelopeBuilder { b.direction = core.DirectionUp; return b }

// Both routes the envelope in both directions (chainable).
func (b *EnvelopeBuilder) Both() *EnvelopeBuilder { b.direction = core.DirectionBoth; return b }

// Payload sets the envelope payload (chainable).
func (b *EnvelopeBuilder) Payload(p core.Payload) *EnvelopeBuilder { b.payload = p; return b }

// Text sets a MessagePayload with the given text (chainable).
func (b *EnvelopeBuilder) Text(t string) *EnvelopeBuilder {
	b.payload = core.MessagePayload{Text: t}
	return b
}

// Meta adds a metadata entry (chainable).
func (b *EnvelopeBuilder) Meta(key, value string) *EnvelopeBuilder {
	if b.metadata == nil {
		b.metadata = map[string]string{}
	}
	b.metadata[key] = value
	return b
}

// Visited appends actor ids to the publisher chain (chainable).
func (b *EnvelopeBuilder) Visited(ids ...string) *EnvelopeBuilder {
	b.visited = append(b.visited, ids...)
	return b
}

// Build constructs the core.Envelope value.
func (b *EnvelopeBuilder) Build() core.Envelope {
	payload := b.payload
	if payload == nil {
		payload = core.MessagePayload{Text: "test"}
	}

	env := core.NewEnvelope(b.publisherID, b.direction, payload)
	if b.id != "" {
		env.ID = b.id
	}
	env.CorrelationID = b.correlationID
	env.TargetActorID = b.target
	for k, v := range b.metadata {
		env.Metadata[k] = v
	}
	for _, id := range b.visited {
		env.AppendVisited(id)
	}
	return env
}
