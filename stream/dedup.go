package stream

import "sync"

// InMemoryDeduplicator narrows at-least-once transports to effectively-once
// processing by remembering envelope ids in a bounded window. Once the
// window fills, the oldest half is discarded; a broker that redelivers after
// that horizon is treated as a fresh envelope.
type InMemoryDeduplicator struct {
	mu    sync.Mutex
	limit int
	order []string
	seen  map[string]struct{}
}

// NewInMemoryDeduplicator constructs a deduplicator remembering up to limit
// envelope ids (defaults to 4096 when limit <= 0).
func NewInMemoryDeduplicator(limit int) *InMemoryDeduplicator {
	if limit <= 0 {
		limit = 4096
	}
	return &InMemoryDeduplicator{limit: limit, seen: make(map[string]struct{})}
}

// Seen implements core.Deduplicator.
func (d *InMemoryDeduplicator) Seen(envelopeID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[envelopeID]; ok {
		return true
	}
	if len(d.order) >= d.limit {
		drop := d.order[:d.limit/2]
		for _, id := range drop {
			delete(d.seen, id)
		}
		d.order = append([]string(nil), d.order[d.limit/2:]...)
	}
	d.seen[envelopeID] = struct{}{}
	d.order = append(d.order, envelopeID)
	return false
}
