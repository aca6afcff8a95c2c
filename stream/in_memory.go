package stream

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/actormesh/core"
)

// InMemoryProvider is a volatile StreamProvider keyed by actor id. It is
// safe for concurrent access and best suited for tests, single-process
// deployments and examples. Delivery is synchronous to preserve per-stream
// produce order; subscribers are expected to hand envelopes to a mailbox
// immediately rather than doing work inline.
type InMemoryProvider struct {
	mu      sync.RWMutex
	streams map[string]*inMemoryStream
}

// NewInMemoryProvider constructs an empty in-memory stream provider.
func NewInMemoryProvider() *InMemoryProvider {
	return &InMemoryProvider{streams: make(map[string]*inMemoryStream)}
}

// GetOrCreate implements core.StreamProvider.
func (p *InMemoryProvider) GetOrCreate(actorID string) (core.Stream, error) {
	if actorID == "" {
		return nil, fmt.Errorf("stream: empty actor id")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.streams[actorID]
	if !ok {
		s = &inMemoryStream{}
		p.streams[actorID] = s
	}
	return s, nil
}

// Remove implements core.StreamProvider. Removing an unknown stream is a
// no-op.
func (p *InMemoryProvider) Remove(actorID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.streams[actorID]; ok {
		s.close()
		delete(p.streams, actorID)
	}
	return nil
}

type subscriber struct {
	id      int
	handler core.StreamHandler
}

type inMemoryStream struct {
	mu     sync.Mutex
	nextID int
	subs   []subscriber
	closed bool
}

// Produce delivers the envelope to all current subscribers in subscription
// order. The subscriber snapshot is taken under the lock but handlers run
// outside it so a handler may subscribe or produce without deadlocking.
func (s *inMemoryStream) Produce(ctx context.Context, env core.Envelope) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("stream: produce on closed stream")
	}
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.handler(ctx, env)
	}
	return nil
}

// Subscribe registers a handler for subsequently produced envelopes.
func (s *inMemoryStream) Subscribe(handler core.StreamHandler) (core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("stream: subscribe on closed stream")
	}
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, handler: handler})
	return &inMemorySubscription{stream: s, id: id}, nil
}

func (s *inMemoryStream) unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

func (s *inMemoryStream) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.subs = nil
}

type inMemorySubscription struct {
	stream *inMemoryStream
	id     int
	once   sync.Once
}

// Unsubscribe implements core.Subscription and is idempotent.
func (s *inMemorySubscription) Unsubscribe() {
	s.once.Do(func() { s.stream.unsubscribe(s.id) })
}
