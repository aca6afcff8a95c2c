package actor

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/actormesh/core"
)

// Mailbox is the FIFO, single-consumer queue serializing event handling for
// one actor. A single consumer goroutine guarantees at most one in-flight
// handling per actor, which gives handlers exclusive, race-free ownership of
// the agent's state.
//
// The queue is unbounded so a handler can publish to its own actor without
// deadlocking on a full buffer; backpressure is the responsibility of the
// transport in distributed deployments.
type Mailbox struct {
	mu     sync.Mutex
	queue  []core.Envelope
	wake   chan struct{}
	closed bool
	done   chan struct{}
}

// NewMailbox constructs an idle mailbox. Start must be called before
// envelopes are consumed.
func NewMailbox() *Mailbox {
	return &Mailbox{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Enqueue appends an envelope to the queue. It never blocks on a consumer.
func (m *Mailbox) Enqueue(env core.Envelope) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return fmt.Errorf("mailbox closed")
	}
	m.queue = append(m.queue, env)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
	return nil
}

// Len returns the number of queued envelopes.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Start launches the single consumer goroutine. handler is invoked for one
// envelope at a time, strictly in enqueue order. The consumer exits when the
// context is cancelled or Close is called; queued envelopes are not drained
// on shutdown.
func (m *Mailbox) Start(ctx context.Context, handler func(env core.Envelope)) {
	go func() {
		for {
			if ctx.Err() != nil {
				return
			}
			env, ok := m.next()
			if ok {
				handler(env)
				continue
			}
			select {
			case <-ctx.Done():
				return
			case <-m.done:
				return
			case <-m.wake:
			}
		}
	}()
}

func (m *Mailbox) next() (core.Envelope, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return core.Envelope{}, false
	}
	env := m.queue[0]
	m.queue = m.queue[1:]
	return env, true
}

// Close stops accepting envelopes and terminates the consumer.
func (m *Mailbox) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()
	close(m.done)
}
