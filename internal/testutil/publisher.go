package testutil

import (
	"context"
	"sync"

	"github.com/hupe1980/actormesh/core"
)

// Published records one outbound payload captured by a CapturePublisher.
type Published struct {
	Payload   core.Payload
	Direction core.Direction
	Target    string
}

// CapturePublisher implements core.Publisher by recording every outbound
// payload, letting tests assert on what a handler emitted without wiring a
// runtime. Safe for concurrent use.
type CapturePublisher struct {
	mu        sync.Mutex
	published []Published
}

// NewCapturePublisher creates an empty capture publisher.
func NewCapturePublisher() *CapturePublisher { return &CapturePublisher{} }

// Publish implements core.Publisher.
func (c *CapturePublisher) Publish(_ context.Context, payload core.Payload, direction core.Direction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, Published{Payload: payload, Direction: direction})
	return nil
}

// SendTo implements core.Publisher.
func (c *CapturePublisher) SendTo(_ context.Context, targetActorID string, payload core.Payload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, Published{Payload: payload, Direction: core.DirectionUnspecified, Target: targetActorID})
	return nil
}

// All returns a snapshot of everything published so far.
func (c *CapturePublisher) All() []Published {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Published, len(c.published))
	copy(out, c.published)
	return out
}

// Last returns the most recent publication.
func (c *CapturePublisher) Last() (Published, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.published) == 0 {
		return Published{}, false
	}
	return c.published[len(c.published)-1], true
}

// Reset clears the recorded publications.
func (c *CapturePublisher) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = nil
}
