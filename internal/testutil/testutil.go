// Package testutil provides test utilities and helpers.
package testutil

import (
	"context"
	"sync"
	"time"

	"contentboard/internal/notify"
)

// Clock is a settable time source safe for concurrent use.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock stopped at now.
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// RecordingSender is a notify.Sender that keeps every notification.
type RecordingSender struct {
	mu   sync.Mutex
	sent []notify.Notification
}

// Notify implements notify.Sender.
func (r *RecordingSender) Notify(_ context.Context, n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

// Sent returns a copy of the recorded notifications.
func (r *RecordingSender) Sent() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Notification(nil), r.sent...)
}

// OfType returns the recorded notifications of type typ.
func (r *RecordingSender) OfType(typ string) []notify.Notification {
	var out []notify.Notification
	for _, n := range r.Sent() {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}
