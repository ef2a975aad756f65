// Package clock provides the millisecond time base for the control loop.
// A ticker goroutine plays the role of the periodic timer interrupt: it only
// advances an atomic counter and signals waiters. The control loop reads and
// resets the counter.
package clock

import (
	"context"
	"sync/atomic"
	"time"
)

// TickClock is a resettable millisecond counter advanced by a periodic tick.
type TickClock struct {
	period time.Duration
	ms     atomic.Uint32
	wake   chan struct{}
}

// NewTickClock creates a clock that advances by period on every tick.
// Periods below one millisecond are raised to one millisecond.
func NewTickClock(period time.Duration) *TickClock {
	if period < time.Millisecond {
		period = time.Millisecond
	}
	return &TickClock{
		period: period,
		wake:   make(chan struct{}, 1),
	}
}

// Run advances the counter until ctx is cancelled.
func (c *TickClock) Run(ctx context.Context) {
	ticker := time.NewTicker(c.period)
	defer ticker.Stop()

	step := uint32(c.period / time.Millisecond)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.ms.Add(step)
			select {
			case c.wake <- struct{}{}:
			default:
			}
		}
	}
}

// Now returns milliseconds since the last Reset.
func (c *TickClock) Now() uint32 {
	return c.ms.Load()
}

// Reset sets the counter back to zero.
func (c *TickClock) Reset() {
	c.ms.Store(0)
}

// Period returns the tick period.
func (c *TickClock) Period() time.Duration {
	return c.period
}

// Wake receives a value after each tick. Ticks that nobody is waiting for
// collapse into one pending wake.
func (c *TickClock) Wake() <-chan struct{} {
	return c.wake
}
