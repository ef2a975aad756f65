// Package power suspends the run loop between control iterations.
//
// Shallow sleep waits a short idle period, standing in for an idle CPU that
// any interrupt can wake. Deep sleep waits for the next time-base tick, the
// only wake source left in power-down.
package power

import (
	"context"
	"sync"
	"time"

	"github.com/sweeney/light-controller/internal/control"
)

// Sleeper blocks the run loop according to the selected sleep mode.
type Sleeper struct {
	mu   sync.Mutex
	mode control.SleepMode

	idle time.Duration
	tick <-chan struct{}
}

// NewSleeper creates a Sleeper. idle is the shallow wait; tick delivers
// time-base wakes for deep sleep.
func NewSleeper(idle time.Duration, tick <-chan struct{}) *Sleeper {
	return &Sleeper{idle: idle, tick: tick}
}

// SelectSleepMode sets the mode used by subsequent Sleep calls.
func (s *Sleeper) SelectSleepMode(mode control.SleepMode) {
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
}

// Mode returns the selected sleep mode.
func (s *Sleeper) Mode() control.SleepMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Sleep blocks until the selected wake condition or ctx cancellation.
func (s *Sleeper) Sleep(ctx context.Context) error {
	if s.Mode() == control.SleepDeep && s.tick != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.tick:
			return nil
		}
	}

	timer := time.NewTimer(s.idle)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
