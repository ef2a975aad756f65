package power

import (
	"context"

	"github.com/sweeney/light-controller/internal/control"
)

// FakeSleeper records mode selections and sleeps without blocking.
type FakeSleeper struct {
	// Modes holds every mode passed to SelectSleepMode, in order.
	Modes []control.SleepMode
	// Sleeps counts calls to Sleep.
	Sleeps int
	// OnSleep, if set, runs on every Sleep call. A non-nil return is
	// passed back to the caller.
	OnSleep func(n int) error
}

// SelectSleepMode records mode.
func (f *FakeSleeper) SelectSleepMode(mode control.SleepMode) {
	f.Modes = append(f.Modes, mode)
}

// Mode returns the most recently selected mode.
func (f *FakeSleeper) Mode() control.SleepMode {
	if len(f.Modes) == 0 {
		return control.SleepShallow
	}
	return f.Modes[len(f.Modes)-1]
}

// Sleep returns immediately unless ctx is already cancelled.
func (f *FakeSleeper) Sleep(ctx context.Context) error {
	f.Sleeps++
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.OnSleep != nil {
		return f.OnSleep(f.Sleeps)
	}
	return nil
}
