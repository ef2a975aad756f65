package clock

import "time"

// Fake is a manually advanced time base for tests.
type Fake struct {
	ms uint32

	// Resets counts calls to Reset.
	Resets int
}

// NewFake creates a Fake reading start.
func NewFake(start uint32) *Fake {
	return &Fake{ms: start}
}

// Now returns the current fake time.
func (f *Fake) Now() uint32 {
	return f.ms
}

// Reset sets the fake time to zero.
func (f *Fake) Reset() {
	f.ms = 0
	f.Resets++
}

// Set moves the fake time to ms.
func (f *Fake) Set(ms uint32) {
	f.ms = ms
}

// Advance moves the fake time forward by ms.
func (f *Fake) Advance(ms uint32) {
	f.ms += ms
}

// Sleep advances the fake time by d instead of blocking. It can stand in for
// a delay primitive.
func (f *Fake) Sleep(d time.Duration) {
	f.ms += uint32(d / time.Millisecond)
}
