package sensor

import "errors"

// Fake is a test double that returns scripted readings.
type Fake struct {
	// Samples contains scripted readings. Each call to Read() consumes
	// the next sample.
	Samples []uint16

	// index tracks current position in Samples
	index int

	// Reads counts calls to Read
	Reads int

	// PowerUps and PowerDowns count Powerer calls
	PowerUps   int
	PowerDowns int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFake creates a Fake with the given samples.
func NewFake(samples ...uint16) *Fake {
	return &Fake{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *Fake) Read() (uint16, error) {
	f.Reads++
	if f.ReadError != nil {
		return 0, f.ReadError
	}

	if len(f.Samples) == 0 {
		return 0, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample, nil
}

// PowerUp records a wake.
func (f *Fake) PowerUp() error {
	f.PowerUps++
	return nil
}

// PowerDown records a sleep.
func (f *Fake) PowerDown() error {
	f.PowerDowns++
	return nil
}

// Close marks the sensor as closed.
func (f *Fake) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds to the first sample.
func (f *Fake) Reset() {
	f.index = 0
}
