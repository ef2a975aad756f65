package pwm

// FakeOutput records register writes.
type FakeOutput struct {
	// Writes holds every register value written, in order.
	Writes []uint8

	// Closed tracks if Close was called
	Closed bool

	// WriteError, if set, will be returned by Write()
	WriteError error
}

// NewFakeOutput creates an empty FakeOutput.
func NewFakeOutput() *FakeOutput {
	return &FakeOutput{}
}

// Write records register.
func (f *FakeOutput) Write(register uint8) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Writes = append(f.Writes, register)
	return nil
}

// Last returns the most recent register written, or 255 (dark) if none.
func (f *FakeOutput) Last() uint8 {
	if len(f.Writes) == 0 {
		return 255
	}
	return f.Writes[len(f.Writes)-1]
}

// Duties returns the duty level of every write, in order.
func (f *FakeOutput) Duties() []uint8 {
	out := make([]uint8, len(f.Writes))
	for i, r := range f.Writes {
		out[i] = 255 - r
	}
	return out
}

// Close marks the output as closed.
func (f *FakeOutput) Close() error {
	f.Closed = true
	return nil
}
