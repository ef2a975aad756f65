package gpio

// FakeSwitch is a test double that records every level it is driven to.
type FakeSwitch struct {
	// History holds every value passed to Set, in order.
	History []bool

	// Closed tracks if Close was called
	Closed bool

	// SetError, if set, will be returned by Set()
	SetError error
}

// NewFakeSwitch creates a FakeSwitch that starts off.
func NewFakeSwitch() *FakeSwitch {
	return &FakeSwitch{}
}

// Set records on.
func (f *FakeSwitch) Set(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.History = append(f.History, on)
	return nil
}

// On reports the last level set. A switch never set is off.
func (f *FakeSwitch) On() bool {
	if len(f.History) == 0 {
		return false
	}
	return f.History[len(f.History)-1]
}

// Close marks the switch as closed.
func (f *FakeSwitch) Close() error {
	f.Closed = true
	return nil
}

// Reset clears history and the closed flag.
func (f *FakeSwitch) Reset() {
	f.History = nil
	f.Closed = false
}
