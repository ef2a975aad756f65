// Package control contains the brightness control core: the phase state
// machine, the unit-step feedback controller and the dip animation.
// This package has NO hardware dependencies. Sensor, clock, actuator and sleep
// control are injected through small interfaces, and the dip delay is an
// injectable function, so the whole schedule can be driven by fakes.
package control

import "time"

// State is a position in the daily phase cycle.
type State uint8

const (
	// StateSetup is the uninitialized sentinel. Entering it coerces the
	// machine to StateHighIntensity.
	StateSetup State = iota
	StateHighIntensity
	StateLowIntensity
	StateHighIntensity2
	StateWaiting
)

func (s State) String() string {
	switch s {
	case StateSetup:
		return "SETUP"
	case StateHighIntensity:
		return "HIGH"
	case StateLowIntensity:
		return "LOW"
	case StateHighIntensity2:
		return "HIGH2"
	case StateWaiting:
		return "WAITING"
	}
	return "UNKNOWN"
}

// SleepMode is the CPU sleep depth used between loop iterations.
type SleepMode uint8

const (
	// SleepShallow keeps every wake source running (idle sleep).
	SleepShallow SleepMode = iota
	// SleepDeep leaves only the time base as a wake source (power-down).
	SleepDeep
)

func (m SleepMode) String() string {
	if m == SleepDeep {
		return "deep"
	}
	return "shallow"
}

// Sensor is the power-gated light sensor. Enable must precede Read.
// Read reports false when no valid sample could be taken.
type Sensor interface {
	Enable()
	Read() (uint16, bool)
	Disable()
}

// Clock is the resettable millisecond time base.
type Clock interface {
	// Now returns milliseconds since the last Reset.
	Now() uint32
	Reset()
}

// Actuator applies a duty level to the PWM output.
type Actuator interface {
	SetDuty(duty uint8)
}

// SleepSelector records the sleep depth the run loop should use.
type SleepSelector interface {
	SelectSleepMode(mode SleepMode)
}

// Params are the fixed schedule and control constants.
// Durations are milliseconds on the time base.
type Params struct {
	MaxDuty             uint8
	TargetLow           uint16
	TargetHigh          uint16
	MeasurementInterval uint32
	HighPhase           uint32
	LowPhase            uint32
	// OffPhase is the nominal length of the off period. The Waiting phase
	// holds for HighPhase, matching the deployed schedule.
	OffPhase    uint32
	DipInterval uint32
	DipWindow   uint32

	DipRepeats int
	DipCeiling uint8
	DipStep    time.Duration
}

// SensorRange is the full-scale count of the 10-bit sensor ADC.
const SensorRange = 1024

// DefaultParams returns the production schedule.
func DefaultParams() Params {
	return Params{
		MaxDuty:             64,
		TargetLow:           185,
		TargetHigh:          556,
		MeasurementInterval: 2 * 1000,
		HighPhase:           3 * 60 * 60 * 1000,
		LowPhase:            30 * 60 * 1000,
		OffPhase:            16 * 60 * 60 * 1000,
		DipInterval:         1 * 60 * 60 * 1000,
		DipWindow:           10 * 1000,

		DipRepeats: 16,
		DipCeiling: 127,
		DipStep:    50 * time.Millisecond,
	}
}

// Phase describes what entering a state configures.
type Phase struct {
	State   State
	Target  uint16
	Timeout uint32
	Next    State
	Sleep   SleepMode
}

// Counts tracks controller activity since startup.
type Counts struct {
	Transitions int
	Samples     int
	Raises      int
	Lowers      int
	Holds       int
	Failures    int
	Dips        int
}

// Outcome reports what a single Step did.
type Outcome struct {
	// Entered is set when the step processed a phase entry edge.
	Entered bool
	// Advanced is set when the phase timed out; nothing else ran.
	Advanced bool
	Dipped   bool
	Sampled  bool
	// Failed is set with Sampled when the sensor returned no valid sample.
	Failed bool

	State   State
	Elapsed uint32
	Reading uint16
	Target  uint16
	Duty    uint8
}
