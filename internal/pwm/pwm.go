// Package pwm applies duty levels to a PWM output register.
//
// The output stage drives the light with inverted polarity, so the value
// written to the register is 255 minus the duty level: duty 0 is register
// 255 and the light is dark.
package pwm

import "log/slog"

// Output is an 8-bit PWM compare register.
type Output interface {
	// Write stores register. The output is active for (255-register)/255
	// of each period.
	Write(register uint8) error

	// Close disables the output and releases it.
	Close() error
}

// Register returns the register value that produces duty.
func Register(duty uint8) uint8 {
	return 255 - duty
}

// Actuator converts duty levels to register writes.
// Write failures are logged and otherwise ignored; the next write retries.
type Actuator struct {
	out    Output
	logger *slog.Logger
}

// NewActuator creates an Actuator writing to out.
func NewActuator(out Output, logger *slog.Logger) *Actuator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Actuator{out: out, logger: logger}
}

// SetDuty writes the register for duty.
func (a *Actuator) SetDuty(duty uint8) {
	if err := a.out.Write(Register(duty)); err != nil {
		a.logger.Warn("pwm write failed", "duty", duty, "err", err)
	}
}
