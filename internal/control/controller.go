package control

import "time"

// Hardware bundles the collaborators a Controller drives.
type Hardware struct {
	Sensor   Sensor
	Clock    Clock
	Actuator Actuator
	// Sleep is optional.
	Sleep SleepSelector
	// Delay holds each dip step. Defaults to time.Sleep.
	Delay func(time.Duration)
}

// Controller owns all mutable control state. It is driven by calling Step
// once per main loop iteration and is not safe for concurrent use.
type Controller struct {
	params Params
	hw     Hardware

	current  State
	previous State
	next     State

	target          uint16
	duty            uint8
	timeout         uint32
	lastMeasurement uint32

	counts Counts
}

// New creates a controller positioned at the start of the cycle. The first
// Step processes the HighIntensity entry edge.
func New(params Params, hw Hardware) *Controller {
	if hw.Delay == nil {
		hw.Delay = time.Sleep
	}
	return &Controller{
		params:   params,
		hw:       hw,
		current:  StateHighIntensity,
		previous: StateSetup,
		next:     StateSetup,
	}
}

// Configure applies the initial target before the first Step so the output
// starts near the high-intensity level.
func (c *Controller) Configure() {
	c.ChangeTarget(c.params.TargetHigh)
}

// Step runs one iteration of the control loop.
//
// A pending phase entry is processed first. If the phase has then run longer
// than its timeout the machine moves to the next state and Step returns
// without doing anything else; the entry happens on the following call.
// Otherwise the dip runs when inside its window, followed by a feedback
// sample when one is due.
func (c *Controller) Step() Outcome {
	var out Outcome

	if c.current != c.previous {
		c.enter()
		out.Entered = true
	}

	now := c.hw.Clock.Now()
	if now > c.timeout {
		c.current = c.next
		out.Advanced = true
		return c.report(out, now)
	}

	if c.inDipWindow(now) {
		c.dip()
		out.Dipped = true
	}

	now = c.hw.Clock.Now()
	if c.lastMeasurement+c.params.MeasurementInterval <= now {
		out.Reading, out.Failed = c.sample(now)
		out.Sampled = true
	}

	return c.report(out, now)
}

// ChangeTarget sets the brightness target and jumps the duty to a linear
// estimate of the level that will reach it.
func (c *Controller) ChangeTarget(target uint16) {
	c.target = target
	c.apply(int(c.params.GuessDuty(target)))
}

// GuessDuty scales a sensor-range target linearly onto [0, MaxDuty].
// The result is truncated to 8 bits before any clamping.
func (p Params) GuessDuty(target uint16) uint8 {
	guess := uint32(target) * uint32(p.MaxDuty) / SensorRange
	return uint8(guess & 0xff)
}

func (p Params) phase(s State) Phase {
	switch s {
	case StateLowIntensity:
		return Phase{State: s, Target: p.TargetLow, Timeout: p.LowPhase, Next: StateHighIntensity2, Sleep: SleepShallow}
	case StateHighIntensity2:
		return Phase{State: s, Target: p.TargetHigh, Timeout: p.HighPhase, Next: StateWaiting, Sleep: SleepShallow}
	case StateWaiting:
		return Phase{State: s, Target: 0, Timeout: p.HighPhase, Next: StateHighIntensity, Sleep: SleepDeep}
	default:
		return Phase{State: StateHighIntensity, Target: p.TargetHigh, Timeout: p.HighPhase, Next: StateLowIntensity, Sleep: SleepShallow}
	}
}

// Schedule returns the entry configuration of every active state in cycle order.
func (p Params) Schedule() []Phase {
	return []Phase{
		p.phase(StateHighIntensity),
		p.phase(StateLowIntensity),
		p.phase(StateHighIntensity2),
		p.phase(StateWaiting),
	}
}

// enter configures the current state and closes the transition edge.
func (c *Controller) enter() {
	if c.current == StateSetup {
		c.current = StateHighIntensity
	}

	ph := c.params.phase(c.current)
	c.ChangeTarget(ph.Target)
	c.timeout = ph.Timeout
	c.next = ph.Next
	if c.hw.Sleep != nil {
		c.hw.Sleep.SelectSleepMode(ph.Sleep)
	}

	c.hw.Clock.Reset()
	c.lastMeasurement = 0
	c.previous = c.current
	c.counts.Transitions++
}

// sample takes one reading and moves the duty one unit toward the target.
// An invalid reading holds the duty. It reports whether the reading failed.
func (c *Controller) sample(now uint32) (uint16, bool) {
	c.lastMeasurement = now

	c.hw.Sensor.Enable()
	m, ok := c.hw.Sensor.Read()
	c.hw.Sensor.Disable()

	duty := int(c.duty)
	switch {
	case !ok:
		m = 0
		c.counts.Holds++
		c.counts.Failures++
	case m < c.target:
		duty++
		c.counts.Raises++
	case m > c.target:
		duty--
		c.counts.Lowers++
	default:
		c.counts.Holds++
	}
	c.counts.Samples++

	c.apply(duty)
	return m, !ok
}

// apply clamps duty to [0, MaxDuty] and pushes it to the actuator.
func (c *Controller) apply(duty int) {
	c.duty = clampDuty(duty, c.params.MaxDuty)
	c.hw.Actuator.SetDuty(c.duty)
}

func clampDuty(duty int, max uint8) uint8 {
	if duty < 0 {
		return 0
	}
	if duty > int(max) {
		return max
	}
	return uint8(duty)
}

func (c *Controller) report(out Outcome, now uint32) Outcome {
	out.State = c.current
	out.Elapsed = now
	out.Target = c.target
	out.Duty = c.duty
	return out
}

// State returns the current phase.
func (c *Controller) State() State { return c.current }

// PreviousState returns the phase whose entry was last processed.
func (c *Controller) PreviousState() State { return c.previous }

// NextState returns the phase that follows the current one on timeout.
func (c *Controller) NextState() State { return c.next }

// Target returns the current brightness target in sensor counts.
func (c *Controller) Target() uint16 { return c.target }

// Duty returns the current duty level.
func (c *Controller) Duty() uint8 { return c.duty }

// Timeout returns the length of the current phase in milliseconds.
func (c *Controller) Timeout() uint32 { return c.timeout }

// LastMeasurement returns the time base value of the last sample.
func (c *Controller) LastMeasurement() uint32 { return c.lastMeasurement }

// Counts returns a copy of the activity counters.
func (c *Controller) Counts() Counts { return c.counts }

// Params returns the constants the controller was built with.
func (c *Controller) Params() Params { return c.params }
