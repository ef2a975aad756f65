package control

import (
	"testing"
	"time"

	"github.com/sweeney/light-controller/internal/clock"
)

// fakeSensor returns value(duty) for every read, modelling the light the
// current duty produces. calls records the enable/read/disable sequence.
// Reads fail while broken is set.
type fakeSensor struct {
	value  func() uint16
	calls  []string
	broken bool
}

func (s *fakeSensor) Enable()  { s.calls = append(s.calls, "enable") }
func (s *fakeSensor) Disable() { s.calls = append(s.calls, "disable") }
func (s *fakeSensor) Read() (uint16, bool) {
	s.calls = append(s.calls, "read")
	if s.broken {
		return 0, false
	}
	return s.value(), true
}

type fakeActuator struct {
	duties []uint8
}

func (a *fakeActuator) SetDuty(duty uint8) { a.duties = append(a.duties, duty) }

func (a *fakeActuator) last() uint8 { return a.duties[len(a.duties)-1] }

type fakeSleep struct {
	modes []SleepMode
}

func (s *fakeSleep) SelectSleepMode(mode SleepMode) { s.modes = append(s.modes, mode) }

type rig struct {
	c     *Controller
	clk   *clock.Fake
	sens  *fakeSensor
	act   *fakeActuator
	sleep *fakeSleep
}

// newRig builds a controller whose sensor always reads reading.
func newRig(t *testing.T, reading uint16) *rig {
	t.Helper()
	r := &rig{
		clk:   clock.NewFake(0),
		sens:  &fakeSensor{value: func() uint16 { return reading }},
		act:   &fakeActuator{},
		sleep: &fakeSleep{},
	}
	r.c = New(DefaultParams(), Hardware{
		Sensor:   r.sens,
		Clock:    r.clk,
		Actuator: r.act,
		Sleep:    r.sleep,
		Delay:    r.clk.Sleep,
	})
	return r
}

// enter runs the first step so the controller sits in HighIntensity.
func (r *rig) enter(t *testing.T) {
	t.Helper()
	out := r.c.Step()
	if !out.Entered || r.c.State() != StateHighIntensity {
		t.Fatalf("expected HighIntensity entry, got %+v", out)
	}
}

func TestNewController(t *testing.T) {
	r := newRig(t, 0)
	if r.c.State() != StateHighIntensity {
		t.Errorf("expected initial state HIGH, got %s", r.c.State())
	}
	if r.c.PreviousState() != StateSetup {
		t.Errorf("expected previous state SETUP, got %s", r.c.PreviousState())
	}
	if len(r.act.duties) != 0 {
		t.Errorf("New should not touch the actuator, got %v", r.act.duties)
	}
}

func TestGuessDuty(t *testing.T) {
	p := DefaultParams()
	tests := []struct {
		name   string
		target uint16
		want   uint8
	}{
		{"target high", 556, 34},
		{"target low", 185, 11},
		{"off", 0, 0},
		{"just under one step", 15, 0},
		{"one step", 16, 1},
		{"full scale", 1023, 63},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.GuessDuty(tt.target); got != tt.want {
				t.Errorf("GuessDuty(%d): got %d, want %d", tt.target, got, tt.want)
			}
		})
	}
}

func TestGuessDutyTruncatesTo8Bits(t *testing.T) {
	p := DefaultParams()
	p.MaxDuty = 255
	// 4000*255/1024 = 996, low byte 0xe4
	if got := p.GuessDuty(4000); got != 0xe4 {
		t.Errorf("got %d, want %d", got, 0xe4)
	}
}

func TestConfigure(t *testing.T) {
	r := newRig(t, 0)
	r.c.Configure()

	if r.c.Target() != 556 {
		t.Errorf("Target: got %d, want 556", r.c.Target())
	}
	if r.c.Duty() != 34 {
		t.Errorf("Duty: got %d, want 34", r.c.Duty())
	}
	if len(r.act.duties) != 1 || r.act.last() != 34 {
		t.Errorf("expected one actuator write of 34, got %v", r.act.duties)
	}
	if r.c.State() != StateHighIntensity || r.c.PreviousState() != StateSetup {
		t.Error("Configure must leave the entry edge open")
	}
}

func TestChangeTargetZeroForcesDark(t *testing.T) {
	r := newRig(t, 0)
	r.c.duty = 50

	r.c.ChangeTarget(0)

	if r.c.Duty() != 0 {
		t.Errorf("Duty: got %d, want 0", r.c.Duty())
	}
	if r.act.last() != 0 {
		t.Errorf("expected actuator write of 0, got %d", r.act.last())
	}
}

func TestChangeTargetClampsGuess(t *testing.T) {
	r := newRig(t, 0)
	r.c.params.MaxDuty = 20

	// 4000*20/1024 = 78
	r.c.ChangeTarget(4000)

	if r.c.Duty() != 20 {
		t.Errorf("Duty: got %d, want clamp to 20", r.c.Duty())
	}
}

func TestFirstStepEntersHighIntensity(t *testing.T) {
	r := newRig(t, 0)
	r.clk.Set(500)

	out := r.c.Step()

	if !out.Entered {
		t.Error("expected Entered")
	}
	if out.Advanced || out.Sampled || out.Dipped {
		t.Errorf("entry step should do nothing else at t=0, got %+v", out)
	}
	if r.c.Target() != 556 {
		t.Errorf("Target: got %d, want 556", r.c.Target())
	}
	if r.c.Duty() != 34 {
		t.Errorf("Duty: got %d, want 34", r.c.Duty())
	}
	if r.c.Timeout() != DefaultParams().HighPhase {
		t.Errorf("Timeout: got %d, want %d", r.c.Timeout(), DefaultParams().HighPhase)
	}
	if r.c.NextState() != StateLowIntensity {
		t.Errorf("NextState: got %s, want LOW", r.c.NextState())
	}
	if r.clk.Resets != 1 || r.clk.Now() != 0 {
		t.Errorf("expected clock reset, resets=%d now=%d", r.clk.Resets, r.clk.Now())
	}
	if r.c.LastMeasurement() != 0 {
		t.Errorf("LastMeasurement: got %d, want 0", r.c.LastMeasurement())
	}
	if r.c.PreviousState() != r.c.State() {
		t.Error("entry must close the edge")
	}
	if len(r.sleep.modes) != 1 || r.sleep.modes[0] != SleepShallow {
		t.Errorf("expected shallow sleep, got %v", r.sleep.modes)
	}
}

func TestSampleRaisesDuty(t *testing.T) {
	// Scenario: starting at 30, five low readings raise the duty to 35.
	r := newRig(t, 100)
	r.enter(t)
	r.c.duty = 30

	for i := 0; i < 5; i++ {
		r.clk.Advance(2000)
		out := r.c.Step()
		if !out.Sampled {
			t.Fatalf("step %d: expected a sample", i)
		}
		if out.Reading != 100 {
			t.Errorf("step %d: Reading got %d, want 100", i, out.Reading)
		}
	}

	if r.c.Duty() != 35 {
		t.Errorf("Duty: got %d, want 35", r.c.Duty())
	}
	if r.act.last() != 35 {
		t.Errorf("actuator: got %d, want 35", r.act.last())
	}
	counts := r.c.Counts()
	if counts.Samples != 5 || counts.Raises != 5 {
		t.Errorf("unexpected counts: %+v", counts)
	}
}

func TestSampleHoldsOnFailedRead(t *testing.T) {
	// A below-target reading raises once; a dead sensor must then hold the
	// duty rather than keep raising toward MaxDuty.
	r := newRig(t, 500)
	r.enter(t)

	r.clk.Advance(2000)
	r.c.Step()
	if r.c.Duty() != 35 {
		t.Fatalf("Duty after good read: got %d, want 35", r.c.Duty())
	}

	r.sens.broken = true
	for i := 0; i < 100; i++ {
		r.clk.Advance(2000)
		out := r.c.Step()
		if !out.Sampled || !out.Failed {
			t.Fatalf("step %d: expected a failed sample, got %+v", i, out)
		}
	}

	if r.c.Duty() != 35 {
		t.Errorf("Duty after failed reads: got %d, want 35", r.c.Duty())
	}
	counts := r.c.Counts()
	if counts.Raises != 1 || counts.Holds != 100 || counts.Failures != 100 {
		t.Errorf("unexpected counts: %+v", counts)
	}

	r.sens.broken = false
	r.clk.Advance(2000)
	if out := r.c.Step(); out.Failed || r.c.Duty() != 36 {
		t.Errorf("expected feedback to resume, got %+v duty=%d", out, r.c.Duty())
	}
}

func TestSampleLowersDuty(t *testing.T) {
	r := newRig(t, 900)
	r.enter(t)

	r.clk.Advance(2000)
	r.c.Step()

	if r.c.Duty() != 33 {
		t.Errorf("Duty: got %d, want 33", r.c.Duty())
	}
	if r.c.Counts().Lowers != 1 {
		t.Errorf("expected 1 lower, got %+v", r.c.Counts())
	}
}

func TestSampleHoldsAtTarget(t *testing.T) {
	r := newRig(t, 556)
	r.enter(t)

	for i := 0; i < 10; i++ {
		r.clk.Advance(2000)
		r.c.Step()
	}

	if r.c.Duty() != 34 {
		t.Errorf("Duty: got %d, want 34", r.c.Duty())
	}
	counts := r.c.Counts()
	if counts.Holds != 10 || counts.Raises != 0 || counts.Lowers != 0 {
		t.Errorf("unexpected counts: %+v", counts)
	}
}

func TestSampleClampsAtMax(t *testing.T) {
	r := newRig(t, 0)
	r.enter(t)
	r.c.duty = 64

	r.clk.Advance(2000)
	r.c.Step()

	if r.c.Duty() != 64 {
		t.Errorf("Duty: got %d, want 64", r.c.Duty())
	}
	if r.act.last() != 64 {
		t.Errorf("actuator: got %d, want 64", r.act.last())
	}
}

func TestSampleClampsAtZero(t *testing.T) {
	r := newRig(t, 1023)
	r.enter(t)
	r.c.duty = 0

	r.clk.Advance(2000)
	r.c.Step()

	if r.c.Duty() != 0 {
		t.Errorf("Duty: got %d, want 0 (no wrap)", r.c.Duty())
	}
}

func TestSampleGatesSensorPower(t *testing.T) {
	r := newRig(t, 556)
	r.enter(t)

	r.clk.Advance(2000)
	r.c.Step()

	want := []string{"enable", "read", "disable"}
	if len(r.sens.calls) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, r.sens.calls)
	}
	for i := range want {
		if r.sens.calls[i] != want[i] {
			t.Errorf("call %d: got %s, want %s", i, r.sens.calls[i], want[i])
		}
	}
}

func TestSampleInterval(t *testing.T) {
	r := newRig(t, 556)
	r.enter(t)

	r.clk.Set(1999)
	if out := r.c.Step(); out.Sampled {
		t.Error("sample before the first interval")
	}

	r.clk.Set(2000)
	if out := r.c.Step(); !out.Sampled {
		t.Error("expected sample at exactly one interval")
	}
	if r.c.LastMeasurement() != 2000 {
		t.Errorf("LastMeasurement: got %d, want 2000", r.c.LastMeasurement())
	}

	r.clk.Set(3999)
	if out := r.c.Step(); out.Sampled {
		t.Error("sample before the next interval")
	}

	r.clk.Set(4500)
	if out := r.c.Step(); !out.Sampled {
		t.Error("expected sample after the next interval")
	}
	if r.c.LastMeasurement() != 4500 {
		t.Errorf("LastMeasurement: got %d, want 4500", r.c.LastMeasurement())
	}
}

func TestConvergesAndHolds(t *testing.T) {
	// A plant where duty 40 produces exactly the high target.
	r := newRig(t, 0)
	r.sens.value = func() uint16 { return uint16(r.c.Duty()) * 139 / 10 }
	r.enter(t)

	maxDuty := int(DefaultParams().MaxDuty)
	converged := -1
	for i := 0; i < maxDuty; i++ {
		r.clk.Advance(2000)
		r.c.Step()
		if r.c.Duty() == 40 {
			converged = i
			break
		}
	}
	if converged < 0 {
		t.Fatalf("did not converge within %d samples, duty=%d", maxDuty, r.c.Duty())
	}

	for i := 0; i < 50; i++ {
		r.clk.Advance(2000)
		r.c.Step()
		if r.c.Duty() != 40 {
			t.Fatalf("drifted to %d after %d further samples", r.c.Duty(), i+1)
		}
	}
}

func TestAdvanceOnTimeout(t *testing.T) {
	r := newRig(t, 556)
	r.enter(t)
	r.clk.Set(4000)
	r.c.Step()
	writes := len(r.act.duties)
	calls := len(r.sens.calls)

	r.clk.Set(DefaultParams().HighPhase + 1)
	out := r.c.Step()

	if !out.Advanced {
		t.Fatal("expected Advanced")
	}
	if out.Sampled || out.Dipped || out.Entered {
		t.Errorf("advance step must do nothing else, got %+v", out)
	}
	if r.c.State() != StateLowIntensity {
		t.Errorf("State: got %s, want LOW", r.c.State())
	}
	if r.c.PreviousState() != StateHighIntensity {
		t.Errorf("PreviousState: got %s, want HIGH while the edge is open", r.c.PreviousState())
	}
	if len(r.act.duties) != writes || len(r.sens.calls) != calls {
		t.Error("advance step touched hardware")
	}

	out = r.c.Step()
	if !out.Entered {
		t.Fatal("expected entry on the following step")
	}
	if r.c.Target() != 185 || r.c.Duty() != 11 {
		t.Errorf("expected target 185 duty 11, got %d/%d", r.c.Target(), r.c.Duty())
	}
	if r.clk.Now() != 0 || r.c.LastMeasurement() != 0 {
		t.Errorf("expected time base and last measurement reset, got %d/%d", r.clk.Now(), r.c.LastMeasurement())
	}
	if r.c.Timeout() != DefaultParams().LowPhase {
		t.Errorf("Timeout: got %d, want %d", r.c.Timeout(), DefaultParams().LowPhase)
	}
}

func TestNoAdvanceAtExactTimeout(t *testing.T) {
	r := newRig(t, 556)
	r.enter(t)

	r.clk.Set(DefaultParams().HighPhase)
	if out := r.c.Step(); out.Advanced {
		t.Error("advance must wait until elapsed exceeds the timeout")
	}
}

func TestFullCycle(t *testing.T) {
	p := DefaultParams()
	r := newRig(t, 556)
	r.enter(t)

	want := []struct {
		state   State
		target  uint16
		duty    uint8
		timeout uint32
		sleep   SleepMode
	}{
		{StateLowIntensity, 185, 11, p.LowPhase, SleepShallow},
		{StateHighIntensity2, 556, 34, p.HighPhase, SleepShallow},
		{StateWaiting, 0, 0, p.HighPhase, SleepDeep},
		{StateHighIntensity, 556, 34, p.HighPhase, SleepShallow},
	}

	for _, w := range want {
		r.clk.Set(r.c.Timeout() + 1)
		if out := r.c.Step(); !out.Advanced {
			t.Fatalf("expected advance to %s", w.state)
		}
		if out := r.c.Step(); !out.Entered {
			t.Fatalf("expected entry into %s", w.state)
		}
		if r.c.State() != w.state {
			t.Errorf("State: got %s, want %s", r.c.State(), w.state)
		}
		if r.c.Target() != w.target || r.c.Duty() != w.duty {
			t.Errorf("%s: target/duty got %d/%d, want %d/%d", w.state, r.c.Target(), r.c.Duty(), w.target, w.duty)
		}
		if r.c.Timeout() != w.timeout {
			t.Errorf("%s: timeout got %d, want %d", w.state, r.c.Timeout(), w.timeout)
		}
		if got := r.sleep.modes[len(r.sleep.modes)-1]; got != w.sleep {
			t.Errorf("%s: sleep got %s, want %s", w.state, got, w.sleep)
		}
	}

	if r.c.Counts().Transitions != 5 {
		t.Errorf("Transitions: got %d, want 5", r.c.Counts().Transitions)
	}
}

func TestWaitingStaysDark(t *testing.T) {
	r := newRig(t, 0)
	r.enter(t)
	r.c.current = StateWaiting
	r.c.Step()

	// Any reading above 0 lowers, and 0 already sits at the floor.
	r.sens.value = func() uint16 { return 3 }
	for i := 0; i < 5; i++ {
		r.clk.Advance(2000)
		r.c.Step()
	}
	if r.c.Duty() != 0 {
		t.Errorf("Duty: got %d, want 0", r.c.Duty())
	}
}

func TestSetupSentinelCoercesToHigh(t *testing.T) {
	r := newRig(t, 556)
	r.enter(t)
	r.c.current = StateSetup

	out := r.c.Step()

	if !out.Entered {
		t.Fatal("expected entry")
	}
	if r.c.State() != StateHighIntensity || r.c.PreviousState() != StateHighIntensity {
		t.Errorf("expected HIGH/HIGH, got %s/%s", r.c.State(), r.c.PreviousState())
	}
	if r.c.Target() != 556 || r.c.NextState() != StateLowIntensity {
		t.Errorf("expected full HIGH configuration, got target %d next %s", r.c.Target(), r.c.NextState())
	}
}

func TestEdgeOnlyOpenDuringTransitionStep(t *testing.T) {
	p := DefaultParams()
	r := newRig(t, 300)
	r.enter(t)

	// Two days in 7-minute jumps, skipping the dip windows.
	const step = 7 * 60 * 1000
	for i := 0; i < 2*24*60/7; i++ {
		next := r.clk.Now() + step
		if next > p.DipInterval && next%p.DipInterval < p.DipWindow {
			next += p.DipWindow
		}
		r.clk.Set(next)

		out := r.c.Step()
		if out.Advanced {
			if r.c.PreviousState() == r.c.State() {
				t.Fatalf("iteration %d: edge closed right after advance", i)
			}
		} else if r.c.PreviousState() != r.c.State() {
			t.Fatalf("iteration %d: edge open outside a transition (%s/%s)", i, r.c.PreviousState(), r.c.State())
		}
		if r.c.Duty() > p.MaxDuty {
			t.Fatalf("iteration %d: duty %d above max", i, r.c.Duty())
		}
	}

	if r.c.Counts().Transitions < 8 {
		t.Errorf("expected at least two cycles, got %d transitions", r.c.Counts().Transitions)
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		StateSetup:          "SETUP",
		StateHighIntensity:  "HIGH",
		StateLowIntensity:   "LOW",
		StateHighIntensity2: "HIGH2",
		StateWaiting:        "WAITING",
		State(42):           "UNKNOWN",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("State(%d): got %q, want %q", s, s.String(), want)
		}
	}
}

func TestSchedule(t *testing.T) {
	p := DefaultParams()
	sched := p.Schedule()
	if len(sched) != 4 {
		t.Fatalf("expected 4 phases, got %d", len(sched))
	}
	for i, ph := range sched {
		next := sched[(i+1)%len(sched)]
		if ph.Next != next.State {
			t.Errorf("%s: next got %s, want %s", ph.State, ph.Next, next.State)
		}
	}
	if sched[3].State != StateWaiting || sched[3].Timeout != p.HighPhase || sched[3].Sleep != SleepDeep {
		t.Errorf("unexpected waiting phase: %+v", sched[3])
	}
}

func TestDefaultDelayIsSleep(t *testing.T) {
	c := New(DefaultParams(), Hardware{})
	if c.hw.Delay == nil {
		t.Fatal("expected a default delay")
	}
	start := time.Now()
	c.hw.Delay(time.Millisecond)
	if time.Since(start) < time.Millisecond {
		t.Error("default delay did not block")
	}
}
