package control

// Sweep generates the duty levels of a dip animation: starting from a given
// level, ramp down to 0 then up to the ceiling in unit steps, repeated a
// fixed number of times. Each call to Next yields one step.
type Sweep struct {
	level   uint8
	ceiling uint8
	repeats int
	round   int
	rising  bool
}

// NewSweep creates a sweep starting at level.
func NewSweep(level, ceiling uint8, repeats int) *Sweep {
	return &Sweep{level: level, ceiling: ceiling, repeats: repeats}
}

// Next returns the next duty level, or false once every repeat is done.
func (s *Sweep) Next() (uint8, bool) {
	for s.round < s.repeats {
		if !s.rising {
			if s.level > 0 {
				s.level--
				return s.level, true
			}
			s.rising = true
		}
		if s.level < s.ceiling {
			s.level++
			return s.level, true
		}
		s.rising = false
		s.round++
	}
	return 0, false
}

func (c *Controller) inDipWindow(now uint32) bool {
	p := c.params
	if p.DipInterval == 0 {
		return false
	}
	return now > p.DipInterval && now%p.DipInterval < p.DipWindow
}

// dip blocks for the whole animation. The ceiling is not limited by MaxDuty.
func (c *Controller) dip() {
	saved := c.duty

	sweep := NewSweep(c.duty, c.params.DipCeiling, c.params.DipRepeats)
	for level, ok := sweep.Next(); ok; level, ok = sweep.Next() {
		c.duty = level
		c.hw.Actuator.SetDuty(level)
		c.hw.Delay(c.params.DipStep)
	}

	c.apply(int(saved))
	c.counts.Dips++
}
