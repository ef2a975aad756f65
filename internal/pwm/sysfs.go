//go:build linux

package pwm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// SysfsRoot is where the kernel exposes PWM chips.
const SysfsRoot = "/sys/class/pwm"

// Sysfs drives a PWM channel through the Linux sysfs interface.
type Sysfs struct {
	dir      string
	chipDir  string
	channel  int
	periodNs int64
	inverted bool
	exported bool
}

// SysfsConfig selects the channel and its period.
type SysfsConfig struct {
	Root    string // defaults to SysfsRoot
	Chip    int
	Channel int
	Period  time.Duration
	// Inverted uses the kernel's inversed polarity so the register value
	// maps straight onto duty_cycle. When false the inversion is done in
	// software for chips that only support normal polarity.
	Inverted bool
}

// OpenSysfs exports and enables a PWM channel, initially dark.
func OpenSysfs(cfg SysfsConfig) (*Sysfs, error) {
	if cfg.Root == "" {
		cfg.Root = SysfsRoot
	}
	if cfg.Period <= 0 {
		return nil, errors.New("pwm: period must be positive")
	}

	chipDir := filepath.Join(cfg.Root, fmt.Sprintf("pwmchip%d", cfg.Chip))
	s := &Sysfs{
		dir:      filepath.Join(chipDir, fmt.Sprintf("pwm%d", cfg.Channel)),
		chipDir:  chipDir,
		channel:  cfg.Channel,
		periodNs: cfg.Period.Nanoseconds(),
		inverted: cfg.Inverted,
	}

	if _, err := os.Stat(s.dir); errors.Is(err, os.ErrNotExist) {
		if err := writeAttr(chipDir, "export", strconv.Itoa(cfg.Channel)); err != nil {
			return nil, fmt.Errorf("export channel %d: %w", cfg.Channel, err)
		}
		s.exported = true
	}

	if err := s.setup(); err != nil {
		if s.exported {
			_ = writeAttr(chipDir, "unexport", strconv.Itoa(cfg.Channel))
		}
		return nil, err
	}
	return s, nil
}

// setup programs period and polarity, then enables the channel dark.
func (s *Sysfs) setup() error {
	// The channel must be disabled while polarity changes.
	_ = writeAttr(s.dir, "enable", "0")
	if err := writeAttr(s.dir, "period", strconv.FormatInt(s.periodNs, 10)); err != nil {
		return fmt.Errorf("set period: %w", err)
	}
	polarity := "normal"
	if s.inverted {
		polarity = "inversed"
	}
	if err := writeAttr(s.dir, "polarity", polarity); err != nil {
		return fmt.Errorf("set polarity %s: %w", polarity, err)
	}
	if err := s.Write(Register(0)); err != nil {
		return err
	}
	if err := writeAttr(s.dir, "enable", "1"); err != nil {
		return fmt.Errorf("enable channel: %w", err)
	}
	return nil
}

// Write sets duty_cycle for register.
func (s *Sysfs) Write(register uint8) error {
	if err := writeAttr(s.dir, "duty_cycle", strconv.FormatInt(s.dutyNs(register), 10)); err != nil {
		return fmt.Errorf("set duty_cycle: %w", err)
	}
	return nil
}

func (s *Sysfs) dutyNs(register uint8) int64 {
	level := int64(register)
	if !s.inverted {
		level = 255 - level
	}
	return s.periodNs * level / 255
}

// Close darkens and disables the channel, unexporting it if OpenSysfs
// exported it.
func (s *Sysfs) Close() error {
	var errs []error

	if err := s.Write(Register(0)); err != nil {
		errs = append(errs, err)
	}
	if err := writeAttr(s.dir, "enable", "0"); err != nil {
		errs = append(errs, fmt.Errorf("disable channel: %w", err))
	}
	if s.exported {
		if err := writeAttr(s.chipDir, "unexport", strconv.Itoa(s.channel)); err != nil {
			errs = append(errs, fmt.Errorf("unexport channel %d: %w", s.channel, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func writeAttr(dir, name, value string) error {
	return os.WriteFile(filepath.Join(dir, name), []byte(value), 0o644)
}
