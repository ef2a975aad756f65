//go:build !linux

package pwm

import (
	"errors"
	"time"
)

// SysfsRoot is where the kernel exposes PWM chips.
const SysfsRoot = "/sys/class/pwm"

// Sysfs is not available on non-Linux platforms.
type Sysfs struct{}

// SysfsConfig selects the channel and its period.
type SysfsConfig struct {
	Root     string
	Chip     int
	Channel  int
	Period   time.Duration
	Inverted bool
}

// OpenSysfs returns an error on non-Linux platforms.
func OpenSysfs(cfg SysfsConfig) (*Sysfs, error) {
	return nil, errors.New("pwm: not supported on this platform (requires Linux)")
}

// Write is not implemented on non-Linux platforms.
func (s *Sysfs) Write(register uint8) error {
	return errors.New("pwm: not supported")
}

// Close is not implemented on non-Linux platforms.
func (s *Sysfs) Close() error {
	return nil
}
