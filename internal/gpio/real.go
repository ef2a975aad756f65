//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealSwitch drives an output line using the Linux GPIO character device.
type RealSwitch struct {
	chip      *gpiocdev.Chip
	line      *gpiocdev.Line
	activeLow bool
}

// NewRealSwitch requests offset on chip as an output, initially off.
func NewRealSwitch(chipName string, offset int, activeLow bool) (*RealSwitch, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer("light-controller"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	opts := []gpiocdev.LineReqOption{gpiocdev.AsOutput(0)}
	if activeLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	line, err := chip.RequestLine(offset, opts...)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request line %d: %w", offset, err)
	}

	return &RealSwitch{
		chip:      chip,
		line:      line,
		activeLow: activeLow,
	}, nil
}

// Set drives the line. The character device applies active-low inversion.
func (s *RealSwitch) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := s.line.SetValue(v); err != nil {
		return fmt.Errorf("set line: %w", err)
	}
	return nil
}

// Close switches the line off, returns it to an input and releases the chip.
// Leaving the line as an input matches the boot default, so an unpowered
// controller does not hold the sensor gate.
func (s *RealSwitch) Close() error {
	var errs []error

	if s.line != nil {
		if err := s.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("switch off line: %w", err))
		}
		if err := s.line.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure line: %w", err))
		}
		if err := s.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line: %w", err))
		}
	}
	if s.chip != nil {
		if err := s.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
