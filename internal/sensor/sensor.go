// Package sensor reads the light sensor behind a power gate.
//
// A Reader produces raw samples on the 10-bit sensor scale. Gated wraps a
// Reader with the enable/read/disable contract the control loop expects:
// failures are logged and absorbed, and a failed read is reported as invalid
// so the controller holds the duty instead of acting on a stale sample.
package sensor

import (
	"log/slog"

	"github.com/sweeney/light-controller/internal/gpio"
)

// Reader returns one brightness sample.
type Reader interface {
	Read() (uint16, error)
	Close() error
}

// Powerer is implemented by readers that can power their converter up and
// down in addition to any external gate.
type Powerer interface {
	PowerUp() error
	PowerDown() error
}

// Gated adapts a Reader and an optional power switch to the control loop.
type Gated struct {
	reader Reader
	gate   gpio.Switch
	logger *slog.Logger

	enabled bool
}

// NewGated creates a Gated sensor. gate may be nil when the sensor is
// always powered.
func NewGated(reader Reader, gate gpio.Switch, logger *slog.Logger) *Gated {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gated{reader: reader, gate: gate, logger: logger}
}

// Enable powers the sensor up.
func (g *Gated) Enable() {
	if g.gate != nil {
		if err := g.gate.Set(true); err != nil {
			g.logger.Warn("sensor power on failed", "err", err)
		}
	}
	if p, ok := g.reader.(Powerer); ok {
		if err := p.PowerUp(); err != nil {
			g.logger.Warn("sensor wake failed", "err", err)
		}
	}
	g.enabled = true
}

// Read returns a sample. It reports false if the read failed.
func (g *Gated) Read() (uint16, bool) {
	v, err := g.reader.Read()
	if err != nil {
		g.logger.Warn("sensor read failed", "err", err)
		return 0, false
	}
	return v, true
}

// Disable powers the sensor down. It is a no-op when already disabled.
func (g *Gated) Disable() {
	if !g.enabled {
		return
	}
	if p, ok := g.reader.(Powerer); ok {
		if err := p.PowerDown(); err != nil {
			g.logger.Warn("sensor sleep failed", "err", err)
		}
	}
	if g.gate != nil {
		if err := g.gate.Set(false); err != nil {
			g.logger.Warn("sensor power off failed", "err", err)
		}
	}
	g.enabled = false
}

// Enabled reports whether the sensor is powered.
func (g *Gated) Enabled() bool {
	return g.enabled
}

// Close releases the reader and the power gate.
func (g *Gated) Close() error {
	g.Disable()
	err := g.reader.Close()
	if g.gate != nil {
		if gerr := g.gate.Close(); gerr != nil && err == nil {
			err = gerr
		}
	}
	return err
}
