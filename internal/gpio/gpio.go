// Package gpio drives GPIO output lines with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Switch drives a single output line, such as a sensor power gate.
type Switch interface {
	// Set drives the line to its logical on or off level.
	Set(on bool) error

	// Close releases GPIO resources.
	Close() error
}

// Defaults for the sensor power gate (BCM numbering).
const (
	DefaultChip      = "gpiochip0"
	DefaultPowerLine = 17
)
