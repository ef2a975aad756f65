package config

import (
	"fmt"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	// ------------------------------------------------------------
	// SENSOR
	// ------------------------------------------------------------

	switch cfg.Sensor.Driver {
	case DriverADC101C:
		if cfg.Sensor.I2CBus < 0 {
			return fmt.Errorf("sensor: i2c_bus must not be negative, got %d", cfg.Sensor.I2CBus)
		}
		// 7-bit addresses outside the reserved blocks
		if cfg.Sensor.I2CAddr < 0x08 || cfg.Sensor.I2CAddr > 0x77 {
			return fmt.Errorf("sensor: i2c_addr 0x%02x is outside 0x08-0x77", cfg.Sensor.I2CAddr)
		}
	case DriverModbus:
		m := cfg.Sensor.Modbus
		if m.Device == "" {
			return fmt.Errorf("sensor: modbus driver requires modbus.device")
		}
		if m.BaudRate <= 0 {
			return fmt.Errorf("sensor: modbus.baud_rate must be positive, got %d", m.BaudRate)
		}
		if m.Parity != "N" && m.Parity != "E" && m.Parity != "O" {
			return fmt.Errorf("sensor: modbus.parity must be N, E or O, got %q", m.Parity)
		}
		if m.SlaveID == 0 || m.SlaveID > 247 {
			return fmt.Errorf("sensor: modbus.slave_id must be 1-247, got %d", m.SlaveID)
		}
		if m.TimeoutMs <= 0 {
			return fmt.Errorf("sensor: modbus.timeout_ms must be positive, got %d", m.TimeoutMs)
		}
	default:
		return fmt.Errorf("sensor: unknown driver %q (want %q or %q)", cfg.Sensor.Driver, DriverADC101C, DriverModbus)
	}

	if p := cfg.Sensor.Power; p != nil {
		if p.Chip == "" {
			return fmt.Errorf("sensor: power.chip is required when power is set")
		}
		if p.Line < 0 {
			return fmt.Errorf("sensor: power.line must not be negative, got %d", p.Line)
		}
	}

	// ------------------------------------------------------------
	// PWM
	// ------------------------------------------------------------

	if cfg.PWM.Chip < 0 || cfg.PWM.Channel < 0 {
		return fmt.Errorf("pwm: chip and channel must not be negative (chip=%d channel=%d)", cfg.PWM.Chip, cfg.PWM.Channel)
	}
	if cfg.PWM.PeriodNs <= 0 {
		return fmt.Errorf("pwm: period_ns must be positive, got %d", cfg.PWM.PeriodNs)
	}

	// ------------------------------------------------------------
	// TIMING
	// ------------------------------------------------------------

	if cfg.Clock.TickMs <= 0 {
		return fmt.Errorf("clock: tick_ms must be positive, got %d", cfg.Clock.TickMs)
	}
	if cfg.Clock.IdleMs <= 0 {
		return fmt.Errorf("clock: idle_ms must be positive, got %d", cfg.Clock.IdleMs)
	}
	if cfg.HeartbeatMs < 0 {
		return fmt.Errorf("heartbeat_ms must not be negative, got %d", cfg.HeartbeatMs)
	}

	return nil
}
