// Package config describes how the controller is wired to hardware.
//
// Only wiring lives here. Targets, phase lengths and dip timing are fixed in
// control.DefaultParams and cannot be changed from the file.
package config

import (
	"github.com/sweeney/light-controller/internal/gpio"
	"github.com/sweeney/light-controller/internal/sensor"
)

// Sensor drivers.
const (
	DriverADC101C = "adc101c"
	DriverModbus  = "modbus"
)

type Config struct {
	Sensor SensorConfig `yaml:"sensor"`
	PWM    PWMConfig    `yaml:"pwm"`
	Clock  ClockConfig  `yaml:"clock"`

	// HeartbeatMs is the interval between status log lines. 0 disables.
	HeartbeatMs int `yaml:"heartbeat_ms"`
}

// ---- SENSOR ----

type SensorConfig struct {
	Driver string `yaml:"driver"`

	I2CBus  int   `yaml:"i2c_bus"`
	I2CAddr uint8 `yaml:"i2c_addr"`

	Modbus ModbusConfig `yaml:"modbus"`

	// Power gates the sensor supply. Optional.
	Power *PowerGateConfig `yaml:"power"`
}

type ModbusConfig struct {
	Device    string `yaml:"device"`
	BaudRate  int    `yaml:"baud_rate"`
	DataBits  int    `yaml:"data_bits"`
	Parity    string `yaml:"parity"`
	StopBits  int    `yaml:"stop_bits"`
	SlaveID   uint8  `yaml:"slave_id"`
	TimeoutMs int    `yaml:"timeout_ms"`
	Register  uint16 `yaml:"register"`
	FullScale uint16 `yaml:"full_scale"`
}

type PowerGateConfig struct {
	Chip      string `yaml:"chip"`
	Line      int    `yaml:"line"`
	ActiveLow bool   `yaml:"active_low"`
}

// ---- PWM ----

type PWMConfig struct {
	Chip     int  `yaml:"chip"`
	Channel  int  `yaml:"channel"`
	PeriodNs int  `yaml:"period_ns"`
	Inverted bool `yaml:"inverted"`
}

// ---- CLOCK ----

type ClockConfig struct {
	// TickMs is the time base resolution.
	TickMs int `yaml:"tick_ms"`
	// IdleMs is how long a shallow sleep lasts.
	IdleMs int `yaml:"idle_ms"`
}

// Default returns the wiring of the reference board: an ADC101C on I2C bus 1
// powered from GPIO17, and the LED on PWM chip 0 channel 0 at 1 kHz.
func Default() Config {
	return Config{
		Sensor: SensorConfig{
			Driver:  DriverADC101C,
			I2CBus:  1,
			I2CAddr: sensor.DefaultADCAddr,
			Modbus: ModbusConfig{
				BaudRate:  9600,
				DataBits:  8,
				Parity:    "N",
				StopBits:  1,
				SlaveID:   1,
				TimeoutMs: 500,
			},
			Power: &PowerGateConfig{
				Chip: gpio.DefaultChip,
				Line: gpio.DefaultPowerLine,
			},
		},
		PWM: PWMConfig{
			Chip:     0,
			Channel:  0,
			PeriodNs: 1_000_000,
			Inverted: true,
		},
		Clock: ClockConfig{
			TickMs: 10,
			IdleMs: 10,
		},
		HeartbeatMs: 15 * 60 * 1000,
	}
}
