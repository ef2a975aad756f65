package sensor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/goburrow/modbus"
)

// ModbusConfig addresses a lux transmitter on an RS-485 line.
type ModbusConfig struct {
	Device   string
	BaudRate int
	DataBits int
	Parity   string
	StopBits int
	SlaveID  byte
	Timeout  time.Duration

	// Register is the input register holding the reading.
	Register uint16
	// FullScale is the register value that maps to the top of the sensor
	// range. Zero means the register is already on the 10-bit scale.
	FullScale uint16
}

// Modbus reads brightness from one input register of a Modbus RTU device.
type Modbus struct {
	handler   *modbus.RTUClientHandler
	client    modbus.Client
	register  uint16
	fullScale uint16
}

// OpenModbus connects to the serial device.
func OpenModbus(cfg ModbusConfig) (*Modbus, error) {
	if cfg.Device == "" {
		return nil, errors.New("modbus sensor: device required")
	}

	handler := modbus.NewRTUClientHandler(cfg.Device)
	handler.BaudRate = cfg.BaudRate
	handler.DataBits = cfg.DataBits
	handler.Parity = cfg.Parity
	handler.StopBits = cfg.StopBits
	handler.SlaveId = cfg.SlaveID
	handler.Timeout = cfg.Timeout

	if err := handler.Connect(); err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Device, err)
	}

	return &Modbus{
		handler:   handler,
		client:    modbus.NewClient(handler),
		register:  cfg.Register,
		fullScale: cfg.FullScale,
	}, nil
}

// Read fetches the register and scales it onto the sensor range.
func (m *Modbus) Read() (uint16, error) {
	b, err := m.client.ReadInputRegisters(m.register, 1)
	if err != nil {
		return 0, fmt.Errorf("read input register %d: %w", m.register, err)
	}
	if len(b) < 2 {
		return 0, fmt.Errorf("read input register %d: short response (%d bytes)", m.register, len(b))
	}
	return scaleReading(binary.BigEndian.Uint16(b), m.fullScale), nil
}

// scaleReading maps raw from [0, fullScale] onto [0, 1023].
func scaleReading(raw, fullScale uint16) uint16 {
	if fullScale == 0 {
		if raw > 1023 {
			return 1023
		}
		return raw
	}
	if raw >= fullScale {
		return 1023
	}
	return uint16(uint32(raw) * 1024 / uint32(fullScale))
}

// Close closes the serial port.
func (m *Modbus) Close() error {
	return m.handler.Close()
}
