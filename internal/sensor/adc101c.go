package sensor

import (
	"encoding/binary"
	"fmt"

	"github.com/go-daq/smbus"
)

// ADC101C register map.
const (
	adcRegConversion = 0x00
	adcRegConfig     = 0x02

	// Automatic conversion at the slowest cycle time (27 ksps / 32).
	adcAutoConvert = 0x20
	adcIdle        = 0x00

	// DefaultADCAddr is the I2C address of an ADC101C with ADR0 floating.
	DefaultADCAddr uint8 = 0x50
)

// ADC101C reads a photodiode through a TI ADC101C021 10-bit converter on
// I2C/SMBus.
type ADC101C struct {
	conn *smbus.Conn
	addr uint8
}

// OpenADC101C opens bus and leaves the converter idle.
func OpenADC101C(bus int, addr uint8) (*ADC101C, error) {
	conn, err := smbus.Open(bus, addr)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %d: %w", bus, err)
	}
	dev := &ADC101C{conn: conn, addr: addr}
	if err := dev.PowerDown(); err != nil {
		conn.Close()
		return nil, err
	}
	return dev, nil
}

// PowerUp starts automatic conversion so the next read is fresh.
func (d *ADC101C) PowerUp() error {
	if err := d.conn.WriteReg(d.addr, adcRegConfig, adcAutoConvert); err != nil {
		return fmt.Errorf("adc101c 0x%02x: start conversion: %w", d.addr, err)
	}
	return nil
}

// PowerDown stops automatic conversion.
func (d *ADC101C) PowerDown() error {
	if err := d.conn.WriteReg(d.addr, adcRegConfig, adcIdle); err != nil {
		return fmt.Errorf("adc101c 0x%02x: stop conversion: %w", d.addr, err)
	}
	return nil
}

// Read returns the latest 10-bit conversion result.
func (d *ADC101C) Read() (uint16, error) {
	var buf [2]byte
	if err := d.conn.ReadBlockData(d.addr, adcRegConversion, buf[:]); err != nil {
		return 0, fmt.Errorf("adc101c 0x%02x: read conversion: %w", d.addr, err)
	}
	return decodeADC101C(buf), nil
}

// decodeADC101C extracts the result from the conversion register. The upper
// nibble carries the alert flag and reserved bits, the lowest two bits are
// zero padding.
func decodeADC101C(buf [2]byte) uint16 {
	raw := binary.BigEndian.Uint16(buf[:])
	return (raw & 0x0fff) >> 2
}

// Close releases the bus.
func (d *ADC101C) Close() error {
	return d.conn.Close()
}
