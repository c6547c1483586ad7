package mma7660

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// PeriphBus is a register bus backed by a periph.io I2C bus
type PeriphBus struct {
	bus i2c.BusCloser
	dev *i2c.Dev
}

// OpenPeriph initializes the periph host drivers and opens the named bus.
// An empty name selects the first available bus.
func OpenPeriph(name string, addr uint16) (*PeriphBus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: periph host init: %w", ErrBus, err)
	}

	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: open I2C bus %q: %w", ErrBus, name, err)
	}

	return &PeriphBus{
		bus: bus,
		dev: &i2c.Dev{Bus: bus, Addr: addr},
	}, nil
}

// Close closes the underlying bus
func (p *PeriphBus) Close() error {
	return p.bus.Close()
}

func (p *PeriphBus) String() string {
	return fmt.Sprintf("periph:%s@0x%02X", p.bus, p.dev.Addr)
}

// ReadByteData writes the register address then reads one byte back
func (p *PeriphBus) ReadByteData(reg byte) (byte, error) {
	r := make([]byte, 1)
	if err := p.dev.Tx([]byte{reg}, r); err != nil {
		return 0, fmt.Errorf("%w: read 0x%02X: %w", ErrBus, reg, err)
	}
	return r[0], nil
}

// WriteByteData writes a single register
func (p *PeriphBus) WriteByteData(reg, value byte) error {
	if err := p.dev.Tx([]byte{reg, value}, nil); err != nil {
		return fmt.Errorf("%w: write 0x%02X: %w", ErrBus, reg, err)
	}
	return nil
}
