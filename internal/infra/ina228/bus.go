package ina228

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// BusConfig points at the monitor on the Linux I2C bus.
type BusConfig struct {
	Bus  string `mapstructure:"bus"`  // e.g. "1" or "/dev/i2c-1"
	Addr uint16 `mapstructure:"addr"` // 0x40 with A0/A1 grounded
}

// I2CBus implements Bus over periph.io.
type I2CBus struct {
	bus i2c.BusCloser
	dev *i2c.Dev
}

// OpenI2C initializes the host drivers and opens the configured bus.
func OpenI2C(cfg BusConfig) (*I2CBus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", cfg.Bus, err)
	}
	return &I2CBus{
		bus: bus,
		dev: &i2c.Dev{Addr: cfg.Addr, Bus: bus},
	}, nil
}

func (b *I2CBus) ReadReg(reg byte, buf []byte) error {
	return b.dev.Tx([]byte{reg}, buf)
}

func (b *I2CBus) WriteReg(reg byte, value uint16) error {
	return b.dev.Tx([]byte{reg, byte(value >> 8), byte(value)}, nil)
}

func (b *I2CBus) Close() error {
	return b.bus.Close()
}

// ErrNoMonitor is what a DisconnectedBus returns for every transaction.
var ErrNoMonitor = errors.New("power monitor not fitted")

// DisconnectedBus stands in when the monitor is absent or disabled: every
// read fails, so Sample reports all-NaN snapshots and the loop keeps its
// cadence. Bench setups without the power board run with this.
type DisconnectedBus struct{}

func (DisconnectedBus) ReadReg(reg byte, buf []byte) error { return ErrNoMonitor }
func (DisconnectedBus) WriteReg(reg byte, value uint16) error { return ErrNoMonitor }
