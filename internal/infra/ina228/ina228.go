// Package ina228 samples the TI INA228 power monitor: instantaneous
// current/voltage/power plus the chip-owned energy and charge accumulators.
package ina228

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

// INA228 register map (16-bit pointers; register widths vary).
const (
	regConfig    = 0x00 // 16 bit
	regADCConfig = 0x01 // 16 bit
	regShuntCal  = 0x02 // 16 bit
	regVShunt    = 0x04 // 24 bit, 20-bit signed value << 4
	regVBus      = 0x05 // 24 bit, 20-bit value << 4
	regDieTemp   = 0x06 // 16 bit signed
	regCurrent   = 0x07 // 24 bit, 20-bit signed value << 4
	regPower     = 0x08 // 24 bit unsigned
	regEnergy    = 0x09 // 40 bit unsigned
	regCharge    = 0x0A // 40 bit signed
)

// Fixed per-bit scales from the datasheet (ADCRANGE = 0).
const (
	vShuntLSBmV  = 312.5e-6  // 312.5 nV/bit in mV
	vBusLSBV     = 195.3125e-6
	dieTempLSBC  = 7.8125e-3
	shuntCalCoef = 13107.2e6 // SHUNT_CAL = coef * currentLSB * Rshunt
)

// Snapshot 单次遥测采样 (7 字段)
// Energy and charge are monotonic accumulators owned by the chip; the
// sampler only reads them. A field is NaN when its register read failed.
type Snapshot struct {
	CurrentMA float64
	BusVoltsV float64
	ShuntMV   float64
	PowerMW   float64
	EnergyJ   float64
	ChargeC   float64
	DieTempC  float64
}

// Bus is the minimal register access the sampler needs. ReadReg fills buf
// with the register contents, MSB first.
type Bus interface {
	ReadReg(reg byte, buf []byte) error
	WriteReg(reg byte, value uint16) error
}

// Config calibrates the current LSB from the shunt fitted to the rover.
type Config struct {
	ShuntOhms   float64 `mapstructure:"shunt_ohms"`
	MaxCurrentA float64 `mapstructure:"max_current_a"`
}

// Sampler reads the seven telemetry fields. Reads are synchronous bus
// transactions; a failed field is reported as NaN so one flaky register
// never costs the loop its cadence.
type Sampler struct {
	bus        Bus
	currentLSB float64
	logger     *zap.Logger
}

func NewSampler(bus Bus, cfg Config, logger *zap.Logger) *Sampler {
	return &Sampler{
		bus:        bus,
		currentLSB: cfg.MaxCurrentA / float64(1<<19),
		logger:     logger,
	}
}

// Init writes the shunt calibration so the current/power/energy/charge
// registers report in real units.
func (s *Sampler) Init(cfg Config) error {
	shuntCal := uint16(shuntCalCoef * s.currentLSB * cfg.ShuntOhms)
	if err := s.bus.WriteReg(regShuntCal, shuntCal); err != nil {
		return fmt.Errorf("write SHUNT_CAL: %w", err)
	}
	s.logger.Info("INA228 calibrated",
		zap.Float64("shunt_ohms", cfg.ShuntOhms),
		zap.Float64("current_lsb_a", s.currentLSB),
		zap.Uint16("shunt_cal", shuntCal))
	return nil
}

// Sample reads all seven fields. It never returns an error: failed fields
// come back NaN and are logged, and the snapshot is otherwise complete.
func (s *Sampler) Sample() Snapshot {
	return Snapshot{
		CurrentMA: s.field("CURRENT", s.readCurrentMA),
		BusVoltsV: s.field("VBUS", s.readBusVoltsV),
		ShuntMV:   s.field("VSHUNT", s.readShuntMV),
		PowerMW:   s.field("POWER", s.readPowerMW),
		EnergyJ:   s.field("ENERGY", s.readEnergyJ),
		ChargeC:   s.field("CHARGE", s.readChargeC),
		DieTempC:  s.field("DIETEMP", s.readDieTempC),
	}
}

func (s *Sampler) field(name string, read func() (float64, error)) float64 {
	v, err := read()
	if err != nil {
		s.logger.Warn("INA228 register read failed", zap.String("register", name), zap.Error(err))
		return math.NaN()
	}
	return v
}

func (s *Sampler) readCurrentMA() (float64, error) {
	raw, err := s.readSigned20(regCurrent)
	if err != nil {
		return 0, err
	}
	return float64(raw) * s.currentLSB * 1000, nil
}

func (s *Sampler) readBusVoltsV() (float64, error) {
	raw, err := s.readSigned20(regVBus)
	if err != nil {
		return 0, err
	}
	return float64(raw) * vBusLSBV, nil
}

func (s *Sampler) readShuntMV() (float64, error) {
	raw, err := s.readSigned20(regVShunt)
	if err != nil {
		return 0, err
	}
	return float64(raw) * vShuntLSBmV, nil
}

func (s *Sampler) readPowerMW() (float64, error) {
	raw, err := s.readUnsigned24(regPower)
	if err != nil {
		return 0, err
	}
	return float64(raw) * 3.2 * s.currentLSB * 1000, nil
}

func (s *Sampler) readEnergyJ() (float64, error) {
	raw, err := s.readUnsigned40(regEnergy)
	if err != nil {
		return 0, err
	}
	return float64(raw) * 16 * 3.2 * s.currentLSB, nil
}

func (s *Sampler) readChargeC() (float64, error) {
	raw, err := s.readSigned40(regCharge)
	if err != nil {
		return 0, err
	}
	return float64(raw) * s.currentLSB, nil
}

func (s *Sampler) readDieTempC() (float64, error) {
	var buf [2]byte
	if err := s.bus.ReadReg(regDieTemp, buf[:]); err != nil {
		return 0, err
	}
	raw := int16(uint16(buf[0])<<8 | uint16(buf[1]))
	return float64(raw) * dieTempLSBC, nil
}

// readSigned20 reads a 24-bit register whose top 20 bits are a signed value.
func (s *Sampler) readSigned20(reg byte) (int32, error) {
	var buf [3]byte
	if err := s.bus.ReadReg(reg, buf[:]); err != nil {
		return 0, err
	}
	raw := int32(buf[0])<<16 | int32(buf[1])<<8 | int32(buf[2])
	raw >>= 4
	if raw&0x80000 != 0 { // sign-extend 20 bits
		raw -= 1 << 20
	}
	return raw, nil
}

func (s *Sampler) readUnsigned24(reg byte) (uint32, error) {
	var buf [3]byte
	if err := s.bus.ReadReg(reg, buf[:]); err != nil {
		return 0, err
	}
	return uint32(buf[0])<<16 | uint32(buf[1])<<8 | uint32(buf[2]), nil
}

func (s *Sampler) readUnsigned40(reg byte) (uint64, error) {
	var buf [5]byte
	if err := s.bus.ReadReg(reg, buf[:]); err != nil {
		return 0, err
	}
	var v uint64
	for _, b := range buf {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

func (s *Sampler) readSigned40(reg byte) (int64, error) {
	raw, err := s.readUnsigned40(reg)
	if err != nil {
		return 0, err
	}
	v := int64(raw)
	if v&(1<<39) != 0 { // sign-extend 40 bits
		v -= 1 << 40
	}
	return v, nil
}
