package ina228

import (
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"
)

// fakeBus serves canned register bytes and can fail selected registers.
type fakeBus struct {
	regs     map[byte][]byte
	failRegs map[byte]error
	written  map[byte]uint16
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		regs:     make(map[byte][]byte),
		failRegs: make(map[byte]error),
		written:  make(map[byte]uint16),
	}
}

func (b *fakeBus) ReadReg(reg byte, buf []byte) error {
	if err, ok := b.failRegs[reg]; ok {
		return err
	}
	data, ok := b.regs[reg]
	if !ok {
		return errors.New("register not backed")
	}
	copy(buf, data)
	return nil
}

func (b *fakeBus) WriteReg(reg byte, value uint16) error {
	b.written[reg] = value
	return nil
}

// cfg8A makes the current LSB an exact power of two: 8.388608/2^19 = 16 µA.
var cfg8A = Config{ShuntOhms: 0.015, MaxCurrentA: 8.388608}

func approx(got, want, tol float64) bool {
	return math.Abs(got-want) <= tol
}

func TestSampleConversions(t *testing.T) {
	bus := newFakeBus()
	bus.regs[regVBus] = []byte{0x0F, 0x00, 0x00}    // 61440 -> 12.0 V
	bus.regs[regVShunt] = []byte{0xFC, 0x18, 0x00}  // -16000 -> -5.0 mV
	bus.regs[regDieTemp] = []byte{0x0C, 0x80}       // 3200 -> 25.0 C
	bus.regs[regCurrent] = []byte{0x0F, 0x42, 0x40} // 62500 -> 1000.0 mA
	bus.regs[regPower] = []byte{0x01, 0x86, 0xA0}   // 100000 -> 5120.0 mW
	bus.regs[regEnergy] = []byte{0x00, 0x00, 0x00, 0x03, 0xE8}
	bus.regs[regCharge] = []byte{0xFF, 0xFF, 0xFF, 0x3C, 0xB0}

	s := NewSampler(bus, cfg8A, zap.NewNop())
	snap := s.Sample()

	if !approx(snap.BusVoltsV, 12.0, 1e-9) {
		t.Errorf("BusVoltsV = %v, want 12.0", snap.BusVoltsV)
	}
	if !approx(snap.ShuntMV, -5.0, 1e-9) {
		t.Errorf("ShuntMV = %v, want -5.0", snap.ShuntMV)
	}
	if !approx(snap.DieTempC, 25.0, 1e-9) {
		t.Errorf("DieTempC = %v, want 25.0", snap.DieTempC)
	}
	if !approx(snap.CurrentMA, 1000.0, 1e-9) {
		t.Errorf("CurrentMA = %v, want 1000.0", snap.CurrentMA)
	}
	if !approx(snap.PowerMW, 5120.0, 1e-9) {
		t.Errorf("PowerMW = %v, want 5120.0", snap.PowerMW)
	}
	// 1000 counts * 16 * 3.2 * 16e-6 J
	if !approx(snap.EnergyJ, 0.8192, 1e-9) {
		t.Errorf("EnergyJ = %v, want 0.8192", snap.EnergyJ)
	}
	// -50000 counts * 16e-6 C
	if !approx(snap.ChargeC, -0.8, 1e-9) {
		t.Errorf("ChargeC = %v, want -0.8", snap.ChargeC)
	}
}

func TestSampleFailedFieldIsNaNNotFatal(t *testing.T) {
	bus := newFakeBus()
	bus.regs[regVShunt] = []byte{0x00, 0x00, 0x00}
	bus.regs[regDieTemp] = []byte{0x0C, 0x80}
	bus.regs[regCurrent] = []byte{0x00, 0x00, 0x00}
	bus.regs[regPower] = []byte{0x00, 0x00, 0x00}
	bus.regs[regEnergy] = []byte{0x00, 0x00, 0x00, 0x00, 0x00}
	bus.regs[regCharge] = []byte{0x00, 0x00, 0x00, 0x00, 0x00}
	bus.failRegs[regVBus] = errors.New("bus transaction NAK")

	s := NewSampler(bus, cfg8A, zap.NewNop())
	snap := s.Sample()

	if !math.IsNaN(snap.BusVoltsV) {
		t.Errorf("BusVoltsV = %v, want NaN sentinel", snap.BusVoltsV)
	}
	if math.IsNaN(snap.DieTempC) {
		t.Error("unrelated field poisoned by VBUS failure")
	}
}

func TestSampleDisconnectedBusIsAllNaN(t *testing.T) {
	s := NewSampler(DisconnectedBus{}, cfg8A, zap.NewNop())
	snap := s.Sample()

	for name, v := range map[string]float64{
		"CurrentMA": snap.CurrentMA,
		"BusVoltsV": snap.BusVoltsV,
		"ShuntMV":   snap.ShuntMV,
		"PowerMW":   snap.PowerMW,
		"EnergyJ":   snap.EnergyJ,
		"ChargeC":   snap.ChargeC,
		"DieTempC":  snap.DieTempC,
	} {
		if !math.IsNaN(v) {
			t.Errorf("%s = %v, want NaN with no monitor fitted", name, v)
		}
	}
}

func TestInitWritesShuntCalibration(t *testing.T) {
	bus := newFakeBus()
	s := NewSampler(bus, cfg8A, zap.NewNop())
	if err := s.Init(cfg8A); err != nil {
		t.Fatalf("Init: %v", err)
	}

	// SHUNT_CAL = 13107.2e6 * 16e-6 * 0.015 = 3145 (truncated)
	got, ok := bus.written[regShuntCal]
	if !ok {
		t.Fatal("SHUNT_CAL never written")
	}
	if got != 3145 {
		t.Errorf("SHUNT_CAL = %d, want 3145", got)
	}
}
