package drivelink

import (
	"fmt"
	"strconv"
	"strings"
)

// StatusFrame 出站状态报文 (9 字段, 每 tick 一条)
// Field order on the wire:
//
//	forward,steering,power_mW,current_mA,busVoltage_V,shuntVoltage_mV,
//	energy_J,charge_C,dieTemp_C
//
// Sensor fields may be NaN when the power monitor read failed that tick.
type StatusFrame struct {
	Forward   float64
	Steering  float64
	PowerMW   float64
	CurrentMA float64
	BusVoltsV float64
	ShuntMV   float64
	EnergyJ   float64
	ChargeC   float64
	DieTempC  float64
}

// statusFieldCount is fixed; EncodeStatus and DecodeStatus must agree.
const statusFieldCount = 9

// EncodeStatus renders the frame with one decimal place per field.
func EncodeStatus(f StatusFrame) []byte {
	s := fmt.Sprintf("%.1f,%.1f,%.1f,%.1f,%.1f,%.1f,%.1f,%.1f,%.1f",
		f.Forward, f.Steering,
		f.PowerMW, f.CurrentMA, f.BusVoltsV, f.ShuntMV,
		f.EnergyJ, f.ChargeC, f.DieTempC)
	return []byte(s)
}

// DecodeStatus parses a status datagram back into a frame. Unlike the
// command decoder this side is strict: the operator console has a terminal to
// complain on, so a short or non-numeric datagram is an error.
func DecodeStatus(payload []byte) (StatusFrame, error) {
	fields := strings.Split(strings.TrimSpace(string(payload)), ",")
	if len(fields) != statusFieldCount {
		return StatusFrame{}, fmt.Errorf("status datagram has %d fields, want %d", len(fields), statusFieldCount)
	}

	vals := make([]float64, statusFieldCount)
	for i, tok := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(tok), 64)
		if err != nil {
			return StatusFrame{}, fmt.Errorf("status field %d: %w", i, err)
		}
		vals[i] = v
	}

	return StatusFrame{
		Forward:   vals[0],
		Steering:  vals[1],
		PowerMW:   vals[2],
		CurrentMA: vals[3],
		BusVoltsV: vals[4],
		ShuntMV:   vals[5],
		EnergyJ:   vals[6],
		ChargeC:   vals[7],
		DieTempC:  vals[8],
	}, nil
}
