package usecase

import (
	"encoding/json"
	"math"
	"time"
)

// TelemetryPayload is the MQ record emitted once per control-loop tick,
// mirroring the status datagram plus routing metadata for the fleet side.
type TelemetryPayload struct {
	RoverID   string    `json:"rover_id"`
	Timestamp time.Time `json:"timestamp"`

	Forward  float64 `json:"forward"`
	Steering float64 `json:"steering"`

	PowerMW   float64 `json:"power_mw"`
	CurrentMA float64 `json:"current_ma"`
	BusVoltsV float64 `json:"bus_volts_v"`
	ShuntMV   float64 `json:"shunt_mv"`
	EnergyJ   float64 `json:"energy_j"`
	ChargeC   float64 `json:"charge_c"`
	DieTempC  float64 `json:"die_temp_c"`
}

// MarshalJSON maps NaN sensor sentinels to null; encoding/json rejects NaN
// outright and one dead register must not cost the whole record.
func (p TelemetryPayload) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		RoverID   string    `json:"rover_id"`
		Timestamp time.Time `json:"timestamp"`
		Forward   float64   `json:"forward"`
		Steering  float64   `json:"steering"`
		PowerMW   *float64  `json:"power_mw"`
		CurrentMA *float64  `json:"current_ma"`
		BusVoltsV *float64  `json:"bus_volts_v"`
		ShuntMV   *float64  `json:"shunt_mv"`
		EnergyJ   *float64  `json:"energy_j"`
		ChargeC   *float64  `json:"charge_c"`
		DieTempC  *float64  `json:"die_temp_c"`
	}{
		RoverID:   p.RoverID,
		Timestamp: p.Timestamp,
		Forward:   p.Forward,
		Steering:  p.Steering,
		PowerMW:   finiteOrNull(p.PowerMW),
		CurrentMA: finiteOrNull(p.CurrentMA),
		BusVoltsV: finiteOrNull(p.BusVoltsV),
		ShuntMV:   finiteOrNull(p.ShuntMV),
		EnergyJ:   finiteOrNull(p.EnergyJ),
		ChargeC:   finiteOrNull(p.ChargeC),
		DieTempC:  finiteOrNull(p.DieTempC),
	})
}

func finiteOrNull(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
