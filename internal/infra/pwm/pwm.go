// Package pwm is the signal driver: it turns normalized drive values into
// duty-cycle writes on logical channels, each fanned out to one or more
// physical output lines.
package pwm

import "math"

// ESC/servo pulse envelope and carrier. The drive ESCs take a standard
// 500–2500 µs pulse, stop at 1500 µs, refreshed at 333 Hz with 12-bit duty
// resolution.
const (
	PulseMinUS    = 500.0
	PulseMaxUS    = 2500.0
	PulseCenterUS = 1500.0

	DefaultCarrierHz = 333
	DutyBits         = 12
	DutyMax          = 4095
)

// PulseWidth linearly maps a normalized value to the pulse domain:
// -1 → PulseMinUS, 0 → PulseCenterUS, +1 → PulseMaxUS. The input is NOT
// clamped: raw-override values beyond [-1,1] extrapolate linearly here and
// only get bounded at the duty stage.
func PulseWidth(v float64) float64 {
	return PulseCenterUS + v*(PulseMaxUS-PulseMinUS)/2
}

// DutyCycle maps a pulse width onto the duty range for the given carrier:
// [0, 1e6/carrierHz] µs → [0, DutyMax], clamped to the physical range.
// A non-finite pulse width lands on the stop center: float-to-integer
// conversion of NaN is implementation-defined, so it must never reach the
// conversion below.
func DutyCycle(pulseUS float64, carrierHz int) uint32 {
	periodUS := 1e6 / float64(carrierHz)
	if math.IsNaN(pulseUS) || math.IsInf(pulseUS, 0) {
		pulseUS = PulseCenterUS
	}
	duty := pulseUS * DutyMax / periodUS
	if duty < 0 {
		return 0
	}
	if duty > DutyMax {
		return DutyMax
	}
	return uint32(duty)
}
