package pwm

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"
)

// dutyRange is the cycle length handed to the BCM PWM peripheral. The clock
// is run at carrier*dutyRange so that DutyCycle(duty, dutyRange) yields the
// carrier frequency with 12-bit resolution.
const dutyRange = DutyMax + 1

// RPIOPin drives one hardware PWM-capable BCM pin through go-rpio.
type RPIOPin struct {
	pin rpio.Pin
}

// NewRPIOPin wraps a BCM pin number. rpio.Open must have been called first.
func NewRPIOPin(bcm int) *RPIOPin {
	return &RPIOPin{pin: rpio.Pin(bcm)}
}

func (p *RPIOPin) Configure(carrierHz int) error {
	freq := carrierHz * dutyRange
	// The BCM PWM clock must stay within 4.688 kHz .. 19.2 MHz.
	if freq < 4688 || freq > 19200000 {
		return fmt.Errorf("pwm clock %d Hz out of range for pin %d", freq, p.pin)
	}
	p.pin.Mode(rpio.Pwm)
	p.pin.Freq(freq)
	p.pin.DutyCycle(0, dutyRange)
	return nil
}

func (p *RPIOPin) SetDuty(duty uint32) error {
	if duty > DutyMax {
		duty = DutyMax
	}
	p.pin.DutyCycle(duty, dutyRange)
	return nil
}

// Open maps the GPIO memory range. Call once at startup, paired with Close.
func Open() error {
	return rpio.Open()
}

func Close() error {
	return rpio.Close()
}
