package pwm

import (
	"fmt"

	"go.uber.org/zap"
)

// Channel 逻辑输出通道
// The left and right drive channels each fan out to a front and a back motor
// pin; the two share one duty value and are not independently controllable.
type Channel int

const (
	ChannelLeft Channel = iota
	ChannelRight
	ChannelWinch
)

func (c Channel) String() string {
	switch c {
	case ChannelLeft:
		return "left"
	case ChannelRight:
		return "right"
	case ChannelWinch:
		return "winch"
	}
	return fmt.Sprintf("channel(%d)", int(c))
}

// Output is one physical PWM line.
type Output interface {
	// Configure sets the line up for the given carrier frequency and the
	// package duty resolution.
	Configure(carrierHz int) error
	// SetDuty writes a duty value in [0, DutyMax].
	SetDuty(duty uint32) error
}

// Driver owns the channel-to-line bindings and the pulse→duty conversion.
// There is no queue: every Write overwrites the previous duty on all bound
// lines, so exactly one command is in effect at the hardware at any instant.
type Driver struct {
	carrierHz int
	outputs   map[Channel][]Output
	logger    *zap.Logger
}

func NewDriver(carrierHz int, logger *zap.Logger) *Driver {
	if carrierHz <= 0 {
		carrierHz = DefaultCarrierHz
	}
	return &Driver{
		carrierHz: carrierHz,
		outputs:   make(map[Channel][]Output),
		logger:    logger,
	}
}

// Bind attaches one or more physical lines to a logical channel.
func (d *Driver) Bind(ch Channel, outs ...Output) {
	d.outputs[ch] = append(d.outputs[ch], outs...)
}

// Configure brings up every bound line at the carrier frequency.
func (d *Driver) Configure() error {
	for ch, outs := range d.outputs {
		for i, out := range outs {
			if err := out.Configure(d.carrierHz); err != nil {
				return fmt.Errorf("configure %s line %d: %w", ch, i, err)
			}
		}
	}
	return nil
}

// Write converts a normalized drive value to a duty cycle and applies it to
// every line bound to the channel. It cannot fail from the caller's point of
// view: an out-of-range value is clamped at the duty stage, and a line write
// error is logged and swallowed so one bad line never stalls the command
// path.
func (d *Driver) Write(ch Channel, v float64) {
	duty := DutyCycle(PulseWidth(v), d.carrierHz)
	for _, out := range d.outputs[ch] {
		if err := out.SetDuty(duty); err != nil {
			d.logger.Warn("PWM line write failed",
				zap.Stringer("channel", ch),
				zap.Uint32("duty", duty),
				zap.Error(err))
		}
	}
}

// CarrierHz reports the configured carrier frequency.
func (d *Driver) CarrierHz() int {
	return d.carrierHz
}
