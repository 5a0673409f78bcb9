package drive

import (
	"go.uber.org/zap"

	"rover-link/internal/infra/pwm"
)

// Train routes resolved commands into the PWM driver. It is the only writer
// of the drive channels; the mixed and raw paths stay separate all the way
// down so raw override never picks up the mixer's normalization.
type Train struct {
	driver *pwm.Driver
	logger *zap.Logger
}

func NewTrain(driver *pwm.Driver, logger *zap.Logger) *Train {
	return &Train{driver: driver, logger: logger}
}

// Drive applies a mixed (forward, steering, winch) command.
func (t *Train) Drive(forward, steering, winch float64) {
	left, right, winchOut := Mix(forward, steering, winch)
	t.driver.Write(pwm.ChannelLeft, left)
	t.driver.Write(pwm.ChannelRight, right)
	t.driver.Write(pwm.ChannelWinch, winchOut)
	t.logger.Debug("drive",
		zap.Float64("left", left),
		zap.Float64("right", right),
		zap.Float64("winch", winchOut))
}

// DriveWheels applies a raw per-wheel pair, unscaled. The winch channel is
// not touched on this path.
func (t *Train) DriveWheels(rawLeft, rawRight float64) {
	left, right := MixRaw(rawLeft, rawRight)
	t.driver.Write(pwm.ChannelLeft, left)
	t.driver.Write(pwm.ChannelRight, right)
	t.logger.Debug("drive raw",
		zap.Float64("left", left),
		zap.Float64("right", right))
}

// Stop writes the stationary command on all channels.
func (t *Train) Stop() {
	t.Drive(0, 0, 0)
}
