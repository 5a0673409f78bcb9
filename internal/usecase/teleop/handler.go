package teleop

import (
	"go.uber.org/zap"

	"rover-link/internal/protocol/drivelink"
)

// Drivetrain is the actuation surface the handler writes to. The mixed and
// raw paths are deliberately separate methods; see drive.Train.
type Drivetrain interface {
	Drive(forward, steering, winch float64)
	DriveWheels(rawLeft, rawRight float64)
	Stop()
}

// Handler resolves inbound command datagrams into actuation. It owns the
// stateful wire decoder and the last-resolved-command cache; both persist
// across ticks so short datagrams and unknown modes degrade to "keep doing
// what you were doing" rather than stopping the rover. Single-goroutine use
// only; the control loop is the sole caller.
type Handler struct {
	dec     *drivelink.Decoder
	train   Drivetrain
	lastCmd drivelink.DriveCommand
	logger  *zap.Logger
}

func NewHandler(train Drivetrain, logger *zap.Logger) *Handler {
	return &Handler{
		dec:    drivelink.NewDecoder(),
		train:  train,
		logger: logger,
	}
}

// HandleDatagram decodes one command datagram and applies it to the
// drivetrain. It never fails: the command link has no error channel, and
// every datagram, however mangled, resolves to some actuation.
func (h *Handler) HandleDatagram(payload []byte) {
	frame := h.dec.Decode(payload)

	if frame.Mode == drivelink.ModeRawOverride {
		// Diagnostic wheel-level control: bypass the mixer, leave the
		// cached (forward, steering) echo untouched.
		h.train.DriveWheels(frame.RawLeft, frame.RawRight)
		h.logger.Debug("raw override applied",
			zap.Float64("raw_left", frame.RawLeft),
			zap.Float64("raw_right", frame.RawRight))
		return
	}

	cmd, known := drivelink.Resolve(frame.Mode, h.lastCmd)
	if !known {
		// Unknown selector is a no-op: the previous command is reused,
		// not reset. Do not "fix" this into a stop.
		h.logger.Warn("unknown mode selector, keeping previous command",
			zap.Int("mode", int(frame.Mode)))
	}
	h.lastCmd = cmd
	h.train.Drive(cmd.Forward, cmd.Steering, cmd.Winch)
}

// LastCommand returns the cached (forward, steering) pair for telemetry
// echo. It does not feed back into control.
func (h *Handler) LastCommand() (forward, steering float64) {
	return h.lastCmd.Forward, h.lastCmd.Steering
}

// Halt applies the stationary command and resets the cache. Used by the
// command-loss watchdog and at shutdown.
func (h *Handler) Halt() {
	h.lastCmd = drivelink.DriveCommand{}
	h.train.Stop()
}
