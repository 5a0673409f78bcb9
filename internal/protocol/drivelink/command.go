package drivelink

// Mode 遥控指令模式选择器 (报文第 5 字段)
type Mode int

const (
	ModeStationary Mode = 0
	ModeForward    Mode = 1
	ModeTurnCW     Mode = 2
	ModeBackward   Mode = 3
	ModeTurnCCW    Mode = 4
	ModeWinchIn    Mode = 5
	ModeWinchOut   Mode = 6
	// ModeRawOverride routes the raw wheel pair straight to the drive
	// channels, bypassing the mixer entirely.
	ModeRawOverride Mode = 9
)

// AxisVector carries the four gamepad axes echoed by the commander.
// Values are nominally in [-1,1] but the decoder does not range-check them.
type AxisVector struct {
	LeftX  float64
	LeftY  float64
	RightX float64
	RightY float64
}

// DriveCommand 驱动指令三元组: forward/steering/winch ∈ [-1,1]
type DriveCommand struct {
	Forward  float64
	Steering float64
	Winch    float64
}

// Frame 入站指令报文解析结果
// RawLeft/RawRight are only meaningful when Mode == ModeRawOverride.
type Frame struct {
	Axes     AxisVector
	Mode     Mode
	RawLeft  float64
	RawRight float64
}

// commandTable maps every known mode to its drive command. Lookup through
// Resolve so that unknown selectors keep the previous command (a no-op, not
// a reset; an out-of-range mode must not stop the rover).
var commandTable = map[Mode]DriveCommand{
	ModeStationary: {Forward: 0, Steering: 0, Winch: 0},
	ModeForward:    {Forward: 1, Steering: 0, Winch: 0},
	ModeTurnCW:     {Forward: 0, Steering: 1, Winch: 0},
	ModeBackward:   {Forward: -1, Steering: 0, Winch: 0},
	ModeTurnCCW:    {Forward: 0, Steering: -1, Winch: 0},
	ModeWinchIn:    {Forward: 0, Steering: 0, Winch: 1},
	ModeWinchOut:   {Forward: 0, Steering: 0, Winch: -1},
}

// Resolve returns the drive command for mode, or (prev, false) when mode is
// not in the table (including ModeRawOverride, which carries no triple).
func Resolve(mode Mode, prev DriveCommand) (DriveCommand, bool) {
	cmd, ok := commandTable[mode]
	if !ok {
		return prev, false
	}
	return cmd, true
}
