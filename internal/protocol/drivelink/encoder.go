package drivelink

import (
	"fmt"
)

// EncodeCommand builds the 7-field command datagram the rover expects.
// Axes use two decimals and wheel velocities three, matching the ground
// station's formatting. Used by cmd/operator and by tests.
func EncodeCommand(f Frame) []byte {
	s := fmt.Sprintf("%.2f,%.2f,%.2f,%.2f,%d,%.3f,%.3f",
		f.Axes.LeftX, f.Axes.LeftY, f.Axes.RightX, f.Axes.RightY,
		int(f.Mode), f.RawLeft, f.RawRight)
	return []byte(s)
}
