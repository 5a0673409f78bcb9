package drivelink

import (
	"math"
	"strconv"
	"strings"
)

// fieldCount 指令报文字段数: leftX,leftY,rightX,rightY,mode,rawLeft,rawRight
const fieldCount = 7

// Decoder parses inbound command datagrams. It is stateful on purpose: a
// short or partially malformed datagram only advances the fields it actually
// carries, the rest keep the value from the previous call (propagating
// partial parse). Decode never fails: the commander link has no ack channel
// to report an error on, and a half-good datagram is still a command.
//
// Not safe for concurrent use; the control loop is the single caller.
type Decoder struct {
	frame Frame
}

// NewDecoder returns a decoder whose initial state is the zero frame
// (stationary, centered axes).
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode parses one datagram and returns the updated frame.
func (d *Decoder) Decode(payload []byte) Frame {
	fields := strings.Split(string(payload), ",")

	d.parseFloat(fields, 0, &d.frame.Axes.LeftX)
	d.parseFloat(fields, 1, &d.frame.Axes.LeftY)
	d.parseFloat(fields, 2, &d.frame.Axes.RightX)
	d.parseFloat(fields, 3, &d.frame.Axes.RightY)
	d.parseMode(fields, 4)
	d.parseFloat(fields, 5, &d.frame.RawLeft)
	d.parseFloat(fields, 6, &d.frame.RawRight)

	return d.frame
}

// Frame returns the decoder state without consuming a datagram.
func (d *Decoder) Frame() Frame {
	return d.frame
}

// parseFloat assigns fields[i] to dst when present and numeric; otherwise dst
// is left untouched.
func (d *Decoder) parseFloat(fields []string, i int, dst *float64) {
	if i >= len(fields) {
		return
	}
	tok := strings.TrimSpace(fields[i])
	if tok == "" {
		return
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return
	}
	*dst = v
}

func (d *Decoder) parseMode(fields []string, i int) {
	if i >= len(fields) {
		return
	}
	tok := strings.TrimSpace(fields[i])
	if tok == "" {
		return
	}
	// The ground station writes the mode as an integer, but a float here
	// should not drop the whole field. A non-finite value must not reach
	// the Mode conversion: float-to-integer conversion of NaN is
	// implementation-defined (0 on arm64, which would read as stationary
	// instead of keeping the prior mode).
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	d.frame.Mode = Mode(v)
}
