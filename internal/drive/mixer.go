package drive

import "math"

// Mix resolves a (forward, steering, winch) command into per-channel drive
// values using symmetric differential steering:
//
//	left  = forward + steering
//	right = forward - steering
//
// Both drive outputs are normalized by max(|left|, |right|, 1), so they are
// always in [-1,1] and values already inside the band pass through unscaled
// (the divisor floors at 1, so this is a saturating normalization, not a
// proportional rescale). The winch channel is independent and never scaled by drive
// saturation.
func Mix(forward, steering, winch float64) (left, right, winchOut float64) {
	left = forward + steering
	right = forward - steering

	scale := math.Max(math.Max(math.Abs(left), math.Abs(right)), 1.0)
	left /= scale
	right /= scale

	return left, right, winch
}

// MixRaw routes a per-wheel pair through unchanged. Unlike Mix it applies no
// normalization or saturation: raw override trusts the commander to
// pre-scale, and values beyond [-1,1] are passed on to the pulse-width map
// as-is. This asymmetry with the mixed path is intentional; the duty-cycle
// stage still clamps to the physical output range.
func MixRaw(rawLeft, rawRight float64) (left, right float64) {
	return rawLeft, rawRight
}
