// ABOUTME: Exact rational frame<->microsecond conversion
// ABOUTME: Integer arithmetic only; position is never an accumulating float
package timecode

import "time"

// MicrosPerSecond is the canonical time unit denominator.
const MicrosPerSecond = 1_000_000

// minTickInterval caps the display refresh at roughly 60 Hz.
const minTickInterval = 16 * time.Millisecond

// FrameToTimeUS converts a frame index to microseconds:
// floor(frame * 1e6 * den / num).
func FrameToTimeUS(frame int64, r Rate) int64 {
	return floorDiv(frame*MicrosPerSecond*int64(r.Den), int64(r.Num))
}

// TimeToFrame converts microseconds to a frame index using round-half-up.
// Rounding (rather than floor) makes the conversion the exact inverse of
// FrameToTimeUS: the floored microsecond value sits a fraction of a frame
// below the true boundary, and flooring again would land one frame short.
func TimeToFrame(us int64, r Rate) int64 {
	den := MicrosPerSecond * int64(r.Den)
	return floorDiv(us*int64(r.Num)+den/2, den)
}

// FrameDurationUS returns the duration of one frame in microseconds.
func FrameDurationUS(r Rate) int64 {
	return floorDiv(MicrosPerSecond*int64(r.Den), int64(r.Num))
}

// TickInterval returns the timer interval for a playback speed. Speeds
// below 1 stretch the interval (fewer, slower ticks); speeds at or above
// 1 tick once per frame and cover the extra frames by a larger step.
// The floor keeps the refresh at or below ~60 Hz.
func TickInterval(r Rate, speed float64) time.Duration {
	frameDur := time.Duration(FrameDurationUS(r)) * time.Microsecond
	if speed > 0 && speed < 1 {
		stretched := time.Duration(float64(frameDur) / speed)
		if stretched < minTickInterval {
			return minTickInterval
		}
		return stretched
	}
	if frameDur < minTickInterval {
		return minTickInterval
	}
	return frameDur
}

// floorDiv divides rounding toward negative infinity. Go's integer
// division truncates toward zero, which is wrong for negative numerators.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
