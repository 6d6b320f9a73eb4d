// ABOUTME: Rational frame-rate type and canonical rate utilities
// ABOUTME: Rates are exact num/den pairs so frame math never drifts
package timecode

import "math"

// Rate is a frame rate expressed as an exact rational (fps = Num/Den).
// It is carried as a pair everywhere; a bare float fps would drift off
// true frame boundaries after enough seek/advance cycles.
type Rate struct {
	Num int32
	Den int32
}

// FPS returns the rate as a float, for display and comparison only.
func (r Rate) FPS() float64 {
	return float64(r.Num) / float64(r.Den)
}

// Valid reports whether the rate is usable for conversions.
func (r Rate) Valid() bool {
	return r.Num > 0 && r.Den > 0
}

// Common canonical rates, kept rational for exact representation.
var (
	Rate23976 = Rate{24000, 1001}
	Rate24    = Rate{24, 1}
	Rate25    = Rate{25, 1}
	Rate2997  = Rate{30000, 1001}
	Rate30    = Rate{30, 1}
	Rate50    = Rate{50, 1}
	Rate5994  = Rate{60000, 1001}
	Rate60    = Rate{60, 1}
)

var canonicalRates = []Rate{
	Rate23976, Rate24, Rate25,
	Rate2997, Rate30, Rate50,
	Rate5994, Rate60,
}

// AreClose reports whether two rates are within 0.2% of each other.
// This treats 23.976<->24 and 29.97<->30 as "close".
func AreClose(a, b Rate) bool {
	fpsA := a.FPS()
	fpsB := b.FPS()
	if fpsB == 0 {
		return false
	}
	return math.Abs(fpsA-fpsB)/fpsB <= 0.002
}

// SnapToCanonical snaps a rate to the nearest canonical rate if one is
// close, otherwise returns the rate unchanged. Nearest wins: 24.0 must
// not snap to 23.976 just because both are within tolerance.
func SnapToCanonical(r Rate) Rate {
	best := r
	bestDiff := math.Inf(1)
	for _, c := range canonicalRates {
		if !AreClose(r, c) {
			continue
		}
		if diff := math.Abs(r.FPS() - c.FPS()); diff < bestDiff {
			best = c
			bestDiff = diff
		}
	}
	return best
}

// SelectGridRate picks the CFR grid rate for a source viewer: the clip's
// nominal rate by default, the sequence rate when the two are close.
func SelectGridRate(nominal, sequence Rate) Rate {
	snapped := SnapToCanonical(nominal)
	if AreClose(snapped, sequence) {
		return sequence
	}
	return snapped
}
