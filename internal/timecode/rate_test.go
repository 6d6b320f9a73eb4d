// ABOUTME: Tests for rational rate utilities
// ABOUTME: Covers canonical snapping and close-rate comparison
package timecode

import "testing"

func TestAreClose(t *testing.T) {
	if !AreClose(Rate23976, Rate24) {
		t.Error("23.976 and 24 should be close")
	}
	if !AreClose(Rate2997, Rate30) {
		t.Error("29.97 and 30 should be close")
	}
	if AreClose(Rate24, Rate25) {
		t.Error("24 and 25 should not be close")
	}
	if AreClose(Rate30, Rate60) {
		t.Error("30 and 60 should not be close")
	}
}

func TestSnapToCanonical(t *testing.T) {
	// Slightly-off measured rate snaps to 23.976
	measured := Rate{23970, 1000}
	snapped := SnapToCanonical(measured)
	if snapped != Rate23976 {
		t.Errorf("expected snap to 24000/1001, got %d/%d", snapped.Num, snapped.Den)
	}

	// Exact 24 stays 24 even though 23.976 is also within tolerance
	if got := SnapToCanonical(Rate{24000, 1000}); got != Rate24 {
		t.Errorf("expected snap to 24/1, got %d/%d", got.Num, got.Den)
	}

	// An oddball rate stays as-is
	odd := Rate{13, 1}
	if got := SnapToCanonical(odd); got != odd {
		t.Errorf("expected 13/1 unchanged, got %d/%d", got.Num, got.Den)
	}
}

func TestSelectGridRate(t *testing.T) {
	// Clip near the sequence rate conforms to the sequence grid
	if got := SelectGridRate(Rate23976, Rate24); got != Rate24 {
		t.Errorf("expected sequence rate 24/1, got %d/%d", got.Num, got.Den)
	}
	// Clip far from the sequence rate keeps its own grid
	if got := SelectGridRate(Rate30, Rate24); got != Rate30 {
		t.Errorf("expected clip rate 30/1, got %d/%d", got.Num, got.Den)
	}
}

func TestRateValid(t *testing.T) {
	if !Rate24.Valid() {
		t.Error("24/1 should be valid")
	}
	if (Rate{0, 1}).Valid() {
		t.Error("0/1 should be invalid")
	}
	if (Rate{24, 0}).Valid() {
		t.Error("24/0 should be invalid")
	}
}
