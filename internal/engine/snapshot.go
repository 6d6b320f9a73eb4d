// ABOUTME: Immutable snapshot/result pair exchanged with tick functions
// ABOUTME: Tick functions never mutate engine state; only commits do
package engine

import (
	"github.com/kronoedit/krono-go/internal/model"
	"github.com/kronoedit/krono-go/internal/timecode"
)

// ClipBinding is the engine's record of which media is currently bound
// to an output: one for video, one per audio track. Replaced when the
// resolved clip id changes, cleared on a gap.
type ClipBinding struct {
	ClipID       string
	MediaPath    string
	SourceTimeUS int64
	TrackIndex   int
}

// Bound reports whether the binding refers to a clip.
func (b ClipBinding) Bound() bool {
	return b.ClipID != ""
}

// Snapshot is the read-only view of engine state a tick function
// consumes. The coordinator builds one per timer interval.
type Snapshot struct {
	Position  int64
	Direction int
	Speed     float64
	Mode      Mode
	Latch     Latch
	Rate      timecode.Rate
	Bounds    model.ContentBounds

	// Last frame the audio clock reported, for stuckness detection.
	LastAudioFrame  int64
	AudioFrameValid bool

	VideoBinding  ClipBinding
	AudioBindings []ClipBinding
}

// Result is what a tick function hands back. The coordinator commits it
// atomically after the tick's side effects have executed, so no
// half-applied tick is ever observable.
type Result struct {
	Position int64
	Continue bool
	Latch    Latch

	AudioFrame      int64
	AudioFrameValid bool

	VideoBinding  ClipBinding
	AudioBindings []ClipBinding
}

// carry seeds a Result with the unchanged parts of the snapshot.
func carry(snap Snapshot) Result {
	return Result{
		Position:        snap.Position,
		Continue:        true,
		Latch:           snap.Latch,
		AudioFrame:      snap.LastAudioFrame,
		AudioFrameValid: snap.AudioFrameValid,
		VideoBinding:    snap.VideoBinding,
		AudioBindings:   snap.AudioBindings,
	}
}
