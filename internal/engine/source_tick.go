// ABOUTME: Per-tick advancement for source (single clip) viewing
// ABOUTME: Pure over the snapshot; side effects are draw, freeze, prefetch
package engine

import (
	"github.com/sirupsen/logrus"

	"github.com/kronoedit/krono-go/internal/device"
	"github.com/kronoedit/krono-go/internal/render"
	"github.com/kronoedit/krono-go/internal/timecode"
)

// sourceTrack is the single video track a source viewer draws from.
var sourceTrack = render.TrackID{Type: render.TrackVideo, Index: 0}

// SourceTick computes one playback step in source mode. In shuttle mode
// a boundary hit latches (freeze and keep ticking); in play mode it
// stops. The coordinator commits the returned result.
func SourceTick(snap Snapshot, audio device.Device, buf render.MediaBuffer, cb Callbacks) Result {
	res := carry(snap)

	if snap.Latch.Active {
		// Frozen at a boundary. Hold position until shuttle reverses.
		return res
	}

	next, audioFrame, audioValid := nextPosition(snap, audio)
	res.AudioFrame = audioFrame
	res.AudioFrameValid = audioValid

	end := snap.Bounds.TotalFrames - 1
	if boundary := crossedBoundary(next, end); boundary != BoundaryNone {
		clamped := clampFrame(next, end)
		drawSourceFrame(buf, cb, clamped)

		if snap.Mode == ModeShuttle {
			freezeAudio(audio, timecode.FrameToTimeUS(clamped, snap.Rate))
			res.Position = clamped
			res.Latch = Latch{Active: true, Boundary: boundary}
			return res
		}

		// Play mode stops outright, never latches.
		res.Position = clamped
		res.Continue = false
		return res
	}

	drawSourceFrame(buf, cb, next)
	buf.SetPlayhead(next, snap.Direction, snap.Speed)
	res.Position = next
	return res
}

// nextPosition applies the follow/fallback rule. Video follows the
// audio clock whenever the device is actively playing; with no audio,
// or when the clock reports the same frame twice in a row (a stall:
// silent gap or exhausted content), position falls back to
// direction*speed accumulation so video never stalls with it.
func nextPosition(snap Snapshot, audio device.Device) (next, audioFrame int64, audioValid bool) {
	step := advanceStep(snap.Direction, snap.Speed)
	if audio == nil || !audio.IsPlaying() {
		return snap.Position + step, 0, false
	}

	us, err := audio.GetTimeUS()
	if err != nil {
		logrus.Warnf("audio time query failed: %v; video continues on frame accumulation", err)
		return snap.Position + step, 0, false
	}

	frame := timecode.TimeToFrame(us, snap.Rate)
	if snap.AudioFrameValid && frame == snap.LastAudioFrame && snap.Direction != 0 {
		return snap.Position + step, frame, true
	}
	return frame, frame, true
}

// crossedBoundary reports which content edge next has gone past.
// Frames 0 and end themselves are displayable, not crossings.
func crossedBoundary(next, end int64) Boundary {
	if next < 0 {
		return BoundaryStart
	}
	if next > end {
		return BoundaryEnd
	}
	return BoundaryNone
}

func clampFrame(frame, end int64) int64 {
	if frame < 0 {
		return 0
	}
	if frame > end {
		return end
	}
	return frame
}

func drawSourceFrame(buf render.MediaBuffer, cb Callbacks, frame int64) {
	vr := buf.GetVideoFrame(sourceTrack, frame)
	if vr.ClipID == "" && vr.Frame == nil {
		cb.showGap()
		return
	}
	cb.showFrame(vr)
}

// freezeAudio holds the audio clock at a clamped boundary time. A
// device failure here is logged and swallowed like every audio call.
func freezeAudio(audio device.Device, timeUS int64) {
	if audio == nil {
		return
	}
	if err := audio.Latch(timeUS); err != nil {
		logrus.Warnf("audio latch failed: %v; video continues", err)
	}
}
