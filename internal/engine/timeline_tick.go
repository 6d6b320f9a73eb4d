// ABOUTME: Per-tick advancement for multi-track timeline playback
// ABOUTME: Re-resolves clips every frame; boundary hits stop, never latch
package engine

import (
	"github.com/kronoedit/krono-go/internal/device"
	"github.com/kronoedit/krono-go/internal/model"
	"github.com/kronoedit/krono-go/internal/render"
	"github.com/kronoedit/krono-go/internal/resolve"
)

// clipWindow is how many upcoming clips per track accompany the active
// clip in the media-buffer layout, so decode can run ahead of the
// playhead across boundaries.
const clipWindow = 3

// TimelineTick computes one playback step in timeline mode. On top of
// the follow/fallback rule it re-resolves the active video clip and the
// active audio clip set at the new position, switching sources whenever
// the resolved clip id changes and clearing bindings on a gap.
func TimelineTick(snap Snapshot, audio device.Device, buf render.MediaBuffer, res *resolve.Resolver, cb Callbacks) Result {
	out := carry(snap)

	next, audioFrame, audioValid := nextPosition(snap, audio)
	out.AudioFrame = audioFrame
	out.AudioFrameValid = audioValid

	// Timeline mode never latches: clamp and stop at either edge.
	end := snap.Bounds.TotalFrames - 1
	if crossedBoundary(next, end) != BoundaryNone {
		next = clampFrame(next, end)
		out.Continue = false
	}
	out.Position = next

	out.VideoBinding = showTimelineFrame(res, buf, cb, next, snap.VideoBinding)
	out.AudioBindings = syncAudioSources(audio, res.AudioAt(next), snap.AudioBindings)

	buf.SetPlayhead(next, snap.Direction, snap.Speed)
	return out
}

// showTimelineFrame resolves and displays the video clip at a frame,
// re-binding the viewer when the active clip changes. Returns the new
// video binding; a gap clears it so the next real clip triggers a
// fresh switch notification.
func showTimelineFrame(res *resolve.Resolver, buf render.MediaBuffer, cb Callbacks, frame int64, prev ClipBinding) ClipBinding {
	match, ok := res.VideoAt(frame)
	if !ok {
		if prev.Bound() {
			cb.showGap()
		}
		return ClipBinding{}
	}

	track := render.TrackID{Type: render.TrackVideo, Index: match.TrackIndex}
	if match.Clip.ID != prev.ClipID {
		buf.SetTrackClips(track, layoutWindow(res, match.TrackIndex, frame))
		cb.setRotation(match.Clip.Rotation)
	}

	cb.showFrame(buf.GetVideoFrame(track, frame))
	return ClipBinding{
		ClipID:       match.Clip.ID,
		MediaPath:    match.Clip.MediaPath,
		SourceTimeUS: match.SourceTimeUS,
		TrackIndex:   match.TrackIndex,
	}
}

// layoutWindow builds the clip layout handed to the media buffer when
// the viewer re-binds: the active clip plus the next few on its track.
func layoutWindow(res *resolve.Resolver, trackIndex int, frame int64) []render.ClipLayout {
	tracks := res.Sequence().VideoTracks()
	if trackIndex >= len(tracks) {
		return nil
	}
	track := tracks[trackIndex]

	var window []render.ClipLayout
	cursor := frame
	if c, ok := track.ClipAt(cursor); ok {
		window = append(window, toLayout(c))
		cursor = c.TimelineEnd() - 1
	}
	for len(window) < 1+clipWindow {
		c, ok := track.NextClip(cursor)
		if !ok {
			break
		}
		window = append(window, toLayout(c))
		cursor = c.TimelineEnd() - 1
	}
	return window
}

func toLayout(c model.Clip) render.ClipLayout {
	return render.ClipLayout{
		ClipID:        c.ID,
		MediaPath:     c.MediaPath,
		TimelineStart: c.TimelineStart,
		Duration:      c.Duration,
		SourceIn:      c.SourceIn,
		Rate:          c.Rate,
		SpeedRatio:    c.SpeedRatio,
	}
}
