// ABOUTME: Resolves which clips are active at a timeline playhead
// ABOUTME: Video is exclusive (pick one), audio is inclusive (mix all)
package resolve

import (
	"github.com/samber/lo"

	"github.com/kronoedit/krono-go/internal/model"
	"github.com/kronoedit/krono-go/internal/timecode"
)

// VideoMatch is the single video clip active at a playhead position.
type VideoMatch struct {
	Clip         model.Clip
	TrackIndex   int
	SourceFrame  int64
	SourceTimeUS int64
}

// AudioMatch is one active audio clip; every audio track contributes.
type AudioMatch struct {
	Clip         model.Clip
	TrackIndex   int
	SourceTimeUS int64
}

// Resolver answers per-tick "what is under the playhead" queries against
// one sequence. It holds no mutable state of its own.
type Resolver struct {
	seq *model.Sequence
}

// New creates a resolver over a sequence.
func New(seq *model.Sequence) *Resolver {
	if seq == nil {
		panic("resolve: nil sequence")
	}
	return &Resolver{seq: seq}
}

// Sequence returns the resolved sequence.
func (r *Resolver) Sequence() *model.Sequence {
	return r.seq
}

// VideoAt returns the highest-priority video clip covering a frame.
// Lower track index wins; standard compositing order. A miss is a gap,
// not an error.
func (r *Resolver) VideoAt(frame int64) (VideoMatch, bool) {
	clip, track, ok := r.seq.VideoClipAt(frame)
	if !ok {
		return VideoMatch{}, false
	}
	srcFrame := r.sourceFrame(clip, frame)
	return VideoMatch{
		Clip:         clip,
		TrackIndex:   track,
		SourceFrame:  srcFrame,
		SourceTimeUS: timecode.FrameToTimeUS(srcFrame, clip.Rate),
	}, true
}

// AudioAt returns every audio clip covering a frame, across all tracks.
// Unlike video, audio tracks all play at once and the device mixes them.
func (r *Resolver) AudioAt(frame int64) []AudioMatch {
	return lo.FilterMap(r.seq.AudioTracks(), func(t *model.Track, _ int) (AudioMatch, bool) {
		clip, ok := t.ClipAt(frame)
		if !ok {
			return AudioMatch{}, false
		}
		srcFrame := r.sourceFrame(clip, frame)
		return AudioMatch{
			Clip:         clip,
			TrackIndex:   t.Index(),
			SourceTimeUS: timecode.FrameToTimeUS(srcFrame, clip.Rate),
		}, true
	})
}

// sourceFrame maps a timeline frame into a clip's own frame space.
// The offset is rescaled through microseconds so clips authored at a
// different rate than the sequence stay exact.
func (r *Resolver) sourceFrame(clip model.Clip, frame int64) int64 {
	offset := frame - clip.TimelineStart
	offsetUS := timecode.FrameToTimeUS(offset, r.seq.Rate())
	if clip.SpeedRatio != 0 && clip.SpeedRatio != 1.0 {
		// Conformed clip: media advances faster or slower than the timeline.
		offsetUS = int64(float64(offsetUS) * clip.SpeedRatio)
	}
	return clip.SourceIn + timecode.TimeToFrame(offsetUS, clip.Rate)
}
