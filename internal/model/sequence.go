// ABOUTME: Sequence read API consumed by the playback resolver
// ABOUTME: Tracks content bounds and a revision counter for change detection
package model

import "github.com/kronoedit/krono-go/internal/timecode"

// ContentBounds is the playable extent of a sequence, derived from its
// rate. Recompute whenever the underlying content changes.
type ContentBounds struct {
	TotalFrames    int64
	MaxMediaTimeUS int64
}

// Sequence is the clip/track layout of one timeline. The playback engine
// only reads it; editing goes through a separate pipeline that bumps the
// revision counter.
type Sequence struct {
	id       string
	rate     timecode.Rate
	video    []*Track
	audio    []*Track
	revision uint64
}

// NewSequence creates an empty sequence at the given rate.
func NewSequence(id string, rate timecode.Rate) *Sequence {
	if !rate.Valid() {
		panic("model: sequence rate must be a valid rational")
	}
	return &Sequence{id: id, rate: rate}
}

// ID returns the sequence identifier.
func (s *Sequence) ID() string {
	return s.id
}

// Rate returns the sequence frame rate.
func (s *Sequence) Rate() timecode.Rate {
	return s.rate
}

// Revision returns a counter bumped on every content mutation.
func (s *Sequence) Revision() uint64 {
	return s.revision
}

// SetVideoTrack replaces the clip list of a video track, creating
// intermediate tracks as needed.
func (s *Sequence) SetVideoTrack(index int, clips []Clip) {
	s.video = setTrack(s.video, index, clips)
	s.revision++
}

// SetAudioTrack replaces the clip list of an audio track.
func (s *Sequence) SetAudioTrack(index int, clips []Clip) {
	s.audio = setTrack(s.audio, index, clips)
	s.revision++
}

func setTrack(tracks []*Track, index int, clips []Clip) []*Track {
	for len(tracks) <= index {
		tracks = append(tracks, NewTrack(len(tracks), nil))
	}
	tracks[index] = NewTrack(index, clips)
	return tracks
}

// VideoTracks returns the video tracks, top track first.
func (s *Sequence) VideoTracks() []*Track {
	return s.video
}

// AudioTracks returns the audio tracks.
func (s *Sequence) AudioTracks() []*Track {
	return s.audio
}

// VideoClipAt returns the highest-priority (lowest-index) video clip
// covering a frame. Video tracks are exclusive: exactly one clip wins.
func (s *Sequence) VideoClipAt(frame int64) (Clip, int, bool) {
	for _, t := range s.video {
		if c, ok := t.ClipAt(frame); ok {
			return c, t.Index(), true
		}
	}
	return Clip{}, 0, false
}

// AudioClipsAt returns the active clip on every audio track covering a
// frame. Audio tracks are inclusive: all of them play at once.
func (s *Sequence) AudioClipsAt(frame int64) []Clip {
	var clips []Clip
	for _, t := range s.audio {
		if c, ok := t.ClipAt(frame); ok {
			clips = append(clips, c)
		}
	}
	return clips
}

// NextVideo returns the earliest video clip starting after a frame,
// across all video tracks.
func (s *Sequence) NextVideo(frame int64) (Clip, bool) {
	var best Clip
	found := false
	for _, t := range s.video {
		if c, ok := t.NextClip(frame); ok {
			if !found || c.TimelineStart < best.TimelineStart {
				best = c
				found = true
			}
		}
	}
	return best, found
}

// PrevVideo returns the latest video clip ending at or before a frame.
func (s *Sequence) PrevVideo(frame int64) (Clip, bool) {
	var best Clip
	found := false
	for _, t := range s.video {
		if c, ok := t.PrevClip(frame); ok {
			if !found || c.TimelineEnd() > best.TimelineEnd() {
				best = c
				found = true
			}
		}
	}
	return best, found
}

// NextAudio returns the earliest audio clip starting after a frame.
func (s *Sequence) NextAudio(frame int64) (Clip, bool) {
	var best Clip
	found := false
	for _, t := range s.audio {
		if c, ok := t.NextClip(frame); ok {
			if !found || c.TimelineStart < best.TimelineStart {
				best = c
				found = true
			}
		}
	}
	return best, found
}

// ContentEnd returns the first frame past all content on any track.
func (s *Sequence) ContentEnd() int64 {
	var end int64
	for _, t := range s.video {
		if e := t.End(); e > end {
			end = e
		}
	}
	for _, t := range s.audio {
		if e := t.End(); e > end {
			end = e
		}
	}
	return end
}

// Bounds derives the content bounds from the current layout.
func (s *Sequence) Bounds() ContentBounds {
	total := s.ContentEnd()
	return ContentBounds{
		TotalFrames:    total,
		MaxMediaTimeUS: timecode.FrameToTimeUS(total, s.rate),
	}
}
