// ABOUTME: Track with sorted clips and binary-search lookup
// ABOUTME: Lookups run every playback tick and must stay O(log n)
package model

import "sort"

// Track holds non-overlapping clips sorted by timeline start.
type Track struct {
	index int
	clips []Clip
}

// NewTrack creates a track from a clip list; clips are sorted by start.
func NewTrack(index int, clips []Clip) *Track {
	sorted := make([]Clip, len(clips))
	copy(sorted, clips)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].TimelineStart < sorted[j].TimelineStart
	})
	return &Track{index: index, clips: sorted}
}

// Index returns the track's position in its track list (0 = top).
func (t *Track) Index() int {
	return t.index
}

// Clips returns the track's clips in timeline order.
func (t *Track) Clips() []Clip {
	return t.clips
}

// ClipAt returns the clip covering the given frame, if any.
func (t *Track) ClipAt(frame int64) (Clip, bool) {
	// First clip whose end is past the frame; covers iff it started already.
	i := sort.Search(len(t.clips), func(i int) bool {
		return t.clips[i].TimelineEnd() > frame
	})
	if i < len(t.clips) && t.clips[i].Covers(frame) {
		return t.clips[i], true
	}
	return Clip{}, false
}

// NextClip returns the first clip starting after the given frame.
func (t *Track) NextClip(frame int64) (Clip, bool) {
	i := sort.Search(len(t.clips), func(i int) bool {
		return t.clips[i].TimelineStart > frame
	})
	if i < len(t.clips) {
		return t.clips[i], true
	}
	return Clip{}, false
}

// PrevClip returns the last clip ending at or before the given frame.
func (t *Track) PrevClip(frame int64) (Clip, bool) {
	i := sort.Search(len(t.clips), func(i int) bool {
		return t.clips[i].TimelineEnd() > frame
	})
	if i > 0 {
		return t.clips[i-1], true
	}
	return Clip{}, false
}

// End returns the first frame past the track's last clip, 0 when empty.
func (t *Track) End() int64 {
	if len(t.clips) == 0 {
		return 0
	}
	return t.clips[len(t.clips)-1].TimelineEnd()
}
