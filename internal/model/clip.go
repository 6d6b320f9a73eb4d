// ABOUTME: Clip description used by the resolver and media buffer
// ABOUTME: All positions are timeline frames at the sequence rate
package model

import "github.com/kronoedit/krono-go/internal/timecode"

// Clip is one media reference placed on a track. TimelineStart and
// Duration are sequence-rate frames; SourceIn is a frame index in the
// clip's own rate (absolute timecode space of the source file).
type Clip struct {
	ID            string        `json:"id"`
	MediaPath     string        `json:"media_path"`
	TimelineStart int64         `json:"timeline_start"`
	Duration      int64         `json:"duration"`
	SourceIn      int64         `json:"source_in"`
	Rate          timecode.Rate `json:"rate"`
	SpeedRatio    float64       `json:"speed_ratio"`
	Rotation      int           `json:"rotation"`
}

// TimelineEnd returns the first frame past the clip.
func (c Clip) TimelineEnd() int64 {
	return c.TimelineStart + c.Duration
}

// Covers reports whether the clip occupies the given timeline frame.
func (c Clip) Covers(frame int64) bool {
	return frame >= c.TimelineStart && frame < c.TimelineEnd()
}
