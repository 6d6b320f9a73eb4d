// ABOUTME: Renderer/media-buffer surface consumed by the playback engine
// ABOUTME: Pixel decode lives behind this interface, outside the engine
package render

import "github.com/kronoedit/krono-go/internal/timecode"

// TrackType distinguishes video and audio tracks so their indices
// cannot collide in one identifier space.
type TrackType int

const (
	TrackVideo TrackType = iota
	TrackAudio
)

// TrackID uniquely identifies a track in the media buffer.
type TrackID struct {
	Type  TrackType
	Index int
}

// ClipLayout is one clip's placement as handed to the media buffer.
// The engine passes the current clip plus a small window of upcoming
// clips per track so the buffer can pre-decode across boundaries.
type ClipLayout struct {
	ClipID        string
	MediaPath     string
	TimelineStart int64
	Duration      int64
	SourceIn      int64
	Rate          timecode.Rate
	SpeedRatio    float64
}

// TimelineEnd returns the first frame past the clip.
func (c ClipLayout) TimelineEnd() int64 {
	return c.TimelineStart + c.Duration
}

// VideoResult is what the buffer returns for one track and frame.
// Frame is an opaque handle owned by the renderer; nil means gap or
// offline media.
type VideoResult struct {
	Frame       any
	ClipID      string
	MediaPath   string
	Rotation    int
	SourceFrame int64
	ClipRate    timecode.Rate
	ClipStart   int64
	ClipEnd     int64
	Offline     bool
}

// MediaBuffer is the decode-side collaborator. GetVideoFrame must be
// cheap (cache-backed); the engine calls it every tick.
type MediaBuffer interface {
	// GetVideoFrame returns the decoded frame for a track at a
	// timeline frame, or a gap/offline result.
	GetVideoFrame(track TrackID, frame int64) VideoResult

	// SetTrackClips replaces the buffer's clip layout for one track.
	SetTrackClips(track TrackID, clips []ClipLayout)

	// SetPlayhead is the transport hint steering pre-buffer direction.
	SetPlayhead(frame int64, direction int, speed float64)
}
