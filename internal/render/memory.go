// ABOUTME: In-memory media buffer for headless playback and tests
// ABOUTME: Synthesizes frame handles instead of decoding pixels
package render

import "sync"

// SyntheticFrame is the frame handle the memory buffer hands out. It
// carries enough to verify what would have been drawn.
type SyntheticFrame struct {
	ClipID        string
	TimelineFrame int64
	SourceFrame   int64
}

// MemoryBuffer implements MediaBuffer without touching any decoder.
// It resolves clips from the layouts it was given and fabricates frame
// handles, which is all a headless monitor or a test needs.
type MemoryBuffer struct {
	mu     sync.Mutex
	tracks map[TrackID][]ClipLayout

	playheadFrame int64
	playheadDir   int
	playheadSpeed float64
}

// NewMemoryBuffer creates an empty buffer.
func NewMemoryBuffer() *MemoryBuffer {
	return &MemoryBuffer{tracks: make(map[TrackID][]ClipLayout)}
}

// SetTrackClips replaces a track's layout.
func (b *MemoryBuffer) SetTrackClips(track TrackID, clips []ClipLayout) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tracks[track] = clips
}

// SetPlayhead records the transport hint.
func (b *MemoryBuffer) SetPlayhead(frame int64, direction int, speed float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.playheadFrame = frame
	b.playheadDir = direction
	b.playheadSpeed = speed
}

// Playhead returns the last transport hint.
func (b *MemoryBuffer) Playhead() (int64, int, float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.playheadFrame, b.playheadDir, b.playheadSpeed
}

// GetVideoFrame resolves the clip covering the frame in this track's
// layout and synthesizes a handle for it.
func (b *MemoryBuffer) GetVideoFrame(track TrackID, frame int64) VideoResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, c := range b.tracks[track] {
		if frame < c.TimelineStart || frame >= c.TimelineEnd() {
			continue
		}
		src := c.SourceIn + (frame - c.TimelineStart)
		return VideoResult{
			Frame: SyntheticFrame{
				ClipID:        c.ClipID,
				TimelineFrame: frame,
				SourceFrame:   src,
			},
			ClipID:      c.ClipID,
			MediaPath:   c.MediaPath,
			SourceFrame: src,
			ClipRate:    c.Rate,
			ClipStart:   c.TimelineStart,
			ClipEnd:     c.TimelineEnd(),
		}
	}
	return VideoResult{} // gap
}

var _ MediaBuffer = (*MemoryBuffer)(nil)
