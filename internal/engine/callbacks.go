// ABOUTME: Typed callbacks the engine invokes toward the UI layer
// ABOUTME: Bound at construction; the engine is never called back through them
package engine

import "github.com/kronoedit/krono-go/internal/render"

// Callbacks are the closures a monitor wires in at construction.
// OnShowFrame and OnShowGap are required; the engine panics without
// them since a viewer that cannot display is a wiring bug. The rest
// may be nil.
type Callbacks struct {
	// OnShowFrame displays a decoded frame with its metadata.
	OnShowFrame func(render.VideoResult)

	// OnShowGap blanks the viewer; gaps are expected, not errors.
	OnShowGap func()

	// OnSetRotation applies a clip's rotation to the viewer.
	OnSetRotation func(degrees int)

	// OnPositionChanged reports every committed playhead move.
	OnPositionChanged func(frame int64)
}

func (c Callbacks) showFrame(vr render.VideoResult) {
	c.OnShowFrame(vr)
}

func (c Callbacks) showGap() {
	c.OnShowGap()
}

func (c Callbacks) setRotation(degrees int) {
	if c.OnSetRotation != nil {
		c.OnSetRotation(degrees)
	}
}

func (c Callbacks) positionChanged(frame int64) {
	if c.OnPositionChanged != nil {
		c.OnPositionChanged(frame)
	}
}
