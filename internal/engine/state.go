// ABOUTME: Transport state types and the shuttle speed ladder
// ABOUTME: Invariant: direction is zero exactly when transport is stopped
package engine

// Transport is the coarse playback state.
type Transport int

const (
	Stopped Transport = iota
	Playing
)

func (t Transport) String() string {
	if t == Playing {
		return "playing"
	}
	return "stopped"
}

// Mode distinguishes how the transport was engaged. Shuttle latches at
// content boundaries; Play stops outright.
type Mode int

const (
	ModeNone Mode = iota
	ModeShuttle
	ModePlay
)

func (m Mode) String() string {
	switch m {
	case ModeShuttle:
		return "shuttle"
	case ModePlay:
		return "play"
	default:
		return "none"
	}
}

// Boundary identifies which content edge a latch is frozen against.
type Boundary int

const (
	BoundaryNone Boundary = iota
	BoundaryStart
	BoundaryEnd
)

// Latch is the frozen-at-boundary state: playback holds the clamped
// frame but is resumable by reversing direction, unlike a full stop.
// Only reachable in shuttle mode.
type Latch struct {
	Active   bool
	Boundary Boundary
}

// MaxShuttleSpeed caps the shuttle ladder.
const MaxShuttleSpeed = 8.0

// ladderUp doubles the shuttle speed along {0.5,1,2,4,8}, capped.
func ladderUp(speed float64) float64 {
	next := speed * 2
	if next > MaxShuttleSpeed {
		return MaxShuttleSpeed
	}
	return next
}

// ladderDown halves the shuttle speed. Callers stop the transport
// instead of calling this at speed 1 or below: unwind, never flip.
func ladderDown(speed float64) float64 {
	return speed / 2
}

// advanceStep is the per-tick frame step used when video is not
// following the audio clock. Sub-unity speeds still step one frame;
// their ticks simply arrive less often.
func advanceStep(direction int, speed float64) int64 {
	step := int64(speed)
	if step < 1 {
		step = 1
	}
	return int64(direction) * step
}

// Status is the externally visible transport snapshot.
type Status struct {
	Transport    Transport
	Direction    int
	Speed        float64
	Position     int64
	Mode         Mode
	Latched      bool
	Boundary     Boundary
	TimelineMode bool
}
