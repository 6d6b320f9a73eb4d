// ABOUTME: Playback coordinator: transport state, tick timer, audio ownership
// ABOUTME: One engine per sequence monitor; the audio device is shared
package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kronoedit/krono-go/internal/device"
	"github.com/kronoedit/krono-go/internal/model"
	"github.com/kronoedit/krono-go/internal/render"
	"github.com/kronoedit/krono-go/internal/resolve"
	"github.com/kronoedit/krono-go/internal/timecode"
)

// Engine owns the canonical transport state for one monitor and drives
// the cooperative tick loop. Mutating calls and tick callbacks are
// serialized on one mutex, so no tick ever runs concurrently with a
// seek or stop — the single-thread model the tick contract assumes.
//
// The timer primitive has no cancel tied to our state transitions, so
// every scheduled callback captures a generation number and is dropped
// if the generation moved on. Stop bumps the generation; that is the
// whole cancellation mechanism.
type Engine struct {
	mu sync.Mutex

	id    string
	cb    Callbacks
	audio device.Device
	own   *device.Ownership
	buf   render.MediaBuffer

	// canonical transport state
	transport Transport
	direction int
	speed     float64
	mode      Mode
	latch     Latch
	position  int64

	rate         timecode.Rate
	bounds       model.ContentBounds
	sourceLoaded bool

	// timeline mode
	timelineMode bool
	resolver     *resolve.Resolver
	playheadView func() int64

	// active media references
	videoBinding  ClipBinding
	audioBindings []ClipBinding

	// audio-follow bookkeeping
	lastAudioFrame  int64
	audioFrameValid bool
	lastCommitted   int64

	audioActive bool
	generation  uint64

	// armTimer disables real timer scheduling in tests that drive
	// ticks by hand.
	armTimer bool
}

// New creates an engine bound to its collaborators. The audio device
// and ownership token may be nil (video-only monitor); the media buffer
// and display callbacks are required.
func New(audio device.Device, own *device.Ownership, buf render.MediaBuffer, cb Callbacks) *Engine {
	if buf == nil {
		panic("engine: media buffer is required")
	}
	if cb.OnShowFrame == nil {
		panic("engine: OnShowFrame callback is required")
	}
	if cb.OnShowGap == nil {
		panic("engine: OnShowGap callback is required")
	}
	return &Engine{
		id:       uuid.New().String(),
		cb:       cb,
		audio:    audio,
		own:      own,
		buf:      buf,
		speed:    1.0,
		armTimer: true,
	}
}

// ID returns the engine's instance identity, also used as its audio
// ownership token.
func (e *Engine) ID() string {
	return e.id
}

// SetSource configures single-clip (source viewer) playback.
func (e *Engine) SetSource(totalFrames int64, rate timecode.Rate) {
	if totalFrames <= 0 {
		panic("engine: source must have at least one frame")
	}
	if !rate.Valid() {
		panic("engine: source rate must be a valid rational")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
	e.timelineMode = false
	e.resolver = nil
	e.rate = rate
	e.bounds = model.ContentBounds{
		TotalFrames:    totalFrames,
		MaxMediaTimeUS: timecode.FrameToTimeUS(totalFrames, rate),
	}
	e.sourceLoaded = true
	e.position = 0
	e.lastCommitted = 0
	e.clearBindingsLocked()
}

// SetTimelineMode switches the engine between source and timeline
// playback. Enabling binds the given sequence; the caller resolves the
// sequence id through the model layer.
func (e *Engine) SetTimelineMode(enabled bool, seq *model.Sequence) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()

	if !enabled {
		e.timelineMode = false
		e.resolver = nil
		e.clearBindingsLocked()
		return
	}

	if seq == nil {
		panic("engine: timeline mode requires a sequence")
	}
	e.timelineMode = true
	e.resolver = resolve.New(seq)
	e.rate = seq.Rate()
	e.bounds = seq.Bounds()
	e.sourceLoaded = true
	e.clearBindingsLocked()
	logrus.Infof("Timeline mode: sequence %s, %d frames", seq.ID(), e.bounds.TotalFrames)
}

// SetPlayheadView wires the externally visible playhead (the timeline
// panel's cursor). When some other actor moves it outside the tick
// loop, the next tick re-anchors instead of overwriting it.
func (e *Engine) SetPlayheadView(view func() int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playheadView = view
}

// RefreshContentBounds recomputes bounds after sequence content
// changed. Seeks are deliberately unclamped, so this is the explicit
// content-end refresh hook for gap extension past the old end.
func (e *Engine) RefreshContentBounds() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.timelineMode && e.resolver != nil {
		e.bounds = e.resolver.Sequence().Bounds()
	}
}

// ActivateAudio claims the shared audio device for this engine. Other
// instances' audio-touching calls become no-ops until release.
func (e *Engine) ActivateAudio() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.audio == nil {
		return false
	}
	if e.own != nil && !e.own.Acquire(e.id) {
		logrus.Warnf("audio device held by %s; engine %s stays silent", e.own.Holder(), e.id)
		return false
	}
	e.audioActive = true
	return true
}

// DeactivateAudio releases the shared audio device.
func (e *Engine) DeactivateAudio() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if a := e.audioLocked(); a != nil {
		e.guard("stop", a.Stop)
	}
	e.audioActive = false
	if e.own != nil {
		e.own.Release(e.id)
	}
}

// Play starts normal forward playback. Boundaries stop outright in
// this mode; they never latch.
func (e *Engine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.requireLoadedLocked()

	e.direction = 1
	e.speed = 1.0
	e.mode = ModePlay
	e.transport = Playing
	e.latch = Latch{}
	e.startAudioLocked()
	e.restartTicksLocked()
}

// Shuttle engages variable-speed transport with unwind-then-reverse:
// same direction climbs the {0.5,1,2,4,8} ladder, opposite direction
// descends to 1 and then stops rather than flipping. From a latch, a
// request away from the boundary resumes at speed 1; toward it is a
// no-op.
func (e *Engine) Shuttle(dir int) {
	assertDirection(dir)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.requireLoadedLocked()

	if e.latch.Active {
		toward := (e.latch.Boundary == BoundaryEnd && dir > 0) ||
			(e.latch.Boundary == BoundaryStart && dir < 0)
		if toward {
			return
		}
		e.resumeFromLatchLocked(dir)
		return
	}

	wasStopped := e.transport == Stopped
	switch {
	case wasStopped:
		e.direction = dir
		e.speed = 1.0
	case dir == e.direction:
		e.speed = ladderUp(e.speed)
	default:
		if e.speed > 1 {
			e.speed = ladderDown(e.speed)
		} else {
			e.stopLocked()
			return
		}
	}

	e.mode = ModeShuttle
	e.transport = Playing
	if wasStopped {
		e.startAudioLocked()
	} else if a := e.audioLocked(); a != nil {
		e.guard("set speed", func() error { return a.SetSpeed(e.speed) })
	}
	e.restartTicksLocked()
}

// SlowPlay starts half-speed playback in the given direction.
func (e *Engine) SlowPlay(dir int) {
	assertDirection(dir)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.requireLoadedLocked()

	e.direction = dir
	e.speed = 0.5
	e.mode = ModeShuttle
	e.transport = Playing
	e.latch = Latch{}
	e.startAudioLocked()
	e.restartTicksLocked()
}

// Stop resets all transport scalars, releases audio and orphans any
// scheduled tick.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

// Seek moves the playhead. Deliberately unclamped: off-content
// positions are legal and display as gap. A seek to the frame we are
// already resting on is a no-op.
func (e *Engine) Seek(frame int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.requireLoadedLocked()

	if e.transport == Stopped && frame == e.position && !e.latch.Active {
		return
	}

	e.latch = Latch{}
	e.position = frame
	e.audioFrameValid = false
	if a := e.audioLocked(); a != nil {
		e.guard("seek", func() error {
			return a.Seek(timecode.FrameToTimeUS(frame, e.rate))
		})
	}
	e.displayLocked()
	e.lastCommitted = frame
	e.cb.positionChanged(frame)
}

// PlayFrameAudio renders one frame's worth of audio at the given frame,
// for audible keyboard jogging.
func (e *Engine) PlayFrameAudio(frame int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.requireLoadedLocked()

	a := e.audioLocked()
	if a == nil {
		return
	}
	e.guard("play burst", func() error {
		return a.PlayBurst(
			timecode.FrameToTimeUS(frame, e.rate),
			timecode.FrameDurationUS(e.rate),
		)
	})
}

// Position returns the current playhead frame.
func (e *Engine) Position() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

// IsPlaying reports whether the transport is engaged.
func (e *Engine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.transport == Playing
}

// Status returns the externally visible transport state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		Transport:    e.transport,
		Direction:    e.direction,
		Speed:        e.speed,
		Position:     e.position,
		Mode:         e.mode,
		Latched:      e.latch.Active,
		Boundary:     e.latch.Boundary,
		TimelineMode: e.timelineMode,
	}
}

// ── tick machinery ──

// restartTicksLocked begins a fresh tick chain. Bumping the generation
// first orphans any chain already in flight, so transport changes while
// playing never stack a second timer.
func (e *Engine) restartTicksLocked() {
	e.generation++
	e.scheduleLocked()
}

// scheduleLocked arms a one-shot timer for the next tick. The callback
// captures the current generation; a stale generation means some
// mutating call invalidated it.
func (e *Engine) scheduleLocked() {
	if !e.armTimer {
		return
	}
	gen := e.generation
	interval := timecode.TickInterval(e.rate, e.speed)
	time.AfterFunc(interval, func() { e.tick(gen) })
}

// tick is the timer callback.
func (e *Engine) tick(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.generation {
		logrus.Debugf("dropping stale tick (generation %d, now %d)", gen, e.generation)
		return
	}
	if e.transport != Playing {
		return
	}
	e.runTickLocked()
}

// runTickLocked executes one tick: external-move check, snapshot, mode
// tick function, commit. Side effects happen inside the tick function,
// before the commit — a half-applied tick is never observable.
func (e *Engine) runTickLocked() {
	if e.timelineMode && e.playheadView != nil {
		if ext := e.playheadView(); ext != e.lastCommitted {
			// Some other actor (click, jog, undo) moved the playhead
			// outside the tick loop. Adopt it, never overwrite it.
			logrus.Debugf("external playhead move %d -> %d; re-anchoring", e.lastCommitted, ext)
			e.position = ext
			e.audioFrameValid = false
			e.videoBinding = ClipBinding{} // force clip re-resolution
			if a := e.audioLocked(); a != nil {
				e.guard("seek", func() error {
					return a.Seek(timecode.FrameToTimeUS(ext, e.rate))
				})
			}
		}
	}

	snap := e.snapshotLocked()
	a := e.audioLocked()

	var res Result
	if e.timelineMode {
		res = TimelineTick(snap, a, e.buf, e.resolver, e.cb)
	} else {
		res = SourceTick(snap, a, e.buf, e.cb)
	}

	e.position = res.Position
	e.latch = res.Latch
	e.lastAudioFrame = res.AudioFrame
	e.audioFrameValid = res.AudioFrameValid
	e.videoBinding = res.VideoBinding
	e.audioBindings = res.AudioBindings
	e.lastCommitted = res.Position
	e.cb.positionChanged(res.Position)

	if res.Continue {
		e.scheduleLocked()
	} else {
		e.stopLocked()
	}
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		Position:        e.position,
		Direction:       e.direction,
		Speed:           e.speed,
		Mode:            e.mode,
		Latch:           e.latch,
		Rate:            e.rate,
		Bounds:          e.bounds,
		LastAudioFrame:  e.lastAudioFrame,
		AudioFrameValid: e.audioFrameValid,
		VideoBinding:    e.videoBinding,
		AudioBindings:   e.audioBindings,
	}
}

// ── internals ──

func (e *Engine) stopLocked() {
	e.transport = Stopped
	e.direction = 0
	e.speed = 1.0
	e.mode = ModeNone
	e.latch = Latch{}
	e.audioFrameValid = false
	if a := e.audioLocked(); a != nil {
		e.guard("stop", a.Stop)
	}
	e.generation++
}

// resumeFromLatchLocked exits a latch in the away direction at speed 1,
// re-anchoring audio at the device's last reported time.
func (e *Engine) resumeFromLatchLocked(dir int) {
	e.latch = Latch{}
	e.direction = dir
	e.speed = 1.0
	e.mode = ModeShuttle
	e.transport = Playing
	e.audioFrameValid = false

	if a := e.audioLocked(); a != nil {
		us, err := a.GetTimeUS()
		if err != nil {
			logrus.Warnf("audio time query failed on latch resume: %v", err)
			us = timecode.FrameToTimeUS(e.position, e.rate)
		}
		e.guard("seek", func() error { return a.Seek(us) })
		e.guard("set speed", func() error { return a.SetSpeed(e.speed) })
		if dir > 0 {
			e.guard("start", a.Start)
		}
	}
	e.restartTicksLocked()
}

// startAudioLocked anchors the device at the current position and
// starts it for forward transport. Reverse playback renders no audio;
// video advances on frame accumulation instead.
func (e *Engine) startAudioLocked() {
	a := e.audioLocked()
	if a == nil {
		return
	}
	e.guard("seek", func() error {
		return a.Seek(timecode.FrameToTimeUS(e.position, e.rate))
	})
	e.guard("set speed", func() error { return a.SetSpeed(e.speed) })
	if e.direction > 0 {
		e.guard("start", a.Start)
	} else {
		e.guard("stop", a.Stop)
	}
	e.audioFrameValid = false
}

// audioLocked returns the device only when this engine may touch it:
// device present and ready, audio activated, and ownership held.
func (e *Engine) audioLocked() device.Device {
	if e.audio == nil || !e.audioActive {
		return nil
	}
	if e.own != nil && !e.own.Owns(e.id) {
		return nil
	}
	if !e.audio.IsReady() {
		return nil
	}
	return e.audio
}

// guard isolates an audio call: a device failure is logged and
// swallowed so the video tick loop continues unaffected.
func (e *Engine) guard(op string, fn func() error) {
	if err := fn(); err != nil {
		logrus.Warnf("audio %s failed: %v; video continues", op, err)
	}
}

// displayLocked re-displays the current position through the active
// mode path (used by Seek, which must refresh the viewer immediately).
func (e *Engine) displayLocked() {
	if e.timelineMode && e.resolver != nil {
		e.videoBinding = showTimelineFrame(e.resolver, e.buf, e.cb, e.position, e.videoBinding)
		e.audioBindings = syncAudioSources(e.audioLocked(), e.resolver.AudioAt(e.position), e.audioBindings)
		return
	}
	drawSourceFrame(e.buf, e.cb, e.position)
}

func (e *Engine) clearBindingsLocked() {
	e.videoBinding = ClipBinding{}
	e.audioBindings = nil
	e.audioFrameValid = false
}

func (e *Engine) requireLoadedLocked() {
	if !e.sourceLoaded {
		panic("engine: transport called before a source is loaded")
	}
}

func assertDirection(dir int) {
	if dir != -1 && dir != 1 {
		panic("engine: direction must be -1 or 1")
	}
}
