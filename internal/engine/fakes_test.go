// ABOUTME: Test doubles for the audio device, media buffer and callbacks
// ABOUTME: Shared by the source-mode and timeline-mode engine tests
package engine

import (
	"fmt"

	"github.com/kronoedit/krono-go/internal/device"
	"github.com/kronoedit/krono-go/internal/render"
)

// fakeDevice records every call and plays back scripted media times.
type fakeDevice struct {
	ready   bool
	playing bool
	latched bool

	timeQueue   []int64
	timeDefault int64

	failAll bool

	seeks   []int64
	latches []int64
	speeds  []float64
	bursts  []int64
	sources [][]device.Source
	applies int
	starts  int
	stops   int
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{ready: true}
}

func (d *fakeDevice) errIfFailing() error {
	if d.failAll {
		return fmt.Errorf("injected device failure")
	}
	return nil
}

func (d *fakeDevice) IsReady() bool { return d.ready }

func (d *fakeDevice) Seek(timeUS int64) error {
	if err := d.errIfFailing(); err != nil {
		return err
	}
	d.seeks = append(d.seeks, timeUS)
	return nil
}

func (d *fakeDevice) Start() error {
	if err := d.errIfFailing(); err != nil {
		return err
	}
	d.starts++
	d.playing = true
	d.latched = false
	return nil
}

func (d *fakeDevice) Stop() error {
	if err := d.errIfFailing(); err != nil {
		return err
	}
	d.stops++
	d.playing = false
	return nil
}

func (d *fakeDevice) SetSpeed(speed float64) error {
	if err := d.errIfFailing(); err != nil {
		return err
	}
	d.speeds = append(d.speeds, speed)
	return nil
}

func (d *fakeDevice) GetTimeUS() (int64, error) {
	if err := d.errIfFailing(); err != nil {
		return 0, err
	}
	if len(d.timeQueue) > 0 {
		t := d.timeQueue[0]
		d.timeQueue = d.timeQueue[1:]
		return t, nil
	}
	return d.timeDefault, nil
}

func (d *fakeDevice) IsPlaying() bool { return d.playing && !d.latched }

func (d *fakeDevice) Latch(timeUS int64) error {
	if err := d.errIfFailing(); err != nil {
		return err
	}
	d.latches = append(d.latches, timeUS)
	d.latched = true
	return nil
}

func (d *fakeDevice) PlayBurst(timeUS, durationUS int64) error {
	if err := d.errIfFailing(); err != nil {
		return err
	}
	d.bursts = append(d.bursts, timeUS)
	return nil
}

func (d *fakeDevice) SetAudioSources(sources []device.Source) error {
	if err := d.errIfFailing(); err != nil {
		return err
	}
	d.sources = append(d.sources, sources)
	return nil
}

func (d *fakeDevice) ApplyMix() error {
	if err := d.errIfFailing(); err != nil {
		return err
	}
	d.applies++
	return nil
}

var _ device.Device = (*fakeDevice)(nil)

// recordingBuffer wraps the in-memory media buffer and records layout
// pushes so clip-switch behavior can be asserted.
type recordingBuffer struct {
	*render.MemoryBuffer
	layoutPushes []render.TrackID
}

func newRecordingBuffer() *recordingBuffer {
	return &recordingBuffer{MemoryBuffer: render.NewMemoryBuffer()}
}

func (b *recordingBuffer) SetTrackClips(track render.TrackID, clips []render.ClipLayout) {
	b.layoutPushes = append(b.layoutPushes, track)
	b.MemoryBuffer.SetTrackClips(track, clips)
}

// cbRecorder captures everything the engine pushed at the UI layer.
type cbRecorder struct {
	frames    []render.VideoResult
	gaps      int
	rotations []int
	positions []int64
}

func (r *cbRecorder) callbacks() Callbacks {
	return Callbacks{
		OnShowFrame:       func(vr render.VideoResult) { r.frames = append(r.frames, vr) },
		OnShowGap:         func() { r.gaps++ },
		OnSetRotation:     func(d int) { r.rotations = append(r.rotations, d) },
		OnPositionChanged: func(f int64) { r.positions = append(r.positions, f) },
	}
}

// newTestEngine builds an engine with manual tick driving.
func newTestEngine(audio device.Device, own *device.Ownership) (*Engine, *recordingBuffer, *cbRecorder) {
	buf := newRecordingBuffer()
	rec := &cbRecorder{}
	e := New(audio, own, buf, rec.callbacks())
	e.armTimer = false
	return e, buf, rec
}

// tickN drives n ticks by hand at the current generation.
func tickN(e *Engine, n int) {
	for i := 0; i < n; i++ {
		e.tick(e.generation)
	}
}

// mustPanic asserts that fn panics.
func mustPanic(t interface{ Fatalf(string, ...any) }, name string, fn func()) {
	defer func() {
		if recover() == nil {
			t.Fatalf("%s: expected panic", name)
		}
	}()
	fn()
}
