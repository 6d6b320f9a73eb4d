// ABOUTME: Audio device implementation using the oto library
// ABOUTME: Streams mixed PCM and reports a speed-aware media clock
package device

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/sirupsen/logrus"
)

// OtoDevice renders PCM from a PCMSource through oto and exposes the
// media clock the engine follows. The clock is derived from the wall
// clock scaled by playback speed and anchored on every seek, which keeps
// GetTimeUS cheap enough to call every tick.
type OtoDevice struct {
	mu sync.Mutex

	otoCtx *oto.Context
	player *oto.Player
	src    PCMSource

	sampleRate int
	channels   int

	anchorUS  int64     // media time at the last anchor point
	anchorAt  time.Time // wall time of the last anchor point
	speed     float64
	playing   bool
	latched   bool
	streamPos int64 // media time of the next stream read, microseconds
	ready     bool
}

// NewOtoDevice opens the default output device.
func NewOtoDevice(sampleRate, channels, bufferMS int, src PCMSource) (*OtoDevice, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   time.Duration(bufferMS) * time.Millisecond,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	d := &OtoDevice{
		otoCtx:     ctx,
		src:        src,
		sampleRate: sampleRate,
		channels:   channels,
		speed:      1.0,
		ready:      true,
	}
	d.player = ctx.NewPlayer(&deviceStream{d: d})

	logrus.Infof("Audio device ready: %dHz, %d channels", sampleRate, channels)
	return d, nil
}

// IsReady reports whether the device opened.
func (d *OtoDevice) IsReady() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ready
}

// Seek re-anchors the media clock and the stream read position.
func (d *OtoDevice) Seek(timeUS int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.anchorUS = timeUS
	d.anchorAt = time.Now()
	d.streamPos = timeUS
	d.latched = false
	return nil
}

// Start begins rendering from the current position.
func (d *OtoDevice) Start() error {
	d.mu.Lock()
	d.anchorUS = d.reportedLocked()
	d.anchorAt = time.Now()
	d.playing = true
	d.latched = false
	d.mu.Unlock()

	d.player.Play()
	return nil
}

// Stop halts rendering, freezing the clock where it is.
func (d *OtoDevice) Stop() error {
	d.mu.Lock()
	d.anchorUS = d.reportedLocked()
	d.playing = false
	d.mu.Unlock()

	d.player.Pause()
	return nil
}

// SetSpeed changes the playback rate, re-anchoring so the clock stays
// continuous across the change.
func (d *OtoDevice) SetSpeed(speed float64) error {
	if speed <= 0 {
		return fmt.Errorf("invalid speed %v", speed)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.anchorUS = d.reportedLocked()
	d.anchorAt = time.Now()
	d.speed = speed
	return nil
}

// GetTimeUS reports the current media time.
func (d *OtoDevice) GetTimeUS() (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reportedLocked(), nil
}

// reportedLocked computes the media clock: frozen while stopped or
// latched, wall-clock elapsed scaled by speed while playing.
func (d *OtoDevice) reportedLocked() int64 {
	if !d.playing || d.latched {
		return d.anchorUS
	}
	elapsed := time.Since(d.anchorAt).Microseconds()
	return d.anchorUS + int64(float64(elapsed)*d.speed)
}

// IsPlaying reports whether the device is actively rendering.
func (d *OtoDevice) IsPlaying() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.playing && !d.latched
}

// Latch freezes the clock at a boundary time without a full stop.
func (d *OtoDevice) Latch(timeUS int64) error {
	d.mu.Lock()
	d.anchorUS = timeUS
	d.streamPos = timeUS
	d.latched = true
	d.mu.Unlock()

	d.player.Pause()
	return nil
}

// PlayBurst renders a one-shot burst at the given media time. Used for
// audible jogging; does not disturb the main stream position.
func (d *OtoDevice) PlayBurst(timeUS, durationUS int64) error {
	d.mu.Lock()
	src := d.src
	frames := int(durationUS * int64(d.sampleRate) / 1_000_000)
	buf := make([]byte, frames*d.channels*2)
	d.mu.Unlock()

	if src == nil {
		return fmt.Errorf("no PCM source attached")
	}
	src.ReadAt(buf, timeUS)

	burst := d.otoCtx.NewPlayer(bytes.NewReader(buf))
	burst.Play()
	return nil
}

// SetAudioSources stages the audible clip set on the mix sink.
func (d *OtoDevice) SetAudioSources(sources []Source) error {
	sink, ok := d.src.(MixSink)
	if !ok {
		return fmt.Errorf("PCM source does not accept audio sources")
	}
	sink.SetSources(sources)
	return nil
}

// ApplyMix commits the staged source set.
func (d *OtoDevice) ApplyMix() error {
	sink, ok := d.src.(MixSink)
	if !ok {
		return fmt.Errorf("PCM source does not accept audio sources")
	}
	sink.Apply()
	return nil
}

// Close releases the device.
func (d *OtoDevice) Close() error {
	d.mu.Lock()
	d.ready = false
	d.playing = false
	d.mu.Unlock()

	if d.player != nil {
		return d.player.Close()
	}
	return nil
}

// deviceStream adapts the PCMSource to oto's pull model. Reads advance
// the stream position; silence fills gaps and latched stretches.
type deviceStream struct {
	d *OtoDevice
}

func (s *deviceStream) Read(p []byte) (int, error) {
	d := s.d

	d.mu.Lock()
	src := d.src
	pos := d.streamPos
	frameBytes := d.channels * 2
	frames := len(p) / frameBytes
	advanceUS := int64(float64(frames) * 1_000_000 / float64(d.sampleRate) * d.speed)
	silent := !d.playing || d.latched || src == nil
	if !silent {
		d.streamPos = pos + advanceUS
	}
	d.mu.Unlock()

	if silent {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	src.ReadAt(p[:frames*frameBytes], pos)
	return frames * frameBytes, nil
}
