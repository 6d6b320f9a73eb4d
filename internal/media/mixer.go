// ABOUTME: PCM mixer summing the active clip set for the audio device
// ABOUTME: Implements the device's source and mix-sink contracts
package media

import (
	"encoding/binary"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/kronoedit/krono-go/internal/device"
)

// Mixer is the PCM provider behind the audio device. It holds decoded
// clips keyed by media path and sums whichever source set the engine
// last applied. Each source is anchored on its first read after apply:
// the offset between device time and the source's media time stays
// fixed from then on, so the mix advances with the device clock.
type Mixer struct {
	mu     sync.Mutex
	format Format
	clips  map[string]*PCM
	staged []device.Source
	active []*mixEntry

	scratch []byte
	missing map[string]bool
}

type mixEntry struct {
	src      device.Source
	pcm      *PCM
	deltaUS  int64
	anchored bool
}

// NewMixer creates an empty mixer at the device format.
func NewMixer(format Format) *Mixer {
	return &Mixer{
		format:  format,
		clips:   make(map[string]*PCM),
		missing: make(map[string]bool),
	}
}

// LoadFile decodes and caches a media file. Already-loaded paths are a
// no-op.
func (m *Mixer) LoadFile(path string) error {
	m.mu.Lock()
	if _, ok := m.clips[path]; ok {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	pcm, err := DecodeFile(path, m.format)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.clips[path] = pcm
	m.mu.Unlock()
	return nil
}

// AddClip registers a pre-decoded clip under a media path.
func (m *Mixer) AddClip(path string, pcm *PCM) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clips[path] = pcm
}

// SetSources stages the next source set.
func (m *Mixer) SetSources(sources []device.Source) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staged = append(m.staged[:0:0], sources...)
}

// Apply swaps the staged set in. Sources whose media is not loaded mix
// as silence; each missing path is logged once.
func (m *Mixer) Apply() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.active = m.active[:0]
	for _, s := range m.staged {
		pcm, ok := m.clips[s.MediaPath]
		if !ok {
			if !m.missing[s.MediaPath] {
				m.missing[s.MediaPath] = true
				logrus.Warnf("media not loaded, mixing silence: %s", s.MediaPath)
			}
			continue
		}
		m.active = append(m.active, &mixEntry{src: s, pcm: pcm})
	}
}

// ReadAt fills dst with the summed active set at the given device time.
func (m *Mixer) ReadAt(dst []byte, timeUS int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range dst {
		dst[i] = 0
	}
	if len(m.active) == 0 {
		return
	}

	if len(m.scratch) < len(dst) {
		m.scratch = make([]byte, len(dst))
	}
	scratch := m.scratch[:len(dst)]

	for _, e := range m.active {
		if !e.anchored {
			e.deltaUS = e.src.SourceTimeUS - timeUS
			e.anchored = true
		}
		e.pcm.ReadAt(scratch, timeUS+e.deltaUS)
		mixInto(dst, scratch, e.src.Gain)
	}
}

// mixInto adds src into dst as s16le with gain and clamping.
func mixInto(dst, src []byte, gain float64) {
	n := len(dst) / 2
	for i := 0; i < n; i++ {
		a := int32(int16(binary.LittleEndian.Uint16(dst[i*2:])))
		b := int32(float64(int16(binary.LittleEndian.Uint16(src[i*2:]))) * gain)
		sum := a + b
		if sum > 32767 {
			sum = 32767
		} else if sum < -32768 {
			sum = -32768
		}
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(int16(sum)))
	}
}

var (
	_ device.PCMSource = (*Mixer)(nil)
	_ device.MixSink   = (*Mixer)(nil)
)
