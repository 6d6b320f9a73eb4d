// ABOUTME: Tests for PCM buffers, decode helpers and the mixer
// ABOUTME: Uses tiny synthetic s16le buffers, no real codec files
package media

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/kronoedit/krono-go/internal/device"
)

// pcmOf builds a clip where every sample of frame i has value vals[i].
func pcmOf(f Format, vals ...int16) *PCM {
	data := make([]byte, len(vals)*f.BytesPerFrame())
	for i, v := range vals {
		for ch := 0; ch < f.Channels; ch++ {
			binary.LittleEndian.PutUint16(data[(i*f.Channels+ch)*2:], uint16(v))
		}
	}
	return &PCM{Format: f, Data: data}
}

func sampleAt(buf []byte, i int) int16 {
	return int16(binary.LittleEndian.Uint16(buf[i*2:]))
}

func TestPCMReadAt(t *testing.T) {
	f := Format{SampleRate: 1000, Channels: 1} // 1 frame per ms
	p := pcmOf(f, 10, 20, 30, 40)

	dst := make([]byte, 2*f.BytesPerFrame())
	p.ReadAt(dst, 2000) // frames 2,3
	if got := sampleAt(dst, 0); got != 30 {
		t.Errorf("frame at 2ms = %d, expected 30", got)
	}
	if got := sampleAt(dst, 1); got != 40 {
		t.Errorf("frame at 3ms = %d, expected 40", got)
	}

	p.ReadAt(dst, 3000) // frame 3, then past end
	if got := sampleAt(dst, 1); got != 0 {
		t.Errorf("past-end sample = %d, expected silence", got)
	}

	p.ReadAt(dst, 10_000_000)
	if got := sampleAt(dst, 0); got != 0 {
		t.Errorf("far-past-end sample = %d, expected silence", got)
	}
}

func TestPCMDurationUS(t *testing.T) {
	f := Format{SampleRate: 48000, Channels: 2}
	p := pcmOf(f, make([]int16, 48000)...)
	if got := p.DurationUS(); got != 1_000_000 {
		t.Errorf("duration = %d, expected one second", got)
	}
}

func TestDecodeRawTrimsPartialFrame(t *testing.T) {
	f := Format{SampleRate: 1000, Channels: 2}
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.pcm")

	data := make([]byte, 4*f.BytesPerFrame()+3) // partial trailing frame
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := DecodeFile(path, f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(p.Data) != 4*f.BytesPerFrame() {
		t.Errorf("data length %d, expected partial frame trimmed to %d",
			len(p.Data), 4*f.BytesPerFrame())
	}
}

func TestConvertChannels(t *testing.T) {
	stereo := convertChannels([]int32{5, 7}, 1, 2)
	want := []int32{5, 5, 7, 7}
	for i, v := range want {
		if stereo[i] != v {
			t.Fatalf("mono->stereo = %v, expected %v", stereo, want)
		}
	}

	mono := convertChannels([]int32{10, 20, 30, 50}, 2, 1)
	if mono[0] != 15 || mono[1] != 40 {
		t.Errorf("stereo->mono = %v, expected [15 40]", mono)
	}
}

func TestResampleLinearDoubles(t *testing.T) {
	out := resampleLinear([]int32{0, 100, 200, 300}, 1, 1000, 2000)
	if len(out) != 8 {
		t.Fatalf("output frames = %d, expected 8", len(out))
	}
	// Odd output frames land halfway between input frames.
	if out[0] != 0 || out[1] != 50 || out[2] != 100 {
		t.Errorf("resampled head = %v, expected [0 50 100 ...]", out[:3])
	}
}

func TestMixerSumsActiveSources(t *testing.T) {
	f := Format{SampleRate: 1000, Channels: 1}
	m := NewMixer(f)
	m.AddClip("a.pcm", pcmOf(f, 1000, 1000, 1000, 1000))
	m.AddClip("b.pcm", pcmOf(f, 2000, 2000, 2000, 2000))

	m.SetSources([]device.Source{
		{TrackIndex: 0, ClipID: "a", MediaPath: "a.pcm", SourceTimeUS: 0, Gain: 1},
		{TrackIndex: 1, ClipID: "b", MediaPath: "b.pcm", SourceTimeUS: 0, Gain: 1},
	})
	m.Apply()

	dst := make([]byte, 2*f.BytesPerFrame())
	m.ReadAt(dst, 0)
	if got := sampleAt(dst, 0); got != 3000 {
		t.Errorf("mixed sample = %d, expected 3000", got)
	}
}

func TestMixerGainAndClamp(t *testing.T) {
	f := Format{SampleRate: 1000, Channels: 1}
	m := NewMixer(f)
	m.AddClip("loud.pcm", pcmOf(f, 30000, 30000))

	m.SetSources([]device.Source{
		{ClipID: "l1", MediaPath: "loud.pcm", Gain: 1},
		{ClipID: "l2", MediaPath: "loud.pcm", Gain: 1},
	})
	m.Apply()

	dst := make([]byte, f.BytesPerFrame())
	m.ReadAt(dst, 0)
	if got := sampleAt(dst, 0); got != 32767 {
		t.Errorf("clipped sample = %d, expected clamp at 32767", got)
	}

	m.SetSources([]device.Source{{ClipID: "l1", MediaPath: "loud.pcm", Gain: 0.5}})
	m.Apply()
	m.ReadAt(dst, 0)
	if got := sampleAt(dst, 0); got != 15000 {
		t.Errorf("attenuated sample = %d, expected 15000", got)
	}
}

func TestMixerAnchorsSourceOffset(t *testing.T) {
	f := Format{SampleRate: 1000, Channels: 1}
	m := NewMixer(f)
	m.AddClip("a.pcm", pcmOf(f, 10, 20, 30, 40))

	// Device clock at 5ms, source media time 2ms: fixed -3ms offset.
	m.SetSources([]device.Source{{ClipID: "a", MediaPath: "a.pcm", SourceTimeUS: 2000, Gain: 1}})
	m.Apply()

	dst := make([]byte, f.BytesPerFrame())
	m.ReadAt(dst, 5000)
	if got := sampleAt(dst, 0); got != 30 {
		t.Fatalf("first read = %d, expected source frame 2 (30)", got)
	}

	m.ReadAt(dst, 6000) // clock advanced 1ms: source frame 3
	if got := sampleAt(dst, 0); got != 40 {
		t.Errorf("second read = %d, expected source frame 3 (40)", got)
	}
}

func TestMixerMissingMediaIsSilent(t *testing.T) {
	f := Format{SampleRate: 1000, Channels: 1}
	m := NewMixer(f)
	m.SetSources([]device.Source{{ClipID: "x", MediaPath: "nope.pcm", Gain: 1}})
	m.Apply()

	dst := make([]byte, f.BytesPerFrame())
	m.ReadAt(dst, 0)
	if got := sampleAt(dst, 0); got != 0 {
		t.Errorf("missing media sample = %d, expected silence", got)
	}
}
