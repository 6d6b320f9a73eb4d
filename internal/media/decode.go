// ABOUTME: File decoders producing in-memory PCM clips
// ABOUTME: MP3 and FLAC via their codec libraries, raw s16le as fallback
package media

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/go-mp3"
	"github.com/mewkiz/flac"
	"github.com/sirupsen/logrus"
)

// DecodeFile decodes an audio file into PCM at the target format.
// Codec is chosen by extension; anything unrecognized is treated as raw
// interleaved s16le already at the target format.
func DecodeFile(path string, target Format) (*PCM, error) {
	var (
		samples []int32
		native  Format
		err     error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		samples, native, err = decodeMP3(path)
	case ".flac":
		samples, native, err = decodeFLAC(path)
	default:
		return decodeRaw(path, target)
	}
	if err != nil {
		return nil, err
	}

	samples = convertChannels(samples, native.Channels, target.Channels)
	if native.SampleRate != target.SampleRate {
		samples = resampleLinear(samples, target.Channels, native.SampleRate, target.SampleRate)
	}

	logrus.Debugf("decoded %s: %d samples at %dHz", path, len(samples), target.SampleRate)
	return &PCM{Format: target, Data: samplesToBytes(samples)}, nil
}

// decodeMP3 decodes a whole MP3 file. The decoder always emits 16-bit
// stereo at the stream's sample rate.
func decodeMP3(path string) ([]int32, Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Format{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, Format{}, fmt.Errorf("mp3 decoder for %s: %w", path, err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, dec); err != nil {
		return nil, Format{}, fmt.Errorf("mp3 decode %s: %w", path, err)
	}

	raw := buf.Bytes()
	samples := make([]int32, len(raw)/2)
	for i := range samples {
		samples[i] = int32(int16(binary.LittleEndian.Uint16(raw[i*2:])))
	}
	return samples, Format{SampleRate: dec.SampleRate(), Channels: 2}, nil
}

// decodeFLAC decodes a whole FLAC file, scaling samples to 16-bit.
func decodeFLAC(path string) ([]int32, Format, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return nil, Format{}, fmt.Errorf("flac parse %s: %w", path, err)
	}
	defer stream.Close()

	channels := int(stream.Info.NChannels)
	shift := int(stream.Info.BitsPerSample) - 16

	var samples []int32
	for {
		fr, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, Format{}, fmt.Errorf("flac frame in %s: %w", path, err)
		}
		n := len(fr.Subframes[0].Samples)
		for i := 0; i < n; i++ {
			for ch := 0; ch < channels; ch++ {
				s := fr.Subframes[ch].Samples[i]
				if shift > 0 {
					s >>= shift
				} else if shift < 0 {
					s <<= -shift
				}
				samples = append(samples, s)
			}
		}
	}
	return samples, Format{SampleRate: int(stream.Info.SampleRate), Channels: channels}, nil
}

// decodeRaw loads a file as interleaved s16le already at target format.
func decodeRaw(path string, target Format) (*PCM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if rem := len(data) % target.BytesPerFrame(); rem != 0 {
		data = data[:len(data)-rem]
	}
	return &PCM{Format: target, Data: data}, nil
}

// convertChannels up- or down-mixes interleaved samples. Mono to stereo
// duplicates; stereo to mono averages. Equal counts pass through.
func convertChannels(in []int32, from, to int) []int32 {
	switch {
	case from == to:
		return in
	case from == 1 && to == 2:
		out := make([]int32, len(in)*2)
		for i, s := range in {
			out[i*2] = s
			out[i*2+1] = s
		}
		return out
	case from == 2 && to == 1:
		out := make([]int32, len(in)/2)
		for i := range out {
			out[i] = (in[i*2] + in[i*2+1]) / 2
		}
		return out
	default:
		// Beyond stereo: keep the first channels, pad with the last.
		frames := len(in) / from
		out := make([]int32, frames*to)
		for f := 0; f < frames; f++ {
			for ch := 0; ch < to; ch++ {
				src := ch
				if src >= from {
					src = from - 1
				}
				out[f*to+ch] = in[f*from+src]
			}
		}
		return out
	}
}

// resampleLinear converts a whole interleaved buffer between sample
// rates with linear interpolation.
func resampleLinear(in []int32, channels, fromRate, toRate int) []int32 {
	inFrames := len(in) / channels
	if inFrames < 2 {
		return in
	}
	outFrames := int(int64(inFrames) * int64(toRate) / int64(fromRate))
	out := make([]int32, outFrames*channels)

	ratio := float64(fromRate) / float64(toRate)
	for f := 0; f < outFrames; f++ {
		pos := float64(f) * ratio
		idx := int(pos)
		if idx >= inFrames-1 {
			idx = inFrames - 2
		}
		frac := pos - float64(idx)
		for ch := 0; ch < channels; ch++ {
			s1 := float64(in[idx*channels+ch])
			s2 := float64(in[(idx+1)*channels+ch])
			out[f*channels+ch] = int32(s1*(1.0-frac) + s2*frac)
		}
	}
	return out
}

func samplesToBytes(samples []int32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 32767 {
			s = 32767
		} else if s < -32768 {
			s = -32768
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(s)))
	}
	return out
}
