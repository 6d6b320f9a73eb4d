// ABOUTME: PCM buffer type and sample format math
// ABOUTME: Everything downstream of decode is interleaved s16le
package media

// Format describes interleaved s16le PCM.
type Format struct {
	SampleRate int
	Channels   int
}

// BytesPerFrame returns the byte width of one interleaved sample frame.
func (f Format) BytesPerFrame() int {
	return f.Channels * 2
}

// FrameAtUS maps a media time to a sample frame index.
func (f Format) FrameAtUS(us int64) int64 {
	return us * int64(f.SampleRate) / 1_000_000
}

// PCM is a fully decoded clip held in memory.
type PCM struct {
	Format Format
	Data   []byte
}

// DurationUS returns the clip length in microseconds.
func (p *PCM) DurationUS() int64 {
	frames := int64(len(p.Data) / p.Format.BytesPerFrame())
	return frames * 1_000_000 / int64(p.Format.SampleRate)
}

// ReadAt fills dst with PCM starting at the given media time. Regions
// before the start or past the end come back as silence; dst is always
// filled completely.
func (p *PCM) ReadAt(dst []byte, timeUS int64) {
	for i := range dst {
		dst[i] = 0
	}

	bpf := p.Format.BytesPerFrame()
	offset := p.Format.FrameAtUS(timeUS) * int64(bpf)
	if offset >= int64(len(p.Data)) {
		return
	}

	var src []byte
	if offset < 0 {
		skip := -offset
		if skip >= int64(len(dst)) {
			return
		}
		copy(dst[skip:], p.Data)
		return
	}
	src = p.Data[offset:]
	copy(dst, src)
}
