// ABOUTME: Audio device abstraction consumed by the playback engine
// ABOUTME: The engine never talks to audio hardware directly
package device

// Source describes one audio clip feeding the mix: which track it sits
// on, where its media lives, and where in the source the playhead maps.
type Source struct {
	TrackIndex   int
	ClipID       string
	MediaPath    string
	SourceTimeUS int64
	Gain         float64
}

// Device is the capability set the engine needs from audio hardware.
// All methods may fail; the engine logs and swallows device errors so
// the video tick loop never dies because audio did.
type Device interface {
	// IsReady reports whether the device opened successfully.
	IsReady() bool

	// Seek positions the device's media clock without starting playback.
	Seek(timeUS int64) error

	// Start begins rendering from the current media position.
	Start() error

	// Stop halts rendering; the media clock freezes where it is.
	Stop() error

	// SetSpeed changes the playback rate (0.5..8).
	SetSpeed(speed float64) error

	// GetTimeUS reports the device's current media time. While the
	// device is playing this is the master clock video follows.
	GetTimeUS() (int64, error)

	// IsPlaying reports whether the device is actively rendering.
	IsPlaying() bool

	// Latch freezes the media clock at a clamped boundary time.
	Latch(timeUS int64) error

	// PlayBurst renders a short one-shot burst at the given media time,
	// used for audible single-frame jogging.
	PlayBurst(timeUS, durationUS int64) error

	// SetAudioSources stages the set of clips that should be audible.
	SetAudioSources(sources []Source) error

	// ApplyMix commits the staged source set to the render path.
	ApplyMix() error
}

// MixSink is implemented by PCM providers that understand per-clip
// source sets. Devices forward SetAudioSources/ApplyMix to it.
type MixSink interface {
	SetSources(sources []Source)
	Apply()
}

// PCMSource supplies interleaved s16le PCM for a media time range.
// Implementations must fill dst completely, substituting silence for
// gaps, and must not block.
type PCMSource interface {
	ReadAt(dst []byte, timeUS int64)
}
