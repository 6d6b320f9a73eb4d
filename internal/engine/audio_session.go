// ABOUTME: Active audio clip set bookkeeping for the mix
// ABOUTME: Device mix calls are issued only when the clip set changes
package engine

import (
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/kronoedit/krono-go/internal/device"
	"github.com/kronoedit/krono-go/internal/resolve"
)

// syncAudioSources diffs the resolved audio clip set against the
// previous bindings and pushes a new mix to the device only on change.
// Audio is inclusive: every track's active clip plays at once.
func syncAudioSources(audio device.Device, matches []resolve.AudioMatch, prev []ClipBinding) []ClipBinding {
	binds := lo.Map(matches, func(m resolve.AudioMatch, _ int) ClipBinding {
		return ClipBinding{
			ClipID:       m.Clip.ID,
			MediaPath:    m.Clip.MediaPath,
			SourceTimeUS: m.SourceTimeUS,
			TrackIndex:   m.TrackIndex,
		}
	})

	if audio == nil || sameClipSet(binds, prev) {
		return binds
	}

	sources := lo.Map(matches, func(m resolve.AudioMatch, _ int) device.Source {
		return device.Source{
			TrackIndex:   m.TrackIndex,
			ClipID:       m.Clip.ID,
			MediaPath:    m.Clip.MediaPath,
			SourceTimeUS: m.SourceTimeUS,
			Gain:         1.0,
		}
	})

	if err := audio.SetAudioSources(sources); err != nil {
		logrus.Warnf("audio set sources failed: %v; video continues", err)
		return binds
	}
	if err := audio.ApplyMix(); err != nil {
		logrus.Warnf("audio apply mix failed: %v; video continues", err)
	}
	return binds
}

// sameClipSet compares bindings by track and clip id. Source time moves
// every tick and does not count as a set change.
func sameClipSet(a, b []ClipBinding) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].TrackIndex != b[i].TrackIndex || a[i].ClipID != b[i].ClipID {
			return false
		}
	}
	return true
}
