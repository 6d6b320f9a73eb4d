// ABOUTME: Round-trip tests for the bbolt sequence store
package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kronoedit/krono-go/internal/model"
	"github.com/kronoedit/krono-go/internal/timecode"
)

func openTestStore(t *testing.T) *SequenceStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "failed to open sequence store")
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSequenceRoundTrip(t *testing.T) {
	s := openTestStore(t)

	seq := model.NewSequence("seq-1", timecode.Rate2997)
	seq.SetVideoTrack(0, []model.Clip{
		{ID: "v1", MediaPath: "a.mov", TimelineStart: 0, Duration: 48, SourceIn: 120, Rate: timecode.Rate24, SpeedRatio: 1, Rotation: 180},
	})
	seq.SetAudioTrack(0, []model.Clip{
		{ID: "a1", MediaPath: "a.wav", TimelineStart: 10, Duration: 30, Rate: timecode.Rate2997, SpeedRatio: 1},
	})

	require.NoError(t, s.Save(seq))

	loaded, ok, err := s.Load("seq-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "seq-1", loaded.ID())
	require.Equal(t, timecode.Rate2997, loaded.Rate())

	video := loaded.VideoTracks()
	require.Len(t, video, 1)
	require.Equal(t, seq.VideoTracks()[0].Clips(), video[0].Clips())

	audio := loaded.AudioTracks()
	require.Len(t, audio, 1)
	require.Equal(t, "a1", audio[0].Clips()[0].ID)

	require.Equal(t, seq.Bounds(), loaded.Bounds())
}

func TestLoadMissingSequence(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.Load("nope")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSaveReplacesAndList(t *testing.T) {
	s := openTestStore(t)

	seq := model.NewSequence("seq-1", timecode.Rate24)
	seq.SetVideoTrack(0, []model.Clip{
		{ID: "v1", TimelineStart: 0, Duration: 10, Rate: timecode.Rate24, SpeedRatio: 1},
	})
	require.NoError(t, s.Save(seq))

	seq.SetVideoTrack(0, []model.Clip{
		{ID: "v2", TimelineStart: 5, Duration: 20, Rate: timecode.Rate24, SpeedRatio: 1},
	})
	require.NoError(t, s.Save(seq))

	other := model.NewSequence("seq-2", timecode.Rate25)
	require.NoError(t, s.Save(other))

	loaded, ok, err := s.Load("seq-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v2", loaded.VideoTracks()[0].Clips()[0].ID)

	ids, err := s.List()
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"seq-1", "seq-2"}, ids)

	require.NoError(t, s.Delete("seq-1"))
	ids, err = s.List()
	require.NoError(t, err)
	require.Equal(t, []string{"seq-2"}, ids)
}
