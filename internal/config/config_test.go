// ABOUTME: Config loading tests: defaults and file overrides
package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// chdir is a stand-in for testing.T.Chdir, which needs Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 48000, cfg.SampleRate)
	require.Equal(t, 2, cfg.Channels)
	require.Equal(t, 100, cfg.AudioBufferMS)
	require.Equal(t, "krono.db", cfg.StorePath)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFileOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	yml := "sampleRate: 44100\nstorePath: /tmp/edit.db\n"
	require.NoError(t, os.WriteFile("config.yml", []byte(yml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 44100, cfg.SampleRate)
	require.Equal(t, "/tmp/edit.db", cfg.StorePath)
	require.Equal(t, 2, cfg.Channels) // untouched default
}
