package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("hash_mb: 512\nthreads: 4\neval_file: weights.bin\nlog_level: debug\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 512, cfg.HashMB)
	require.Equal(t, 4, cfg.Threads)
	require.Equal(t, "weights.bin", cfg.EvalFile)
	require.Equal(t, "debug", cfg.LogLevel)
	// Untouched fields keep their defaults.
	require.Equal(t, 50, cfg.MoveMargin)
}

func TestLoadConfigRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml: ["), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfigClampsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hash_mb: 0\nthreads: -2\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 1, cfg.HashMB)
	require.Equal(t, 1, cfg.Threads)
}
