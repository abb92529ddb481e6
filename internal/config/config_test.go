package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 255, cfg.Limits.MaxKeyLength)
}

func TestFromEnvRejectsUnknownBackend(t *testing.T) {
	t.Setenv("KVSYNC_BACKEND", "carrier-pigeon")
	_, err := FromEnv()
	require.Error(t, err)
}

func TestFromEnvRequiresDSNForNonMemoryBackend(t *testing.T) {
	t.Setenv("KVSYNC_BACKEND", "sqlite")
	_, err := FromEnv()
	require.Error(t, err)

	t.Setenv("KVSYNC_DSN", "/tmp/kvsync.db")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/kvsync.db", cfg.DSN)
}

func TestFromEnvOverridesLimit(t *testing.T) {
	t.Setenv("KVSYNC_MAX_KEY_LENGTH", "64")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Limits.MaxKeyLength)
}

func TestFromEnvRejectsMalformedLimit(t *testing.T) {
	t.Setenv("KVSYNC_MAX_KEY_LENGTH", "not-a-number")
	_, err := FromEnv()
	require.Error(t, err)
}
