package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_ENV", "missing")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 54*time.Second, cfg.PingPeriod)
	assert.Equal(t, 60*time.Second, cfg.PongWait)
	assert.Equal(t, 10, cfg.Rooms.DefaultMaxUsers)
	assert.Zero(t, cfg.Rooms.JoinRateLimit)
	assert.Equal(t, time.Minute, cfg.Rooms.JoinRateInterval)
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	yaml := []byte("port: 9000\nmode: debug\nrooms:\n  default_max_users: 4\n  join_rate_limit: 5\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.test.yaml"), yaml, 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("CONFIG_ENV", "test")
	t.Setenv("VOICE_ROOMS_JOIN_RATE_INTERVAL", "30s")

	cfg, err := Load([]string{"--port", "9100", "-l", "debug"})
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port, "flag beats file")
	assert.Equal(t, "debug", cfg.Mode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 4, cfg.Rooms.DefaultMaxUsers)
	assert.Equal(t, 5, cfg.Rooms.JoinRateLimit)
	assert.Equal(t, 30*time.Second, cfg.Rooms.JoinRateInterval, "env beats default")
}

func TestLoad_BadFlag(t *testing.T) {
	t.Setenv("CONFIG_ENV", "missing")
	_, err := Load([]string{"--no-such-flag"})
	assert.Error(t, err)
}
