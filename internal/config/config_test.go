package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"POMODORO_SOURCE", "POMODORO_SETTINGS_FILE", "POMODORO_NATS_URL",
		"POMODORO_NATS_INITIAL_SUBJECT", "POMODORO_NATS_UPDATE_SUBJECT", "POMODORO_SOCKET_URL",
		"POMODORO_TICK", "POMODORO_FETCH_TIMEOUT", "POMODORO_LOG_LEVEL", "POMODORO_LOG_PRETTY",
	} {
		t.Setenv(key, "")
	}
	chdir(t, t.TempDir())
}

// chdir is a go1.21-compatible stand-in for testing.T.Chdir (added in go1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	previous, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(previous) })
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("POMODORO_SOURCE", "nats")
	t.Setenv("POMODORO_NATS_URL", "nats://broker:4222")
	t.Setenv("POMODORO_TICK", "250ms")
	t.Setenv("POMODORO_LOG_PRETTY", "true")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, SourceNATS, cfg.Source)
	assert.Equal(t, "nats://broker:4222", cfg.NATSURL)
	assert.Equal(t, 250*time.Millisecond, cfg.Tick)
	assert.True(t, cfg.LogPretty)
}

func TestFlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("POMODORO_SOURCE", "nats")
	t.Setenv("POMODORO_LOG_LEVEL", "warn")

	cfg, err := Load([]string{"--source", "socket", "--socket-url", "ws://desk:8891", "--log-level=debug", "--fetch-timeout", "2s"})
	require.NoError(t, err)
	assert.Equal(t, SourceSocket, cfg.Source)
	assert.Equal(t, "ws://desk:8891", cfg.SocketURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2*time.Second, cfg.FetchTimeout)
}

func TestLoadRejectsUnknownSource(t *testing.T) {
	clearEnv(t)

	_, err := Load([]string{"--source", "carrier-pigeon"})
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("POMODORO_TICK", "soon")
	_, err := Load(nil)
	assert.Error(t, err)

	clearEnv(t)
	_, err = Load([]string{"--tick", "0s"})
	assert.Error(t, err)

	_, err = Load([]string{"--no-such-flag"})
	assert.Error(t, err)
}

func TestLoadReadsDotEnv(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.Unsetenv("POMODORO_SOCKET_URL"))
	require.NoError(t, os.WriteFile(".env", []byte("POMODORO_SOCKET_URL=ws://from-dotenv:1\n"), 0o600))

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "ws://from-dotenv:1", cfg.SocketURL)
}
