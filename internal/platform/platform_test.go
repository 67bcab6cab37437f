package platform

import (
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleInstanceGuard(t *testing.T) {
	name := "pomodoro-test-" + t.Name()
	guard, err := AcquireSingleInstance(name)
	require.NoError(t, err)
	defer guard.Release()
	assert.NotEmpty(t, guard.Address())

	_, err = AcquireSingleInstance(name)
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	require.NoError(t, guard.Release())
	again, err := AcquireSingleInstance(name)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func TestSecondLaunchActivatesRunningInstance(t *testing.T) {
	name := "pomodoro-test-" + t.Name()
	guard, err := AcquireSingleInstance(name)
	require.NoError(t, err)
	defer guard.Release()

	activated := make(chan struct{}, 1)
	guard.OnActivate(func() { activated <- struct{}{} })

	_, err = AcquireSingleInstance(name)
	require.ErrorIs(t, err, ErrAlreadyRunning)

	select {
	case <-activated:
	case <-time.After(2 * time.Second):
		t.Fatal("running instance was not activated")
	}
}

func TestPortHeldByForeignProcess(t *testing.T) {
	name := "pomodoro-test-" + t.Name()
	listener, err := net.Listen("tcp", guardAddress(name))
	require.NoError(t, err)
	defer listener.Close()
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	_, err = AcquireSingleInstance(name)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAlreadyRunning)
}

func TestGuardIgnoresUnknownRequests(t *testing.T) {
	name := "pomodoro-test-" + t.Name()
	guard, err := AcquireSingleInstance(name)
	require.NoError(t, err)
	defer guard.Release()

	activated := make(chan struct{}, 1)
	guard.OnActivate(func() { activated <- struct{}{} })

	conn, err := net.Dial("tcp", guard.Address())
	require.NoError(t, err)
	_, err = conn.Write([]byte("hello\n"))
	require.NoError(t, err)
	buf := make([]byte, 8)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _ := conn.Read(buf)
	_ = conn.Close()
	assert.Zero(t, n)

	select {
	case <-activated:
		t.Fatal("unknown request triggered activation")
	default:
	}
}

func TestNilGuard(t *testing.T) {
	var guard *InstanceGuard
	guard.OnActivate(func() {})
	assert.NoError(t, guard.Release())
	assert.Empty(t, guard.Address())
}

func TestGuardPortInRange(t *testing.T) {
	for _, name := range []string{"", "Pomodoro", "another-app"} {
		port := guardPort(name)
		assert.GreaterOrEqual(t, port, minGuardPort)
		assert.LessOrEqual(t, port, maxGuardPort)
	}
	assert.Equal(t, guardPort("Pomodoro"), guardPort("Pomodoro"))
}

func TestConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir, err := ConfigDir(" Pomodoro ")
	require.NoError(t, err)
	assert.Equal(t, "pomodoro", filepath.Base(dir))

	_, err = ConfigDir("  ")
	assert.Error(t, err)
}

func TestFallbackConfigDir(t *testing.T) {
	assert.Equal(t, filepath.Join("/home/u", ".config"), fallbackConfigDir("/home/u", "linux"))
	assert.Equal(t, filepath.Join("/Users/u", "Library", "Application Support"), fallbackConfigDir("/Users/u", "darwin"))
	assert.Equal(t, filepath.Join("C:/u", "AppData", "Roaming"), fallbackConfigDir("C:/u", "windows"))
}
