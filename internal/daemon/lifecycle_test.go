package daemon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xxSusel/flitify/internal/config"
	"github.com/xxSusel/flitify/internal/logger"
)

func newTestDaemon(t *testing.T) *Daemon {
	t.Helper()

	tmpDir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.DataDir = tmpDir
	cfg.Server.Address = "127.0.0.1:9001"

	logCfg := logger.Config{
		Level:   "error",
		Console: false,
	}
	log, err := logger.New(logCfg)
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })

	d, err := New(cfg, log, Options{
		Version:    "test",
		ConfigPath: filepath.Join(tmpDir, "client.json"),
	})
	require.NoError(t, err)

	return d
}

func TestNewLifecycleManager(t *testing.T) {
	d := newTestDaemon(t)

	lm := NewLifecycleManager(d)
	assert.NotNil(t, lm)
	assert.Equal(t, d, lm.daemon)
	assert.Equal(t, filepath.Join(d.config.DataDir, "flitify-client.pid"), lm.pidFile)
}

func TestLifecycleManagerStartStop(t *testing.T) {
	d := newTestDaemon(t)
	lm := NewLifecycleManager(d)

	// Start
	err := lm.Start()
	require.NoError(t, err)

	// Verify PID file exists
	_, err = os.Stat(lm.pidFile)
	assert.NoError(t, err)

	// Stop
	err = lm.Stop()
	require.NoError(t, err)

	// Verify PID file is removed
	_, err = os.Stat(lm.pidFile)
	assert.True(t, os.IsNotExist(err))
}

func TestLifecycleManagerGetPID(t *testing.T) {
	d := newTestDaemon(t)
	lm := NewLifecycleManager(d)

	// Start to create PID file
	err := lm.Start()
	require.NoError(t, err)
	defer lm.Stop()

	// Get PID
	pid, err := lm.GetPID()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestLifecycleManagerIsRunning(t *testing.T) {
	t.Run("no pid file", func(t *testing.T) {
		d := newTestDaemon(t)
		lm := NewLifecycleManager(d)

		assert.False(t, lm.IsRunning())
	})

	t.Run("own pid", func(t *testing.T) {
		d := newTestDaemon(t)
		lm := NewLifecycleManager(d)

		require.NoError(t, lm.Start())
		defer lm.Stop()

		// The PID file holds this test process, which is alive.
		assert.True(t, lm.IsRunning())
	})

	t.Run("invalid pid file", func(t *testing.T) {
		d := newTestDaemon(t)
		lm := NewLifecycleManager(d)

		err := os.WriteFile(lm.pidFile, []byte("not-a-pid"), 0644)
		require.NoError(t, err)

		assert.False(t, lm.IsRunning())
	})
}
