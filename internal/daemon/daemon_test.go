package daemon

import (
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xxSusel/flitify/internal/config"
	"github.com/xxSusel/flitify/internal/logger"
)

func TestNew(t *testing.T) {
	t.Run("wires all modules", func(t *testing.T) {
		d := newTestDaemon(t)

		assert.NotNil(t, d.agent)
		assert.NotNil(t, d.housekeeping)
		assert.NotNil(t, d.configWatch)
		assert.NotNil(t, d.lifecycle)
		assert.Nil(t, d.metrics, "metrics listener is off by default")
	})

	t.Run("metrics listener when enabled", func(t *testing.T) {
		tmpDir := t.TempDir()

		cfg := config.DefaultConfig()
		cfg.DataDir = tmpDir
		cfg.Server.Address = "127.0.0.1:9001"
		cfg.Metrics.Enabled = true
		cfg.Metrics.ListenAddr = "127.0.0.1:0"

		log, err := logger.New(logger.Config{Level: "error", Console: false})
		require.NoError(t, err)
		defer log.Close()

		d, err := New(cfg, log, Options{
			Version:    "test",
			ConfigPath: filepath.Join(tmpDir, "client.json"),
		})
		require.NoError(t, err)

		assert.NotNil(t, d.metrics)
	})

	t.Run("invalid housekeeping schedule", func(t *testing.T) {
		tmpDir := t.TempDir()

		cfg := config.DefaultConfig()
		cfg.DataDir = tmpDir
		cfg.Server.Address = "127.0.0.1:9001"
		cfg.Housekeeping.LogSweepSchedule = "whenever"

		log, err := logger.New(logger.Config{Level: "error", Console: false})
		require.NoError(t, err)
		defer log.Close()

		_, err = New(cfg, log, Options{Version: "test"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to initialize client modules")
	})
}

func TestDaemonStatusNotRunning(t *testing.T) {
	d := newTestDaemon(t)

	status := d.Status()
	assert.False(t, status.Running)
	assert.False(t, status.Connected)
	assert.Empty(t, status.SessionID)
	assert.Zero(t, status.Uptime)
}

func TestDaemonStopNotRunning(t *testing.T) {
	d := newTestDaemon(t)

	err := d.Stop()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not running")
}

func TestDaemonStartDialFailure(t *testing.T) {
	d := newTestDaemon(t)

	// Grab an ephemeral port and close it again so the dial is refused.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	d.config.Server.Address = ln.Addr().String()
	require.NoError(t, ln.Close())
	d.config.Server.DialTimeoutSeconds = 1

	err = d.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to server")

	// A failed start still cleans up; the pidfile must not leak.
	require.NoError(t, d.Stop())
	assert.False(t, d.lifecycle.IsRunning())
}

func TestCollectStatsWithoutSession(t *testing.T) {
	d := newTestDaemon(t)

	snap := d.collectStats()
	assert.Empty(t, snap.SessionID)
	assert.False(t, snap.Connected)
	assert.Zero(t, snap.ActionsHandled)
}
