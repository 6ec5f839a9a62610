package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xxSusel/flitify/internal/config"
)

func TestRunCommand(t *testing.T) {
	t.Run("command exists", func(t *testing.T) {
		cmd := GetRootCmd()
		runCmd := cmd.Commands()

		found := false
		for _, c := range runCmd {
			if c.Name() == "run" {
				found = true
				break
			}
		}
		assert.True(t, found, "run command should exist")
	})

	t.Run("help text", func(t *testing.T) {
		cmd := GetRootCmd()
		cmd.SetArgs([]string{"run", "--help"})

		output := &bytes.Buffer{}
		cmd.SetOut(output)

		err := cmd.Execute()
		require.NoError(t, err)

		helpText := output.String()
		assert.Contains(t, helpText, "serve actions")
		assert.Contains(t, helpText, "--server")
	})
}

func TestGetPIDFilePath(t *testing.T) {
	t.Run("from config data dir", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.DataDir = "/var/lib/flitify"

		path := getPIDFilePath(cfg)
		assert.Equal(t, "/var/lib/flitify/flitify-client.pid", path)
	})

	t.Run("fallback without config", func(t *testing.T) {
		path := getPIDFilePath(nil)
		assert.NotEmpty(t, path)
		assert.Contains(t, path, "flitify-client.pid")
	})
}

func TestIsRunning(t *testing.T) {
	t.Run("no pid file", func(t *testing.T) {
		tmpDir := t.TempDir()
		pidFile := filepath.Join(tmpDir, "nonexistent.pid")

		running := isRunning(pidFile)
		assert.False(t, running)
	})

	t.Run("invalid pid file", func(t *testing.T) {
		tmpDir := t.TempDir()
		pidFile := filepath.Join(tmpDir, "invalid.pid")

		err := os.WriteFile(pidFile, []byte("invalid"), 0644)
		require.NoError(t, err)

		running := isRunning(pidFile)
		assert.False(t, running)
	})

	t.Run("live process", func(t *testing.T) {
		tmpDir := t.TempDir()
		pidFile := filepath.Join(tmpDir, "live.pid")

		// The test process itself is certainly alive.
		err := os.WriteFile(pidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0644)
		require.NoError(t, err)

		running := isRunning(pidFile)
		assert.True(t, running)
	})
}
