package osagent

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_PlatformSelection(t *testing.T) {
	agent, err := New()

	switch runtime.GOOS {
	case "linux":
		require.NoError(t, err)
		assert.IsType(t, &LinuxAgent{}, agent)
	case "windows":
		require.NoError(t, err)
		assert.IsType(t, &WindowsAgent{}, agent)
	default:
		assert.ErrorIs(t, err, ErrUnsupportedPlatform)
		assert.Nil(t, agent)
	}
}

func TestListDirectory_Entries(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	entries, err := listDirectory(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byName := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byName[e.Name] = e
	}

	file, ok := byName["notes.txt"]
	require.True(t, ok)
	assert.Equal(t, EntryTypeFile, file.Type)
	assert.Equal(t, int64(5), file.Size)
	assert.NotZero(t, file.Modified)
	assert.NotEmpty(t, file.Mode)

	sub, ok := byName["sub"]
	require.True(t, ok)
	assert.Equal(t, EntryTypeDir, sub.Type)
}

func TestListDirectory_MissingPath(t *testing.T) {
	_, err := listDirectory(filepath.Join(t.TempDir(), "nope"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist), "missing paths must surface fs.ErrNotExist, got %v", err)
}

func TestListDirectory_EmptyDir(t *testing.T) {
	entries, err := listDirectory(t.TempDir())

	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCollectStatus_HostFacts(t *testing.T) {
	status, err := collectStatus(context.Background(), os.TempDir())
	require.NoError(t, err)

	assert.NotEmpty(t, status["hostname"])
	assert.NotEmpty(t, status["os"])
	assert.Contains(t, status, "uptime_seconds")
	assert.Equal(t, runtime.GOARCH, status["arch"])
}
