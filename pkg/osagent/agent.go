// Package osagent provides the platform capability surface consumed by the
// client session: machine status snapshots and directory listings.
package osagent

import (
	"context"
	"errors"
	"fmt"
	"runtime"
)

var (
	// ErrUnsupportedPlatform is returned by New when no agent implementation
	// exists for the host operating system.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// Agent answers status and filesystem queries for the local machine.
type Agent interface {
	// Status returns a snapshot of host facts. The mapping is agent-defined;
	// subsystems that cannot be read are omitted rather than failing the call.
	Status(ctx context.Context) (map[string]any, error)

	// ListDir enumerates the entries of a directory. A missing path is
	// reported with an error wrapping fs.ErrNotExist.
	ListDir(path string) ([]Entry, error)
}

// Entry describes one directory entry in a listing response.
type Entry struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Size     int64  `json:"size"`
	Mode     string `json:"mode"`
	Modified int64  `json:"modified"`
}

// Entry type values.
const (
	EntryTypeFile    = "file"
	EntryTypeDir     = "dir"
	EntryTypeSymlink = "symlink"
	EntryTypeOther   = "other"
)

// New selects the agent implementation for the running operating system.
func New() (Agent, error) {
	switch runtime.GOOS {
	case "linux":
		return &LinuxAgent{}, nil
	case "windows":
		return &WindowsAgent{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, runtime.GOOS)
	}
}
