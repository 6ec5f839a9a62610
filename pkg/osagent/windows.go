package osagent

import "context"

// WindowsAgent answers status and filesystem queries on Windows hosts.
type WindowsAgent struct{}

// Status returns the host snapshot with the system drive as the disk sample.
func (a *WindowsAgent) Status(ctx context.Context) (map[string]any, error) {
	return collectStatus(ctx, `C:\`)
}

// ListDir enumerates the entries of path.
func (a *WindowsAgent) ListDir(path string) ([]Entry, error) {
	return listDirectory(path)
}
