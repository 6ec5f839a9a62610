package osagent

import "context"

// LinuxAgent answers status and filesystem queries on Linux hosts.
type LinuxAgent struct{}

// Status returns the host snapshot plus Linux load averages.
func (a *LinuxAgent) Status(ctx context.Context) (map[string]any, error) {
	status, err := collectStatus(ctx, "/")
	if err != nil {
		return nil, err
	}

	if load := readLoadAverages(); load != nil {
		status["load"] = load
	}

	return status, nil
}

// ListDir enumerates the entries of path.
func (a *LinuxAgent) ListDir(path string) ([]Entry, error) {
	return listDirectory(path)
}
