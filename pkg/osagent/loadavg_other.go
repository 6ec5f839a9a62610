//go:build !linux

package osagent

func readLoadAverages() map[string]any {
	return nil
}
