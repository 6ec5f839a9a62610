//go:build linux

package osagent

import "golang.org/x/sys/unix"

// sysinfo load averages are fixed-point, scaled by 2^16.
const loadScale = 1 << 16

func readLoadAverages() map[string]any {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return nil
	}

	return map[string]any{
		"load1":  float64(info.Loads[0]) / loadScale,
		"load5":  float64(info.Loads[1]) / loadScale,
		"load15": float64(info.Loads[2]) / loadScale,
	}
}
