package osagent

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// collectStatus gathers the host facts shared by all platform agents. Host
// identity is mandatory; everything else is best-effort and omitted on error.
func collectStatus(ctx context.Context, diskPath string) (map[string]any, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("host info: %w", err)
	}

	status := map[string]any{
		"hostname":         info.Hostname,
		"os":               info.OS,
		"platform":         info.Platform,
		"platform_version": info.PlatformVersion,
		"kernel_version":   info.KernelVersion,
		"arch":             runtime.GOARCH,
		"uptime_seconds":   info.Uptime,
		"boot_time":        info.BootTime,
		"procs":            info.Procs,
	}

	if count, err := cpu.CountsWithContext(ctx, true); err == nil {
		status["cpu_count"] = count
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		status["memory"] = map[string]any{
			"total":        vm.Total,
			"available":    vm.Available,
			"used":         vm.Used,
			"used_percent": vm.UsedPercent,
		}
	}

	if usage, err := disk.UsageWithContext(ctx, diskPath); err == nil {
		status["disk"] = map[string]any{
			"path":         usage.Path,
			"total":        usage.Total,
			"free":         usage.Free,
			"used":         usage.Used,
			"used_percent": usage.UsedPercent,
		}
	}

	return status, nil
}
