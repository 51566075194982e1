// Package sysinfo samples host statistics for the status board.
package sysinfo

import (
	"context"
	"regexp"
	"sort"
	"strconv"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// CPUInfo holds CPU information.
type CPUInfo struct {
	Overall   float64
	CoreCount int
	Load1     float64
	Temp      float64 // Celsius, 0 if unavailable
}

// MemInfo holds memory information.
type MemInfo struct {
	Total       uint64
	Used        uint64
	UsedPercent float64
	SwapTotal   uint64
	SwapUsed    uint64
}

// ProcessMemInfo holds memory info for a process group.
type ProcessMemInfo struct {
	Name  string
	RSS   uint64
	Count int
}

// Snapshot is one sample of everything the board shows.
type Snapshot struct {
	Hostname string
	CPU      CPUInfo
	Mem      MemInfo
	Top      []ProcessMemInfo
}

// Host samples the local machine.
type Host struct {
	// TopN is how many process groups to report.
	TopN int
}

// Sample collects a Snapshot. CPU usage is measured since the previous call.
func (h Host) Sample(ctx context.Context) (Snapshot, error) {
	var s Snapshot

	cpuInfo, err := GetCPUInfo(ctx)
	if err != nil {
		return s, err
	}
	memInfo, err := GetMemInfo(ctx)
	if err != nil {
		return s, err
	}
	s.CPU, s.Mem = cpuInfo, memInfo

	if h.TopN > 0 {
		top, err := GetTopProcesses(ctx, h.TopN)
		if err != nil {
			return s, err
		}
		s.Top = top
	}

	if name, err := host.InfoWithContext(ctx); err == nil {
		s.Hostname = name.Hostname
	}
	return s, nil
}

// GetCPUInfo returns current CPU information.
func GetCPUInfo(ctx context.Context) (CPUInfo, error) {
	var info CPUInfo

	overall, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return info, err
	}
	if len(overall) > 0 {
		info.Overall = overall[0]
	}

	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		info.CoreCount = n
	}

	if avg, err := load.AvgWithContext(ctx); err == nil {
		info.Load1 = avg.Load1
	}

	temps, err := host.SensorsTemperaturesWithContext(ctx)
	if err == nil {
		for _, t := range temps {
			if t.SensorKey == "coretemp" || t.SensorKey == "k10temp" ||
				t.SensorKey == "cpu_thermal" || t.SensorKey == "zenpower" {
				info.Temp = t.Temperature
				break
			}
		}
		if info.Temp == 0 && len(temps) > 0 {
			info.Temp = temps[0].Temperature
		}
	}

	return info, nil
}

// GetMemInfo returns current memory information.
func GetMemInfo(ctx context.Context) (MemInfo, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemInfo{}, err
	}

	info := MemInfo{
		Total:       vm.Total,
		Used:        vm.Used,
		UsedPercent: vm.UsedPercent,
	}
	if swap, err := mem.SwapMemoryWithContext(ctx); err == nil {
		info.SwapTotal = swap.Total
		info.SwapUsed = swap.Used
	}
	return info, nil
}

var processGroups = map[string]*regexp.Regexp{
	"chrome":  regexp.MustCompile(`^(chrome|chromium|Chrome|Chromium)$`),
	"firefox": regexp.MustCompile(`^(firefox|Firefox|firefox-esr)$`),
	"python":  regexp.MustCompile(`^(python|python3|Python)$`),
	"node":    regexp.MustCompile(`^(node|nodejs)$`),
	"docker":  regexp.MustCompile(`^(docker|dockerd|containerd)$`),
	"systemd": regexp.MustCompile(`^systemd`),
}

// GroupName folds related process names, such as browser helpers, into one.
func GroupName(name string) string {
	for group, pattern := range processGroups {
		if pattern.MatchString(name) {
			return group
		}
	}
	return name
}

// GetTopProcesses returns the n process groups using the most memory.
func GetTopProcesses(ctx context.Context, n int) ([]ProcessMemInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	groups := make(map[string]*ProcessMemInfo)
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		mi, err := p.MemoryInfoWithContext(ctx)
		if err != nil {
			continue
		}

		group := GroupName(name)
		if g, ok := groups[group]; ok {
			g.RSS += mi.RSS
			g.Count++
		} else {
			groups[group] = &ProcessMemInfo{Name: group, RSS: mi.RSS, Count: 1}
		}
	}

	return topByRSS(groups, n), nil
}

func topByRSS(groups map[string]*ProcessMemInfo, n int) []ProcessMemInfo {
	result := make([]ProcessMemInfo, 0, len(groups))
	for _, g := range groups {
		result = append(result, *g)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].RSS != result[j].RSS {
			return result[i].RSS > result[j].RSS
		}
		return result[i].Name < result[j].Name
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}

// FormatBytes formats bytes to a short human-readable string.
func FormatBytes(b uint64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case b >= GB:
		return strconv.FormatFloat(float64(b)/GB, 'f', 1, 64) + "G"
	case b >= MB:
		return strconv.Itoa(int(float64(b)/MB+0.5)) + "M"
	case b >= KB:
		return strconv.Itoa(int(float64(b)/KB+0.5)) + "K"
	default:
		return strconv.FormatUint(b, 10) + "B"
	}
}
