package commands

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/keshon/handler-bot/pkg/dispatch"
)

// HostStats is what the system command reports.
type HostStats struct {
	Uptime     time.Duration
	CPUPercent float64
	MemUsed    uint64
	MemTotal   uint64
	Goroutines int
}

// ReadHostStats samples the host through gopsutil.
func ReadHostStats(ctx context.Context) (HostStats, error) {
	var st HostStats

	up, err := host.UptimeWithContext(ctx)
	if err != nil {
		return st, fmt.Errorf("uptime: %w", err)
	}
	st.Uptime = time.Duration(up) * time.Second

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return st, fmt.Errorf("memory: %w", err)
	}
	st.MemUsed, st.MemTotal = vm.Used, vm.Total

	pct, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false)
	if err != nil {
		return st, fmt.Errorf("cpu: %w", err)
	}
	if len(pct) > 0 {
		st.CPUPercent = pct[0]
	}

	st.Goroutines = runtime.NumGoroutine()
	return st, nil
}

func systemAction(stats func(context.Context) (HostStats, error)) dispatch.Action {
	return func(ctx context.Context, inv *dispatch.Invocation) error {
		st, err := stats(ctx)
		if err != nil {
			return err
		}
		return inv.Message.Reply(ctx, FormatHostStats(st))
	}
}

func FormatHostStats(st HostStats) string {
	const mb = 1024 * 1024
	return fmt.Sprintf("Uptime: %s\nCPU: %.1f%%\nMemory: %d / %d MB\nGoroutines: %d",
		st.Uptime.Truncate(time.Second), st.CPUPercent, st.MemUsed/mb, st.MemTotal/mb, st.Goroutines)
}
