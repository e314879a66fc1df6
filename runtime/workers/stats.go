package workers

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"

	"quiz-lab/contract"
	"quiz-lab/observability"
)

var _ contract.Worker = (*StatsWorker)(nil)

// StatsWorker periodically logs engine counters together with process
// self-stats (RSS, CPU). It observes only; it never touches room state.
type StatsWorker struct {
	log      *slog.Logger
	monitor  *observability.Monitor
	interval time.Duration
}

func NewStatsWorker(log *slog.Logger, monitor *observability.Monitor, interval time.Duration) *StatsWorker {
	return &StatsWorker{log: log, monitor: monitor, interval: interval}
}

func (w *StatsWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.report(proc)
		}
	}
}

func (w *StatsWorker) report(proc *process.Process) {
	stats := w.monitor.Snapshot()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	fields := []any{
		"active_rooms", stats.ActiveRooms,
		"rooms_created", stats.RoomsCreated,
		"commands_applied", stats.CommandsApplied,
		"events_fanned", stats.EventsFanned,
		"dropped_sends", stats.DroppedSends,
		"alloc_mb", mem.Alloc / 1024 / 1024,
		"num_gc", mem.NumGC,
		"goroutines", runtime.NumGoroutine(),
	}

	if memInfo, err := proc.MemoryInfo(); err == nil {
		fields = append(fields, "rss_mb", memInfo.RSS/1024/1024)
	}
	if cpu, err := proc.CPUPercent(); err == nil {
		fields = append(fields, "cpu_percent", cpu)
	}

	w.log.Info("Engine stats", fields...)
}
