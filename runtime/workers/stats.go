package workers

import (
	"context"
	"log/slog"
	"maps"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/process"
)

// StatsProvider returns the relay figures to report, e.g. connected clients.
type StatsProvider func() map[string]any

// StatsWorker periodically samples the process and the relay and logs the result.
// The latest sample is kept for the debug server.
type StatsWorker struct {
	log      *slog.Logger
	interval time.Duration
	provider StatsProvider

	mu     sync.RWMutex
	latest map[string]any
}

func NewStatsWorker(log *slog.Logger, interval time.Duration, provider StatsProvider) *StatsWorker {
	return &StatsWorker{log: log, interval: interval, provider: provider}
}

func (w *StatsWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping stats")
			return nil
		case <-ticker.C:
			stats := w.Sample(p)
			attrs := make([]any, 0, 2*len(stats))
			for k, v := range stats {
				attrs = append(attrs, k, v)
			}
			w.log.Info("Relay stats", attrs...)
		}
	}
}

// Sample collects one snapshot. Process figures that cannot be read are
// left out rather than failing the sample.
func (w *StatsWorker) Sample(p *process.Process) map[string]any {
	stats := make(map[string]any)
	if w.provider != nil {
		maps.Copy(stats, w.provider())
	}
	if p != nil {
		if mem, err := p.MemoryInfo(); err == nil {
			stats["rss_bytes"] = mem.RSS
		} else {
			w.log.Debug("Failed to read memory", "err", err)
		}
		if cpu, err := p.CPUPercent(); err == nil {
			stats["cpu_percent"] = cpu
		}
		if n, err := p.NumThreads(); err == nil {
			stats["threads"] = n
		}
	}
	stats["sampled_at"] = time.Now().UTC()

	w.mu.Lock()
	w.latest = stats
	w.mu.Unlock()
	return stats
}

// Latest returns a copy of the last sample, nil before the first tick.
func (w *StatsWorker) Latest() map[string]any {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.latest == nil {
		return nil
	}
	return maps.Clone(w.latest)
}
