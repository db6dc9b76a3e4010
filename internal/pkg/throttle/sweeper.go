package throttle

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultSweepInterval is used when a store is created with a non-positive interval.
const DefaultSweepInterval = time.Hour

type sweeper struct {
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

func newSweeper(interval time.Duration) sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return sweeper{interval: interval, stopCh: make(chan struct{})}
}

func (w *sweeper) run(ctx context.Context, name string, sweep func() int) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.stopCh:
			return nil
		case <-ticker.C:
			if n := sweep(); n > 0 {
				slog.DebugContext(ctx, "throttle sweep removed stale counters", "store", name, "removed", n)
			}
		}
	}
}

// Close stops the sweep loop. It is safe to call more than once.
func (w *sweeper) Close() error {
	w.stopOnce.Do(func() { close(w.stopCh) })
	return nil
}
