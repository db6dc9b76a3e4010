package inbound

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// RetentionJob deletes expired records on a fixed interval.
type RetentionJob struct {
	uc       purger
	interval time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewRetentionJob(uc purger, interval time.Duration) *RetentionJob {
	if interval <= 0 {
		interval = time.Hour
	}
	return &RetentionJob{uc: uc, interval: interval, stopCh: make(chan struct{})}
}

// Run purges once immediately, then on every tick until ctx is done or Close is called.
func (j *RetentionJob) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		if _, err := j.uc.PurgeExpired(ctx); err != nil {
			slog.WarnContext(ctx, "otp retention run failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-j.stopCh:
			return nil
		case <-ticker.C:
		}
	}
}

func (j *RetentionJob) Close() error {
	j.stopOnce.Do(func() { close(j.stopCh) })
	return nil
}
