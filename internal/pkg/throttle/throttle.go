package throttle

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/atomic"
)

// ErrInvalidWindow is returned when a non-positive window is requested.
var ErrInvalidWindow = errors.New("throttle: window must be positive")

const (
	// DriverMemory keeps counters in process memory.
	DriverMemory = "memory"
	// DriverRedis keeps counters in Redis.
	DriverRedis = "redis"
)

// WindowCounter counts hits of a source inside fixed, epoch aligned windows.
type WindowCounter interface {
	Admit(ctx context.Context, source string, window time.Duration, maxHits int) (Result, error)
}

// DailyCounter counts hits of a source per calendar day.
type DailyCounter interface {
	AdmitDaily(ctx context.Context, source string, maxPerDay int) (Result, error)
}

// Result describes one admission decision.
type Result struct {
	// Allowed is true when the hit was counted.
	Allowed bool
	// Count is the counter value after this call.
	Count int64
	// ResetAt is when the current window or day ends.
	ResetAt time.Time
}

// RetryAfterSeconds returns the whole seconds left until ResetAt, rounded up.
func (r Result) RetryAfterSeconds(now time.Time) int {
	if !r.ResetAt.After(now) {
		return 0
	}
	return int(math.Ceil(r.ResetAt.Sub(now).Seconds()))
}

// windowBucket returns the fixed bucket index for now and the instant it ends.
func windowBucket(now time.Time, window time.Duration) (int64, time.Time) {
	idx := now.UnixNano() / int64(window)
	return idx, time.Unix(0, (idx+1)*int64(window)).In(now.Location())
}

type counter struct {
	hits atomic.Int64
	end  time.Time
}

// tryIncrement adds one hit unless the limit is already reached.
func (c *counter) tryIncrement(limit int64) (int64, bool) {
	for {
		cur := c.hits.Load()
		if cur >= limit {
			return cur, false
		}
		if c.hits.CompareAndSwap(cur, cur+1) {
			return cur + 1, true
		}
	}
}
