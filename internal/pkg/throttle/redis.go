package throttle

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
)

// admitScript increments KEYS[1] unless it already reached ARGV[1].
// The key expires ARGV[2] milliseconds after its first hit.
var admitScript = redis.NewScript(`
local limit = tonumber(ARGV[1])
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current >= limit then
	return {0, current}
end
current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return {1, current}
`)

// Redis is a counter store shared by every instance pointing at the same Redis.
// Stale keys are removed by Redis expiry, so it needs no sweeper.
type Redis struct {
	client redis.Scripter
	clock  clock.Clocker
	loc    *time.Location
	prefix string
}

// NewRedis creates a Redis backed store. Days are evaluated in loc (UTC when nil).
func NewRedis(client redis.Scripter, clk clock.Clocker, loc *time.Location) *Redis {
	if loc == nil {
		loc = time.UTC
	}
	return &Redis{
		client: client,
		clock:  clk,
		loc:    loc,
		prefix: "throttle:",
	}
}

// Admit counts a hit for source in the current fixed window unless maxHits is reached.
func (s *Redis) Admit(ctx context.Context, source string, window time.Duration, maxHits int) (Result, error) {
	if window <= 0 {
		return Result{}, ErrInvalidWindow
	}

	now := s.clock.Now()
	idx, end := windowBucket(now, window)
	key := fmt.Sprintf("%swindow:%d:%d:%s", s.prefix, window.Milliseconds(), idx, source)

	return s.admit(ctx, key, maxHits, now, end)
}

// AdmitDaily counts a hit for source today unless maxPerDay is reached.
func (s *Redis) AdmitDaily(ctx context.Context, source string, maxPerDay int) (Result, error) {
	now := s.clock.Now().In(s.loc)
	start := clock.StartOfDay(now, s.loc)
	key := fmt.Sprintf("%sdaily:%s:%s", s.prefix, start.Format(time.DateOnly), source)

	return s.admit(ctx, key, maxPerDay, now, start.AddDate(0, 0, 1))
}

func (s *Redis) admit(ctx context.Context, key string, limit int, now, end time.Time) (Result, error) {
	ttl := end.Sub(now).Milliseconds()
	if ttl < 1 {
		ttl = 1
	}

	vals, err := admitScript.Run(ctx, s.client, []string{key}, limit, ttl).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("throttle: redis admit: %w", err)
	}
	if len(vals) != 2 {
		return Result{}, fmt.Errorf("throttle: redis admit: unexpected reply length %d", len(vals))
	}

	return Result{Allowed: vals[0] == 1, Count: vals[1], ResetAt: end}, nil
}
