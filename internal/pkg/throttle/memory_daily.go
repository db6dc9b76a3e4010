package throttle

import (
	"context"
	"sync"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
)

type dayKey struct {
	source string
	day    string
}

// MemoryDaily is an in-process per-calendar-day counter store.
type MemoryDaily struct {
	sweeper

	clock clock.Clocker
	loc   *time.Location
	mu    sync.RWMutex
	days  map[dayKey]*counter
}

// NewMemoryDaily creates an empty store whose days are evaluated in loc (UTC when nil).
func NewMemoryDaily(clk clock.Clocker, loc *time.Location, sweepInterval time.Duration) *MemoryDaily {
	if loc == nil {
		loc = time.UTC
	}
	return &MemoryDaily{
		sweeper: newSweeper(sweepInterval),
		clock:   clk,
		loc:     loc,
		days:    make(map[dayKey]*counter),
	}
}

// AdmitDaily counts a hit for source today unless maxPerDay is reached.
func (s *MemoryDaily) AdmitDaily(_ context.Context, source string, maxPerDay int) (Result, error) {
	now := s.clock.Now().In(s.loc)
	start := clock.StartOfDay(now, s.loc)
	c := s.get(dayKey{source: source, day: start.Format(time.DateOnly)}, start.AddDate(0, 0, 1))

	count, ok := c.tryIncrement(int64(maxPerDay))
	return Result{Allowed: ok, Count: count, ResetAt: c.end}, nil
}

func (s *MemoryDaily) get(key dayKey, end time.Time) *counter {
	s.mu.RLock()
	c, ok := s.days[key]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok = s.days[key]; ok {
		return c
	}
	c = &counter{end: end}
	s.days[key] = c
	return c
}

// Sweep removes every counter whose day is not today and returns how many were removed.
func (s *MemoryDaily) Sweep() int {
	today := s.clock.Now().In(s.loc).Format(time.DateOnly)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key := range s.days {
		if key.day != today {
			delete(s.days, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of live day counters.
func (s *MemoryDaily) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.days)
}

// Run sweeps on a ticker until ctx is done or Close is called.
func (s *MemoryDaily) Run(ctx context.Context) error {
	return s.run(ctx, "daily", s.Sweep)
}
