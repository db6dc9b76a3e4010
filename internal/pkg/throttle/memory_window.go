package throttle

import (
	"context"
	"sync"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
)

type windowKey struct {
	source string
	window time.Duration
	bucket int64
}

// MemoryWindow is an in-process fixed window counter store.
type MemoryWindow struct {
	sweeper

	clock   clock.Clocker
	mu      sync.RWMutex
	buckets map[windowKey]*counter
}

// NewMemoryWindow creates an empty store. Call Run to start sweeping.
func NewMemoryWindow(clk clock.Clocker, sweepInterval time.Duration) *MemoryWindow {
	return &MemoryWindow{
		sweeper: newSweeper(sweepInterval),
		clock:   clk,
		buckets: make(map[windowKey]*counter),
	}
}

// Admit counts a hit for source in the current bucket unless maxHits is reached.
func (s *MemoryWindow) Admit(_ context.Context, source string, window time.Duration, maxHits int) (Result, error) {
	if window <= 0 {
		return Result{}, ErrInvalidWindow
	}

	idx, end := windowBucket(s.clock.Now(), window)
	c := s.get(windowKey{source: source, window: window, bucket: idx}, end)

	count, ok := c.tryIncrement(int64(maxHits))
	return Result{Allowed: ok, Count: count, ResetAt: c.end}, nil
}

func (s *MemoryWindow) get(key windowKey, end time.Time) *counter {
	s.mu.RLock()
	c, ok := s.buckets[key]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok = s.buckets[key]; ok {
		return c
	}
	c = &counter{end: end}
	s.buckets[key] = c
	return c
}

// Sweep removes buckets whose window has fully elapsed and returns how many were removed.
func (s *MemoryWindow) Sweep() int {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, c := range s.buckets {
		if !now.Before(c.end) {
			delete(s.buckets, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of live buckets.
func (s *MemoryWindow) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buckets)
}

// Run sweeps on a ticker until ctx is done or Close is called.
func (s *MemoryWindow) Run(ctx context.Context) error {
	return s.run(ctx, "window", s.Sweep)
}
