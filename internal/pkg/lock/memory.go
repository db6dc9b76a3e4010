package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type entry struct {
	slot chan struct{}
	refs int
}

// Memory is a keyed mutex. Entries are dropped once nobody holds or waits for them.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewMemory returns an empty keyed mutex.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*entry)}
}

// Lock blocks until key is free or ctx is done.
func (m *Memory) Lock(ctx context.Context, key string) (Unlock, error) {
	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		e = &entry{slot: make(chan struct{}, 1)}
		m.entries[key] = e
	}
	e.refs++
	m.mu.Unlock()

	select {
	case e.slot <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.slot
				m.release(key, e)
			})
		}, nil
	case <-ctx.Done():
		m.release(key, e)
		return nil, fmt.Errorf("%w: %s: %w", ErrNotAcquired, key, ctx.Err())
	}
}

func (m *Memory) release(key string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(m.entries, key)
	}
}

// Len returns how many keys are currently held or awaited.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// IsNotAcquired reports whether err came from a lock that timed out.
func IsNotAcquired(err error) bool {
	return errors.Is(err, ErrNotAcquired)
}
