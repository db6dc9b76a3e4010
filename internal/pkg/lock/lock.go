// Package lock serializes work per key, either inside one process or across
// every instance sharing a Redis.
package lock

import (
	"context"
	"errors"
)

const (
	// DriverMemory locks inside the current process only.
	DriverMemory = "memory"
	// DriverRedis locks across processes through Redis.
	DriverRedis = "redis"
)

// ErrNotAcquired is returned when the lock could not be taken before the context ended.
var ErrNotAcquired = errors.New("lock: not acquired")

// Unlock releases a held lock. Calling it more than once is a no-op.
type Unlock func()

// Locker hands out exclusive locks by key.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}
