package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
)

var errHeld = errors.New("lock: held by another owner")

// releaseScript deletes KEYS[1] only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisConfig tunes the Redis lock.
type RedisConfig struct {
	// TTL bounds how long a crashed holder can keep the key. Defaults to 10s.
	TTL time.Duration
	// RetryInterval is the base wait between acquisition attempts. Defaults to 50ms.
	RetryInterval time.Duration
}

// Redis is a SET NX based lock with owner tokens.
type Redis struct {
	client        redis.UniversalClient
	token         uid.StringID
	prefix        string
	ttl           time.Duration
	retryInterval time.Duration
}

// NewRedis builds a Redis lock.
func NewRedis(client redis.UniversalClient, token uid.StringID, cfg RedisConfig) *Redis {
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 50 * time.Millisecond
	}
	return &Redis{
		client:        client,
		token:         token,
		prefix:        "lock:",
		ttl:           cfg.TTL,
		retryInterval: cfg.RetryInterval,
	}
}

// Lock retries SET NX until it wins or ctx is done.
func (r *Redis) Lock(ctx context.Context, key string) (Unlock, error) {
	fk := r.prefix + key
	token := r.token.Generate()

	b := retry.WithJitter(r.retryInterval/2, retry.NewConstant(r.retryInterval))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		ok, err := r.client.SetNX(ctx, fk, token, r.ttl).Result()
		if err != nil {
			return err
		}
		if !ok {
			return retry.RetryableError(errHeld)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errHeld) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: %s: %w", ErrNotAcquired, key, err)
		}
		return nil, fmt.Errorf("lock: redis acquire %s: %w", key, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()

			if err := releaseScript.Run(rctx, r.client, []string{fk}, token).Err(); err != nil {
				slog.ErrorContext(rctx, "failed to release redis lock", "key", key, "error", err)
			}
		})
	}, nil
}
