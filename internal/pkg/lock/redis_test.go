package lock

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestRedis_Lock(t *testing.T) {
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)
	opt, err := redis.ParseURL(uri)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedis(client, uid.NewUUID(), RedisConfig{TTL: 5 * time.Second, RetryInterval: 10 * time.Millisecond})

	unlock, err := l.Lock(ctx, "9876543210")
	require.NoError(t, err)

	ttl, err := client.PTTL(ctx, "lock:9876543210").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	t.Run("second holder waits until the deadline", func(t *testing.T) {
		wctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		defer cancel()

		_, err := l.Lock(wctx, "9876543210")
		assert.True(t, IsNotAcquired(err))
	})

	t.Run("release lets the next holder in", func(t *testing.T) {
		acquired := make(chan struct{})
		go func() {
			wctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			next, err := l.Lock(wctx, "9876543210")
			if err == nil {
				next()
				close(acquired)
			}
		}()

		unlock()

		select {
		case <-acquired:
		case <-time.After(3 * time.Second):
			t.Fatal("lock was not handed over")
		}
	})

	t.Run("release does not delete a foreign token", func(t *testing.T) {
		require.NoError(t, client.Set(ctx, "lock:other", "foreign", time.Minute).Err())
		n, err := releaseScript.Run(ctx, client, []string{"lock:other"}, "mine").Int()
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
