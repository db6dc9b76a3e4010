package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/otpgate/internal/pkg/stacktrace"
)

// maxBackoff caps the wait between two tries of one message.
const maxBackoff = 5 * time.Second

// safeHandle runs handler and turns a panic into an error.
func safeHandle(ctx context.Context, kind string, handler Handler, msg Message) (err error) {
	defer func() {
		rvr := recover()
		if rvr == nil {
			return
		}
		stack := debug.Stack()
		if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
			slog.ErrorContext(ctx, "panic in messaging handler", "kind", kind, "topic", msg.Topic, "panic", rvr, "stack", paths)
		} else {
			slog.ErrorContext(ctx, "panic in messaging handler", "kind", kind, "topic", msg.Topic, "panic", rvr, "stack", string(stack))
		}
		err = fmt.Errorf("messaging: panic in %s handler: %v", kind, rvr)
	}()

	return handler(ctx, msg)
}

// dispatch tries handler up to co.attempts times with jittered exponential
// backoff. The final error is returned so the driver can nack or requeue.
func dispatch(ctx context.Context, kind string, co consumeOptions, handler Handler, msg Message) error {
	b := retry.NewExponential(co.backoff)
	b = retry.WithJitterPercent(10, b)
	b = retry.WithCappedDuration(maxBackoff, b)
	//nolint:gosec // attempts is always >= 1
	b = retry.WithMaxRetries(uint64(co.attempts-1), b)

	tries := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		tries++
		if err := safeHandle(ctx, kind, handler, msg); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to handle message", "kind", kind, "topic", msg.Topic, "id", msg.ID, "tries", tries, "error", err)
	}
	return err
}
