// Package goroutine runs the long-lived background loops of the service
// (sweepers, retention, consumers) under one bounded, waitable manager.
package goroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/otpgate/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is used when NewManager receives a non-positive limit.
const DefaultMaxGoroutine = 64

var (
	// ErrClosed is reported when Go is called after Wait.
	ErrClosed = errors.New("goroutine: manager closed")
	// ErrLimitReached is reported when every slot is taken.
	ErrLimitReached = errors.New("goroutine: limit reached")
)

// Manager runs named tasks in goroutines with a concurrency limit and
// collects their errors for Wait.
type Manager struct {
	wg   sync.WaitGroup
	sema chan struct{}

	mu     sync.Mutex
	closed bool
	errs   []error
}

// NewManager creates a Manager allowing at most maxGoroutine concurrent tasks.
func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = DefaultMaxGoroutine
	}
	return &Manager{sema: make(chan struct{}, maxGoroutine)}
}

// Go starts f in a goroutine. Tasks that cannot start, fail, or panic are
// recorded under name and returned by Wait.
func (g *Manager) Go(ctx context.Context, name string, f func(ctx context.Context) error) {
	if g == nil {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		slog.WarnContext(ctx, "goroutine manager is closed, skipping task", "task", name)
		g.errs = append(g.errs, fmt.Errorf("%s: %w", name, ErrClosed))
		return
	}

	select {
	case g.sema <- struct{}{}:
	default:
		slog.WarnContext(ctx, "maximum goroutine limit reached, skipping task", "task", name)
		g.errs = append(g.errs, fmt.Errorf("%s: %w", name, ErrLimitReached))
		return
	}

	g.wg.Go(func() {
		defer func() { <-g.sema }()

		if err := run(ctx, name, f); err != nil {
			g.mu.Lock()
			g.errs = append(g.errs, fmt.Errorf("%s: %w", name, err))
			g.mu.Unlock()
		}
	})
}

func run(ctx context.Context, name string, f func(ctx context.Context) error) (err error) {
	defer func() {
		rvr := recover()
		if rvr == nil {
			return
		}
		stack := debug.Stack()
		if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
			slog.ErrorContext(ctx, "panic occurred in goroutine", "task", name, "because", rvr, "stack", paths)
		} else {
			slog.ErrorContext(ctx, "panic occurred in goroutine", "task", name, "because", rvr, "stack", string(stack))
		}
		err = fmt.Errorf("panic: %v", rvr)
	}()

	if ctxErr := ctx.Err(); ctxErr != nil {
		slog.WarnContext(ctx, "goroutine canceled before start", "task", name, "because", ctxErr)
		return nil
	}

	slog.DebugContext(ctx, "goroutine started", "task", name)
	return f(ctx)
}

// Wait stops accepting tasks, blocks until running ones finish and returns
// their joined errors.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}
