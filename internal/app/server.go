package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const defaultShutdownTimeout = 10 * time.Second

// Start serves HTTP in the background. The returned channel is closed once a
// termination signal arrives or the server fails to listen.
func (a *App) Start() <-chan struct{} {
	done := make(chan struct{})
	sigCtx, stop := signal.NotifyContext(a.ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		slog.Info("http server listening", "address", a.httpServer.Addr, "tz", a.location.String())

		err := a.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen and serve http server", "error", err)
			stop()
		}
	}()

	go func() {
		<-sigCtx.Done()
		stop()
		slog.Info("shutdown requested")
		close(done)
	}()

	return done
}

// ShutdownTimeout bounds how long Stop may take.
func (a *App) ShutdownTimeout() time.Duration {
	if s := a.config.GetInt("app.shutdown_timeout_seconds"); s > 0 {
		return time.Duration(s) * time.Second
	}
	return defaultShutdownTimeout
}

// Stop drains HTTP first, then background work, then the closers in order.
func (a *App) Stop(ctx context.Context) {
	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to close resources", "name", "HTTP Server", "error", err)
	}

	a.cancel()
	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "background tasks ended with errors", "error", err)
	}

	for _, c := range a.closers {
		if err := c.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", c.name, "error", err)
			continue
		}
		slog.DebugContext(ctx, "resource closed", "name", c.name)
	}

	slog.InfoContext(ctx, "application stopped")
}
