package shutdown

import (
	"context"
	"errors"
	"io"
	"net/http"

	"edgecam/core"
)

// HTTPServer returns a handler that drains srv within the shutdown deadline.
func HTTPServer(srv *http.Server) core.ShutdownFunc {
	return func(ctx context.Context) error {
		err := srv.Shutdown(ctx)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Closer returns a handler that closes c.
func Closer(c io.Closer) core.ShutdownFunc {
	return func(context.Context) error {
		return c.Close()
	}
}

// Func adapts a no-argument cleanup function such as a logger flush.
func Func(fn func() error) core.ShutdownFunc {
	return func(context.Context) error {
		return fn()
	}
}

// Cancel returns a handler that cancels a context and waits for done to be
// closed, or for the shutdown deadline.
func Cancel(cancel context.CancelFunc, done <-chan struct{}) core.ShutdownFunc {
	return func(ctx context.Context) error {
		cancel()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
