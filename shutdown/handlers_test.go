package shutdown

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type closeRecorder struct {
	closed bool
	err    error
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return c.err
}

func TestCloser(t *testing.T) {
	c := &closeRecorder{err: errors.New("busy")}
	if err := Closer(c)(context.Background()); !errors.Is(err, c.err) {
		t.Errorf("Closer() error = %v, want busy", err)
	}
	if !c.closed {
		t.Error("Closer() did not close")
	}
}

func TestHTTPServer(t *testing.T) {
	srv := httptest.NewUnstartedServer(http.NotFoundHandler())
	srv.Start()
	defer srv.Close()

	if err := HTTPServer(srv.Config)(context.Background()); err != nil {
		t.Errorf("HTTPServer() error: %v", err)
	}
}

func TestCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		close(done)
	}()

	if err := Cancel(cancel, done)(context.Background()); err != nil {
		t.Errorf("Cancel() error: %v", err)
	}
}

func TestCancel_Deadline(t *testing.T) {
	never := make(chan struct{})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := Cancel(func() {}, never)(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Cancel() error = %v, want DeadlineExceeded", err)
	}
}

func TestFunc(t *testing.T) {
	called := false
	Func(func() error {
		called = true
		return nil
	})(context.Background())
	if !called {
		t.Error("Func() did not call through")
	}
}
