package shutdown

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestManager_WrapOperation(t *testing.T) {
	m := NewManager(zaptest.NewLogger(t))

	ran := false
	err := m.WrapOperation(context.Background(), "frame", func(context.Context) error {
		ran = true
		if m.ActiveOperations() != 1 {
			t.Errorf("ActiveOperations() = %d inside operation", m.ActiveOperations())
		}
		return nil
	})
	if err != nil || !ran {
		t.Fatalf("WrapOperation() = %v, ran = %v", err, ran)
	}
}

func TestManager_WrapOperation_RejectedAfterShutdown(t *testing.T) {
	m := NewManager(zaptest.NewLogger(t))
	if err := m.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}

	err := m.WrapOperation(context.Background(), "frame", func(context.Context) error {
		t.Error("operation ran after shutdown")
		return nil
	})
	if !errors.Is(err, ErrTrackerClosed) {
		t.Errorf("WrapOperation() error = %v, want ErrTrackerClosed", err)
	}
}

func TestManager_Trigger(t *testing.T) {
	m := NewManager(zaptest.NewLogger(t))
	m.Trigger("service stop")

	select {
	case <-m.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("Trigger() did not cancel the context")
	}
	if !m.IsShuttingDown() {
		t.Error("IsShuttingDown() = false after Trigger")
	}

	err := m.WrapOperation(context.Background(), "frame", func(context.Context) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("WrapOperation() error = %v, want context.Canceled", err)
	}
}

func TestManager_ShutdownWaitsThenRunsHandlers(t *testing.T) {
	m := NewManager(zaptest.NewLogger(t), WithTimeout(2*time.Second))

	var opDone, handlerSawOpDone atomic.Bool
	m.Register("check", PriorityResources, func(context.Context) error {
		handlerSawOpDone.Store(opDone.Load())
		return nil
	})

	started := make(chan struct{})
	go m.WrapOperation(context.Background(), "frame", func(context.Context) error {
		close(started)
		time.Sleep(30 * time.Millisecond)
		opDone.Store(true)
		return nil
	})
	<-started

	if err := m.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}
	if !handlerSawOpDone.Load() {
		t.Error("cleanup ran before in-flight operation finished")
	}
	if err := m.Shutdown(); err != nil {
		t.Errorf("second Shutdown() error: %v", err)
	}
}

func TestManager_ShutdownReportsErrors(t *testing.T) {
	m := NewManager(zaptest.NewLogger(t))
	boom := errors.New("boom")
	m.Register("bad", 1, func(context.Context) error { return boom })

	err := m.Shutdown()
	if !errors.Is(err, boom) {
		t.Errorf("Shutdown() error = %v, want wrapped boom", err)
	}
}

func TestManager_ForceExitOnSecondSignal(t *testing.T) {
	var code atomic.Int32
	code.Store(-1)
	m := NewManager(zaptest.NewLogger(t), WithExitFunc(func(c int) { code.Store(int32(c)) }))

	m.signals.Increment()
	if code.Load() != -1 {
		t.Fatal("first signal forced exit")
	}
	m.signals.Increment()
	if code.Load() != 1 {
		t.Errorf("exit code = %d, want 1", code.Load())
	}
}
