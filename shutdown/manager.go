package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"edgecam/core"
)

// DefaultTimeout bounds the whole shutdown sequence.
const DefaultTimeout = 15 * time.Second

// Manager is the shutdown organism. It composes an OperationTracker for
// in-flight frames, a ShutdownRegistry of cleanup handlers and a
// SignalCounter for SIGINT/SIGTERM.
//
//	m := shutdown.NewManager(logger)
//	m.Register("http", shutdown.PriorityServer, shutdown.HTTPServer(srv))
//	m.Start()
//	<-m.Context().Done()
//	err := m.Shutdown()
type Manager struct {
	logger  *zap.Logger
	timeout time.Duration
	exit    func(code int)

	mu       sync.Mutex
	started  bool
	shutdown bool

	ctx    context.Context
	cancel context.CancelFunc

	tracker  *OperationTracker
	registry *ShutdownRegistry
	signals  *SignalCounter

	sigChan chan os.Signal
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithTimeout sets the shutdown timeout. Default is DefaultTimeout.
func WithTimeout(timeout time.Duration) ManagerOption {
	return func(m *Manager) {
		m.timeout = timeout
	}
}

// WithExitFunc replaces os.Exit for the forced exit on a second signal.
func WithExitFunc(exit func(code int)) ManagerOption {
	return func(m *Manager) {
		m.exit = exit
	}
}

// NewManager creates a Manager whose context is cancelled by Trigger or by
// the first signal after Start.
func NewManager(logger *zap.Logger, opts ...ManagerOption) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		logger:   logger,
		timeout:  DefaultTimeout,
		exit:     os.Exit,
		ctx:      ctx,
		cancel:   cancel,
		tracker:  NewOperationTracker(),
		registry: NewShutdownRegistry(),
		sigChan:  make(chan os.Signal, 1),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.signals = NewSignalCounter(2, func() {
		m.logger.Warn("Received second signal, forcing exit")
		m.exit(core.ExitCodeError)
	})
	return m
}

// Context is cancelled when shutdown begins.
func (m *Manager) Context() context.Context {
	return m.ctx
}

// Register adds a cleanup handler. Lower priorities run first.
func (m *Manager) Register(name string, priority int, fn core.ShutdownFunc) {
	m.registry.Register(name, priority, fn)
	m.logger.Debug("Registered shutdown handler",
		zap.String("name", name),
		zap.Int("priority", priority),
	)
}

// Start listens for SIGINT and SIGTERM. Calling it again is a no-op.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true

	signal.Notify(m.sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		for sig := range m.sigChan {
			if m.signals.Increment() == 1 {
				m.logger.Info("Received shutdown signal",
					zap.String("signal", sig.String()),
				)
				m.cancel()
			}
		}
	}()
}

// Trigger begins shutdown without a signal, as a service stop request does.
func (m *Manager) Trigger(reason string) {
	m.logger.Info("Shutdown requested", zap.String("reason", reason))
	m.cancel()
}

// Shutdown stops admitting operations, waits for running ones, then runs
// the cleanup handlers with whatever time is left (at least one second).
// It returns the joined handler errors. Later calls return nil.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return nil
	}
	m.shutdown = true
	started := m.started
	m.mu.Unlock()

	m.cancel()
	begin := time.Now()
	m.logger.Info("Initiating graceful shutdown",
		zap.Duration("timeout", m.timeout),
		zap.Int64("in_flight", m.tracker.ActiveCount()),
		zap.Strings("handlers", m.registry.Names()),
	)

	m.tracker.Close()
	if err := m.tracker.Wait(m.timeout); err != nil {
		m.logger.Warn("In-flight operations did not finish",
			zap.Int64("remaining", m.tracker.ActiveCount()),
		)
	}

	remaining := m.timeout - time.Since(begin)
	if remaining < time.Second {
		remaining = time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), remaining)
	defer cancel()

	errs := m.registry.Shutdown(ctx)
	for _, err := range errs {
		m.logger.Error("Cleanup handler failed", zap.Error(err))
	}

	if started {
		signal.Stop(m.sigChan)
		close(m.sigChan)
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown: %d handler(s) failed: %w", len(errs), errors.Join(errs...))
	}
	m.logger.Info("Graceful shutdown completed", zap.Duration("duration", time.Since(begin)))
	return nil
}

// WrapOperation runs fn as a tracked operation. It returns ErrTrackerClosed
// without running fn once shutdown has begun.
func (m *Manager) WrapOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	if !m.tracker.Start() {
		m.logger.Debug("Operation rejected during shutdown", zap.String("operation", name))
		return ErrTrackerClosed
	}
	defer m.tracker.Done()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-m.ctx.Done():
		return context.Canceled
	default:
	}
	return fn(ctx)
}

// ActiveOperations returns the number of running tracked operations.
func (m *Manager) ActiveOperations() int64 {
	return m.tracker.ActiveCount()
}

// IsShuttingDown reports whether shutdown has begun.
func (m *Manager) IsShuttingDown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shutdown || m.ctx.Err() != nil
}

// RegisteredHandlers returns handler names in execution order.
func (m *Manager) RegisteredHandlers() []string {
	return m.registry.Names()
}
