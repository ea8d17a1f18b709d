// Package shutdown coordinates graceful termination of the service: frame
// loops are tracked as in-flight operations, cleanup handlers run in
// priority order, and a second signal forces exit.
package shutdown

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrTrackerClosed is returned when trying to start an operation on a closed tracker.
var ErrTrackerClosed = errors.New("shutdown: operation tracker is closed")

// ErrWaitTimeout is returned when Wait times out before all operations complete.
var ErrWaitTimeout = errors.New("shutdown: operations did not complete in time")

// OperationTracker counts in-flight operations so shutdown can wait for
// them. Once closed it admits nothing new.
//
//	if !tracker.Start() {
//	    return // shutting down
//	}
//	defer tracker.Done()
type OperationTracker struct {
	wg     sync.WaitGroup
	mu     sync.Mutex
	active atomic.Int64
	closed bool
}

// NewOperationTracker creates an open tracker.
func NewOperationTracker() *OperationTracker {
	return &OperationTracker{}
}

// Start admits one operation. It returns false once the tracker is closed;
// on true the caller must call Done exactly once.
func (t *OperationTracker) Start() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	t.wg.Add(1)
	t.active.Add(1)
	return true
}

// Done marks an operation admitted by Start as finished.
func (t *OperationTracker) Done() {
	t.active.Add(-1)
	t.wg.Done()
}

// Wait blocks until every admitted operation is done or timeout elapses.
func (t *OperationTracker) Wait(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return nil
	case <-timer.C:
		return ErrWaitTimeout
	}
}

// Close stops admitting operations. Running ones are unaffected.
func (t *OperationTracker) Close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
}

// ActiveCount returns the number of running operations.
func (t *OperationTracker) ActiveCount() int64 {
	return t.active.Load()
}

// IsClosed reports whether Close has been called.
func (t *OperationTracker) IsClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
