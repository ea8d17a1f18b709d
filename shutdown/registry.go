package shutdown

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"edgecam/core"
)

// Priorities used by the service. Lower runs first.
const (
	PriorityStopIntake = 10 // stop the frame loop
	PriorityServer     = 20 // drain HTTP and WebSocket clients
	PriorityResources  = 30 // close buffers and files
	PriorityFlush      = 90 // flush logs last
)

type shutdownEntry struct {
	name     string
	fn       core.ShutdownFunc
	priority int
	seq      int
}

// ShutdownRegistry holds cleanup handlers and runs them once, in priority
// order. Handlers with equal priority run in registration order.
type ShutdownRegistry struct {
	mu      sync.Mutex
	entries []shutdownEntry
	closed  bool
}

// NewShutdownRegistry creates an empty registry.
func NewShutdownRegistry() *ShutdownRegistry {
	return &ShutdownRegistry{}
}

// Register adds a handler. Registration after Shutdown is ignored.
func (r *ShutdownRegistry) Register(name string, priority int, fn core.ShutdownFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.entries = append(r.entries, shutdownEntry{
		name:     name,
		fn:       fn,
		priority: priority,
		seq:      len(r.entries),
	})
}

// Shutdown runs every handler, even after failures, and returns the failures
// prefixed with the handler name. Only the first call does anything.
func (r *ShutdownRegistry) Shutdown(ctx context.Context) []error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	entries := r.sortedLocked()
	r.mu.Unlock()

	var errs []error
	for _, e := range entries {
		if err := e.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.name, err))
		}
	}
	return errs
}

// Names returns handler names in execution order.
func (r *ShutdownRegistry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.sortedLocked()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names
}

// Count returns the number of registered handlers.
func (r *ShutdownRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// IsClosed reports whether Shutdown has run.
func (r *ShutdownRegistry) IsClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *ShutdownRegistry) sortedLocked() []shutdownEntry {
	sorted := make([]shutdownEntry, len(r.entries))
	copy(sorted, r.entries)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].priority != sorted[j].priority {
			return sorted[i].priority < sorted[j].priority
		}
		return sorted[i].seq < sorted[j].seq
	})
	return sorted
}
