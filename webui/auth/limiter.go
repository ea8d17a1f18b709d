package auth

import (
	"context"
	"sync"
	"time"
)

// Limiter defaults
const (
	DefaultMaxAttempts = 5
	DefaultWindow      = time.Minute
	DefaultBlock       = 5 * time.Minute
)

// attempts counts failures for one client inside a window.
type attempts struct {
	count   int
	resetAt time.Time
}

// Limiter blocks a client address after too many failed authentications.
// Failures are counted in a fixed window; reaching MaxAttempts extends the
// window to the block duration. A success clears the record.
type Limiter struct {
	mu          sync.Mutex
	records     map[string]attempts
	maxAttempts int
	window      time.Duration
	block       time.Duration
	now         func() time.Time
}

// NewLimiter creates a Limiter. Non-positive arguments take defaults.
func NewLimiter(maxAttempts int, window, block time.Duration) *Limiter {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if block <= 0 {
		block = DefaultBlock
	}
	return &Limiter{
		records:     make(map[string]attempts),
		maxAttempts: maxAttempts,
		window:      window,
		block:       block,
		now:         time.Now,
	}
}

// Allow reports whether addr may try to authenticate and, if not, how long
// until it may.
func (l *Limiter) Allow(addr string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[addr]
	now := l.now()
	if !ok || now.After(rec.resetAt) {
		return true, 0
	}
	if rec.count >= l.maxAttempts {
		return false, rec.resetAt.Sub(now)
	}
	return true, 0
}

// Fail records a failed attempt from addr.
func (l *Limiter) Fail(addr string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	rec, ok := l.records[addr]
	if !ok || now.After(rec.resetAt) {
		l.records[addr] = attempts{count: 1, resetAt: now.Add(l.window)}
		return
	}
	rec.count++
	if rec.count == l.maxAttempts {
		rec.resetAt = now.Add(l.block)
	}
	l.records[addr] = rec
}

// Reset forgets addr.
func (l *Limiter) Reset(addr string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.records, addr)
}

// Cleanup drops expired records and returns how many it removed.
func (l *Limiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for addr, rec := range l.records {
		if now.After(rec.resetAt) {
			delete(l.records, addr)
			removed++
		}
	}
	return removed
}

// StartCleanup runs Cleanup every interval until ctx is done.
func (l *Limiter) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Cleanup()
			}
		}
	}()
}

// Len returns the number of tracked addresses.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
