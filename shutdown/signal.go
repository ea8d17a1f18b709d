package shutdown

import "sync"

// SignalCounter counts shutdown signals and calls onForce when the count
// reaches forceAfter: the first signal is graceful, the second is not.
type SignalCounter struct {
	mu         sync.Mutex
	count      int
	forceAfter int
	onForce    func()
}

// NewSignalCounter creates a counter. onForce may be nil.
func NewSignalCounter(forceAfter int, onForce func()) *SignalCounter {
	return &SignalCounter{
		forceAfter: forceAfter,
		onForce:    onForce,
	}
}

// Increment records a signal and returns the new count. onForce runs under
// the counter's lock, so it should exit the process or return quickly.
func (s *SignalCounter) Increment() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.count++
	if s.count >= s.forceAfter && s.onForce != nil {
		s.onForce()
	}
	return s.count
}

// Count returns the number of signals seen.
func (s *SignalCounter) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Reset sets the count back to zero.
func (s *SignalCounter) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count = 0
}
