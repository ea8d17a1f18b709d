package metrics

import "sync"

// History is a thread-safe fixed-size ring that overwrites its oldest entry
// when full. Reads return copies ordered oldest to newest.
type History[T any] struct {
	mu       sync.RWMutex
	data     []T
	capacity int
	size     int
	head     int
}

// NewHistory creates a History holding at most capacity items.
// It panics if capacity is less than 1.
func NewHistory[T any](capacity int) *History[T] {
	if capacity < 1 {
		panic("metrics: history capacity must be at least 1")
	}
	return &History[T]{
		data:     make([]T, capacity),
		capacity: capacity,
	}
}

// Push appends item, evicting the oldest entry when full.
func (h *History[T]) Push(item T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.data[h.head] = item
	h.head = (h.head + 1) % h.capacity
	if h.size < h.capacity {
		h.size++
	}
}

// Last returns up to n most recent items, oldest first.
func (h *History[T]) Last(n int) []T {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n <= 0 || h.size == 0 {
		return []T{}
	}
	if n > h.size {
		n = h.size
	}

	out := make([]T, n)
	for i := 0; i < n; i++ {
		out[i] = h.data[(h.head-n+i+h.capacity)%h.capacity]
	}
	return out
}

// Newest returns the most recent item and whether one exists.
func (h *History[T]) Newest() (T, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var zero T
	if h.size == 0 {
		return zero, false
	}
	return h.data[(h.head-1+h.capacity)%h.capacity], true
}

// Len returns the number of items held.
func (h *History[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.size
}

// Cap returns the maximum number of items.
func (h *History[T]) Cap() int {
	return h.capacity
}

// Clear drops every item.
func (h *History[T]) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	var zero T
	for i := range h.data {
		h.data[i] = zero
	}
	h.size = 0
	h.head = 0
}
