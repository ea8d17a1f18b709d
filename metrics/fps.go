package metrics

import (
	"sync"
	"time"
)

// FPSCounter counts frames and reports a rate once per window, the way a
// frame overlay does: the value changes at most once per second and holds
// between updates.
type FPSCounter struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time

	start  time.Time
	frames int
	fps    float64
}

// NewFPSCounter returns a counter with a one-second window.
func NewFPSCounter() *FPSCounter {
	return newFPSCounter(time.Second, time.Now)
}

func newFPSCounter(window time.Duration, now func() time.Time) *FPSCounter {
	return &FPSCounter{window: window, now: now, start: now()}
}

// Tick counts one frame and returns the current rate. The boolean is true
// when this tick closed a window and the rate changed.
func (c *FPSCounter) Tick() (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.frames++
	elapsed := c.now().Sub(c.start)
	if elapsed < c.window {
		return c.fps, false
	}
	c.fps = float64(c.frames) / elapsed.Seconds()
	c.frames = 0
	c.start = c.start.Add(elapsed)
	return c.fps, true
}

// FPS returns the last computed rate.
func (c *FPSCounter) FPS() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}
