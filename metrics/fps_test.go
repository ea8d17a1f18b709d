package metrics

import (
	"testing"
	"time"
)

func TestFPSCounter(t *testing.T) {
	now := time.Unix(0, 0)
	c := newFPSCounter(time.Second, func() time.Time { return now })

	for i := 0; i < 29; i++ {
		now = now.Add(33 * time.Millisecond)
		if _, changed := c.Tick(); changed {
			t.Fatalf("tick %d closed the window early", i)
		}
	}
	now = now.Add(43 * time.Millisecond)
	fps, changed := c.Tick()
	if !changed {
		t.Fatal("window did not close after one second")
	}
	if fps != 30 {
		t.Errorf("fps = %v, want 30", fps)
	}
	if c.FPS() != 30 {
		t.Errorf("FPS() = %v, want 30", c.FPS())
	}

	now = now.Add(10 * time.Millisecond)
	if got, changed := c.Tick(); changed || got != 30 {
		t.Errorf("Tick() = %v, %v; want held 30, false", got, changed)
	}
}
