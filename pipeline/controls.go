package pipeline

import (
	"sync"
)

// Controls holds the runtime switches a viewer can flip while the pipeline
// runs. It is safe for concurrent use.
type Controls struct {
	mu         sync.RWMutex
	processing bool
	effect     Effect
}

// ControlState is a JSON-friendly copy of Controls.
type ControlState struct {
	Processing bool   `json:"processing"`
	Effect     Effect `json:"effect"`
}

// NewControls returns Controls with the given initial state.
func NewControls(processing bool, effect Effect) *Controls {
	if effect == "" {
		effect = EffectNone
	}
	return &Controls{processing: processing, effect: effect}
}

// State returns a copy of the switches.
func (c *Controls) State() ControlState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ControlState{Processing: c.processing, Effect: c.effect}
}

// SetProcessing turns edge detection on or off.
func (c *Controls) SetProcessing(on bool) ControlState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.processing = on
	return ControlState{Processing: c.processing, Effect: c.effect}
}

// ToggleProcessing flips edge detection and returns the new state.
func (c *Controls) ToggleProcessing() ControlState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.processing = !c.processing
	return ControlState{Processing: c.processing, Effect: c.effect}
}

// SetEffect selects a display effect.
func (c *Controls) SetEffect(e Effect) ControlState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.effect = e
	return ControlState{Processing: c.processing, Effect: c.effect}
}

// CycleEffect advances to the next effect and returns the new state.
func (c *Controls) CycleEffect() ControlState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.effect = c.effect.Next()
	return ControlState{Processing: c.processing, Effect: c.effect}
}
