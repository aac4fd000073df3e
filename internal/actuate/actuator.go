// Package actuate abstracts the low-level pointer backend. The motion and
// trigger layers see exactly two capabilities, relative movement and a press
// pulse; which concrete backend provides them, and any fallback between
// backends, stays on this side of the interface.
package actuate

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Actuator is the complete surface the coordination core requires.
type Actuator interface {
	// Name identifies the backend in logs and status output.
	Name() string
	// Move applies a relative pointer displacement and reports success.
	Move(dx, dy float64) bool
	// Activate delivers one discrete press pulse of the named button.
	Activate(button string) bool
}

// Chain tries an ordered list of backends and settles on the first one whose
// call succeeds. Once a backend has proven itself it stays preferred until it
// fails, at which point the chain advances; it never walks backwards.
type Chain struct {
	mu       sync.Mutex
	backends []Actuator
	active   int
	logger   *zap.Logger
}

// NewChain builds a fallback chain. At least one backend is required.
func NewChain(logger *zap.Logger, backends ...Actuator) (*Chain, error) {
	if len(backends) == 0 {
		return nil, fmt.Errorf("actuate: chain requires at least one backend")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{backends: backends, logger: logger.Named("actuate")}, nil
}

// Name reports the currently preferred backend.
func (c *Chain) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("chain(%s)", c.backends[c.active].Name())
}

// Move dispatches to the preferred backend, advancing on failure.
func (c *Chain) Move(dx, dy float64) bool {
	return c.dispatch(func(a Actuator) bool { return a.Move(dx, dy) })
}

// Activate dispatches to the preferred backend, advancing on failure.
func (c *Chain) Activate(button string) bool {
	return c.dispatch(func(a Actuator) bool { return a.Activate(button) })
}

func (c *Chain) dispatch(call func(Actuator) bool) bool {
	c.mu.Lock()
	start := c.active
	c.mu.Unlock()

	for i := start; i < len(c.backends); i++ {
		if call(c.backends[i]) {
			c.mu.Lock()
			if i != c.active {
				c.logger.Warn("actuation backend switched",
					zap.String("from", c.backends[c.active].Name()),
					zap.String("to", c.backends[i].Name()))
				c.active = i
			}
			c.mu.Unlock()
			return true
		}
	}
	return false
}
