package dispatch

import (
	"sync"
	"time"
)

// volumeCoalescer collapses rapid volume intents into a single daemon
// call. Dragging a volume slider emits dozens of values per second; the
// mirror applies each one optimistically, but only the latest value
// inside the window is sent.
type volumeCoalescer struct {
	window time.Duration
	send   func(float64)

	mu      sync.Mutex
	pending float64
	armed   bool
	timer   *time.Timer
	stopped bool
}

func newVolumeCoalescer(window time.Duration, send func(float64)) *volumeCoalescer {
	return &volumeCoalescer{window: window, send: send}
}

// Set records the latest requested volume and defers the daemon call
// until the window elapses without further values.
func (c *volumeCoalescer) Set(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}

	c.pending = v
	c.armed = true

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.window, c.flush)
}

func (c *volumeCoalescer) flush() {
	c.mu.Lock()
	armed := c.armed
	v := c.pending
	c.armed = false
	c.mu.Unlock()

	if armed {
		c.send(v)
	}
}

// Stop sends any pending value and prevents further calls.
func (c *volumeCoalescer) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	if c.timer != nil {
		c.timer.Stop()
	}
	armed := c.armed
	v := c.pending
	c.armed = false
	c.mu.Unlock()

	if armed {
		c.send(v)
	}
}
