package notify

import (
	"sync"
	"time"
)

// Cooldown suppresses repeated notifications of the same kind inside a
// window. Kinds are tracked independently, so a disconnect right after a
// reconnect still gets through while a second disconnect in the window does
// not.
type Cooldown struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
}

func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{window: window, last: make(map[string]time.Time)}
}

// SetWindow changes the suppression window for future decisions.
func (c *Cooldown) SetWindow(window time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.window = window
}

// Allow decides whether a notification of the given kind may fire at now,
// and records it if so. Suppressed notifications leave the window anchored
// at the last one actually sent.
func (c *Cooldown) Allow(kind string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.last[kind]; ok && now.Sub(t) < c.window {
		return false
	}

	c.last[kind] = now
	return true
}
