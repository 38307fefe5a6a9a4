package services

import (
	"sync"
	"time"
)

// Countdown decrements a remaining-seconds counter once per second and fires
// exactly one expiry callback when it reaches zero, then stops itself. There
// is no pause/resume, only Start and Cancel.
type Countdown struct {
	mu        sync.Mutex
	remaining int
	running   bool
	stop      chan struct{}

	// interval is overridable in tests; production uses one second.
	interval time.Duration
}

func NewCountdown() *Countdown {
	return &Countdown{interval: time.Second}
}

// Start arms the countdown for the given number of seconds. onExpire is
// invoked exactly once, from the ticking goroutine, when the counter reaches
// zero. Starting an already running countdown is an invalid transition.
//
// A non-positive duration expires on the first tick rather than erroring, so
// resuming an already-exhausted attempt still funnels through the expiry path.
func (c *Countdown) Start(seconds int, onExpire func()) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrCountdownRunning
	}
	c.remaining = seconds
	c.running = true
	stop := make(chan struct{})
	c.stop = stop
	c.mu.Unlock()

	go c.run(stop, onExpire)
	return nil
}

func (c *Countdown) run(stop chan struct{}, onExpire func()) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			if !c.running {
				c.mu.Unlock()
				return
			}
			c.remaining--
			expired := c.remaining <= 0
			if expired {
				c.running = false
				c.remaining = 0
			}
			c.mu.Unlock()

			if expired {
				onExpire()
				return
			}
		}
	}
}

// Cancel stops the countdown without firing. Safe to call when not running
// and safe to call repeatedly; submit and crash-recovery paths both call it.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.running = false
	close(c.stop)
}

// Remaining reports the seconds left, for host display.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Running reports whether the countdown is armed.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
