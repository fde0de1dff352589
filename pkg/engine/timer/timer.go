// Package timer provides the per-decision countdown. A session has at most
// one logically active countdown: Start always cancels the previous run, and
// a cancelled run can never deliver its expiry (expiries carry a generation
// token that Cancel invalidates).
//
// Pausing is expressed as Cancel; resuming is a fresh Start of the full
// configured duration. Remaining time is deliberately not preserved across a
// pause - that is the documented resume contract for the whole game.
package timer

import (
	"sync"
	"time"
)

// State represents the countdown lifecycle.
type State int

const (
	StateStopped State = iota
	StateRunning
	StateExpired
)

// Expiry is delivered exactly once when a countdown runs out. Gen identifies
// the run that expired; consumers confirm it with Valid before acting.
type Expiry struct {
	Gen uint64
}

// Countdown is a cancellable one-shot countdown ticking in whole seconds.
type Countdown struct {
	mu        sync.Mutex
	state     State
	remaining int
	deadline  time.Time
	gen       uint64
	interval  time.Duration
	stop      chan struct{}

	expired chan Expiry
}

// New creates a countdown ticking at one-second intervals.
func New() *Countdown {
	return NewWithInterval(time.Second)
}

// NewWithInterval creates a countdown with a custom tick interval.
// Tests use short intervals; the game always uses one second.
func NewWithInterval(interval time.Duration) *Countdown {
	return &Countdown{
		interval: interval,
		expired:  make(chan Expiry, 1),
	}
}

// Expired returns the channel on which expiry events are delivered.
func (c *Countdown) Expired() <-chan Expiry {
	return c.expired
}

// Start begins a countdown of the given number of seconds, cancelling any
// countdown already running.
func (c *Countdown) Start(seconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLocked()

	if seconds <= 0 {
		return
	}

	c.gen++
	c.state = StateRunning
	c.remaining = seconds
	c.deadline = time.Now().Add(time.Duration(seconds) * c.interval)
	c.stop = make(chan struct{})

	go c.run(c.gen, c.stop)
}

// Cancel stops any running countdown, discarding remaining time. Any expiry
// already queued but not yet consumed is invalidated and drained.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
}

func (c *Countdown) cancelLocked() {
	c.gen++
	c.state = StateStopped
	c.remaining = 0
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	select {
	case <-c.expired:
	default:
	}
}

// Valid reports whether an expiry belongs to the current run. A queued
// expiry from a run that was since cancelled or restarted reports false.
func (c *Countdown) Valid(e Expiry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return e.Gen == c.gen
}

// State returns the current countdown state.
func (c *Countdown) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Remaining returns the seconds left, or zero when not running.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Deadline returns the wall-clock moment the running countdown will expire.
// Renderers use it to draw a live countdown without polling Remaining.
func (c *Countdown) Deadline() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deadline
}

func (c *Countdown) run(gen uint64, stop chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.gen != gen || c.state != StateRunning {
				c.mu.Unlock()
				return
			}
			c.remaining--
			if c.remaining > 0 {
				c.mu.Unlock()
				continue
			}
			// Hit zero: emit exactly one expiry, then stop.
			c.state = StateExpired
			c.stop = nil
			select {
			case <-c.expired:
			default:
			}
			c.expired <- Expiry{Gen: gen}
			c.state = StateStopped
			c.remaining = 0
			c.mu.Unlock()
			return
		}
	}
}
