// Package session implements the lock state of the application: a single
// Locked/Unlocked state machine with an inactivity timer and an immediate
// lock on visibility loss.
//
// Lock state is deliberately separate from login state. Locking hides the
// notes and demands re-authentication but never clears the current-user
// marker; logout is the credentials plugin's concern.
package session

import (
	"log/slog"
	"sync"
	"time"
)

// State is the lock state of the application.
type State string

const (
	StateLocked   State = "locked"
	StateUnlocked State = "unlocked"
)

// Controller owns the lock state machine. It starts Locked and is safe for
// concurrent use.
type Controller struct {
	mu          sync.Mutex
	state       State
	lockTimeout time.Duration
	timer       *time.Timer
	observers   map[int]chan State
	nextID      int
	logger      *slog.Logger
}

// NewController creates a controller in the Locked state.
func NewController(lockTimeout time.Duration, logger *slog.Logger) *Controller {
	return &Controller{
		state:       StateLocked,
		lockTimeout: lockTimeout,
		observers:   make(map[int]chan State),
		logger:      logger,
	}
}

// State returns the current lock state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Unlock transitions to Unlocked and arms the inactivity timer. Unlocking
// an already unlocked session just re-arms the timer.
func (c *Controller) Unlock() {
	c.mu.Lock()
	changed := c.state != StateUnlocked
	c.state = StateUnlocked
	c.armTimerLocked()
	c.mu.Unlock()

	if changed {
		c.logger.Info("session unlocked")
		c.notify(StateUnlocked)
	}
}

// Lock transitions to Locked and stops the inactivity timer. Locking an
// already locked session is a no-op.
func (c *Controller) Lock() {
	c.mu.Lock()
	if c.state == StateLocked {
		c.mu.Unlock()
		return
	}
	c.state = StateLocked
	c.stopTimerLocked()
	c.mu.Unlock()

	c.logger.Info("session locked")
	c.notify(StateLocked)
}

// Activity records user activity, pushing the inactivity deadline out.
// Activity while locked is ignored; it must never unlock.
func (c *Controller) Activity() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateUnlocked {
		return
	}
	c.armTimerLocked()
}

// VisibilityHidden locks immediately when the application loses
// visibility. Waiting out the inactivity window would leave the notes
// readable on a backgrounded screen.
func (c *Controller) VisibilityHidden() {
	c.Lock()
}

// Subscribe registers an observer of lock state changes. The returned
// cancel function unregisters it; the channel is closed on cancel. Slow
// observers miss intermediate states rather than blocking transitions.
func (c *Controller) Subscribe() (<-chan State, func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	ch := make(chan State, 4)
	c.observers[id] = ch
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		if existing, ok := c.observers[id]; ok {
			delete(c.observers, id)
			close(existing)
		}
		c.mu.Unlock()
	}
	return ch, cancel
}

func (c *Controller) notify(state State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.observers {
		select {
		case ch <- state:
		default:
		}
	}
}

// armTimerLocked (re)starts the inactivity timer. Caller holds mu.
func (c *Controller) armTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
	}
	if c.lockTimeout <= 0 {
		return
	}
	c.timer = time.AfterFunc(c.lockTimeout, func() {
		c.logger.Info("inactivity timeout reached")
		c.Lock()
	})
}

// stopTimerLocked stops the inactivity timer. Caller holds mu.
func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
