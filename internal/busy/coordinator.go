package busy

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultMinVisible is how long the indicator stays up once shown.
	DefaultMinVisible = 500 * time.Millisecond
	// DefaultMessageClearDelay is the gap between hiding and wiping the message.
	DefaultMessageClearDelay = 300 * time.Millisecond
)

// Status is a point-in-time view of a Coordinator.
type Status struct {
	Busy    bool
	Message string
	Active  int
}

// Options configure a Coordinator. Zero durations use the defaults; negative
// durations are treated as zero.
type Options struct {
	MinVisible        time.Duration
	MessageClearDelay time.Duration
	Clock             Clock
}

type listener struct {
	id int
	fn func(Status)
}

// Coordinator reference-counts in-flight operations and exposes a single
// debounced busy signal plus an optional status message.
type Coordinator struct {
	clock             Clock
	minVisible        time.Duration
	messageClearDelay time.Duration

	mu           sync.Mutex
	active       int
	visible      bool
	message      string
	visibleSince time.Time
	hide         Timer
	clear        Timer
	gen          uint64
	listeners    []listener
	nextID       int

	// notifyMu serialises delivery so listeners observe changes in order.
	notifyMu sync.Mutex
}

// New builds an idle Coordinator.
func New(opts Options) *Coordinator {
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock()
	}
	return &Coordinator{
		clock:             clock,
		minVisible:        normalizeDelay(opts.MinVisible, DefaultMinVisible),
		messageClearDelay: normalizeDelay(opts.MessageClearDelay, DefaultMessageClearDelay),
	}
}

func normalizeDelay(d, fallback time.Duration) time.Duration {
	switch {
	case d == 0:
		return fallback
	case d < 0:
		return 0
	default:
		return d
	}
}

// Begin marks one operation as in progress. A non-empty message replaces the
// current one. Begin cancels any pending hide, so an indicator that is
// cooling down stays up instead of closing and reopening.
func (c *Coordinator) Begin(message string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.cancelTimersLocked()
	if message != "" {
		c.message = message
	}
	if c.active == 0 {
		c.visibleSince = c.clock.Now()
		c.visible = true
	}
	c.active++
	c.mu.Unlock()

	c.notify()
}

// End marks one operation as settled. Calls without a matching Begin are
// ignored. When the last operation ends the indicator is hidden once it has
// been visible for the minimum duration.
func (c *Coordinator) End() {
	if c == nil {
		return
	}
	c.mu.Lock()
	if c.active == 0 {
		c.mu.Unlock()
		return
	}
	c.active--
	if c.active == 0 {
		remaining := c.minVisible - c.clock.Now().Sub(c.visibleSince)
		if remaining < 0 {
			remaining = 0
		}
		gen := c.gen
		c.hide = c.clock.AfterFunc(remaining, func() { c.fireHide(gen) })
	}
	c.mu.Unlock()

	c.notify()
}

// Do runs fn between Begin and End. End runs even if fn panics.
func (c *Coordinator) Do(message string, fn func() error) error {
	c.Begin(message)
	defer c.End()
	return fn()
}

// Track is Do with a context. A context that is already done short-circuits
// without touching the indicator.
func (c *Coordinator) Track(ctx context.Context, message string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.Begin(message)
	defer c.End()
	return fn(ctx)
}

// Busy reports whether the indicator is visible.
func (c *Coordinator) Busy() bool {
	return c.Status().Busy
}

// Message returns the current status text, or "" when unset.
func (c *Coordinator) Message() string {
	return c.Status().Message
}

// Status returns a snapshot of the coordinator.
func (c *Coordinator) Status() Status {
	if c == nil {
		return Status{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

// Subscribe registers fn to receive the current Status after every change.
// fn runs on the goroutine that caused the change and must not call back
// into the Coordinator.
func (c *Coordinator) Subscribe(fn func(Status)) (unsubscribe func()) {
	if c == nil || fn == nil {
		return func() {}
	}
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, listener{id: id, fn: fn})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, l := range c.listeners {
				if l.id == id {
					c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (c *Coordinator) fireHide(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.active > 0 {
		c.mu.Unlock()
		return
	}
	c.hide = nil
	c.visible = false
	c.clear = c.clock.AfterFunc(c.messageClearDelay, func() { c.fireClear(gen) })
	c.mu.Unlock()

	c.notify()
}

func (c *Coordinator) fireClear(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.visible {
		c.mu.Unlock()
		return
	}
	c.clear = nil
	c.message = ""
	c.mu.Unlock()

	c.notify()
}

// cancelTimersLocked drops the pending hide and message clear. Bumping gen
// turns callbacks that already fired but have not taken the lock into no-ops.
func (c *Coordinator) cancelTimersLocked() {
	if c.hide != nil {
		c.hide.Stop()
		c.hide = nil
	}
	if c.clear != nil {
		c.clear.Stop()
		c.clear = nil
	}
	c.gen++
}

func (c *Coordinator) statusLocked() Status {
	return Status{Busy: c.visible, Message: c.message, Active: c.active}
}

func (c *Coordinator) notify() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	status := c.statusLocked()
	fns := make([]func(Status), len(c.listeners))
	for i, l := range c.listeners {
		fns[i] = l.fn
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(status)
	}
}
