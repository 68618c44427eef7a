// Package session provides a countdown timer for timed quiz attempts. A
// Timer ticks down once per interval and invokes a single expiry callback
// when time runs out, which callers use to force-submit whatever answers
// have been collected so far.
package session

import (
	"sync"
	"time"
)

// Timer counts down from a fixed duration. It is safe for concurrent use:
// Remaining can be read while the countdown goroutine runs, and Stop may be
// called from any goroutine, any number of times.
type Timer struct {
	interval time.Duration
	onExpire func()

	mu        sync.Mutex
	remaining int

	stopOnce sync.Once
	stopped  chan struct{}
	done     chan struct{}
}

// NewTimer creates a timer for the given number of seconds. onExpire fires
// exactly once when the countdown reaches zero; it never fires after Stop.
func NewTimer(seconds int, onExpire func()) *Timer {
	return newTimer(seconds, time.Second, onExpire)
}

// newTimer lets tests shrink the tick interval.
func newTimer(seconds int, interval time.Duration, onExpire func()) *Timer {
	if seconds < 0 {
		seconds = 0
	}
	if onExpire == nil {
		onExpire = func() {}
	}
	return &Timer{
		interval:  interval,
		onExpire:  onExpire,
		remaining: seconds,
		stopped:   make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start begins the countdown in its own goroutine. A timer created with
// zero seconds expires on the first tick.
func (t *Timer) Start() {
	go t.run()
}

func (t *Timer) run() {
	defer close(t.done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopped:
			return
		case <-ticker.C:
			t.mu.Lock()
			if t.remaining > 0 {
				t.remaining--
			}
			expired := t.remaining == 0
			t.mu.Unlock()

			if expired {
				// Stop first so a concurrent Stop call cannot race the
				// callback into firing twice.
				t.stopOnce.Do(func() {
					close(t.stopped)
					t.onExpire()
				})
				return
			}
		}
	}
}

// Remaining reports the seconds left on the clock.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Stop cancels the countdown. After Stop returns the expiry callback will
// not fire. Calling Stop repeatedly, or after expiry, is a no-op.
func (t *Timer) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopped)
	})
}

// Wait blocks until the countdown goroutine has exited, either through
// expiry or Stop. Useful in tests and during shutdown.
func (t *Timer) Wait() {
	<-t.done
}
