// Package debounce provides named settle timers. A burst of triggers runs
// the callback once, after the configured quiet period, letting upstream
// cart state settle before the widget re-checks it.
package debounce

import (
	"sync"
	"time"
)

// Timer coalesces bursts of Trigger calls into a single callback invocation
// after a quiet period of d. Each Trigger restarts the countdown.
type Timer struct {
	name string
	d    time.Duration
	fn   func()

	mu      sync.Mutex
	t       *time.Timer
	stopped bool
}

// New creates a settle timer. The name documents the timer's purpose and
// shows up in logs and test failures; it has no behavioral effect.
func New(name string, d time.Duration, fn func()) *Timer {
	return &Timer{name: name, d: d, fn: fn}
}

// Name returns the timer's diagnostic name.
func (t *Timer) Name() string { return t.name }

// Trigger (re)starts the countdown. The callback fires once, d after the
// last Trigger in a burst.
func (t *Timer) Trigger() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return
	}
	if t.t != nil {
		t.t.Stop()
	}
	t.t = time.AfterFunc(t.d, t.fn)
}

// Stop cancels any pending callback and prevents future triggers from
// scheduling one.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopped = true
	if t.t != nil {
		t.t.Stop()
		t.t = nil
	}
}
