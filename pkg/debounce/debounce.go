// Package debounce provides a trailing-edge debouncer: a burst of
// triggers collapses into a single invocation of the last function
// passed, fired once the burst has been quiet for the configured wait.
package debounce

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid triggers. The zero value is not usable;
// create one with New.
type Debouncer struct {
	mu    sync.Mutex
	wait  time.Duration
	timer *time.Timer
}

// New creates a Debouncer with the given quiet period.
func New(wait time.Duration) *Debouncer {
	return &Debouncer{wait: wait}
}

// Trigger schedules fn to run after the quiet period, replacing any
// previously scheduled function. The last trigger of a burst wins.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.wait, fn)
}

// Stop cancels any pending invocation. A function already running is
// not interrupted.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
