// Package timer provides a one-shot timer that can be re-armed and
// disarmed, with an injectable clock so callers can drive it in tests.
package timer

import (
	"sync"
	"time"
)

// Handle allows stopping a scheduled callback.
type Handle interface {
	Stop() bool
}

// Clock abstracts timer scheduling for dependency injection.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Handle
	Now() time.Time
}

// SystemClock is the default Clock backed by the standard library.
var SystemClock Clock = systemClock{}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Handle {
	return time.AfterFunc(d, f)
}

func (systemClock) Now() time.Time {
	return time.Now()
}

// Resettable is a one-shot timer. Reset arms (or re-arms) it, pushing
// the deadline out by the full duration; Clear disarms it. Both are
// idempotent in the sense that repeating them is always safe.
type Resettable struct {
	mu     sync.Mutex
	clock  Clock
	d      time.Duration
	fn     func()
	handle Handle
}

// New creates a disarmed Resettable that will run fn when it fires.
// A nil clock falls back to SystemClock.
func New(clock Clock, d time.Duration, fn func()) *Resettable {
	if clock == nil {
		clock = SystemClock
	}
	return &Resettable{clock: clock, d: d, fn: fn}
}

// Reset arms the timer, replacing any pending deadline.
func (t *Resettable) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.handle != nil {
		t.handle.Stop()
	}
	t.handle = t.clock.AfterFunc(t.d, t.fire)
}

// Clear disarms the timer. Clearing a disarmed timer is a no-op.
func (t *Resettable) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.handle != nil {
		t.handle.Stop()
		t.handle = nil
	}
}

// Active reports whether the timer is currently armed.
func (t *Resettable) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.handle != nil
}

func (t *Resettable) fire() {
	t.mu.Lock()
	t.handle = nil
	fn := t.fn
	t.mu.Unlock()

	if fn != nil {
		fn()
	}
}
