// Package toggle provides a small guarded boolean with change
// notification, used to gate features on and off at runtime.
package toggle

import "sync"

// Toggle is a boolean flag. The change callback fires only on actual
// transitions, never for a Set that leaves the value unchanged.
type Toggle struct {
	mu       sync.Mutex
	on       bool
	onChange func(bool)
}

// New creates a Toggle with the given initial value. onChange may be
// nil; it is not invoked for the initial value.
func New(initial bool, onChange func(bool)) *Toggle {
	return &Toggle{on: initial, onChange: onChange}
}

// Set moves the toggle to the given value, notifying on a transition.
func (t *Toggle) Set(on bool) {
	t.mu.Lock()
	if t.on == on {
		t.mu.Unlock()
		return
	}
	t.on = on
	onChange := t.onChange
	t.mu.Unlock()

	if onChange != nil {
		onChange(on)
	}
}

// Toggle flips the value and returns the new one.
func (t *Toggle) Toggle() bool {
	t.mu.Lock()
	t.on = !t.on
	on := t.on
	onChange := t.onChange
	t.mu.Unlock()

	if onChange != nil {
		onChange(on)
	}
	return on
}

// On returns the current value.
func (t *Toggle) On() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.on
}
