package geowatch

import "time"

// Options carries the position request hints forwarded verbatim to a
// source. Zero values mean "use the source default"; no validation is
// performed here or in the Watcher.
type Options struct {
	HighAccuracy bool
	MaximumAge   time.Duration
	Timeout      time.Duration
}

// Source is a position capability that can produce one-shot and
// continuous fixes. Implementations deliver results asynchronously on
// their own goroutines; callers must not assume a callback fires before
// Current or Watch returns.
type Source interface {
	// Current requests a single immediate reading. Exactly one of success
	// or failure is invoked per call.
	Current(opts Options, success func(Reading), failure func(error))

	// Watch establishes a standing subscription that keeps delivering
	// readings and failures until the returned subscription is released.
	Watch(opts Options, success func(Reading), failure func(error)) Subscription
}

// Subscription is the handle for a standing position subscription.
// Release must be safe to call more than once.
type Subscription interface {
	Release()
}
