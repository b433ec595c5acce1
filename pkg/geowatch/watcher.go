package geowatch

import (
	"sync"

	"github.com/rs/zerolog"
)

// Observer receives every successful record replacement. Failures update
// the record but are not delivered to the observer.
type Observer func(Record)

// Watcher subscribes to a position source and maintains the latest
// normalized Record. It is either unsubscribed or holds exactly one
// standing subscription; enabling, disabling and reconfiguring move it
// between the two states any number of times.
type Watcher struct {
	mu       sync.Mutex
	source   Source
	opts     Options
	observer Observer
	logger   zerolog.Logger

	enabled bool
	gen     uint64
	sub     Subscription
	record  Record
}

// NewWatcher creates a Watcher around the given source. A nil source is
// allowed and simply means the watcher never subscribes. The watcher
// starts enabled but idle; call Start to subscribe.
func NewWatcher(source Source, opts Options, observer Observer, logger zerolog.Logger) *Watcher {
	return &Watcher{
		source:   source,
		opts:     opts,
		observer: observer,
		logger:   logger,
		enabled:  true,
	}
}

// Start requests one immediate reading and establishes the standing
// subscription, both routed through the same normalization path. It is a
// no-op when the watcher is disabled, already subscribed, or has no
// source.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.source == nil || !w.enabled || w.sub != nil {
		w.mu.Unlock()
		return
	}
	w.gen++
	gen := w.gen
	opts := w.opts
	w.mu.Unlock()

	w.establish(gen, opts)
}

// Stop releases the standing subscription. Stopping an already stopped
// or never started watcher is a no-op.
func (w *Watcher) Stop() {
	w.mu.Lock()
	w.gen++
	sub := w.sub
	w.sub = nil
	w.mu.Unlock()

	if sub != nil {
		sub.Release()
		w.logger.Debug().Msg("Position subscription released")
	}
}

// SetEnabled flips the enable flag. Disabling tears down the standing
// subscription; re-enabling establishes a fresh one with the current
// options.
func (w *Watcher) SetEnabled(enabled bool) {
	w.mu.Lock()
	if w.enabled == enabled {
		w.mu.Unlock()
		return
	}
	w.enabled = enabled
	w.mu.Unlock()

	if enabled {
		w.Start()
	} else {
		w.Stop()
	}
}

// SetOptions replaces the request options. If the watcher is subscribed,
// the old subscription is torn down and exactly one new subscription is
// established with the new options.
func (w *Watcher) SetOptions(opts Options) {
	w.mu.Lock()
	w.opts = opts
	if w.sub == nil {
		w.mu.Unlock()
		return
	}
	w.gen++
	gen := w.gen
	sub := w.sub
	w.sub = nil
	enabled := w.enabled
	w.mu.Unlock()

	sub.Release()
	if enabled {
		w.establish(gen, opts)
	}
}

// Record returns a snapshot of the latest record. The snapshot must be
// treated as read-only; its pointer fields are shared with the watcher's
// current state until the next replacement.
func (w *Watcher) Record() Record {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.record
}

// Subscribed reports whether a standing subscription is currently held.
func (w *Watcher) Subscribed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sub != nil
}

// establish performs the one-shot request and the standing subscription
// for the given generation. If the watcher moved on while the calls were
// in flight, the fresh subscription is released immediately and no state
// is touched.
func (w *Watcher) establish(gen uint64, opts Options) {
	success := func(r Reading) { w.update(gen, r) }
	failure := func(err error) { w.fail(gen, err) }

	w.source.Current(opts, success, failure)
	sub := w.source.Watch(opts, success, failure)

	w.mu.Lock()
	if gen != w.gen || !w.enabled {
		w.mu.Unlock()
		sub.Release()
		return
	}
	w.sub = sub
	w.mu.Unlock()

	w.logger.Debug().
		Bool("high_accuracy", opts.HighAccuracy).
		Dur("maximum_age", opts.MaximumAge).
		Dur("timeout", opts.Timeout).
		Msg("Position subscription established")
}

// update replaces the record with a successful reading and notifies the
// observer. Callbacks from a stale subscription are dropped.
func (w *Watcher) update(gen uint64, reading Reading) {
	w.mu.Lock()
	if gen != w.gen {
		w.mu.Unlock()
		return
	}
	record := successRecord(reading)
	w.record = record
	observer := w.observer
	w.mu.Unlock()

	if observer != nil {
		observer(record)
	}
}

// fail replaces the record with a failure. The observer is not invoked
// for failures.
func (w *Watcher) fail(gen uint64, err error) {
	w.mu.Lock()
	if gen != w.gen {
		w.mu.Unlock()
		return
	}
	w.record = failureRecord(err)
	w.mu.Unlock()

	w.logger.Warn().Err(err).Msg("Position source reported a failure")
}
