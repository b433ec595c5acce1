package timer_test

import (
	"sync"
	"testing"
	"time"

	"github.com/openfleet/geowatch-agent/pkg/timer"
	"github.com/stretchr/testify/assert"
)

// fakeTimer is one scheduled callback on the fake clock.
type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

// fakeClock records scheduled callbacks and fires them on demand.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) timer.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Now() time.Time {
	return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
}

func (c *fakeClock) timer(i int) *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timers[i]
}

func (c *fakeClock) scheduled() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func TestResettable_FiresCallback(t *testing.T) {
	clock := &fakeClock{}
	fired := 0
	rt := timer.New(clock, time.Minute, func() { fired++ })

	assert.False(t, rt.Active())
	rt.Reset()
	assert.True(t, rt.Active())
	assert.Equal(t, time.Minute, clock.timer(0).d)

	clock.timer(0).f()
	assert.Equal(t, 1, fired)
	assert.False(t, rt.Active())
}

func TestResettable_ResetReplacesPendingDeadline(t *testing.T) {
	clock := &fakeClock{}
	fired := 0
	rt := timer.New(clock, time.Minute, func() { fired++ })

	rt.Reset()
	rt.Reset()
	rt.Reset()

	assert.Equal(t, 3, clock.scheduled())
	assert.True(t, clock.timer(0).stopped)
	assert.True(t, clock.timer(1).stopped)
	assert.False(t, clock.timer(2).stopped)

	clock.timer(2).f()
	assert.Equal(t, 1, fired)
}

func TestResettable_ClearDisarms(t *testing.T) {
	clock := &fakeClock{}
	rt := timer.New(clock, time.Minute, func() { t.Fatal("cleared timer must not fire") })

	rt.Reset()
	rt.Clear()

	assert.True(t, clock.timer(0).stopped)
	assert.False(t, rt.Active())

	// Clearing again is a no-op.
	rt.Clear()
}

func TestResettable_RearmsAfterFiring(t *testing.T) {
	clock := &fakeClock{}
	fired := 0
	rt := timer.New(clock, time.Minute, func() { fired++ })

	rt.Reset()
	clock.timer(0).f()
	rt.Reset()
	clock.timer(1).f()

	assert.Equal(t, 2, fired)
}

func TestSystemClock_SchedulesRealTimers(t *testing.T) {
	done := make(chan struct{})
	h := timer.SystemClock.AfterFunc(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("system clock timer did not fire")
	}
	assert.False(t, h.Stop())
	assert.False(t, timer.SystemClock.Now().IsZero())
}
