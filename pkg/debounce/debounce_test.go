package debounce_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/openfleet/geowatch-agent/pkg/debounce"
	"github.com/stretchr/testify/assert"
)

func TestDebouncer_BurstCollapsesToOneCall(t *testing.T) {
	var calls int32
	d := debounce.New(50 * time.Millisecond)

	for i := 0; i < 10; i++ {
		d.Trigger(func() { atomic.AddInt32(&calls, 1) })
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDebouncer_LastTriggerWins(t *testing.T) {
	var got int32
	d := debounce.New(30 * time.Millisecond)

	d.Trigger(func() { atomic.StoreInt32(&got, 1) })
	d.Trigger(func() { atomic.StoreInt32(&got, 2) })

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(2), atomic.LoadInt32(&got))
}

func TestDebouncer_SeparateBurstsFireSeparately(t *testing.T) {
	var calls int32
	d := debounce.New(20 * time.Millisecond)

	d.Trigger(func() { atomic.AddInt32(&calls, 1) })
	time.Sleep(80 * time.Millisecond)
	d.Trigger(func() { atomic.AddInt32(&calls, 1) })
	time.Sleep(80 * time.Millisecond)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	var calls int32
	d := debounce.New(30 * time.Millisecond)

	d.Trigger(func() { atomic.AddInt32(&calls, 1) })
	d.Stop()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))

	// Stop with nothing pending is a no-op.
	d.Stop()
}
