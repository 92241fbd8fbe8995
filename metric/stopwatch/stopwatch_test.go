package stopwatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fakeClock() (nowFn func() time.Time, sinceFn func(time.Time) time.Duration, tick func(time.Duration)) {
	current := time.Time{}
	nowFn = func() time.Time {
		return current
	}
	sinceFn = func(t time.Time) time.Duration {
		return current.Sub(t)
	}
	tick = func(d time.Duration) {
		current = current.Add(d)
	}
	return nowFn, sinceFn, tick
}

func TestStopwatchStages(t *testing.T) {
	sw := New()
	var tick func(time.Duration)
	sw.nowFn, sw.sinceFn, tick = fakeClock()

	m := sw.Start("wait")
	tick(3 * time.Millisecond)
	m.Stop()

	m = sw.Start("load")
	tick(7 * time.Millisecond)
	m.Stop()

	expected := map[string]time.Duration{
		"wait": 3 * time.Millisecond,
		"load": 7 * time.Millisecond,
	}
	assert.Equal(t, expected, sw.Values())
}

func TestStopwatchRepeatedStage(t *testing.T) {
	sw := New()
	var tick func(time.Duration)
	sw.nowFn, sw.sinceFn, tick = fakeClock()

	for i := 0; i < 4; i++ {
		m := sw.Start("load")
		tick(time.Millisecond)
		m.Stop()
	}

	assert.Equal(t, map[string]time.Duration{"load": 4 * time.Millisecond}, sw.Values())
}

func TestStopwatchUnstoppedStageNotReported(t *testing.T) {
	sw := New()
	var tick func(time.Duration)
	sw.nowFn, sw.sinceFn, tick = fakeClock()

	m := sw.Start("wait")
	tick(time.Millisecond)
	m.Stop()
	sw.Start("load")
	tick(time.Millisecond)

	assert.Equal(t, map[string]time.Duration{"wait": time.Millisecond}, sw.Values())
}

func TestStopwatchDoubleStop(t *testing.T) {
	sw := New()
	var tick func(time.Duration)
	sw.nowFn, sw.sinceFn, tick = fakeClock()

	m := sw.Start("load")
	tick(2 * time.Millisecond)
	m.Stop()
	tick(5 * time.Millisecond)
	m.Stop() // must not extend the measured duration

	assert.Equal(t, map[string]time.Duration{"load": 2 * time.Millisecond}, sw.Values())
}
