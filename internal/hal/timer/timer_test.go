package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/autopeer-io/uvm/internal/hal"
)

func TestClockTicks(t *testing.T) {
	fc := clocktesting.NewFakeClock(time.Unix(0, 0))
	c := NewClock(fc, 10)

	assert.Equal(t, uint64(0), c.Ticks())
	fc.Step(35 * time.Millisecond)
	assert.Equal(t, uint64(3), c.Ticks())

	// Reprogramming keeps the ticks already counted.
	c.SetPeriodic(1)
	fc.Step(5 * time.Millisecond)
	assert.Equal(t, uint64(8), c.Ticks())
}

func TestClockStopped(t *testing.T) {
	fc := clocktesting.NewFakeClock(time.Unix(0, 0))
	c := NewClock(fc, 10)
	fc.Step(20 * time.Millisecond)

	assert.True(t, hal.SetPeriodic(c, 0))
	fc.Step(time.Second)
	assert.Equal(t, uint64(2), c.Ticks())
}

func TestClockSleepTicks(t *testing.T) {
	fc := clocktesting.NewFakeClock(time.Unix(0, 0))
	c := NewClock(fc, 5)

	c.SleepTicks(4)
	assert.Equal(t, time.Unix(0, 0).Add(20*time.Millisecond), fc.Now())
	assert.Equal(t, uint64(4), c.Ticks())

	c.SetPeriodic(0)
	c.SleepTicks(1)
	assert.Equal(t, time.Unix(0, 0).Add(30*time.Millisecond), fc.Now())
}

func TestDelayerPrefersSleeping(t *testing.T) {
	fc := clocktesting.NewFakeClock(time.Unix(0, 0))
	c := NewClock(fc, 10)

	hal.NewDelayer(hal.Some[hal.Timer](c), 0).Delay(3)
	assert.Equal(t, time.Unix(0, 0).Add(30*time.Millisecond), fc.Now())
}

func TestCounter(t *testing.T) {
	fc := clocktesting.NewFakeClock(time.Unix(0, 0))
	ctr := NewCounter(NewClock(fc, 1))

	assert.False(t, hal.SetPeriodic(ctr, 5))
	fc.Step(7 * time.Millisecond)
	n, ok := hal.Ticks(ctr)
	assert.True(t, ok)
	assert.Equal(t, uint64(7), n)
}
