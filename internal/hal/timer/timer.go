// Package timer implements the Timer capability on a host clock.
package timer

import (
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/uvm/internal/hal"
)

// DefaultPeriodMs is the tick interval of a timer nobody has programmed yet.
const DefaultPeriodMs = 10

var (
	_ hal.PeriodicTimer = (*Clock)(nil)
	_ hal.TickTimer     = (*Clock)(nil)
	_ hal.TickSleeper   = (*Clock)(nil)
)

// Clock is a programmable interval timer. Its tick counter advances once per
// period; SetPeriodic(0) stops it.
type Clock struct {
	clock clock.Clock

	mu     sync.Mutex
	period time.Duration
	since  time.Time
	base   uint64
}

// NewClock returns a timer running at periodMs on c. A nil c uses the wall clock.
func NewClock(c clock.Clock, periodMs uint32) *Clock {
	if c == nil {
		c = clock.RealClock{}
	}
	t := &Clock{clock: c}
	t.SetPeriodic(periodMs)
	return t
}

func (t *Clock) String() string { return "clock" }

// SetPeriodic reprograms the interval. Ticks already counted are kept.
func (t *Clock) SetPeriodic(ms uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	t.base = t.ticksLocked(now)
	t.since = now
	t.period = time.Duration(ms) * time.Millisecond
}

func (t *Clock) Ticks() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ticksLocked(t.clock.Now())
}

func (t *Clock) ticksLocked(now time.Time) uint64 {
	if t.period <= 0 {
		return t.base
	}
	return t.base + uint64(now.Sub(t.since)/t.period)
}

// SleepTicks blocks for n periods. A stopped timer sleeps for the default period.
func (t *Clock) SleepTicks(n uint64) {
	t.mu.Lock()
	period := t.period
	t.mu.Unlock()

	if period <= 0 {
		period = DefaultPeriodMs * time.Millisecond
	}
	t.clock.Sleep(time.Duration(n) * period)
}

var _ hal.TickTimer = (*Counter)(nil)

// Counter exposes only the tick counter of a Clock, for platforms whose timer
// cannot be programmed.
type Counter struct {
	c *Clock
}

// NewCounter wraps c.
func NewCounter(c *Clock) *Counter { return &Counter{c: c} }

func (t *Counter) String() string { return "counter" }
func (t *Counter) Ticks() uint64  { return t.c.Ticks() }
