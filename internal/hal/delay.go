package hal

import (
	"context"
	"runtime"
)

// DefaultSpinPerTick is the busy-wait length standing in for one tick when the
// platform has no usable timer.
const DefaultSpinPerTick = 2_000_000

// Delayer waits for a number of timer ticks. Stages delay only through a Delayer.
type Delayer interface {
	Delay(ticks uint64)
}

// DelayFunc adapts a function to Delayer.
type DelayFunc func(ticks uint64)

func (f DelayFunc) Delay(ticks uint64) { f(ticks) }

// TickSleeper is implemented by timers that can block for whole ticks.
type TickSleeper interface {
	Timer
	SleepTicks(n uint64)
}

// NewDelayer picks the best delay strategy the timer supports: sleeping,
// polling the tick counter, or spinning spinPerTick iterations per tick.
func NewDelayer(t Optional[Timer], spinPerTick int) Delayer {
	if spinPerTick <= 0 {
		spinPerTick = DefaultSpinPerTick
	}
	if timer, ok := t.Get(); ok {
		if s, ok := timer.(TickSleeper); ok {
			return DelayFunc(s.SleepTicks)
		}
		if tt, ok := timer.(TickTimer); ok {
			return &pollDelayer{timer: tt, budget: spinPerTick}
		}
	}
	return spinDelayer(spinPerTick)
}

type pollDelayer struct {
	timer  TickTimer
	budget int
}

// Delay polls the tick counter. A counter that stops advancing (for instance a
// timer whose interval was set to 0) is abandoned after the spin budget.
func (d *pollDelayer) Delay(ticks uint64) {
	start := d.timer.Ticks()
	idle := 0
	last := start
	for {
		now := d.timer.Ticks()
		if now-start >= ticks {
			return
		}
		if now != last {
			last, idle = now, 0
		} else if idle++; idle > d.budget {
			return
		}
		runtime.Gosched()
	}
}

type spinDelayer int

func (n spinDelayer) Delay(ticks uint64) {
	for t := uint64(0); t < ticks; t++ {
		spin(int(n))
	}
}

//go:noinline
func spin(n int) int {
	acc := 0
	for i := 0; i < n; i++ {
		acc += i & 1
	}
	return acc
}

// Halt parks the caller for good. In a hosted process the only way out is the
// cancellation of ctx, which stands for the machine being powered off.
func Halt(ctx context.Context) {
	<-ctx.Done()
}
