package options

import (
	"errors"

	"github.com/spf13/pflag"
)

// Timer backends.
const (
	TimerClock   = "clock"
	TimerCounter = "counter"
	TimerNone    = "none"
)

// Interrupt controller backends.
const (
	IrqMask  = "mask"
	IrqFixed = "fixed"
	IrqNone  = "none"
)

var (
	_ IOptions = (*TimerOptions)(nil)
	_ IOptions = (*IrqOptions)(nil)
)

// TimerOptions selects and configures the Timer capability.
type TimerOptions struct {
	// Kind is clock (programmable), counter (ticks only) or none.
	Kind     string `json:"kind" mapstructure:"kind"`
	PeriodMs uint32 `json:"period-ms" mapstructure:"period-ms"`

	// SpinPerTick is the busy-wait length of one tick when no timer is usable.
	SpinPerTick int `json:"spin-per-tick" mapstructure:"spin-per-tick"`
}

// NewTimerOptions returns TimerOptions with default values.
func NewTimerOptions() *TimerOptions {
	return &TimerOptions{
		Kind:        TimerClock,
		PeriodMs:    10,
		SpinPerTick: 2_000_000,
	}
}

func (o *TimerOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}
	if err := validateKind("timer.kind", o.Kind, TimerClock, TimerCounter, TimerNone); err != nil {
		errs = append(errs, err)
	}
	if o.SpinPerTick <= 0 {
		errs = append(errs, errors.New("--timer.spin-per-tick must be positive"))
	}
	return errs
}

func (o *TimerOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Kind, "timer.kind", o.Kind, "Timer backend: clock, counter or none.")
	fs.Uint32Var(&o.PeriodMs, "timer.period-ms", o.PeriodMs, "Initial tick period in milliseconds; 0 leaves the timer stopped.")
	fs.IntVar(&o.SpinPerTick, "timer.spin-per-tick", o.SpinPerTick, "Busy-wait iterations per tick when no timer is usable.")
}

// IrqOptions selects and configures the IrqController capability.
type IrqOptions struct {
	Kind  string `json:"kind" mapstructure:"kind"`
	Lines uint   `json:"lines" mapstructure:"lines"`
}

// NewIrqOptions returns IrqOptions with default values.
func NewIrqOptions() *IrqOptions {
	return &IrqOptions{Kind: IrqMask, Lines: 16}
}

func (o *IrqOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}
	if err := validateKind("irq.kind", o.Kind, IrqMask, IrqFixed, IrqNone); err != nil {
		errs = append(errs, err)
	}
	return errs
}

func (o *IrqOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Kind, "irq.kind", o.Kind, "Interrupt controller backend: mask, fixed or none.")
	fs.UintVar(&o.Lines, "irq.lines", o.Lines, "Number of interrupt lines of the mask controller.")
}
