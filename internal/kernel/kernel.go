// Package kernel is the stage that runs after the handoff. It only sees the
// capabilities the boot stage put in the PlatformInfo, and checks each one for
// presence before use.
package kernel

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/autopeer-io/uvm/internal/hal"
	fsmutil "github.com/autopeer-io/uvm/internal/pkg/util/fsm"
	"github.com/autopeer-io/uvm/pkg/log"
)

// Console output of the kernel.
const (
	MsgBanner        = "KERNEL: hello from kernel main\n"
	MsgSectorHeader  = "KERNEL: sector0[0..15]=\n"
	MsgReadFailed    = "KERNEL: failed to read sector 0\n"
	MsgNoDisk        = "KERNEL: no disk\n"
	MsgRoundMarker   = "HB:"
	MsgProgress      = "."
	MsgHeartbeatDone = "KERNEL: heartbeat complete\n"
)

const (
	// ProbeLBA is the only block the kernel reads.
	ProbeLBA = 0
	// DumpBytes is how many leading bytes of the probed sector are printed.
	DumpBytes = 16

	HeartbeatRounds = 3
	TicksPerRound   = 8
)

// Kernel runs the post-handoff phases: banner, disk probe, heartbeat, idle.
// A Kernel runs once; a second Main fails with an fsm transition error.
type Kernel struct {
	fsm *fsm.FSM

	delayer     hal.Delayer
	delayTicks  uint64
	spinPerTick int
	halt        func(context.Context)
}

// Option configures a Kernel.
type Option func(*Kernel)

// WithDelayer replaces the delay derived from the platform timer.
func WithDelayer(d hal.Delayer) Option {
	return func(k *Kernel) { k.delayer = d }
}

// WithDelayTicks sets the delay after each heartbeat progress symbol.
func WithDelayTicks(n uint64) Option {
	return func(k *Kernel) { k.delayTicks = n }
}

// WithSpinPerTick sets the busy-wait length used when the platform has no timer.
func WithSpinPerTick(n int) Option {
	return func(k *Kernel) { k.spinPerTick = n }
}

// WithHalt replaces the idle loop.
func WithHalt(fn func(context.Context)) Option {
	return func(k *Kernel) { k.halt = fn }
}

// New returns a kernel ready to run.
func New(opts ...Option) *Kernel {
	k := &Kernel{
		delayTicks:  1,
		spinPerTick: hal.DefaultSpinPerTick,
		halt:        hal.Halt,
	}
	for _, o := range opts {
		o(k)
	}
	k.fsm = k.newPhaseMachine()
	return k
}

// Phase returns the current phase.
func (k *Kernel) Phase() string {
	return k.fsm.Current()
}

// Main is the kernel entry point. It runs every phase in order and then idles
// until ctx ends; in a healthy run it does not return before that. A nil p is
// treated as a platform with no capabilities.
func (k *Kernel) Main(ctx context.Context, p *hal.PlatformInfo) error {
	if p == nil {
		p = hal.NewPlatformInfo()
	}
	logger := log.FromContext(ctx).WithName("kernel")
	ctx = log.IntoContext(ctx, logger)
	logger.Info("Kernel entered", "capabilities", present(p))

	events := []string{EventBanner, EventProbeDisk, EventHeartbeat, EventIdle}
	if err := fsmutil.Sequence(ctx, k.fsm, events, p); err != nil {
		return fmt.Errorf("kernel: %w", err)
	}

	logger.Info("Kernel idle")
	k.halt(ctx)
	return nil
}

func (k *Kernel) enterBanner(_ context.Context, e *fsm.Event) error {
	p := e.Args[0].(*hal.PlatformInfo)
	if c, ok := p.Console().Get(); ok {
		c.WriteStr(MsgBanner)
	}
	return nil
}

// enterDiskProbe takes exactly one of three branches: no disk, read failed, or
// a hex dump of the first DumpBytes of sector 0. The read happens even without
// a console to print it on.
func (k *Kernel) enterDiskProbe(ctx context.Context, e *fsm.Event) error {
	p := e.Args[0].(*hal.PlatformInfo)
	c, hasConsole := p.Console().Get()
	write := func(s string) {
		if hasConsole {
			c.WriteStr(s)
		}
	}

	d, ok := p.Disk().Get()
	if !ok {
		write(MsgNoDisk)
		return nil
	}

	sector := make([]byte, hal.SectorSizeOf(d))
	if err := d.ReadSector(ProbeLBA, sector); err != nil {
		log.FromContext(ctx).Warn("Sector read failed", "lba", ProbeLBA, "err", err)
		write(MsgReadFailed)
		return nil
	}

	dump := sector[:min(DumpBytes, len(sector))]
	log.FromContext(ctx).Debug("Sector read", "lba", ProbeLBA, "bytes", dump)

	write(MsgSectorHeader)
	for _, b := range dump {
		write(fmt.Sprintf("0x%02X\n", b))
	}
	return nil
}

func (k *Kernel) enterHeartbeat(_ context.Context, e *fsm.Event) error {
	p := e.Args[0].(*hal.PlatformInfo)
	c, ok := p.Console().Get()
	if !ok {
		return nil
	}

	delayer := k.delayer
	if delayer == nil {
		delayer = hal.NewDelayer(p.Timer(), k.spinPerTick)
	}

	for round := 0; round < HeartbeatRounds; round++ {
		c.WriteStr(MsgRoundMarker)
		for i := 0; i < TicksPerRound; i++ {
			c.WriteStr(MsgProgress)
			delayer.Delay(k.delayTicks)
		}
		c.WriteStr("\n")
	}
	c.WriteStr(MsgHeartbeatDone)
	return nil
}

func present(p *hal.PlatformInfo) []string {
	var out []string
	for _, info := range p.Describe() {
		if info.Present {
			out = append(out, info.Slot)
		}
	}
	return out
}
