// Package boot is the stage that brings up devices, describes them in a
// PlatformInfo and hands control to the kernel entry point exactly once.
package boot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/looplab/fsm"

	"github.com/autopeer-io/uvm/internal/hal"
	"github.com/autopeer-io/uvm/internal/hal/console"
	"github.com/autopeer-io/uvm/internal/hal/observe"
	"github.com/autopeer-io/uvm/internal/pkg/metrics"
	fsmutil "github.com/autopeer-io/uvm/internal/pkg/util/fsm"
	"github.com/autopeer-io/uvm/pkg/log"
)

// ErrAlreadyBooted is returned when a Stage is asked to hand off a second time.
var ErrAlreadyBooted = errors.New("boot: kernel entry already invoked")

// Boot diagnostics and prompt text.
const (
	MsgSerialInit  = "UVM: serial initialized\n"
	MsgDisplayInit = "UVM: vga initialized\n"
	MsgHeartbeat   = "UVM-BOOT: heartbeat\n"
	MsgHandoff     = "UVM: handing off to kernel\n"
	MsgPrompt      = "UVM: enter boot arg (or wait): "
	MsgGotInput    = "UVM: got input: "
	MsgNoInput     = "UVM: no input, continuing\n"
)

const (
	DefaultHeartbeats   = 6
	DefaultPromptBuffer = 64
)

// Entry is a kernel entry point. It is not expected to return.
type Entry func(ctx context.Context, p *hal.PlatformInfo) error

// DeviceFunc initializes the devices of the machine.
type DeviceFunc func(ctx context.Context) (*Devices, error)

// Result is what the boot stage learned before the handoff.
type Result struct {
	SessionID string
	// BootArgs is the operator's answer to the boot prompt, empty without input.
	BootArgs string
}

// Stage runs the boot sequence. It is single-use.
type Stage struct {
	sessionID string
	devices   DeviceFunc
	entry     Entry

	heartbeats   int
	delayTicks   uint64
	spinPerTick  int
	prompt       bool
	promptBuffer int
	delayer      hal.Delayer
	halt         func(context.Context)
	phaseHooks   []func(phase string)

	fsm     *fsm.FSM
	booted  atomic.Bool
	entered atomic.Bool

	mu       sync.Mutex
	dev      *Devices
	platform *hal.PlatformInfo
	result   Result
}

// Option configures a Stage.
type Option func(*Stage)

// WithSessionID fixes the session id instead of generating one.
func WithSessionID(id string) Option {
	return func(s *Stage) { s.sessionID = id }
}

// WithHeartbeats sets how many boot heartbeat lines are printed.
func WithHeartbeats(n int) Option {
	return func(s *Stage) { s.heartbeats = n }
}

// WithDelayTicks sets the pause after each boot heartbeat.
func WithDelayTicks(n uint64) Option {
	return func(s *Stage) { s.delayTicks = n }
}

// WithSpinPerTick sets the busy-wait length used when the platform has no timer.
func WithSpinPerTick(n int) Option {
	return func(s *Stage) { s.spinPerTick = n }
}

// WithPrompt enables the boot argument prompt with a buffer of size bytes.
func WithPrompt(enabled bool, size int) Option {
	return func(s *Stage) {
		s.prompt = enabled
		if size > 0 {
			s.promptBuffer = size
		}
	}
}

// WithDelayer replaces the delay derived from the platform timer.
func WithDelayer(d hal.Delayer) Option {
	return func(s *Stage) { s.delayer = d }
}

// WithHalt replaces the halt that follows a returning kernel entry.
func WithHalt(fn func(context.Context)) Option {
	return func(s *Stage) { s.halt = fn }
}

// WithPhaseHook calls fn on every phase entered.
func WithPhaseHook(fn func(phase string)) Option {
	return func(s *Stage) { s.phaseHooks = append(s.phaseHooks, fn) }
}

// NewStage returns a boot stage that initializes devices with devices and
// hands off to entry.
func NewStage(devices DeviceFunc, entry Entry, opts ...Option) *Stage {
	s := &Stage{
		sessionID:    uuid.NewString(),
		devices:      devices,
		entry:        entry,
		heartbeats:   DefaultHeartbeats,
		delayTicks:   1,
		spinPerTick:  hal.DefaultSpinPerTick,
		prompt:       true,
		promptBuffer: DefaultPromptBuffer,
		halt:         hal.Halt,
	}
	for _, o := range opts {
		o(s)
	}
	s.fsm = s.newPhaseMachine()
	return s
}

// SessionID identifies this boot.
func (s *Stage) SessionID() string { return s.sessionID }

// Phase returns the current boot phase.
func (s *Stage) Phase() string { return s.fsm.Current() }

// Platform returns the descriptor handed to the kernel, or nil before it is assembled.
func (s *Stage) Platform() *hal.PlatformInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.platform
}

// Entered reports whether the kernel entry point has been called.
func (s *Stage) Entered() bool { return s.entered.Load() }

// Result returns what was collected before the handoff.
func (s *Stage) Result() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Run boots the machine: devices, platform, diagnostics, prompt, then a single
// call into the kernel entry. If the entry returns, Run halts until ctx ends,
// releases the devices and returns. A second Run returns ErrAlreadyBooted
// without touching the kernel.
func (s *Stage) Run(ctx context.Context) (Result, error) {
	if !s.booted.CompareAndSwap(false, true) {
		return Result{}, ErrAlreadyBooted
	}
	logger := log.WithValues("session", s.sessionID)
	ctx = log.IntoContext(ctx, logger)

	events := []string{EventInitDevices, EventAssemble, EventDiagnose, EventPrompt, EventHandoff}
	if err := fsmutil.Sequence(ctx, s.fsm, events); err != nil {
		s.closeDevices()
		return s.Result(), fmt.Errorf("boot: %w", err)
	}

	logger.Info("Handing off to kernel")
	s.entered.Store(true)
	if err := s.entry(ctx, s.platform); err != nil {
		logger.Error(err, "Kernel entry failed")
	}

	if ctx.Err() != nil {
		logger.Info("Powered off")
	} else {
		logger.Warn("Kernel entry returned, halting")
	}
	if err := s.fsm.Event(ctx, EventHalt); err != nil {
		logger.Error(err, "Failed to enter halted phase")
	}
	s.halt(ctx)

	s.closeDevices()
	return s.Result(), nil
}

func (s *Stage) closeDevices() {
	if s.dev == nil {
		return
	}
	if err := s.dev.Close(); err != nil {
		log.Error(err, "Failed to release devices")
	}
}

func (s *Stage) enterDevices(ctx context.Context, _ *fsm.Event) error {
	dev, err := s.devices(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize devices: %w", err)
	}
	if dev == nil {
		dev = &Devices{}
	}
	s.dev = dev
	return nil
}

func (s *Stage) enterPlatform(_ context.Context, _ *fsm.Event) error {
	platform := s.dev.Platform()
	s.mu.Lock()
	s.platform = platform
	s.mu.Unlock()

	for _, info := range platform.Describe() {
		present := 0.0
		if info.Present {
			present = 1
		}
		metrics.CapabilityPresent.WithLabelValues(info.Slot).Set(present)
		log.Info("Platform capability", "slot", info.Slot, "present", info.Present,
			"backend", info.Backend, "operations", info.Operations)
	}

	s.mu.Lock()
	s.result.SessionID = s.sessionID
	s.mu.Unlock()
	return nil
}

// enterDiagnostics prints the boot banner lines. Without any console it does nothing.
func (s *Stage) enterDiagnostics(_ context.Context, _ *fsm.Event) error {
	primary, display := s.dev.Console, s.dev.Display
	if primary == nil && display == nil {
		return nil
	}

	if primary != nil {
		primary.WriteStr(MsgSerialInit)
	}
	if display != nil {
		display.WriteStr(MsgDisplayInit)
	}

	all := fanOut(primary, display)
	delayer := s.delayer
	if delayer == nil {
		delayer = observe.Delayer(hal.NewDelayer(s.platform.Timer(), s.spinPerTick), "boot")
	}
	for i := 0; i < s.heartbeats; i++ {
		all.WriteStr(MsgHeartbeat)
		delayer.Delay(s.delayTicks)
	}

	if primary != nil {
		primary.WriteStr(MsgHandoff)
	}
	return nil
}

// enterPrompt asks for one boot argument line. No input is a normal outcome.
func (s *Stage) enterPrompt(_ context.Context, _ *fsm.Event) error {
	c, ok := s.platform.Console().Get()
	if !ok || !s.prompt {
		return nil
	}

	c.WriteStr(MsgPrompt)
	line := make([]byte, s.promptBuffer)
	if n := c.ReadLine(line); n > 0 {
		args := string(line[:n])
		c.WriteStr(MsgGotInput)
		c.WriteStr(args)
		c.WriteStr("\n")

		s.mu.Lock()
		s.result.BootArgs = args
		s.mu.Unlock()
		log.Info("Boot argument received", "args", args)
		return nil
	}

	c.WriteStr(MsgNoInput)
	return nil
}

func fanOut(primary, display hal.Console) hal.Console {
	switch {
	case primary == nil:
		return display
	case display == nil:
		return primary
	default:
		return console.NewTee(primary, display)
	}
}
