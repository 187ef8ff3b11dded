package kernel

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/uvm/internal/hal"
	"github.com/autopeer-io/uvm/internal/hal/haltest"
)

// run executes a kernel whose idle phase returns immediately.
func run(t *testing.T, p *hal.PlatformInfo, opts ...Option) (*Kernel, *haltest.Delayer) {
	t.Helper()
	d := &haltest.Delayer{}
	halted := 0
	opts = append([]Option{WithDelayer(d), WithHalt(func(context.Context) { halted++ })}, opts...)
	k := New(opts...)

	require.NoError(t, k.Main(context.Background(), p))
	assert.Equal(t, 1, halted)
	assert.Equal(t, PhaseIdle, k.Phase())
	return k, d
}

func heartbeat() string {
	round := MsgRoundMarker + strings.Repeat(MsgProgress, TicksPerRound) + "\n"
	return strings.Repeat(round, HeartbeatRounds) + MsgHeartbeatDone
}

func TestMainDumpsSectorZero(t *testing.T) {
	c := haltest.NewConsole()
	disk := haltest.NewCountingDisk()
	run(t, hal.NewPlatformInfo(hal.WithConsole(c), hal.WithDisk(disk)))

	var dump strings.Builder
	for i := 0; i < DumpBytes; i++ {
		fmt.Fprintf(&dump, "0x%02X\n", i)
	}
	assert.Equal(t, MsgBanner+MsgSectorHeader+dump.String()+heartbeat(), c.Output())

	require.Len(t, disk.Calls, 1)
	assert.Equal(t, haltest.SectorCall{Op: "read", LBA: 0, Size: hal.SectorSize}, disk.Calls[0])
}

func TestMainHexDumpLines(t *testing.T) {
	c := haltest.NewConsole()
	run(t, hal.NewPlatformInfo(hal.WithConsole(c), hal.WithDisk(haltest.NewCountingDisk())))

	writes := c.Writes()
	start := 2
	lines := writes[start : start+DumpBytes]
	assert.Equal(t, "0x00\n", lines[0])
	assert.Equal(t, "0x0A\n", lines[10])
	assert.Equal(t, "0x0F\n", lines[15])
	assert.Equal(t, MsgRoundMarker, writes[start+DumpBytes])
}

func TestMainReadFailed(t *testing.T) {
	c := haltest.NewConsole()
	disk := haltest.NewFailingDisk(hal.ErrNotReadable)
	run(t, hal.NewPlatformInfo(hal.WithConsole(c), hal.WithDisk(disk)))

	assert.Equal(t, MsgBanner+MsgReadFailed+heartbeat(), c.Output())
	assert.Len(t, disk.Reads(), 1)
	assert.NotContains(t, c.Output(), "0x")
}

func TestMainNoDisk(t *testing.T) {
	c := haltest.NewConsole()
	run(t, hal.NewPlatformInfo(hal.WithConsole(c)))

	assert.Equal(t, MsgBanner+MsgNoDisk+heartbeat(), c.Output())
}

func TestMainReadsDiskWithoutConsole(t *testing.T) {
	disk := haltest.NewCountingDisk()
	_, d := run(t, hal.NewPlatformInfo(hal.WithDisk(disk)))

	assert.Len(t, disk.Reads(), 1)
	assert.Empty(t, d.Calls, "no heartbeat without a console")
}

func TestMainHeartbeatDelays(t *testing.T) {
	c := haltest.NewConsole()
	_, d := run(t, hal.NewPlatformInfo(hal.WithConsole(c)), WithDelayTicks(5))

	assert.Len(t, d.Calls, HeartbeatRounds*TicksPerRound)
	assert.Equal(t, uint64(5*HeartbeatRounds*TicksPerRound), d.Total())
	assert.Equal(t, HeartbeatRounds, strings.Count(c.Output(), MsgRoundMarker))
	assert.Equal(t, 1, strings.Count(c.Output(), MsgHeartbeatDone))
}

type tickOnly struct{ n uint64 }

func (t *tickOnly) String() string { return "tick-only" }
func (t *tickOnly) Ticks() uint64  { t.n++; return t.n }

type fixedIrq struct{}

func (fixedIrq) String() string { return "fixed" }

func TestMainEveryCapabilityCombination(t *testing.T) {
	for mask := 0; mask < 1<<5; mask++ {
		t.Run(fmt.Sprintf("mask=%05b", mask), func(t *testing.T) {
			var (
				opts []hal.PlatformOption
				c    *haltest.Console
				disk *haltest.Disk
			)
			if mask&1 != 0 {
				c = haltest.NewConsole()
				opts = append(opts, hal.WithConsole(c))
			}
			if mask&2 != 0 {
				disk = haltest.NewCountingDisk()
				if mask&16 != 0 {
					disk = haltest.NewFailingDisk(hal.ErrIO)
				}
				opts = append(opts, hal.WithDisk(disk))
			}
			if mask&4 != 0 {
				opts = append(opts, hal.WithTimer(&tickOnly{}))
			}
			if mask&8 != 0 {
				opts = append(opts, hal.WithIrqController(fixedIrq{}))
			}

			run(t, hal.NewPlatformInfo(opts...))

			if disk != nil {
				assert.Len(t, disk.Reads(), 1)
			}
			if c == nil {
				return
			}
			out := c.Output()
			branches := 0
			for _, msg := range []string{MsgNoDisk, MsgReadFailed, MsgSectorHeader} {
				branches += strings.Count(out, msg)
			}
			assert.Equal(t, 1, branches)
			assert.True(t, strings.HasSuffix(out, heartbeat()))
		})
	}
}

func TestMainRunsOnce(t *testing.T) {
	k, _ := run(t, hal.NewPlatformInfo())

	err := k.Main(context.Background(), hal.NewPlatformInfo())
	assert.Error(t, err)
	assert.Equal(t, PhaseIdle, k.Phase())
}

func TestMainNilPlatform(t *testing.T) {
	run(t, nil)
}

func TestMainUsesPlatformTimer(t *testing.T) {
	c := haltest.NewConsole()
	timer := &tickOnly{}
	k := New(WithHalt(func(context.Context) {}), WithDelayTicks(2))

	require.NoError(t, k.Main(context.Background(), hal.NewPlatformInfo(hal.WithConsole(c), hal.WithTimer(timer))))
	assert.GreaterOrEqual(t, timer.n, uint64(2*HeartbeatRounds*TicksPerRound))
}

func TestMainIdlesUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	k := New(WithDelayer(&haltest.Delayer{}))
	go func() { done <- k.Main(ctx, hal.NewPlatformInfo()) }()

	assert.Eventually(t, func() bool { return k.Phase() == PhaseIdle }, time.Second, time.Millisecond)
	select {
	case <-done:
		t.Fatal("kernel returned before power-off")
	default:
	}
	cancel()
	assert.NoError(t, <-done)
}
