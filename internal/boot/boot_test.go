package boot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/uvm/internal/hal"
	"github.com/autopeer-io/uvm/internal/hal/haltest"
)

type entryRecorder struct {
	mu        sync.Mutex
	calls     int
	platforms []*hal.PlatformInfo
	err       error
}

func (r *entryRecorder) entry(_ context.Context, p *hal.PlatformInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.platforms = append(r.platforms, p)
	return r.err
}

func staticDevices(d *Devices) DeviceFunc {
	return func(context.Context) (*Devices, error) { return d, nil }
}

type closeCounter struct{ n int }

func (c *closeCounter) Close() error { c.n++; return nil }

func newTestStage(d *Devices, rec *entryRecorder, opts ...Option) (*Stage, *haltest.Delayer, *int) {
	delayer := &haltest.Delayer{}
	halts := 0
	base := []Option{
		WithSessionID("test-session"),
		WithDelayer(delayer),
		WithHalt(func(context.Context) { halts++ }),
	}
	return NewStage(staticDevices(d), rec.entry, append(base, opts...)...), delayer, &halts
}

func TestRunHandsOffOnce(t *testing.T) {
	c := haltest.NewConsole("root=/dev/vda")
	disk := haltest.NewCountingDisk()
	rec := &entryRecorder{}
	s, delayer, halts := newTestStage(&Devices{Console: c, Disk: disk}, rec)

	res, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, 1, *halts, "a returning kernel entry halts the machine")
	assert.Equal(t, PhaseHalted, s.Phase())
	assert.True(t, s.Entered())
	assert.Equal(t, Result{SessionID: "test-session", BootArgs: "root=/dev/vda"}, res)

	p := rec.platforms[0]
	got, ok := p.Console().Get()
	require.True(t, ok)
	assert.Same(t, c, got)
	assert.True(t, p.Disk().Present())
	assert.False(t, p.Timer().Present())
	assert.False(t, p.IrqController().Present())
	assert.Empty(t, disk.Calls, "boot never touches the disk")

	assert.Len(t, delayer.Calls, DefaultHeartbeats)

	_, err = s.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyBooted)
	assert.Equal(t, 1, rec.calls)
}

func TestRunOutput(t *testing.T) {
	c := haltest.NewConsole()
	s, _, _ := newTestStage(&Devices{Console: c}, &entryRecorder{}, WithHeartbeats(2))

	res, err := s.Run(context.Background())
	require.NoError(t, err)

	want := MsgSerialInit +
		MsgHeartbeat + MsgHeartbeat +
		MsgHandoff +
		MsgPrompt + MsgNoInput
	assert.Equal(t, want, c.Output())
	assert.Empty(t, res.BootArgs)
	assert.Equal(t, 1, c.ReadCalls)
}

func TestRunEchoesBootArgs(t *testing.T) {
	c := haltest.NewConsole("quiet")
	s, _, _ := newTestStage(&Devices{Console: c}, &entryRecorder{}, WithHeartbeats(0))

	_, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(c.Output(), MsgPrompt+MsgGotInput+"quiet\n"))
}

func TestRunPromptBufferBound(t *testing.T) {
	c := haltest.NewConsole(strings.Repeat("x", 100))
	s, _, _ := newTestStage(&Devices{Console: c}, &entryRecorder{}, WithPrompt(true, 8))

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "xxxxxxx", res.BootArgs)
}

func TestRunPromptDisabled(t *testing.T) {
	c := haltest.NewConsole("ignored")
	s, _, _ := newTestStage(&Devices{Console: c}, &entryRecorder{}, WithPrompt(false, 0))

	_, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, c.ReadCalls)
	assert.NotContains(t, c.Output(), MsgPrompt)
}

func TestRunMirrorsToDisplay(t *testing.T) {
	c := haltest.NewConsole()
	display := haltest.NewConsole("never read")
	rec := &entryRecorder{}
	s, _, _ := newTestStage(&Devices{Console: c, Display: display}, rec, WithHeartbeats(3))

	_, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, MsgDisplayInit+strings.Repeat(MsgHeartbeat, 3), display.Output())
	assert.Equal(t, 3, strings.Count(c.Output(), MsgHeartbeat))
	assert.NotContains(t, c.Output(), MsgDisplayInit)
	assert.Equal(t, 0, display.ReadCalls)

	got, _ := rec.platforms[0].Console().Get()
	assert.Same(t, c, got, "the display is not handed to the kernel")
}

func TestRunWithoutConsole(t *testing.T) {
	rec := &entryRecorder{}
	s, delayer, halts := newTestStage(&Devices{}, rec)

	res, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, 1, *halts)
	assert.Empty(t, delayer.Calls)
	assert.Empty(t, res.BootArgs)
	assert.False(t, rec.platforms[0].Console().Present())
}

func TestRunNilDevices(t *testing.T) {
	rec := &entryRecorder{}
	s := NewStage(func(context.Context) (*Devices, error) { return nil, nil }, rec.entry,
		WithHalt(func(context.Context) {}))

	_, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rec.calls)
}

func TestRunDeviceFailure(t *testing.T) {
	rec := &entryRecorder{}
	boom := errors.New("no bus")
	s := NewStage(func(context.Context) (*Devices, error) { return nil, boom }, rec.entry,
		WithHalt(func(context.Context) {}))

	_, err := s.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, rec.calls)

	_, err = s.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyBooted)
}

func TestRunEntryErrorStillHalts(t *testing.T) {
	rec := &entryRecorder{err: errors.New("kernel panic")}
	closer := &closeCounter{}
	d := &Devices{}
	d.OnClose(closer)
	s, _, halts := newTestStage(d, rec)

	_, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, *halts)
	assert.Equal(t, 1, closer.n)
}

func TestRunPhaseHooks(t *testing.T) {
	var phases, devicePhases []string
	d := &Devices{}
	d.OnPhase(func(p string) { devicePhases = append(devicePhases, p) })
	s, _, _ := newTestStage(d, &entryRecorder{}, WithPhaseHook(func(p string) { phases = append(phases, p) }))

	_, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{PhaseDevices, PhasePlatform, PhaseDiagnostics, PhasePrompt, PhaseHandoff, PhaseHalted}, phases)
	assert.Equal(t, phases, devicePhases)
}

func TestRunConcurrentCallsHandOffOnce(t *testing.T) {
	rec := &entryRecorder{}
	s := NewStage(staticDevices(&Devices{}), rec.entry, WithHalt(func(context.Context) {}))

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Run(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	already := 0
	for err := range errs {
		if errors.Is(err, ErrAlreadyBooted) {
			already++
		}
	}
	assert.Equal(t, 7, already)
	assert.Equal(t, 1, rec.calls)
}

func TestDevicesPlatform(t *testing.T) {
	d := &Devices{MMIO: []uint64{0xFEC00000}}
	p := d.Platform()

	assert.False(t, p.Console().Present())
	assert.False(t, p.Disk().Present())
	assert.Equal(t, []uint64{0xFEC00000}, p.MMIO())
	assert.Nil(t, p.PCI())
}
