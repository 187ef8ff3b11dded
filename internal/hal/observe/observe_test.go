package observe

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/uvm/internal/hal"
	"github.com/autopeer-io/uvm/internal/hal/disk"
	"github.com/autopeer-io/uvm/internal/hal/haltest"
	"github.com/autopeer-io/uvm/internal/pkg/metrics"
)

func TestConsoleCountsBytes(t *testing.T) {
	out := testutil.ToFloat64(metrics.ConsoleBytesTotal.WithLabelValues("out"))
	in := testutil.ToFloat64(metrics.ConsoleBytesTotal.WithLabelValues("in"))

	inner := haltest.NewConsole("root")
	c := Console(inner)
	c.WriteStr("hello\x00world")
	c.ReadLine(make([]byte, 8))

	assert.Equal(t, "hello", inner.Output())
	assert.Equal(t, out+5, testutil.ToFloat64(metrics.ConsoleBytesTotal.WithLabelValues("out")))
	assert.Equal(t, in+4, testutil.ToFloat64(metrics.ConsoleBytesTotal.WithLabelValues("in")))
	assert.Equal(t, "haltest-console", c.(interface{ String() string }).String())
}

func TestDiskCountsResults(t *testing.T) {
	ok := testutil.ToFloat64(metrics.SectorOpsTotal.WithLabelValues("read", "ok"))
	denied := testutil.ToFloat64(metrics.SectorOpsTotal.WithLabelValues("write", "not_writable"))

	d := Disk(disk.NewPattern(256))
	assert.Equal(t, 256, hal.SectorSizeOf(d))

	require.NoError(t, d.ReadSector(0, make([]byte, 256)))
	assert.ErrorIs(t, d.WriteSector(0, make([]byte, 256)), hal.ErrNotWritable)

	assert.Equal(t, ok+1, testutil.ToFloat64(metrics.SectorOpsTotal.WithLabelValues("read", "ok")))
	assert.Equal(t, denied+1, testutil.ToFloat64(metrics.SectorOpsTotal.WithLabelValues("write", "not_writable")))
}

func TestNilCapabilitiesStayAbsent(t *testing.T) {
	assert.Nil(t, Console(nil))
	assert.Nil(t, Disk(nil))
	assert.False(t, hal.Some(Console(nil)).Present())
}

func TestDelayerForwards(t *testing.T) {
	inner := &haltest.Delayer{}
	before := testutil.ToFloat64(metrics.DelayTicksTotal.WithLabelValues("kernel"))

	Delayer(inner, "kernel").Delay(3)

	assert.Equal(t, []uint64{3}, inner.Calls)
	assert.Equal(t, before+3, testutil.ToFloat64(metrics.DelayTicksTotal.WithLabelValues("kernel")))
}

func TestResultLabels(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{hal.ErrNotReadable, "not_readable"},
		{fmt.Errorf("object get: %w", hal.ErrNotWritable), "not_writable"},
		{hal.ErrNoBuffer, "no_buffer"},
		{hal.ErrOutOfRange, "out_of_range"},
		{hal.ErrIO, "io_error"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Result(tt.err))
		})
	}
}

func TestDiskKeepsBackendName(t *testing.T) {
	d := Disk(disk.NewRAM(4, 0))
	assert.Equal(t, "ram", d.(interface{ String() string }).String())
	assert.Equal(t, hal.SectorSize, hal.SectorSizeOf(d))
}
