// Package observe wraps capabilities so their use shows up in metrics.
package observe

import (
	"errors"
	"time"

	"github.com/autopeer-io/uvm/internal/hal"
	"github.com/autopeer-io/uvm/internal/pkg/metrics"
)

// Console counts the bytes going through c.
func Console(c hal.Console) hal.Console {
	if c == nil {
		return nil
	}
	return &meteredConsole{Console: c}
}

type meteredConsole struct {
	hal.Console
}

func (c *meteredConsole) String() string { return name(c.Console) }

func (c *meteredConsole) WriteStr(s string) {
	metrics.ConsoleBytesTotal.WithLabelValues("out").Add(float64(len(hal.TrimNUL(s))))
	c.Console.WriteStr(s)
}

func (c *meteredConsole) ReadLine(buf []byte) int {
	n := c.Console.ReadLine(buf)
	metrics.ConsoleBytesTotal.WithLabelValues("in").Add(float64(n))
	return n
}

// Disk counts and times every sector transfer on d. The sector size of d is kept.
func Disk(d hal.BlockDevice) hal.BlockDevice {
	if d == nil {
		return nil
	}
	return &meteredDisk{BlockDevice: d}
}

type meteredDisk struct {
	hal.BlockDevice
}

func (d *meteredDisk) String() string  { return name(d.BlockDevice) }
func (d *meteredDisk) SectorSize() int { return hal.SectorSizeOf(d.BlockDevice) }

func (d *meteredDisk) ReadSector(lba uint64, buf []byte) error {
	start := time.Now()
	err := d.BlockDevice.ReadSector(lba, buf)
	record("read", start, err)
	return err
}

func (d *meteredDisk) WriteSector(lba uint64, buf []byte) error {
	start := time.Now()
	err := d.BlockDevice.WriteSector(lba, buf)
	record("write", start, err)
	return err
}

func record(op string, start time.Time, err error) {
	metrics.SectorOpLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	metrics.SectorOpsTotal.WithLabelValues(op, Result(err)).Inc()
}

// Result names the outcome of a block I/O request for metric labels.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, hal.ErrNotReadable):
		return "not_readable"
	case errors.Is(err, hal.ErrNotWritable):
		return "not_writable"
	case errors.Is(err, hal.ErrNoBuffer):
		return "no_buffer"
	case errors.Is(err, hal.ErrOutOfRange):
		return "out_of_range"
	default:
		return "io_error"
	}
}

// Delayer counts the ticks waited by stage.
func Delayer(d hal.Delayer, stage string) hal.Delayer {
	return hal.DelayFunc(func(ticks uint64) {
		metrics.DelayTicksTotal.WithLabelValues(stage).Add(float64(ticks))
		d.Delay(ticks)
	})
}

func name(v any) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return "unnamed"
}
