// Package hal defines the hardware abstraction layer shared by the boot and kernel stages.
//
// A capability is one interface bundle representing a single class of hardware
// service. Concrete backends live in the sub-packages (console, disk, timer, irq)
// and are interchangeable: kernel code only ever sees the interfaces below,
// reached through a PlatformInfo.
package hal

import "fmt"

// SectorSize is the default unit of all block I/O, in bytes.
const SectorSize = 512

// Console is a text input/output device.
// Implementations are not safe for concurrent use.
type Console interface {
	// WriteStr emits s up to its first NUL byte. It is best effort; failures are
	// not observable by the caller.
	WriteStr(s string)

	// ReadLine blocks until a line terminator arrives or len(buf)-1 bytes have
	// been consumed, then NUL-terminates buf. It returns the line length, or 0
	// when no input is available or input is unsupported.
	ReadLine(buf []byte) int
}

// BlockDevice reads and writes single logical blocks.
// Implementations never transfer more than one sector, whatever len(buf) is.
type BlockDevice interface {
	// ReadSector fills buf with the block at lba. It returns nil on success or
	// one of the sentinel errors of this package.
	ReadSector(lba uint64, buf []byte) error

	// WriteSector stores buf as the block at lba. Read-only backends always
	// return ErrNotWritable.
	WriteSector(lba uint64, buf []byte) error
}

// SectorSizer is implemented by block devices whose sector is not SectorSize bytes.
type SectorSizer interface {
	SectorSize() int
}

// Timer is a time source. Both of its operations are optional: a backend
// implements PeriodicTimer and/or TickTimer only for what it supports.
type Timer interface {
	fmt.Stringer
}

// PeriodicTimer can program a periodic interval. ms == 0 disables it.
type PeriodicTimer interface {
	Timer
	SetPeriodic(ms uint32)
}

// TickTimer exposes a monotonic tick counter.
type TickTimer interface {
	Timer
	Ticks() uint64
}

// IrqController masks and unmasks numbered interrupt lines. It is a shape
// only: nothing in this module delivers interrupts.
type IrqController interface {
	fmt.Stringer
}

// IrqEnabler unmasks an interrupt line.
type IrqEnabler interface {
	IrqController
	EnableIRQ(irq uint)
}

// IrqDisabler masks an interrupt line.
type IrqDisabler interface {
	IrqController
	DisableIRQ(irq uint)
}

// SetPeriodic programs t when it supports periodic intervals and reports
// whether it did.
func SetPeriodic(t Timer, ms uint32) bool {
	pt, ok := t.(PeriodicTimer)
	if !ok {
		return false
	}
	pt.SetPeriodic(ms)
	return true
}

// Ticks reads the tick counter of t, if it has one.
func Ticks(t Timer) (uint64, bool) {
	tt, ok := t.(TickTimer)
	if !ok {
		return 0, false
	}
	return tt.Ticks(), true
}

// EnableIRQ unmasks irq on c when c supports it.
func EnableIRQ(c IrqController, irq uint) bool {
	e, ok := c.(IrqEnabler)
	if !ok {
		return false
	}
	e.EnableIRQ(irq)
	return true
}

// DisableIRQ masks irq on c when c supports it.
func DisableIRQ(c IrqController, irq uint) bool {
	d, ok := c.(IrqDisabler)
	if !ok {
		return false
	}
	d.DisableIRQ(irq)
	return true
}

// SectorSizeOf returns the sector size of d.
func SectorSizeOf(d BlockDevice) int {
	if s, ok := d.(SectorSizer); ok && s.SectorSize() > 0 {
		return s.SectorSize()
	}
	return SectorSize
}

// Clamp limits buf to one sector of the given size.
func Clamp(buf []byte, sectorSize int) []byte {
	if len(buf) > sectorSize {
		return buf[:sectorSize]
	}
	return buf
}
