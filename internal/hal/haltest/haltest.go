// Package haltest provides substitute capability backends for tests. They
// record every call so tests can assert on how kernel and boot code used them.
package haltest

import (
	"strings"

	"github.com/autopeer-io/uvm/internal/hal"
)

var (
	_ hal.Console     = (*Console)(nil)
	_ hal.BlockDevice = (*Disk)(nil)
	_ hal.Delayer     = (*Delayer)(nil)
)

// Console records output and replays scripted input lines.
type Console struct {
	out    strings.Builder
	writes []string
	lines  []string

	// ReadCalls counts ReadLine invocations.
	ReadCalls int
}

// NewConsole returns a Console that answers ReadLine with lines, in order.
// Once they run out ReadLine returns 0.
func NewConsole(lines ...string) *Console {
	return &Console{lines: lines}
}

func (c *Console) WriteStr(s string) {
	s = hal.TrimNUL(s)
	c.writes = append(c.writes, s)
	c.out.WriteString(s)
}

func (c *Console) ReadLine(buf []byte) int {
	c.ReadCalls++
	if len(c.lines) == 0 || len(buf) == 0 {
		return hal.Terminate(buf, 0)
	}
	line := c.lines[0]
	c.lines = c.lines[1:]
	n := copy(buf[:len(buf)-1], line)
	return hal.Terminate(buf, n)
}

// Output returns everything written so far.
func (c *Console) Output() string { return c.out.String() }

// Writes returns each WriteStr payload in call order.
func (c *Console) Writes() []string { return c.writes }

func (c *Console) String() string { return "haltest-console" }

// SectorCall is one recorded block I/O request.
type SectorCall struct {
	Op   string
	LBA  uint64
	Size int
}

// Disk is a block device whose read result is fixed by the test.
type Disk struct {
	// Data is copied into the caller buffer on a successful read.
	Data []byte
	// ReadErr, when set, fails every read.
	ReadErr error
	// WriteErr, when set, fails every write.
	WriteErr error

	Calls []SectorCall
}

// NewCountingDisk returns a Disk whose sector holds 0x00, 0x01, 0x02, ...
func NewCountingDisk() *Disk {
	data := make([]byte, hal.SectorSize)
	for i := range data {
		data[i] = byte(i)
	}
	return &Disk{Data: data}
}

// NewFailingDisk returns a Disk whose reads fail with err.
func NewFailingDisk(err error) *Disk {
	return &Disk{ReadErr: err, WriteErr: err}
}

func (d *Disk) ReadSector(lba uint64, buf []byte) error {
	d.Calls = append(d.Calls, SectorCall{Op: "read", LBA: lba, Size: len(buf)})
	if d.ReadErr != nil {
		return d.ReadErr
	}
	if buf == nil {
		return hal.ErrNoBuffer
	}
	copy(hal.Clamp(buf, hal.SectorSize), d.Data)
	return nil
}

func (d *Disk) WriteSector(lba uint64, buf []byte) error {
	d.Calls = append(d.Calls, SectorCall{Op: "write", LBA: lba, Size: len(buf)})
	if d.WriteErr != nil {
		return d.WriteErr
	}
	d.Data = append(d.Data[:0], hal.Clamp(buf, hal.SectorSize)...)
	return nil
}

// Reads returns the recorded read calls.
func (d *Disk) Reads() []SectorCall {
	var out []SectorCall
	for _, c := range d.Calls {
		if c.Op == "read" {
			out = append(out, c)
		}
	}
	return out
}

// Delayer counts requested ticks instead of waiting.
type Delayer struct {
	Calls []uint64
}

func (d *Delayer) Delay(ticks uint64) { d.Calls = append(d.Calls, ticks) }

// Total is the number of ticks requested so far.
func (d *Delayer) Total() uint64 {
	var n uint64
	for _, t := range d.Calls {
		n += t
	}
	return n
}
