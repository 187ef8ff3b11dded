// Package disk implements BlockDevice backends: a synthetic pattern memdisk,
// a RAM disk, a disk image file and an object-store disk.
package disk

import "github.com/autopeer-io/uvm/internal/hal"

func normalize(sectorSize int) int {
	if sectorSize <= 0 {
		return hal.SectorSize
	}
	return sectorSize
}

var (
	_ hal.BlockDevice = (*Pattern)(nil)
	_ hal.SectorSizer = (*Pattern)(nil)
)

// Pattern is a read-only memdisk whose byte i of sector lba is (lba+i) mod 256.
// It needs no backing storage, which makes it the default boot disk.
type Pattern struct {
	sectorSize int
}

// NewPattern returns a pattern disk. A non-positive sectorSize selects hal.SectorSize.
func NewPattern(sectorSize int) *Pattern {
	return &Pattern{sectorSize: normalize(sectorSize)}
}

func (p *Pattern) String() string  { return "pattern" }
func (p *Pattern) SectorSize() int { return p.sectorSize }

func (p *Pattern) ReadSector(lba uint64, buf []byte) error {
	if buf == nil {
		return hal.ErrNoBuffer
	}
	for i := range hal.Clamp(buf, p.sectorSize) {
		buf[i] = byte((lba + uint64(i)) & 0xFF)
	}
	return nil
}

func (p *Pattern) WriteSector(uint64, []byte) error {
	return hal.ErrNotWritable
}

var (
	_ hal.BlockDevice = (*RAM)(nil)
	_ hal.SectorSizer = (*RAM)(nil)
)

// RAM is a zero-filled volatile disk of a fixed number of sectors.
type RAM struct {
	sectorSize int
	data       [][]byte
}

// NewRAM allocates a RAM disk of the given number of sectors.
func NewRAM(sectors uint64, sectorSize int) *RAM {
	r := &RAM{sectorSize: normalize(sectorSize), data: make([][]byte, sectors)}
	for i := range r.data {
		r.data[i] = make([]byte, r.sectorSize)
	}
	return r
}

func (r *RAM) String() string  { return "ram" }
func (r *RAM) SectorSize() int { return r.sectorSize }

// Sectors returns the capacity of the disk.
func (r *RAM) Sectors() uint64 { return uint64(len(r.data)) }

func (r *RAM) ReadSector(lba uint64, buf []byte) error {
	if buf == nil {
		return hal.ErrNoBuffer
	}
	if lba >= r.Sectors() {
		return hal.ErrOutOfRange
	}
	copy(hal.Clamp(buf, r.sectorSize), r.data[lba])
	return nil
}

// WriteSector replaces the leading len(buf) bytes of the sector.
func (r *RAM) WriteSector(lba uint64, buf []byte) error {
	if buf == nil {
		return hal.ErrNoBuffer
	}
	if lba >= r.Sectors() {
		return hal.ErrOutOfRange
	}
	copy(r.data[lba], hal.Clamp(buf, r.sectorSize))
	return nil
}
