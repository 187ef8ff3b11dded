package disk

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/autopeer-io/uvm/internal/hal"
	"github.com/autopeer-io/uvm/pkg/log"
)

var (
	_ hal.BlockDevice = (*File)(nil)
	_ hal.SectorSizer = (*File)(nil)
)

// File is a block device backed by a raw disk image.
type File struct {
	f          *os.File
	path       string
	sectorSize int
	sectors    uint64
	readOnly   bool
}

// OpenFile opens the image at path. Trailing bytes that do not fill a whole
// sector are not addressable.
func OpenFile(path string, sectorSize int, readOnly bool) (*File, error) {
	flag := os.O_RDWR
	if readOnly {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open disk image: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat disk image: %w", err)
	}

	sectorSize = normalize(sectorSize)
	return &File{
		f:          f,
		path:       path,
		sectorSize: sectorSize,
		sectors:    uint64(fi.Size()) / uint64(sectorSize),
		readOnly:   readOnly,
	}, nil
}

func (d *File) String() string  { return "file:" + d.path }
func (d *File) SectorSize() int { return d.sectorSize }

// Sectors returns the number of whole sectors in the image.
func (d *File) Sectors() uint64 { return d.sectors }

func (d *File) ReadSector(lba uint64, buf []byte) error {
	if buf == nil {
		return hal.ErrNoBuffer
	}
	if lba >= d.sectors {
		return hal.ErrOutOfRange
	}
	if _, err := d.f.ReadAt(hal.Clamp(buf, d.sectorSize), d.offset(lba)); err != nil && !errors.Is(err, io.EOF) {
		log.Error(err, "Disk image read failed", "path", d.path, "lba", lba)
		return hal.ErrNotReadable
	}
	return nil
}

func (d *File) WriteSector(lba uint64, buf []byte) error {
	if d.readOnly {
		return hal.ErrNotWritable
	}
	if buf == nil {
		return hal.ErrNoBuffer
	}
	if lba >= d.sectors {
		return hal.ErrOutOfRange
	}
	if _, err := d.f.WriteAt(hal.Clamp(buf, d.sectorSize), d.offset(lba)); err != nil {
		log.Error(err, "Disk image write failed", "path", d.path, "lba", lba)
		return hal.ErrIO
	}
	return nil
}

// Close releases the image file.
func (d *File) Close() error {
	return d.f.Close()
}

func (d *File) offset(lba uint64) int64 {
	return int64(lba) * int64(d.sectorSize)
}
