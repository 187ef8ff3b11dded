package options

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// Block device backends.
const (
	DiskPattern = "pattern"
	DiskRAM     = "ram"
	DiskFile    = "file"
	DiskObject  = "object"
	DiskNone    = "none"
)

var _ IOptions = (*DiskOptions)(nil)

// DiskOptions selects and configures the BlockDevice capability.
type DiskOptions struct {
	// Kind is one of pattern, ram, file, object or none.
	Kind string `json:"kind" mapstructure:"kind"`

	// SectorSize is the transfer unit of the disk in bytes.
	SectorSize int `json:"sector-size" mapstructure:"sector-size"`

	// Sectors is the capacity of a ram disk, or the addressable range of an
	// object disk (0 = unbounded).
	Sectors uint64 `json:"sectors" mapstructure:"sectors"`

	// Path is the image file of a file disk.
	Path string `json:"path" mapstructure:"path"`

	// Prefix namespaces the sector objects of an object disk.
	Prefix string `json:"prefix" mapstructure:"prefix"`

	ReadOnly bool          `json:"read-only" mapstructure:"read-only"`
	Timeout  time.Duration `json:"timeout" mapstructure:"timeout"`
}

// NewDiskOptions returns DiskOptions with default values.
func NewDiskOptions() *DiskOptions {
	return &DiskOptions{
		Kind:       DiskPattern,
		SectorSize: 512,
		Sectors:    2048,
		Prefix:     "disks/default",
		Timeout:    10 * time.Second,
	}
}

func (o *DiskOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}
	if err := validateKind("disk.kind", o.Kind, DiskPattern, DiskRAM, DiskFile, DiskObject, DiskNone); err != nil {
		errs = append(errs, err)
	}
	if o.SectorSize < 16 || o.SectorSize > 4096 || o.SectorSize&(o.SectorSize-1) != 0 {
		errs = append(errs, fmt.Errorf("--disk.sector-size must be a power of two between 16 and 4096, got %d", o.SectorSize))
	}
	if o.Kind == DiskFile && o.Path == "" {
		errs = append(errs, errors.New("--disk.path is required for a file disk"))
	}
	if o.Kind == DiskRAM && o.Sectors == 0 {
		errs = append(errs, errors.New("--disk.sectors must be positive for a ram disk"))
	}
	return errs
}

func (o *DiskOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Kind, "disk.kind", o.Kind, "Block device backend: pattern, ram, file, object or none.")
	fs.IntVar(&o.SectorSize, "disk.sector-size", o.SectorSize, "Sector size in bytes.")
	fs.Uint64Var(&o.Sectors, "disk.sectors", o.Sectors, "Capacity of a ram disk, or addressable sectors of an object disk (0 = unbounded).")
	fs.StringVar(&o.Path, "disk.path", o.Path, "Disk image for the file backend.")
	fs.StringVar(&o.Prefix, "disk.prefix", o.Prefix, "Object key prefix for the object backend.")
	fs.BoolVar(&o.ReadOnly, "disk.read-only", o.ReadOnly, "Reject writes.")
	fs.DurationVar(&o.Timeout, "disk.timeout", o.Timeout, "Timeout of one sector transfer on the object backend.")
}
