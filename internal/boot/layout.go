package boot

import (
	"github.com/autopeer-io/uvm/internal/hal"
	"github.com/autopeer-io/uvm/pkg/options"
)

// Layout describes the platform cfg would produce without opening any backend.
// Consoles and disks are represented by inert placeholders carrying the backend
// name and sector size, so no terminal is switched to raw mode, no broker is
// dialed and no file or bucket is touched. A backend that would fail to come up
// is still reported as present.
func (cfg *Config) Layout() *hal.PlatformInfo {
	return hal.NewPlatformInfo(
		hal.WithConsole(cfg.consoleLayout()),
		hal.WithDisk(cfg.diskLayout()),
		hal.WithTimer(cfg.newTimer()),
		hal.WithIrqController(cfg.newIrq()),
	)
}

func (cfg *Config) consoleLayout() hal.Console {
	switch cfg.ConsoleOptions.Kind {
	case options.ConsoleStdio:
		return placeholderConsole("stdio")
	case options.ConsoleTTY:
		return placeholderConsole("tty")
	case options.ConsoleMQTT:
		return placeholderConsole("mqtt:" + cfg.NodeID)
	}
	return nil
}

func (cfg *Config) diskLayout() hal.BlockDevice {
	o := cfg.DiskOptions
	size := o.SectorSize
	if size <= 0 {
		size = hal.SectorSize
	}

	switch o.Kind {
	case options.DiskPattern:
		return &placeholderDisk{name: "pattern", sectorSize: size}
	case options.DiskRAM:
		return &placeholderDisk{name: "ram", sectorSize: size}
	case options.DiskFile:
		return &placeholderDisk{name: "file:" + o.Path, sectorSize: size}
	case options.DiskObject:
		return &placeholderDisk{name: "object:" + o.Prefix, sectorSize: size}
	}
	return nil
}

type placeholderConsole string

func (c placeholderConsole) String() string          { return string(c) }
func (c placeholderConsole) WriteStr(string)         {}
func (c placeholderConsole) ReadLine(buf []byte) int { return hal.Terminate(buf, 0) }

type placeholderDisk struct {
	name       string
	sectorSize int
}

func (d *placeholderDisk) String() string  { return d.name }
func (d *placeholderDisk) SectorSize() int { return d.sectorSize }

func (*placeholderDisk) ReadSector(uint64, []byte) error  { return hal.ErrIO }
func (*placeholderDisk) WriteSector(uint64, []byte) error { return hal.ErrIO }
