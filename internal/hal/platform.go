package hal

import (
	"fmt"
	"sort"
)

// PlatformInfo is the descriptor of available capabilities handed from the boot
// stage to the kernel stage. Every slot may be absent. It is read-only once
// constructed.
type PlatformInfo struct {
	console Optional[Console]
	disk    Optional[BlockDevice]
	timer   Optional[Timer]
	irq     Optional[IrqController]

	// Opaque extension slots. Only the backend that put a value there interprets it.
	mmio any
	pci  any
}

// PlatformOption populates one slot of a PlatformInfo under construction.
type PlatformOption func(*PlatformInfo)

// WithConsole attaches a console. A nil console leaves the slot absent.
func WithConsole(c Console) PlatformOption {
	return func(p *PlatformInfo) { p.console = Some(c) }
}

// WithDisk attaches a block device.
func WithDisk(d BlockDevice) PlatformOption {
	return func(p *PlatformInfo) { p.disk = Some(d) }
}

// WithTimer attaches a timer.
func WithTimer(t Timer) PlatformOption {
	return func(p *PlatformInfo) { p.timer = Some(t) }
}

// WithIrqController attaches an interrupt controller.
func WithIrqController(c IrqController) PlatformOption {
	return func(p *PlatformInfo) { p.irq = Some(c) }
}

// WithMMIO sets the opaque memory-mapped I/O table.
func WithMMIO(v any) PlatformOption {
	return func(p *PlatformInfo) { p.mmio = v }
}

// WithPCI sets the opaque device enumeration list.
func WithPCI(v any) PlatformOption {
	return func(p *PlatformInfo) { p.pci = v }
}

// NewPlatformInfo assembles a PlatformInfo from opts.
func NewPlatformInfo(opts ...PlatformOption) *PlatformInfo {
	p := &PlatformInfo{}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *PlatformInfo) Console() Optional[Console]             { return p.console }
func (p *PlatformInfo) Disk() Optional[BlockDevice]            { return p.disk }
func (p *PlatformInfo) Timer() Optional[Timer]                 { return p.timer }
func (p *PlatformInfo) IrqController() Optional[IrqController] { return p.irq }
func (p *PlatformInfo) MMIO() any                              { return p.mmio }
func (p *PlatformInfo) PCI() any                               { return p.pci }

// CapabilityInfo describes one slot of a PlatformInfo.
type CapabilityInfo struct {
	Slot       string   `json:"slot" toml:"slot"`
	Present    bool     `json:"present" toml:"present"`
	Backend    string   `json:"backend,omitempty" toml:"backend,omitempty"`
	Operations []string `json:"operations,omitempty" toml:"operations,omitempty"`
}

// Describe reports which capabilities are present and which operations each supports.
func (p *PlatformInfo) Describe() []CapabilityInfo {
	var out []CapabilityInfo

	info := CapabilityInfo{Slot: "console"}
	if c, ok := p.console.Get(); ok {
		info.Present, info.Backend = true, backendName(c)
		info.Operations = []string{"write_str", "read_line"}
	}
	out = append(out, info)

	info = CapabilityInfo{Slot: "disk"}
	if d, ok := p.disk.Get(); ok {
		info.Present, info.Backend = true, backendName(d)
		info.Operations = []string{"read_sector", "write_sector", fmt.Sprintf("sector_size=%d", SectorSizeOf(d))}
	}
	out = append(out, info)

	info = CapabilityInfo{Slot: "timer"}
	if t, ok := p.timer.Get(); ok {
		info.Present, info.Backend = true, backendName(t)
		if _, ok := t.(PeriodicTimer); ok {
			info.Operations = append(info.Operations, "set_periodic")
		}
		if _, ok := t.(TickTimer); ok {
			info.Operations = append(info.Operations, "ticks")
		}
	}
	out = append(out, info)

	info = CapabilityInfo{Slot: "irq"}
	if c, ok := p.irq.Get(); ok {
		info.Present, info.Backend = true, backendName(c)
		if _, ok := c.(IrqEnabler); ok {
			info.Operations = append(info.Operations, "enable_irq")
		}
		if _, ok := c.(IrqDisabler); ok {
			info.Operations = append(info.Operations, "disable_irq")
		}
	}
	out = append(out, info)

	for _, ext := range []struct {
		slot string
		v    any
	}{{"mmio", p.mmio}, {"pci", p.pci}} {
		info = CapabilityInfo{Slot: ext.slot, Present: ext.v != nil}
		if ext.v != nil {
			info.Backend = fmt.Sprintf("%T", ext.v)
		}
		out = append(out, info)
	}

	for i := range out {
		sort.Strings(out[i].Operations)
	}
	return out
}

func backendName(v any) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", v)
}
