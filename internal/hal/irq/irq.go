// Package irq implements the IrqController capability as a plain mask register.
// Nothing delivers interrupts; the mask only records which lines are unmasked.
package irq

import (
	"sort"
	"sync"

	"github.com/autopeer-io/uvm/internal/hal"
)

// DefaultLines matches a pair of cascaded legacy interrupt controllers.
const DefaultLines = 16

var (
	_ hal.IrqEnabler  = (*Mask)(nil)
	_ hal.IrqDisabler = (*Mask)(nil)
)

// Mask tracks the enable state of a fixed number of lines. Requests for lines
// outside the range are ignored.
type Mask struct {
	mu      sync.Mutex
	lines   uint
	enabled map[uint]struct{}
}

// NewMask returns a controller with every line masked.
func NewMask(lines uint) *Mask {
	if lines == 0 {
		lines = DefaultLines
	}
	return &Mask{lines: lines, enabled: map[uint]struct{}{}}
}

func (m *Mask) String() string { return "mask" }

func (m *Mask) EnableIRQ(irq uint) {
	if irq >= m.lines {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled[irq] = struct{}{}
}

func (m *Mask) DisableIRQ(irq uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.enabled, irq)
}

// Enabled reports whether irq is unmasked.
func (m *Mask) Enabled(irq uint) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.enabled[irq]
	return ok
}

// EnabledLines returns the unmasked lines in ascending order.
func (m *Mask) EnabledLines() []uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]uint, 0, len(m.enabled))
	for irq := range m.enabled {
		out = append(out, irq)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var _ hal.IrqController = Fixed{}

// Fixed is a controller with no programmable mask. It supports neither
// operation.
type Fixed struct{}

func (Fixed) String() string { return "fixed" }
