package console

import (
	"io"

	"github.com/autopeer-io/uvm/internal/hal"
)

var _ hal.Console = (*Display)(nil)

// Display is an output-only text console, the hosted stand-in for a VGA text
// buffer. ReadLine never has input.
type Display struct {
	w    io.Writer
	name string
}

// NewDisplay returns a display that renders to w.
func NewDisplay(w io.Writer, name string) *Display {
	if name == "" {
		name = "display"
	}
	return &Display{w: w, name: name}
}

func (d *Display) String() string { return d.name }

func (d *Display) WriteStr(s string) {
	_, _ = io.WriteString(d.w, hal.TrimNUL(s))
}

func (d *Display) ReadLine(buf []byte) int {
	return hal.Terminate(buf, 0)
}
