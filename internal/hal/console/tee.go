package console

import (
	"strings"

	"github.com/autopeer-io/uvm/internal/hal"
)

var _ hal.Console = (*Tee)(nil)

// Tee mirrors output to several consoles and reads input from the first one.
type Tee struct {
	consoles []hal.Console
}

// NewTee returns a console writing to primary and every mirror. Nil mirrors are skipped.
func NewTee(primary hal.Console, mirrors ...hal.Console) *Tee {
	t := &Tee{consoles: []hal.Console{primary}}
	for _, m := range mirrors {
		if m != nil {
			t.consoles = append(t.consoles, m)
		}
	}
	return t
}

func (t *Tee) String() string {
	names := make([]string, 0, len(t.consoles))
	for _, c := range t.consoles {
		names = append(names, nameOf(c))
	}
	return "tee(" + strings.Join(names, ",") + ")"
}

func (t *Tee) WriteStr(s string) {
	for _, c := range t.consoles {
		c.WriteStr(s)
	}
}

func (t *Tee) ReadLine(buf []byte) int {
	return t.consoles[0].ReadLine(buf)
}

func nameOf(v any) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return "console"
}
