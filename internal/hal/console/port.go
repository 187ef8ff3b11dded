package console

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-tty"
	"golang.org/x/term"

	"github.com/autopeer-io/uvm/pkg/log"
)

// rxBufferSize mirrors a UART receive FIFO. Bytes arriving while it is full
// are dropped, as on an overrun.
const rxBufferSize = 256

// StreamPort turns a blocking reader into a pollable Port. A pump goroutine
// fills a bounded receive buffer; Poll drains it without blocking.
type StreamPort struct {
	w      io.Writer
	rx     chan byte
	closer io.Closer

	// onInterrupt, when set, is called by the pump for every Ctrl-C byte, even
	// while nobody reads the console.
	onInterrupt func()

	// err is written by the pump before rx is closed.
	err error
}

// NewStreamPort starts pumping r. Writes go to w.
func NewStreamPort(r io.Reader, w io.Writer) *StreamPort {
	return newStreamPort(r, w, nil)
}

func newStreamPort(r io.Reader, w io.Writer, onInterrupt func()) *StreamPort {
	p := &StreamPort{w: w, rx: make(chan byte, rxBufferSize), onInterrupt: onInterrupt}
	go p.pump(r)
	return p
}

func (p *StreamPort) pump(r io.Reader) {
	chunk := make([]byte, 64)
	for {
		n, err := r.Read(chunk)
		for _, b := range chunk[:n] {
			if b == interrupt && p.onInterrupt != nil {
				p.onInterrupt()
			}
			select {
			case p.rx <- b:
			default:
			}
		}
		if err != nil {
			p.err = err
			close(p.rx)
			return
		}
	}
}

func (p *StreamPort) Write(b []byte) (int, error) { return p.w.Write(b) }

// Poll returns the reader's final error, usually io.EOF, once every byte
// received before it has been drained.
func (p *StreamPort) Poll() (byte, bool, error) {
	select {
	case b, open := <-p.rx:
		if !open {
			return 0, false, p.err
		}
		return b, true, nil
	default:
		return 0, false, nil
	}
}

// Close releases the underlying device, if the port owns one.
func (p *StreamPort) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// ttyDevice restores the terminal mode before closing it.
type ttyDevice struct {
	t       *tty.TTY
	restore func() error
}

func (d *ttyDevice) Close() error {
	if err := d.restore(); err != nil {
		_ = d.t.Close()
		return err
	}
	return d.t.Close()
}

// OpenTTY opens a terminal device in raw mode. An empty path opens the
// controlling terminal.
func OpenTTY(path string) (*StreamPort, error) {
	var (
		t   *tty.TTY
		err error
	)
	if path == "" {
		t, err = tty.Open()
	} else {
		t, err = tty.OpenDevice(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open tty %q: %w", path, err)
	}

	// Raw mode turns Ctrl-C into a plain byte, so the pump raises SIGINT itself.
	restore := t.MustRaw()
	p := newStreamPort(t.Input(), t.Output(), raiseInterrupt)
	p.closer = &ttyDevice{t: t, restore: restore}
	return p, nil
}

// OpenStdio returns a port on the process's standard streams. When stdin is a
// terminal it is switched to raw mode through go-tty so echo and line editing
// are done by the Serial console, not the kernel's line discipline.
func OpenStdio() (port *StreamPort, interactive bool, err error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		if port, err = OpenTTY(""); err != nil {
			return nil, false, err
		}
		return port, true, nil
	}
	return NewStreamPort(os.Stdin, os.Stdout), false, nil
}

// raiseInterrupt delivers SIGINT to this process, as the terminal would
// outside raw mode.
func raiseInterrupt() {
	self, err := os.FindProcess(os.Getpid())
	if err != nil {
		return
	}
	if err := self.Signal(os.Interrupt); err != nil {
		log.Warn("Failed to raise interrupt from console", "err", err)
	}
}
