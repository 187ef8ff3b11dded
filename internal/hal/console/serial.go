// Package console implements the Console capability: an interactive serial
// console, a text-only display, a fan-out tee and a remote console over MQTT.
package console

import (
	"io"
	"strings"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/uvm/internal/hal"
)

const (
	backspace = 0x08
	del       = 0x7f

	// interrupt (Ctrl-C) abandons the line being typed.
	interrupt = 0x03

	// endOfInput (Ctrl-D) ends the line like an end of stream.
	endOfInput = 0x04

	// DefaultPollInterval is how long ReadLine backs off when no byte is pending.
	DefaultPollInterval = 10 * time.Millisecond
)

// Port is a byte-oriented serial line.
type Port interface {
	io.Writer

	// Poll returns the next received byte without blocking. ok is false when
	// nothing is pending. A non-nil err (io.EOF once the stream ended) means
	// no byte will ever arrive again.
	Poll() (b byte, ok bool, err error)
}

var _ hal.Console = (*Serial)(nil)

// Serial is an interactive console on a Port. ReadLine echoes input and
// supports backspace erase.
type Serial struct {
	port  Port
	clock clock.Clock
	name  string

	pollInterval time.Duration
	// wait bounds how long ReadLine waits for the first byte. Zero waits forever.
	wait time.Duration
	crlf bool
}

// SerialOption configures a Serial console.
type SerialOption func(*Serial)

// WithClock replaces the wall clock used for polling back-off and the wait deadline.
func WithClock(c clock.Clock) SerialOption {
	return func(s *Serial) { s.clock = c }
}

// WithPollInterval sets the back-off between polls of an idle port.
func WithPollInterval(d time.Duration) SerialOption {
	return func(s *Serial) { s.pollInterval = d }
}

// WithWait makes ReadLine give up when no byte arrives within d.
func WithWait(d time.Duration) SerialOption {
	return func(s *Serial) { s.wait = d }
}

// WithCRLF translates "\n" into "\r\n" on output, which raw-mode terminals need.
func WithCRLF(enabled bool) SerialOption {
	return func(s *Serial) { s.crlf = enabled }
}

// WithName sets the backend name reported by String.
func WithName(name string) SerialOption {
	return func(s *Serial) { s.name = name }
}

// NewSerial returns a console on port.
func NewSerial(port Port, opts ...SerialOption) *Serial {
	s := &Serial{
		port:         port,
		clock:        clock.RealClock{},
		name:         "serial",
		pollInterval: DefaultPollInterval,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Serial) String() string { return s.name }

// WriteStr writes text to the port. Write errors are dropped.
func (s *Serial) WriteStr(text string) {
	text = hal.TrimNUL(text)
	if s.crlf {
		text = strings.ReplaceAll(text, "\n", "\r\n")
	}
	_, _ = io.WriteString(s.port, text)
}

// ReadLine reads one line, echoing what it accepts. CR or LF ends the line;
// backspace and DEL erase the previous byte. Ctrl-C discards the line and
// returns 0. Ctrl-D or the end of the stream return what was typed so far.
func (s *Serial) ReadLine(buf []byte) int {
	if len(buf) == 0 {
		return 0
	}

	var deadline time.Time
	if s.wait > 0 {
		deadline = s.clock.Now().Add(s.wait)
	}

	idx := 0
	for idx+1 < len(buf) {
		c, ok, err := s.port.Poll()
		if err != nil {
			return hal.Terminate(buf, idx)
		}
		if !ok {
			if !deadline.IsZero() && !s.clock.Now().Before(deadline) {
				break
			}
			s.clock.Sleep(s.pollInterval)
			continue
		}
		// Input keeps the line alive.
		if s.wait > 0 {
			deadline = s.clock.Now().Add(s.wait)
		}

		switch c {
		case '\r', '\n':
			_, _ = io.WriteString(s.port, "\r\n")
			return hal.Terminate(buf, idx)
		case interrupt:
			_, _ = io.WriteString(s.port, "^C\r\n")
			return hal.Terminate(buf, 0)
		case endOfInput:
			_, _ = io.WriteString(s.port, "\r\n")
			return hal.Terminate(buf, idx)
		case backspace, del:
			if idx > 0 {
				idx--
				_, _ = io.WriteString(s.port, "\b \b")
			}
			continue
		}
		_, _ = s.port.Write([]byte{c})
		buf[idx] = c
		idx++
	}
	return hal.Terminate(buf, idx)
}
