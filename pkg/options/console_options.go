package options

import (
	"errors"
	"time"

	"github.com/spf13/pflag"
)

// Console backends.
const (
	ConsoleStdio = "stdio"
	ConsoleTTY   = "tty"
	ConsoleMQTT  = "mqtt"
	ConsoleNone  = "none"
)

var _ IOptions = (*ConsoleOptions)(nil)

// ConsoleOptions selects and configures the Console capability.
type ConsoleOptions struct {
	// Kind is one of stdio, tty, mqtt or none.
	Kind string `json:"kind" mapstructure:"kind"`

	// Device is the terminal device for the tty console. Empty means the
	// controlling terminal.
	Device string `json:"device" mapstructure:"device"`

	// Display mirrors boot diagnostics to stderr, the hosted stand-in for a text display.
	Display bool `json:"display" mapstructure:"display"`

	// Wait bounds how long the boot prompt waits for input. Zero waits forever.
	Wait time.Duration `json:"wait" mapstructure:"wait"`

	PollInterval time.Duration `json:"poll-interval" mapstructure:"poll-interval"`
}

// NewConsoleOptions returns ConsoleOptions with default values.
func NewConsoleOptions() *ConsoleOptions {
	return &ConsoleOptions{
		Kind:         ConsoleStdio,
		Display:      false,
		Wait:         5 * time.Second,
		PollInterval: 10 * time.Millisecond,
	}
}

func (o *ConsoleOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}
	if err := validateKind("console.kind", o.Kind, ConsoleStdio, ConsoleTTY, ConsoleMQTT, ConsoleNone); err != nil {
		errs = append(errs, err)
	}
	if o.Wait < 0 {
		errs = append(errs, errors.New("--console.wait must not be negative"))
	}
	if o.PollInterval <= 0 {
		errs = append(errs, errors.New("--console.poll-interval must be positive"))
	}
	return errs
}

func (o *ConsoleOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Kind, "console.kind", o.Kind, "Console backend: stdio, tty, mqtt or none.")
	fs.StringVar(&o.Device, "console.device", o.Device, "Terminal device for the tty console (default: controlling terminal).")
	fs.BoolVar(&o.Display, "console.display", o.Display, "Mirror boot diagnostics to stderr.")
	fs.DurationVar(&o.Wait, "console.wait", o.Wait, "How long the boot prompt waits for input; 0 waits forever.")
	fs.DurationVar(&o.PollInterval, "console.poll-interval", o.PollInterval, "Back-off between polls of an idle serial line.")
}
