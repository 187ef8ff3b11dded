package options

import (
	"errors"

	"github.com/spf13/pflag"
)

var (
	_ IOptions = (*BootOptions)(nil)
	_ IOptions = (*KernelOptions)(nil)
)

// BootOptions configures the boot stage.
type BootOptions struct {
	// Heartbeats is the number of boot heartbeat lines printed before handoff.
	Heartbeats int `json:"heartbeats" mapstructure:"heartbeats"`

	// DelayTicks is the pause after each boot heartbeat.
	DelayTicks uint64 `json:"delay-ticks" mapstructure:"delay-ticks"`

	// Prompt asks the operator for one boot argument line.
	Prompt bool `json:"prompt" mapstructure:"prompt"`

	// PromptBuffer is the size of the boot argument buffer, terminator included.
	PromptBuffer int `json:"prompt-buffer" mapstructure:"prompt-buffer"`

	// NodeID identifies this machine on the remote console. Empty generates one.
	NodeID string `json:"node-id" mapstructure:"node-id"`
}

// NewBootOptions returns BootOptions with default values.
func NewBootOptions() *BootOptions {
	return &BootOptions{
		Heartbeats:   6,
		DelayTicks:   1,
		Prompt:       true,
		PromptBuffer: 64,
	}
}

func (o *BootOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}
	if o.Heartbeats < 0 {
		errs = append(errs, errors.New("--boot.heartbeats must not be negative"))
	}
	if o.PromptBuffer < 2 {
		errs = append(errs, errors.New("--boot.prompt-buffer must hold at least one byte and the terminator"))
	}
	return errs
}

func (o *BootOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.IntVar(&o.Heartbeats, "boot.heartbeats", o.Heartbeats, "Number of boot heartbeat lines printed before handoff.")
	fs.Uint64Var(&o.DelayTicks, "boot.delay-ticks", o.DelayTicks, "Timer ticks to wait after each boot heartbeat.")
	fs.BoolVar(&o.Prompt, "boot.prompt", o.Prompt, "Ask the operator for a boot argument before handoff.")
	fs.IntVar(&o.PromptBuffer, "boot.prompt-buffer", o.PromptBuffer, "Size of the boot argument buffer in bytes, terminator included.")
	fs.StringVar(&o.NodeID, "boot.node-id", o.NodeID, "Node identifier used on the remote console (default: random).")
}

// KernelOptions configures the kernel stage.
type KernelOptions struct {
	// DelayTicks is the pause after each heartbeat progress symbol.
	DelayTicks uint64 `json:"delay-ticks" mapstructure:"delay-ticks"`
}

// NewKernelOptions returns KernelOptions with default values.
func NewKernelOptions() *KernelOptions {
	return &KernelOptions{DelayTicks: 1}
}

func (o *KernelOptions) Validate() []error {
	return nil
}

func (o *KernelOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.Uint64Var(&o.DelayTicks, "kernel.delay-ticks", o.DelayTicks, "Timer ticks to wait after each heartbeat progress symbol.")
}
