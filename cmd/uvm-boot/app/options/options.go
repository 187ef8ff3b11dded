package options

import (
	"github.com/google/uuid"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/uvm/internal/boot"
	"github.com/autopeer-io/uvm/pkg/app"
	"github.com/autopeer-io/uvm/pkg/log"
	"github.com/autopeer-io/uvm/pkg/options"
)

type BootOptions struct {
	ConsoleOptions *options.ConsoleOptions `json:"console" mapstructure:"console"`
	DiskOptions    *options.DiskOptions    `json:"disk" mapstructure:"disk"`
	TimerOptions   *options.TimerOptions   `json:"timer" mapstructure:"timer"`
	IrqOptions     *options.IrqOptions     `json:"irq" mapstructure:"irq"`
	BootOptions    *options.BootOptions    `json:"boot" mapstructure:"boot"`
	KernelOptions  *options.KernelOptions  `json:"kernel" mapstructure:"kernel"`
	MqttOptions    *options.MqttOptions    `json:"mqtt" mapstructure:"mqtt"`
	S3Options      *options.S3Options      `json:"s3" mapstructure:"s3"`
	HttpOptions    *options.HttpOptions    `json:"http" mapstructure:"http"`
	Log            *log.Options            `json:"log" mapstructure:"log"`
}

var (
	_ app.NamedFlagSetOptions = (*BootOptions)(nil)
	_ app.LogOptions          = (*BootOptions)(nil)
)

func NewBootOptions() *BootOptions {
	o := &BootOptions{
		ConsoleOptions: options.NewConsoleOptions(),
		DiskOptions:    options.NewDiskOptions(),
		TimerOptions:   options.NewTimerOptions(),
		IrqOptions:     options.NewIrqOptions(),
		BootOptions:    options.NewBootOptions(),
		KernelOptions:  options.NewKernelOptions(),
		MqttOptions:    options.NewMqttOptions(),
		S3Options:      options.NewS3Options(),
		HttpOptions:    options.NewHttpOptions(),
		Log:            log.NewOptions(),
	}
	o.Log.Name = "uvm-boot"
	return o
}

func (o *BootOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.ConsoleOptions.AddFlags(fss.FlagSet("console"))
	o.DiskOptions.AddFlags(fss.FlagSet("disk"))
	o.TimerOptions.AddFlags(fss.FlagSet("timer"))
	o.IrqOptions.AddFlags(fss.FlagSet("irq"))
	o.BootOptions.AddFlags(fss.FlagSet("boot"))
	o.KernelOptions.AddFlags(fss.FlagSet("kernel"))
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.S3Options.AddFlags(fss.FlagSet("s3"))
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.Log.AddFlags(fss.FlagSet("Log"))
	return fss
}

// Complete names the node when no id was configured.
func (o *BootOptions) Complete() error {
	if o.BootOptions.NodeID == "" {
		o.BootOptions.NodeID = "uvm-" + uuid.NewString()[:8]
	}
	return nil
}

func (o *BootOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.ConsoleOptions.Validate()...)
	errs = append(errs, o.DiskOptions.Validate()...)
	errs = append(errs, o.TimerOptions.Validate()...)
	errs = append(errs, o.IrqOptions.Validate()...)
	errs = append(errs, o.BootOptions.Validate()...)
	errs = append(errs, o.KernelOptions.Validate()...)
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	if o.ConsoleOptions.Kind == options.ConsoleMQTT {
		errs = append(errs, o.MqttOptions.Validate()...)
	}
	if o.DiskOptions.Kind == options.DiskObject {
		errs = append(errs, o.S3Options.Validate()...)
	}
	return utilerrors.NewAggregate(errs)
}

func (o *BootOptions) LogOptions() *log.Options {
	return o.Log
}

func (o *BootOptions) Config() (*boot.Config, error) {
	return &boot.Config{
		ConsoleOptions: o.ConsoleOptions,
		DiskOptions:    o.DiskOptions,
		TimerOptions:   o.TimerOptions,
		IrqOptions:     o.IrqOptions,
		BootOptions:    o.BootOptions,
		MqttOptions:    o.MqttOptions,
		S3Options:      o.S3Options,
		NodeID:         o.BootOptions.NodeID,
	}, nil
}
