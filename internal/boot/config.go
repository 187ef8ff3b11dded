package boot

import (
	"context"
	"fmt"
	"os"

	"github.com/autopeer-io/uvm/internal/hal"
	"github.com/autopeer-io/uvm/internal/hal/console"
	"github.com/autopeer-io/uvm/internal/hal/disk"
	"github.com/autopeer-io/uvm/internal/hal/irq"
	"github.com/autopeer-io/uvm/internal/hal/observe"
	"github.com/autopeer-io/uvm/internal/hal/timer"
	"github.com/autopeer-io/uvm/pkg/log"
	"github.com/autopeer-io/uvm/pkg/mqtt"
	mqtttopic "github.com/autopeer-io/uvm/pkg/mqtt/topic"
	"github.com/autopeer-io/uvm/pkg/options"
)

// Config is the validated platform configuration of one boot.
type Config struct {
	ConsoleOptions *options.ConsoleOptions
	DiskOptions    *options.DiskOptions
	TimerOptions   *options.TimerOptions
	IrqOptions     *options.IrqOptions
	BootOptions    *options.BootOptions
	MqttOptions    *options.MqttOptions
	S3Options      *options.S3Options

	// NodeID names the machine on the remote console.
	NodeID string
}

// NewStage builds the boot stage described by cfg, handing off to entry.
func (cfg *Config) NewStage(entry Entry, opts ...Option) *Stage {
	base := []Option{
		WithHeartbeats(cfg.BootOptions.Heartbeats),
		WithDelayTicks(cfg.BootOptions.DelayTicks),
		WithSpinPerTick(cfg.TimerOptions.SpinPerTick),
		WithPrompt(cfg.BootOptions.Prompt, cfg.BootOptions.PromptBuffer),
	}
	return NewStage(cfg.NewDevices, entry, append(base, opts...)...)
}

// NewDevices initializes every configured backend. A backend that fails to come
// up is logged and left out, so its capability is absent rather than broken.
func (cfg *Config) NewDevices(ctx context.Context) (*Devices, error) {
	dev := &Devices{}
	logger := log.WithValues("node", cfg.NodeID)

	if c, err := cfg.newConsole(ctx, dev); err != nil {
		logger.Error(err, "Console unavailable", "kind", cfg.ConsoleOptions.Kind)
	} else if c != nil {
		dev.Console = observe.Console(c)
	}
	if cfg.ConsoleOptions.Display {
		dev.Display = console.NewDisplay(os.Stderr, "vga")
	}

	if d, err := cfg.newDisk(ctx, dev); err != nil {
		logger.Error(err, "Disk unavailable", "kind", cfg.DiskOptions.Kind)
	} else if d != nil {
		dev.Disk = observe.Disk(d)
	}

	if t := cfg.newTimer(); t != nil {
		dev.Timer = t
	}
	if c := cfg.newIrq(); c != nil {
		dev.Irq = c
	}

	return dev, nil
}

func (cfg *Config) newTimer() hal.Timer {
	switch cfg.TimerOptions.Kind {
	case options.TimerClock:
		return timer.NewClock(nil, cfg.TimerOptions.PeriodMs)
	case options.TimerCounter:
		return timer.NewCounter(timer.NewClock(nil, cfg.TimerOptions.PeriodMs))
	}
	return nil
}

func (cfg *Config) newIrq() hal.IrqController {
	switch cfg.IrqOptions.Kind {
	case options.IrqMask:
		return irq.NewMask(cfg.IrqOptions.Lines)
	case options.IrqFixed:
		return irq.Fixed{}
	}
	return nil
}

func (cfg *Config) newConsole(ctx context.Context, dev *Devices) (hal.Console, error) {
	o := cfg.ConsoleOptions
	serialOpts := []console.SerialOption{
		console.WithWait(o.Wait),
		console.WithPollInterval(o.PollInterval),
	}

	switch o.Kind {
	case options.ConsoleStdio:
		port, interactive, err := console.OpenStdio()
		if err != nil {
			return nil, err
		}
		dev.OnClose(port)
		return console.NewSerial(port, append(serialOpts, console.WithCRLF(interactive), console.WithName("stdio"))...), nil

	case options.ConsoleTTY:
		port, err := console.OpenTTY(o.Device)
		if err != nil {
			return nil, err
		}
		dev.OnClose(port)
		return console.NewSerial(port, append(serialOpts, console.WithCRLF(true), console.WithName("tty"))...), nil

	case options.ConsoleMQTT:
		return cfg.newMQTTConsole(ctx, dev)
	}
	return nil, nil
}

func (cfg *Config) newMQTTConsole(ctx context.Context, dev *Devices) (hal.Console, error) {
	topics := mqtttopic.NewBuilder(cfg.MqttOptions.TopicRoot)

	mqttConfig := cfg.MqttOptions.ToClientConfig()
	if mqttConfig.ClientID == "" {
		mqttConfig.ClientID = cfg.NodeID
	}
	mqttConfig.WillTopic = topics.Status(cfg.NodeID)
	mqttConfig.WillPayload = []byte("offline")
	mqttConfig.WillQoS = 1
	mqttConfig.WillRetain = true

	client, err := mqtt.NewClient(mqttConfig)
	if err != nil {
		return nil, err
	}
	if err := client.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start mqtt client: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.MqttOptions.ConnectTimeout)
	defer cancel()
	if err := client.AwaitConnection(connectCtx); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("mqtt broker unreachable: %w", err)
	}

	c, err := console.NewMQTT(ctx, client, topics, cfg.NodeID, console.WithMQTTWait(cfg.ConsoleOptions.Wait))
	if err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	dev.OnPhase(statusHook(client, topics.Status(cfg.NodeID)))
	dev.OnClose(closerFunc(func() error {
		_ = c.Close()
		client.Disconnect(context.Background())
		return nil
	}))
	return c, nil
}

// statusHook publishes each boot phase, retained, on the node's status topic.
func statusHook(client mqtt.Client, topic string) func(phase string) {
	return func(phase string) {
		if err := client.Publish(context.Background(), topic, 1, true, []byte(phase)); err != nil {
			log.Error(err, "Failed to publish boot phase", "topic", topic, "phase", phase)
		}
	}
}

func (cfg *Config) newDisk(ctx context.Context, dev *Devices) (hal.BlockDevice, error) {
	o := cfg.DiskOptions

	switch o.Kind {
	case options.DiskPattern:
		return disk.NewPattern(o.SectorSize), nil

	case options.DiskRAM:
		return disk.NewRAM(o.Sectors, o.SectorSize), nil

	case options.DiskFile:
		f, err := disk.OpenFile(o.Path, o.SectorSize, o.ReadOnly)
		if err != nil {
			return nil, err
		}
		dev.OnClose(f)
		return f, nil

	case options.DiskObject:
		store, err := disk.NewMinIOStore(ctx, cfg.S3Options)
		if err != nil {
			return nil, err
		}
		return disk.NewObject(store, o.Prefix,
			disk.WithSectorSize(o.SectorSize),
			disk.WithSectors(o.Sectors),
			disk.WithTimeout(o.Timeout),
			disk.WithReadOnly(o.ReadOnly),
		), nil
	}
	return nil, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
