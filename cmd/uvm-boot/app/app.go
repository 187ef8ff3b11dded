package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/uvm/cmd/uvm-boot/app/options"
	"github.com/autopeer-io/uvm/internal/hal"
	"github.com/autopeer-io/uvm/internal/hal/observe"
	"github.com/autopeer-io/uvm/internal/kernel"
	"github.com/autopeer-io/uvm/internal/pkg/server/http"
	"github.com/autopeer-io/uvm/pkg/app"
	"github.com/autopeer-io/uvm/pkg/log"
)

const (
	commandName = "uvm-boot"
	commandDesc = `uvm-boot brings up a hosted machine: it initializes the configured
console, disk, timer and interrupt controller, describes them in a platform
descriptor and hands control to the kernel exactly once. The machine then idles
until it receives SIGINT or SIGTERM.`
)

func NewApp() *app.App {
	opts := options.NewBootOptions()
	application := app.NewApp(
		commandName,
		"Boot a uvm machine and run its kernel",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
		app.WithSubCommands(newDescribeCommand(opts)),
	)
	return application
}

func run(opts *options.BootOptions) app.RunFunc {
	return func() error {
		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		// The kernel only learns its timer at handoff, so it is built there.
		entry := func(ctx context.Context, p *hal.PlatformInfo) error {
			delayer := hal.NewDelayer(p.Timer(), opts.TimerOptions.SpinPerTick)
			return kernel.New(
				kernel.WithDelayTicks(opts.KernelOptions.DelayTicks),
				kernel.WithDelayer(observe.Delayer(delayer, "kernel")),
			).Main(ctx, p)
		}

		stage := cfg.NewStage(entry)
		log.Info("Booting", "node", cfg.NodeID, "session", stage.SessionID())

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			_, err := stage.Run(ctx)
			return err
		})
		if opts.HttpOptions.Addr != "" {
			srv := http.NewServer(opts.HttpOptions,
				http.WithReadiness(func() (bool, string) {
					if !stage.Entered() {
						return false, "booting: " + stage.Phase()
					}
					return true, ""
				}),
				http.WithPlatform(stage.Platform),
			)
			g.Go(func() error {
				return srv.Start(ctx)
			})
		}

		return g.Wait()
	}
}
