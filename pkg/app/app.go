// Package app is the command-line skeleton shared by uvm binaries: flags in
// named sections, config file and environment binding through viper, logging
// set up before the run function.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	cliflag "k8s.io/component-base/cli/flag"
	"k8s.io/component-base/term"

	"github.com/autopeer-io/uvm/pkg/log"
)

// RunFunc is the main body of an application.
type RunFunc func() error

// Option configures an App.
type Option func(*App)

// App is a cobra command with uvm's conventions applied.
type App struct {
	basename    string
	shortDesc   string
	description string
	options     NamedFlagSetOptions
	run         RunFunc
	args        cobra.PositionalArgs
	noConfig    bool
	subCommands []*cobra.Command
	cmd         *cobra.Command
}

// WithOptions sets the options the application binds its flags to.
func WithOptions(opts NamedFlagSetOptions) Option {
	return func(a *App) { a.options = opts }
}

// WithRunFunc sets the function executed after flags and config are loaded.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) { a.run = run }
}

// WithDescription sets the long description of the command.
func WithDescription(desc string) Option {
	return func(a *App) { a.description = desc }
}

// WithNoConfig disables the --config flag.
func WithNoConfig() Option {
	return func(a *App) { a.noConfig = true }
}

// WithValidArgs sets the positional argument check.
func WithValidArgs(args cobra.PositionalArgs) Option {
	return func(a *App) { a.args = args }
}

// WithDefaultValidArgs rejects every positional argument.
func WithDefaultValidArgs() Option {
	return func(a *App) {
		a.args = func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				if len(arg) > 0 {
					return fmt.Errorf("%q does not take any arguments, got %q", cmd.CommandPath(), args)
				}
			}
			return nil
		}
	}
}

// WithSubCommands attaches subcommands. They inherit the persistent flags.
func WithSubCommands(cmds ...*cobra.Command) Option {
	return func(a *App) { a.subCommands = append(a.subCommands, cmds...) }
}

// NewApp builds the application command.
func NewApp(name string, shortDesc string, opts ...Option) *App {
	a := &App{basename: name, shortDesc: shortDesc}
	for _, o := range opts {
		o(a)
	}
	a.buildCommand()
	return a
}

// Command returns the underlying cobra command.
func (a *App) Command() *cobra.Command {
	return a.cmd
}

// Run executes the command and exits the process on failure.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:           formatBaseName(a.basename),
		Short:         a.shortDesc,
		Long:          a.description,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          a.args,
	}
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.Flags().SortFlags = true
	cmd.AddCommand(a.subCommands...)

	if a.run != nil {
		cmd.RunE = a.runCommand
	}

	var fss cliflag.NamedFlagSets
	if a.options != nil {
		fss = a.options.Flags()
	}
	if !a.noConfig {
		addConfigFlag(a.basename, fss.FlagSet("global"))
	}
	fss.FlagSet("global").BoolP("help", "h", false, fmt.Sprintf("Help for %s.", cmd.Name()))

	// Option flags are persistent so subcommands see the same platform configuration.
	for _, f := range fss.FlagSets {
		cmd.PersistentFlags().AddFlagSet(f)
	}
	if !a.noConfig {
		cmd.PersistentPreRunE = a.loadOptions
	}

	cols, _, _ := term.TerminalSize(cmd.OutOrStdout())
	cliflag.SetUsageAndHelpFunc(cmd, fss, cols)

	a.cmd = cmd
}

// loadOptions merges config file and environment values into the options,
// then completes and validates them.
func (a *App) loadOptions(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := loadConfig(a.basename); err != nil {
		return err
	}
	if a.options == nil {
		return nil
	}
	if err := viper.Unmarshal(a.options); err != nil {
		return fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := a.options.Complete(); err != nil {
		return err
	}
	if err := a.options.Validate(); err != nil {
		return err
	}

	if lo, ok := a.options.(LogOptions); ok {
		log.Init(lo.LogOptions())
	}
	watchConfig()
	return nil
}

func (a *App) runCommand(cmd *cobra.Command, args []string) error {
	if a.noConfig && a.options != nil {
		if err := a.options.Complete(); err != nil {
			return err
		}
		if err := a.options.Validate(); err != nil {
			return err
		}
		if lo, ok := a.options.(LogOptions); ok {
			log.Init(lo.LogOptions())
		}
	}
	defer func() { _ = log.Sync() }()

	return a.run()
}

// formatBaseName strips the directory and, on Windows, the .exe suffix.
func formatBaseName(basename string) string {
	basename = filepath.Base(basename)
	return strings.TrimSuffix(strings.ToLower(basename), ".exe")
}
