package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/autopeer-io/uvm/cmd/uvm-boot/app/options"
	"github.com/autopeer-io/uvm/internal/hal"
)

const (
	outputTable = "table"
	outputTOML  = "toml"
)

// platformDocument is the TOML form of a platform description.
type platformDocument struct {
	Node         string               `toml:"node"`
	Capabilities []hal.CapabilityInfo `toml:"capability"`
}

func newDescribeCommand(opts *options.BootOptions) *cobra.Command {
	var (
		output string
		open   bool
	)

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print the capabilities the configured platform would hand to the kernel",
		Long: `Print the capabilities the configured platform would hand to the kernel.

By default the platform is derived from the configuration alone: no terminal is
put into raw mode, no MQTT broker is dialed and no disk file or bucket is opened.
With --open every backend is initialized the way boot does it, so a backend that
fails to come up is reported as absent. Opening an MQTT console connects to the
broker and a tty console briefly switches the terminal to raw mode.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.Config()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			if !open {
				return printPlatform(cmd.OutOrStdout(), output, cfg.NodeID, cfg.Layout())
			}

			dev, err := cfg.NewDevices(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = dev.Close() }()

			return printPlatform(cmd.OutOrStdout(), output, cfg.NodeID, dev.Platform())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format: table or toml.")
	cmd.Flags().BoolVar(&open, "open", false, "Initialize every backend instead of reading the configuration only.")
	return cmd
}

func printPlatform(w io.Writer, format, node string, p *hal.PlatformInfo) error {
	caps := p.Describe()

	switch format {
	case outputTOML:
		return toml.NewEncoder(w).Encode(platformDocument{Node: node, Capabilities: caps})

	case outputTable:
		table := uitable.New()
		table.MaxColWidth = 60
		table.AddRow("SLOT", "PRESENT", "BACKEND", "OPERATIONS")
		for _, c := range caps {
			backend := c.Backend
			if backend == "" {
				backend = "-"
			}
			ops := strings.Join(c.Operations, ",")
			if ops == "" {
				ops = "-"
			}
			table.AddRow(c.Slot, c.Present, backend, ops)
		}
		_, err := fmt.Fprintln(w, table)
		return err
	}
	return fmt.Errorf("unknown output format %q", format)
}
