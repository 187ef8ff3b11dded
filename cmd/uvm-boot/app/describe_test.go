package app

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/uvm/cmd/uvm-boot/app/options"
	"github.com/autopeer-io/uvm/internal/hal"
	"github.com/autopeer-io/uvm/internal/hal/disk"
	"github.com/autopeer-io/uvm/internal/hal/irq"
	genericoptions "github.com/autopeer-io/uvm/pkg/options"
)

func testPlatform() *hal.PlatformInfo {
	return hal.NewPlatformInfo(
		hal.WithDisk(disk.NewPattern(0)),
		hal.WithIrqController(irq.NewMask(0)),
	)
}

func TestPrintPlatformTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printPlatform(&buf, outputTable, "node-1", testPlatform()))

	out := buf.String()
	assert.Contains(t, out, "SLOT")
	assert.Regexp(t, `disk\s+true\s+pattern\s+read_sector,sector_size=512,write_sector`, out)
	assert.Regexp(t, `console\s+false\s+-\s+-`, out)
	assert.Regexp(t, `irq\s+true\s+mask\s+disable_irq,enable_irq`, out)
}

func TestPrintPlatformTOML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printPlatform(&buf, outputTOML, "node-1", testPlatform()))

	var doc platformDocument
	require.NoError(t, toml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "node-1", doc.Node)
	require.Len(t, doc.Capabilities, 6)
	assert.Equal(t, "disk", doc.Capabilities[1].Slot)
	assert.True(t, doc.Capabilities[1].Present)
}

func TestPrintPlatformUnknownFormat(t *testing.T) {
	assert.Error(t, printPlatform(&bytes.Buffer{}, "yaml", "n", testPlatform()))
}

func TestDescribeReadsConfigurationOnly(t *testing.T) {
	image := filepath.Join(t.TempDir(), "disk.img")

	opts := options.NewBootOptions()
	opts.BootOptions.NodeID = "node-1"
	opts.ConsoleOptions.Kind = genericoptions.ConsoleTTY
	opts.ConsoleOptions.Device = filepath.Join(t.TempDir(), "missing-tty")
	opts.DiskOptions.Kind = genericoptions.DiskFile
	opts.DiskOptions.Path = image

	var buf bytes.Buffer
	cmd := newDescribeCommand(opts)
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--output", outputTOML})
	require.NoError(t, cmd.Execute())

	var doc platformDocument
	require.NoError(t, toml.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Capabilities, 6)
	assert.Equal(t, hal.CapabilityInfo{
		Slot: "console", Present: true, Backend: "tty",
		Operations: []string{"read_line", "write_str"},
	}, doc.Capabilities[0])
	assert.Equal(t, "file:"+image, doc.Capabilities[1].Backend)
	assert.NoFileExists(t, image)
}
