package options

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/uvm/pkg/options"
)

func TestDefaults(t *testing.T) {
	o := NewBootOptions()
	require.NoError(t, o.Complete())
	require.NoError(t, o.Validate())

	assert.True(t, strings.HasPrefix(o.BootOptions.NodeID, "uvm-"))
	assert.Equal(t, []string{"stderr"}, o.Log.OutputPaths)
}

func TestValidateOnlyChecksSelectedBackends(t *testing.T) {
	o := NewBootOptions()
	o.S3Options.Endpoint = ""
	o.MqttOptions.Broker = ""
	assert.NoError(t, o.Validate())

	o.DiskOptions.Kind = options.DiskObject
	o.ConsoleOptions.Kind = options.ConsoleMQTT
	err := o.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--s3.endpoint")
	assert.Contains(t, err.Error(), "--mqtt.broker")
}

func TestFlagSections(t *testing.T) {
	fss := NewBootOptions().Flags()
	for _, name := range []string{"console", "disk", "timer", "irq", "boot", "kernel", "mqtt", "s3", "http", "Log"} {
		assert.Contains(t, fss.Order, name)
	}
	assert.NotNil(t, fss.FlagSet("disk").Lookup("disk.sector-size"))
}

func TestConfig(t *testing.T) {
	o := NewBootOptions()
	o.BootOptions.NodeID = "node-7"
	cfg, err := o.Config()
	require.NoError(t, err)

	assert.Equal(t, "node-7", cfg.NodeID)
	assert.Same(t, o.DiskOptions, cfg.DiskOptions)
}
