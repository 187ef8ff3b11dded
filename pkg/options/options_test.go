package options

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	for name, o := range map[string]IOptions{
		"console": NewConsoleOptions(),
		"disk":    NewDiskOptions(),
		"timer":   NewTimerOptions(),
		"irq":     NewIrqOptions(),
		"boot":    NewBootOptions(),
		"kernel":  NewKernelOptions(),
		"mqtt":    NewMqttOptions(),
		"s3":      NewS3Options(),
		"http":    NewHttpOptions(),
	} {
		t.Run(name, func(t *testing.T) {
			assert.Empty(t, o.Validate())
		})
	}
}

func TestValidateAddress(t *testing.T) {
	assert.NoError(t, ValidateAddress("127.0.0.1:8080"))
	assert.NoError(t, ValidateAddress(":0"))
	assert.Error(t, ValidateAddress("localhost"))
	assert.Error(t, ValidateAddress("localhost:http"))
	assert.Error(t, ValidateAddress("localhost:70000"))
}

func TestDiskOptionsValidate(t *testing.T) {
	o := NewDiskOptions()
	o.Kind = "floppy"
	o.SectorSize = 500
	assert.Len(t, o.Validate(), 2)

	o = NewDiskOptions()
	o.Kind = DiskFile
	assert.Len(t, o.Validate(), 1)

	o = NewDiskOptions()
	o.Kind = DiskRAM
	o.Sectors = 0
	assert.Len(t, o.Validate(), 1)
}

func TestBootOptionsValidate(t *testing.T) {
	o := NewBootOptions()
	o.Heartbeats = -1
	o.PromptBuffer = 1
	assert.Len(t, o.Validate(), 2)
}

func TestHttpOptionsEmptyAddrDisables(t *testing.T) {
	o := NewHttpOptions()
	o.Addr = ""
	assert.Empty(t, o.Validate())
}

func TestFlagsBind(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	console := NewConsoleOptions()
	disk := NewDiskOptions()
	boot := NewBootOptions()
	console.AddFlags(fs)
	disk.AddFlags(fs)
	boot.AddFlags(fs)

	require.NoError(t, fs.Parse([]string{
		"--console.kind=tty",
		"--console.wait=0s",
		"--disk.kind=ram",
		"--disk.sectors=8",
		"--boot.heartbeats=2",
		"--boot.prompt=false",
	}))

	assert.Equal(t, ConsoleTTY, console.Kind)
	assert.Equal(t, time.Duration(0), console.Wait)
	assert.Equal(t, DiskRAM, disk.Kind)
	assert.Equal(t, uint64(8), disk.Sectors)
	assert.Equal(t, 2, boot.Heartbeats)
	assert.False(t, boot.Prompt)
}

func TestMqttToClientConfig(t *testing.T) {
	o := NewMqttOptions()
	o.ClientID = "node-1"
	cfg := o.ToClientConfig()

	assert.Equal(t, "tcp://localhost:1883", cfg.BrokerURL)
	assert.Equal(t, "node-1", cfg.ClientID)
	assert.Equal(t, uint16(60), cfg.KeepAlive)
}

func TestHttpOptionsValidate(t *testing.T) {
	o := NewHttpOptions()
	o.Addr = "localhost"
	o.ShutdownTimeout = 0
	assert.Len(t, o.Validate(), 2)
}

func TestS3OptionsValidate(t *testing.T) {
	assert.Empty(t, NewS3Options().Validate())

	o := NewS3Options()
	o.Endpoint = "https://minio.local:9000"
	o.Bucket = ""
	assert.Len(t, o.Validate(), 2)
}

func TestMqttOptionsValidate(t *testing.T) {
	o := NewMqttOptions()
	o.TopicRoot = "uvm/+/v1"
	o.KeepAlive = 0
	assert.Len(t, o.Validate(), 2)
}
