package topic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilder(t *testing.T) {
	b := NewBuilder("uvm/v1/")

	assert.Equal(t, "uvm/v1/console/out/node-1", b.ConsoleOut("node-1"))
	assert.Equal(t, "uvm/v1/console/in/node-1", b.ConsoleIn("node-1"))
	assert.Equal(t, "uvm/v1/status/node-1", b.Status("node-1"))
	assert.Equal(t, "uvm/v1/console/out/+", b.ConsoleOutWildcard())
	assert.Equal(t, "uvm/v1/status/+", b.StatusWildcard())
}
