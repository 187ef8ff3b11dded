package irq

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/autopeer-io/uvm/internal/hal"
)

func TestMask(t *testing.T) {
	m := NewMask(0)

	assert.True(t, hal.EnableIRQ(m, 4))
	assert.True(t, hal.EnableIRQ(m, 1))
	assert.True(t, hal.EnableIRQ(m, 99))
	assert.Equal(t, []uint{1, 4}, m.EnabledLines())

	assert.True(t, hal.DisableIRQ(m, 4))
	assert.False(t, m.Enabled(4))
	assert.True(t, m.Enabled(1))
}

func TestFixedSupportsNoOperation(t *testing.T) {
	var c hal.IrqController = Fixed{}
	assert.False(t, hal.EnableIRQ(c, 0))
	assert.False(t, hal.DisableIRQ(c, 0))
}
