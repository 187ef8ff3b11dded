package boot

import (
	"io"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/autopeer-io/uvm/internal/hal"
)

// Devices are the concrete backends initialized by the boot stage. They live
// until the machine is powered off. A nil field is an unavailable device.
type Devices struct {
	Console hal.Console
	// Display mirrors boot diagnostics. It is not handed to the kernel.
	Display hal.Console
	Disk    hal.BlockDevice
	Timer   hal.Timer
	Irq     hal.IrqController
	MMIO    any
	PCI     any

	closers    []io.Closer
	phaseHooks []func(phase string)
}

// OnClose registers c to be closed at power-off.
func (d *Devices) OnClose(c io.Closer) {
	d.closers = append(d.closers, c)
}

// OnPhase registers fn to observe the boot phases entered after the devices are up.
func (d *Devices) OnPhase(fn func(phase string)) {
	d.phaseHooks = append(d.phaseHooks, fn)
}

// Platform assembles the PlatformInfo handed to the kernel. Unavailable
// devices leave their slot absent.
func (d *Devices) Platform() *hal.PlatformInfo {
	return hal.NewPlatformInfo(
		hal.WithConsole(d.Console),
		hal.WithDisk(d.Disk),
		hal.WithTimer(d.Timer),
		hal.WithIrqController(d.Irq),
		hal.WithMMIO(d.MMIO),
		hal.WithPCI(d.PCI),
	)
}

// Close releases the devices in reverse order of registration.
func (d *Devices) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return utilerrors.NewAggregate(errs)
}
