package kernel

import (
	"github.com/looplab/fsm"

	"github.com/autopeer-io/uvm/internal/pkg/metrics"
	fsmutil "github.com/autopeer-io/uvm/internal/pkg/util/fsm"
	"github.com/autopeer-io/uvm/pkg/log"
)

// Kernel phases. Each is entered once and never revisited.
const (
	PhaseStart     = "start"
	PhaseBanner    = "banner"
	PhaseDiskProbe = "disk_probe"
	PhaseHeartbeat = "heartbeat"
	PhaseIdle      = "idle"
)

const (
	EventBanner    = "event_banner"
	EventProbeDisk = "event_probe_disk"
	EventHeartbeat = "event_heartbeat"
	EventIdle      = "event_idle"
)

// newPhaseMachine wires the linear phase sequence. The enter_ callbacks carry
// the work of each phase; the *hal.PlatformInfo travels in the event args.
func (k *Kernel) newPhaseMachine() *fsm.FSM {
	events := fsm.Events{
		{Name: EventBanner, Src: []string{PhaseStart}, Dst: PhaseBanner},
		{Name: EventProbeDisk, Src: []string{PhaseBanner}, Dst: PhaseDiskProbe},
		{Name: EventHeartbeat, Src: []string{PhaseDiskProbe}, Dst: PhaseHeartbeat},
		{Name: EventIdle, Src: []string{PhaseHeartbeat}, Dst: PhaseIdle},
	}

	callbacks := fsm.Callbacks{
		"enter_" + PhaseBanner:    fsmutil.WrapEvent(k.enterBanner),
		"enter_" + PhaseDiskProbe: fsmutil.WrapEvent(k.enterDiskProbe),
		"enter_" + PhaseHeartbeat: fsmutil.WrapEvent(k.enterHeartbeat),
		"enter_state": fsmutil.OnTransition(func(from, to string) {
			metrics.SetPhase("kernel", from, to)
			log.Debug("Kernel phase entered", "phase", to)
		}),
	}

	metrics.SetPhase("kernel", "", PhaseStart)
	return fsm.NewFSM(PhaseStart, events, callbacks)
}
