package boot

import (
	"github.com/looplab/fsm"

	"github.com/autopeer-io/uvm/internal/pkg/metrics"
	fsmutil "github.com/autopeer-io/uvm/internal/pkg/util/fsm"
	"github.com/autopeer-io/uvm/pkg/log"
)

// Boot phases, in the order they are entered.
const (
	PhaseStart       = "start"
	PhaseDevices     = "devices"
	PhasePlatform    = "platform"
	PhaseDiagnostics = "diagnostics"
	PhasePrompt      = "prompt"
	PhaseHandoff     = "handoff"
	PhaseHalted      = "halted"
)

const (
	EventInitDevices = "event_init_devices"
	EventAssemble    = "event_assemble"
	EventDiagnose    = "event_diagnose"
	EventPrompt      = "event_prompt"
	EventHandoff     = "event_handoff"
	EventHalt        = "event_halt"
)

func (s *Stage) newPhaseMachine() *fsm.FSM {
	events := fsm.Events{
		{Name: EventInitDevices, Src: []string{PhaseStart}, Dst: PhaseDevices},
		{Name: EventAssemble, Src: []string{PhaseDevices}, Dst: PhasePlatform},
		{Name: EventDiagnose, Src: []string{PhasePlatform}, Dst: PhaseDiagnostics},
		{Name: EventPrompt, Src: []string{PhaseDiagnostics}, Dst: PhasePrompt},
		{Name: EventHandoff, Src: []string{PhasePrompt}, Dst: PhaseHandoff},
		{Name: EventHalt, Src: []string{PhaseHandoff}, Dst: PhaseHalted},
	}

	callbacks := fsm.Callbacks{
		"enter_" + PhaseDevices:     fsmutil.WrapEvent(s.enterDevices),
		"enter_" + PhasePlatform:    fsmutil.WrapEvent(s.enterPlatform),
		"enter_" + PhaseDiagnostics: fsmutil.WrapEvent(s.enterDiagnostics),
		"enter_" + PhasePrompt:      fsmutil.WrapEvent(s.enterPrompt),
		"enter_state": fsmutil.OnTransition(func(from, to string) {
			metrics.SetPhase("boot", from, to)
			log.Debug("Boot phase entered", "phase", to, "session", s.sessionID)
			for _, hook := range s.phaseHooks {
				hook(to)
			}
			if s.dev != nil {
				for _, hook := range s.dev.phaseHooks {
					hook(to)
				}
			}
		}),
	}

	metrics.SetPhase("boot", "", PhaseStart)
	return fsm.NewFSM(PhaseStart, events, callbacks)
}
