// Package fsm holds helpers shared by the phase machines built on looplab/fsm.
package fsm

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
)

// WrapEvent adapts an error-returning callback. A returned error is stored on
// the event, so the Event call that triggered it reports it.
func WrapEvent(fn func(ctx context.Context, event *fsm.Event) error) fsm.Callback {
	return func(ctx context.Context, event *fsm.Event) {
		if err := fn(ctx, event); err != nil {
			event.Err = err
		}
	}
}

// OnTransition returns an "enter_state" callback reporting every transition.
func OnTransition(fn func(from, to string)) fsm.Callback {
	return func(_ context.Context, event *fsm.Event) {
		fn(event.Src, event.Dst)
	}
}

// PhaseError reports the event that failed and the phase the machine was left in.
type PhaseError struct {
	Event string
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s (in phase %s): %v", e.Event, e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// Sequence fires events in order, passing args to every callback, and stops
// at the first failure.
func Sequence(ctx context.Context, f *fsm.FSM, events []string, args ...any) error {
	for _, event := range events {
		if err := f.Event(ctx, event, args...); err != nil {
			return &PhaseError{Event: event, Phase: f.Current(), Err: err}
		}
	}
	return nil
}
