package statemachine

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/looplab/fsm"
)

// Obligation lifecycle events.
const (
	EventComplete  = "complete"
	EventTerminate = "terminate"
	EventAbandon   = "abandon"
	EventClose     = "close"
)

var destinations = map[string]domain.LifecycleState{
	EventComplete:  domain.StateEndedOnSchedule,
	EventTerminate: domain.StateEndedEarly,
	EventAbandon:   domain.StateAbandoned,
	EventClose:     domain.StateClosed,
}

// ObligationFSM wraps an obligation lifecycle with its state machine
type ObligationFSM struct {
	lifecycle *domain.ObligationLifecycle
	fsm       *fsm.FSM
}

// NewObligationFSM creates a new obligation state machine. A lifecycle without a state
// starts out active.
func NewObligationFSM(lifecycle *domain.ObligationLifecycle) *ObligationFSM {
	if lifecycle.State == "" {
		lifecycle.State = domain.StateActive
	}
	ended := []string{
		string(domain.StateEndedOnSchedule),
		string(domain.StateEndedEarly),
		string(domain.StateAbandoned),
	}
	return &ObligationFSM{
		lifecycle: lifecycle,
		fsm: fsm.NewFSM(
			string(lifecycle.State),
			fsm.Events{
				// active → ended on schedule
				{Name: EventComplete, Src: []string{string(domain.StateActive)}, Dst: string(domain.StateEndedOnSchedule)},

				// active → ended early (triggers the accrual correction)
				{Name: EventTerminate, Src: []string{string(domain.StateActive)}, Dst: string(domain.StateEndedEarly)},

				// active → abandoned (triggers the forfeiture)
				{Name: EventAbandon, Src: []string{string(domain.StateActive)}, Dst: string(domain.StateAbandoned)},

				// any ended state → closed
				{Name: EventClose, Src: ended, Dst: string(domain.StateClosed)},
			},
			fsm.Callbacks{},
		),
	}
}

// Complete transitions the obligation to ended on schedule
func (o *ObligationFSM) Complete(ctx context.Context) (bool, error) {
	return o.fire(ctx, EventComplete)
}

// Terminate transitions the obligation to ended early
func (o *ObligationFSM) Terminate(ctx context.Context) (bool, error) {
	return o.fire(ctx, EventTerminate)
}

// Abandon transitions the obligation to abandoned
func (o *ObligationFSM) Abandon(ctx context.Context) (bool, error) {
	return o.fire(ctx, EventAbandon)
}

// Close transitions an ended obligation to closed
func (o *ObligationFSM) Close(ctx context.Context) (bool, error) {
	return o.fire(ctx, EventClose)
}

// fire runs event and reports whether the state changed. Firing an event whose destination
// is the current state is a no-op, so a retried correction does not fail.
func (o *ObligationFSM) fire(ctx context.Context, event string) (bool, error) {
	if o.Current() == destinations[event] {
		return false, nil
	}
	if err := o.fsm.Event(ctx, event); err != nil {
		var invalid fsm.InvalidEventError
		if errors.As(err, &invalid) {
			return false, fmt.Errorf("%w: cannot %s an obligation in state %s", apperrors.ErrInvalidTransition, event, o.Current())
		}
		return false, fmt.Errorf("failed to %s obligation %s: %w", event, o.lifecycle.ObligationID, err)
	}
	o.lifecycle.State = o.Current()
	return true, nil
}

// Current returns the current state
func (o *ObligationFSM) Current() domain.LifecycleState {
	return domain.LifecycleState(o.fsm.Current())
}

// Can checks if a transition is possible
func (o *ObligationFSM) Can(event string) bool {
	return o.fsm.Can(event)
}
