package workflow

// Package workflow implements the guarded finite-state machine shared by
// enrollments and subscriptions. The machine itself is a declarative
// transition table interpreted by one generic runner; entry guards and the
// after-transition hook are supplied per call so the table stays pure data.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type State string

type Event string

const (
	StateInitial             State = "initial"
	StateFilledApplication   State = "filled_application"
	StateWaitingForApproval  State = "waiting_for_approval"
	StateApplicationApproved State = "application_approved"
	StateApplicationReady    State = "application_ready"
	StateDeployed            State = "deployed"
)

const (
	EventFillApplication     Event = "fill_application"
	EventCompleteApplication Event = "complete_application"
	EventRefuseApplication   Event = "refuse_application"
	EventApproveApplication  Event = "approve_application"
	EventSignConvention      Event = "sign_convention"
	EventDeploy              Event = "deploy"
)

// ErrIllegalTransition is returned when the requested event is not defined
// for the current state. It is a rejected action, not a fault.
var ErrIllegalTransition = errors.New("illegal transition")

// ValidationError carries the entry guard's human-readable messages keyed by
// the failing concern (a field name, "documents", ...). The transition it
// guarded did not happen.
type ValidationError struct {
	Errors map[string][]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Errors))
	for k := range e.Errors {
		keys = append(keys, k)
	}
	return "validation failed: " + strings.Join(keys, ", ")
}

// Add appends one message under key, allocating the map on first use.
func (e *ValidationError) Add(key, message string) {
	if e.Errors == nil {
		e.Errors = map[string][]string{}
	}
	e.Errors[key] = append(e.Errors[key], message)
}

// Empty reports whether no message was recorded.
func (e *ValidationError) Empty() bool { return len(e.Errors) == 0 }

// Transition is one row of the table: the event moves any of the From
// states to To.
type Transition struct {
	Event Event
	From  []State
	To    State
}

// Guard validates entry into a target state. A non-nil ValidationError
// aborts the transition with no state change.
type Guard func(ctx context.Context) (*ValidationError, error)

// Guards maps a target state to its entry guard.
type Guards map[State]Guard

// Hook runs after a committed transition. Failures are the caller's to log;
// they never roll back the state change.
type Hook func(ctx context.Context, event Event, from, to State)

// Table is a complete machine definition.
type Table struct {
	Initial     State
	Transitions []Transition
}

// Can reports whether event is legal from current, independent of guards.
func (t Table) Can(current State, event Event) bool {
	_, ok := t.target(current, event)
	return ok
}

// Events returns every event name the table defines, in table order,
// without duplicates.
func (t Table) Events() []Event {
	seen := make(map[Event]bool)
	var out []Event
	for _, tr := range t.Transitions {
		if !seen[tr.Event] {
			seen[tr.Event] = true
			out = append(out, tr.Event)
		}
	}
	return out
}

// HasEvent reports whether the table defines event at all, from any state.
func (t Table) HasEvent(event Event) bool {
	for _, tr := range t.Transitions {
		if tr.Event == event {
			return true
		}
	}
	return false
}

// Fire runs event from current: source-state match, then the target state's
// entry guard, then commit (persisting the new state), then the hook. The
// hook only runs once commit succeeded and cannot undo it. The returned
// state equals current when the transition was rejected.
func (t Table) Fire(ctx context.Context, current State, event Event, guards Guards, commit func(ctx context.Context, to State) error, after Hook) (State, error) {
	to, ok := t.target(current, event)
	if !ok {
		return current, fmt.Errorf("%w: %s from %s", ErrIllegalTransition, event, current)
	}
	if guard, ok := guards[to]; ok && guard != nil {
		verr, err := guard(ctx)
		if err != nil {
			return current, err
		}
		if verr != nil && !verr.Empty() {
			return current, verr
		}
	}
	if commit != nil {
		if err := commit(ctx, to); err != nil {
			return current, err
		}
	}
	if after != nil {
		after(ctx, event, current, to)
	}
	return to, nil
}

func (t Table) target(current State, event Event) (State, bool) {
	for _, tr := range t.Transitions {
		if tr.Event != event {
			continue
		}
		for _, from := range tr.From {
			if from == current {
				return tr.To, true
			}
		}
	}
	return "", false
}

// SubscriptionTable is the applicant-facing pipeline. refuse_application is
// a deliberate send-back: it always lands on filled_application.
var SubscriptionTable = Table{
	Initial: StateInitial,
	Transitions: []Transition{
		{EventFillApplication, []State{StateInitial}, StateFilledApplication},
		{EventCompleteApplication, []State{StateFilledApplication}, StateWaitingForApproval},
		{EventRefuseApplication, []State{StateFilledApplication, StateWaitingForApproval}, StateFilledApplication},
		{EventApproveApplication, []State{StateFilledApplication, StateWaitingForApproval}, StateApplicationApproved},
		{EventSignConvention, []State{StateApplicationApproved}, StateApplicationReady},
		{EventDeploy, []State{StateApplicationReady}, StateDeployed},
	},
}

// EnrollmentTable gates the template itself going live. Same shape as the
// subscription pipeline; only the waiting_for_approval entry carries a guard
// (the fixed document-type checklist), wired by the enrollment service.
var EnrollmentTable = Table{
	Initial:     StateInitial,
	Transitions: SubscriptionTable.Transitions,
}
