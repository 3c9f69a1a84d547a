/*
statemachine.go - Legal status transitions for a shift

PURPOSE:
  Defines which lifecycle events are permitted in each status and what the
  resulting status is. The allocator consults this table before touching
  capacity, so an illegal transition never has side effects.

LIFECYCLE:

            accept                approve
   open ───────────▶ pending ───────────▶ confirmed
    ▲                 │  ▲ accept           │
    │        reject   │  └─(more slots)     │ cancel
    └─────────────────┘◀────────────────────┘

   pending/confirmed ──mark outcome──▶ completed | no-show  (terminal)

WHOLE-SHIFT SEMANTICS:
  Approve, reject, and cancel act on the entire shift, not per slot. When
  several workers hold slots on one shift, reject and cancel release all of
  them at once. Status is a property of the shift record, not of individual
  slots, so one record never carries a mix of per-worker states.

SEE ALSO:
  - allocator.go: Applies the transitions with capacity side effects
  - errors.go: ErrIllegalTransition sentinel
*/
package scheduling

import "fmt"

// Event is a lifecycle intent issued against a shift.
type Event string

const (
	EventAccept      Event = "accept"
	EventApprove     Event = "approve"
	EventReject      Event = "reject"
	EventCancel      Event = "cancel"
	EventMarkOutcome Event = "mark-outcome"
	EventDelete      Event = "delete"
)

// TransitionError reports an event forbidden in the current status.
type TransitionError struct {
	ShiftID ShiftID
	From    Status
	Event   Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("shift %s: cannot %s while %s", e.ShiftID, e.Event, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrIllegalTransition }

// transitions maps (current status, event) to the next status. Events absent
// from a status's row are illegal there. Accept keeps a pending shift pending
// while more slots remain; MarkOutcome's target (completed or no-show) is
// supplied by the caller and validated separately.
var transitions = map[Status]map[Event]Status{
	StatusOpen: {
		EventAccept: StatusPending,
	},
	StatusPending: {
		EventAccept:  StatusPending,
		EventApprove: StatusConfirmed,
		EventReject:  StatusOpen,
		EventCancel:  StatusOpen,
	},
	StatusConfirmed: {
		EventReject: StatusOpen,
		EventCancel: StatusOpen,
	},
}

// Next returns the status resulting from applying event in status from.
// Returns a *TransitionError if the event is not legal there.
func Next(id ShiftID, from Status, event Event) (Status, error) {
	if row, ok := transitions[from]; ok {
		if to, ok := row[event]; ok {
			return to, nil
		}
	}
	return from, &TransitionError{ShiftID: id, From: from, Event: event}
}

// CanMarkOutcome reports whether a shift in status from may be marked with the
// given terminal outcome. The date-elapsed guard lives in the allocator.
func CanMarkOutcome(from Status, outcome Status) bool {
	if from != StatusPending && from != StatusConfirmed {
		return false
	}
	return outcome == StatusCompleted || outcome == StatusNoShow
}
