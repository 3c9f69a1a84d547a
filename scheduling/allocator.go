/*
allocator.go - SlotAllocator: concurrency-safe shift lifecycle operations

PURPOSE:
  Orchestrates every mutating operation against the record store. Each
  operation is a short read-validate-write sequence:

    1. Read the current snapshot
    2. Ask the state machine whether the transition is legal
    3. Ask the conflict detector / capacity policy whether the side effects
       are legal
    4. Attempt a conditional write on the version that was read

  If the conditional write loses a race, the whole precondition check is
  retried against the fresh state, up to DefaultRetries attempts, then
  ErrConcurrentModification surfaces to the caller.

WHY CONDITIONAL WRITES:
  Without them, two workers reading FilledSlots=0/Slots=1 simultaneously can
  both write FilledSlots=1 and silently overbook the shift. The version check
  guarantees exactly one of them commits; the loser revalidates and fails
  with ErrCapacityExceeded.

AUTHORIZATION:
  Caller identity is an explicit Actor parameter; there is no ambient user.
  Create, approve, reject, delete, and outcome marking require organizer
  authority. Accept requires worker authority. Cancel is allowed to the
  organizer or to a worker currently holding a slot.

SEE ALSO:
  - statemachine.go: Transition table
  - conflict.go:     Overlap detection
  - capacity.go:     Slot bookkeeping
  - store.go:        Versioned store contract
*/
package scheduling

import (
	"context"
	"fmt"
	"time"
)

// DefaultRetries bounds the conditional-write retry loop.
const DefaultRetries = 3

// SlotAllocator coordinates shift lifecycle operations against a RecordStore.
type SlotAllocator struct {
	store   RecordStore
	retries int
	now     func() time.Time
}

func NewSlotAllocator(store RecordStore) *SlotAllocator {
	return &SlotAllocator{store: store, retries: DefaultRetries, now: time.Now}
}

// WithClock overrides the time source. Used by tests and by callers that
// evaluate outcome marking against a fixed reference instant.
func (sa *SlotAllocator) WithClock(now func() time.Time) *SlotAllocator {
	sa.now = now
	return sa
}

// =============================================================================
// CREATE / READ
// =============================================================================

// Create posts a new shift in status open with no filled slots.
// Organizer authority required.
func (sa *SlotAllocator) Create(ctx context.Context, actor Actor, s *Shift) (*Snapshot, error) {
	if !actor.IsOrganizer() {
		return nil, &PermissionError{Actor: actor, Operation: "create shifts"}
	}

	posted := s.Clone()
	posted.Status = StatusOpen
	posted.FilledSlots = 0
	posted.AssignedWorkers = []WorkerID{}
	if posted.CreatedAt.IsZero() {
		posted.CreatedAt = sa.now().UTC()
	}

	if err := posted.Validate(); err != nil {
		return nil, err
	}
	if err := posted.CheckInvariants(); err != nil {
		return nil, err
	}

	return sa.store.Put(ctx, posted, 0)
}

// Get returns the current snapshot for id.
func (sa *SlotAllocator) Get(ctx context.Context, id ShiftID) (*Snapshot, error) {
	return sa.store.Get(ctx, id)
}

// =============================================================================
// ACCEPT
// =============================================================================

// Accept claims one slot on the shift for the calling worker.
//
// Preconditions: status is open or pending, a slot is free, the worker does
// not already hold a slot, and the shift does not overlap any of the worker's
// other pending or confirmed assignments.
func (sa *SlotAllocator) Accept(ctx context.Context, actor Actor, id ShiftID) (*Snapshot, error) {
	if !actor.IsWorker() {
		return nil, &PermissionError{Actor: actor, Operation: "accept shifts"}
	}
	worker := actor.Worker()

	return sa.mutate(ctx, id, func(s *Shift) (bool, error) {
		next, err := Next(s.ID, s.Status, EventAccept)
		if err != nil {
			return false, err
		}
		// Capacity is checked before membership: a full shift fails with
		// CapacityExceededError for every worker, assigned or not.
		if err := CanFill(s); err != nil {
			return false, err
		}
		if s.IsAssigned(worker) {
			return false, fmt.Errorf("worker %s on shift %s: %w", worker, s.ID, ErrDuplicateAssignment)
		}

		// The blocking set is re-read on every attempt so a conflict created
		// while we were racing is still caught.
		held, err := sa.store.Query(ctx, Filter{
			Worker:   worker,
			Statuses: []Status{StatusPending, StatusConfirmed},
		})
		if err != nil {
			return false, err
		}
		heldShifts := make([]Shift, len(held))
		for i, snap := range held {
			heldShifts[i] = snap.Shift
		}
		if conflictID, found := FindConflict(s, heldShifts); found {
			return false, &ScheduleConflictError{Worker: worker, ShiftID: s.ID, ConflictingID: conflictID}
		}

		Fill(s, worker)
		s.Status = next
		return true, nil
	})
}

// =============================================================================
// APPROVE / REJECT / CANCEL
// =============================================================================

// Approve confirms a pending shift. Organizer authority required.
// Capacity is unchanged.
func (sa *SlotAllocator) Approve(ctx context.Context, actor Actor, id ShiftID) (*Snapshot, error) {
	if !actor.IsOrganizer() {
		return nil, &PermissionError{Actor: actor, Operation: "approve shifts"}
	}
	return sa.mutate(ctx, id, func(s *Shift) (bool, error) {
		next, err := Next(s.ID, s.Status, EventApprove)
		if err != nil {
			return false, err
		}
		s.Status = next
		return true, nil
	})
}

// Reject returns a pending or confirmed shift to open, releasing every
// assigned worker. Rejecting a shift that is already open is an idempotent
// no-op returning the unchanged record. Organizer authority required.
func (sa *SlotAllocator) Reject(ctx context.Context, actor Actor, id ShiftID) (*Snapshot, error) {
	if !actor.IsOrganizer() {
		return nil, &PermissionError{Actor: actor, Operation: "reject shifts"}
	}
	return sa.mutate(ctx, id, func(s *Shift) (bool, error) {
		if s.Status == StatusOpen {
			return false, nil
		}
		return sa.release(s, EventReject)
	})
}

// Cancel returns a pending or confirmed shift to open, releasing every
// assigned worker. Allowed to the organizer or to a worker currently holding
// a slot on the shift.
func (sa *SlotAllocator) Cancel(ctx context.Context, actor Actor, id ShiftID) (*Snapshot, error) {
	return sa.mutate(ctx, id, func(s *Shift) (bool, error) {
		if !actor.IsOrganizer() && !s.IsAssigned(actor.Worker()) {
			return false, &PermissionError{Actor: actor, Operation: "cancel shift " + string(id)}
		}
		return sa.release(s, EventCancel)
	})
}

// release applies the whole-shift capacity reset shared by reject and cancel.
func (sa *SlotAllocator) release(s *Shift, event Event) (bool, error) {
	next, err := Next(s.ID, s.Status, event)
	if err != nil {
		return false, err
	}
	ReleaseAll(s)
	s.Status = next
	return true, nil
}

// =============================================================================
// OUTCOME MARKING
// =============================================================================

// MarkOutcome records the terminal outcome of an elapsed shift: completed or
// no-show. Organizer authority required; the shift must have ended relative
// to the allocator's clock.
func (sa *SlotAllocator) MarkOutcome(ctx context.Context, actor Actor, id ShiftID, outcome Status) (*Snapshot, error) {
	if !actor.IsOrganizer() {
		return nil, &PermissionError{Actor: actor, Operation: "mark shift outcomes"}
	}
	return sa.mutate(ctx, id, func(s *Shift) (bool, error) {
		if !CanMarkOutcome(s.Status, outcome) {
			return false, &TransitionError{ShiftID: s.ID, From: s.Status, Event: EventMarkOutcome}
		}
		if s.EndsAt().After(sa.now().UTC()) {
			return false, &ValidationError{Field: "date", Reason: "shift has not ended yet"}
		}
		s.Status = outcome
		return true, nil
	})
}

// =============================================================================
// DELETE
// =============================================================================

// Delete permanently removes the shift record. Organizer authority required.
// Idempotent: deleting an absent shift succeeds.
func (sa *SlotAllocator) Delete(ctx context.Context, actor Actor, id ShiftID) error {
	if !actor.IsOrganizer() {
		return &PermissionError{Actor: actor, Operation: "delete shifts"}
	}
	_, err := sa.store.Delete(ctx, id)
	return err
}

// =============================================================================
// READ-VALIDATE-CAS LOOP
// =============================================================================

// mutate runs the optimistic-concurrency loop. apply mutates the cloned
// shift in place and reports whether anything changed; a false with nil
// error means the operation is a no-op and the current snapshot is returned
// without a write. Any error from apply surfaces immediately, on first
// detection; only a lost conditional write triggers a retry.
func (sa *SlotAllocator) mutate(ctx context.Context, id ShiftID, apply func(*Shift) (bool, error)) (*Snapshot, error) {
	var lastErr error
	for attempt := 0; attempt < sa.retries; attempt++ {
		snap, err := sa.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		next := snap.Shift.Clone()
		changed, err := apply(next)
		if err != nil {
			return nil, err
		}
		if !changed {
			return snap, nil
		}
		if err := next.CheckInvariants(); err != nil {
			return nil, err
		}

		committed, err := sa.store.Put(ctx, next, snap.Version)
		if err == nil {
			return committed, nil
		}
		if !IsRetryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}
