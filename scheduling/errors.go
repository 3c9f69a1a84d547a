/*
errors.go - Centralized error taxonomy for the scheduling engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Every operation returns exactly one of these; none are swallowed.

ERROR CATEGORIES:
  1. Input errors       - Malformed records, rejected before touching the store
  2. Authorization      - Caller's role lacks authority for the operation
  3. Lifecycle errors   - Status, capacity, assignment, and conflict violations
  4. Concurrency errors - Conditional write lost the race after all retries

USAGE:
  Callers branch with errors.Is():

    if errors.Is(err, scheduling.ErrCapacityExceeded) {
        // shift is full
    }

  Structured variants carry context for display, e.g. the conflicting shift id:

    var conflict *scheduling.ScheduleConflictError
    if errors.As(err, &conflict) {
        show(conflict.ConflictingID)
    }

SEE ALSO:
  - statemachine.go: TransitionError, the structured illegal-transition error
  - allocator.go: Produces these errors
*/
package scheduling

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned for a malformed or missing required field.
	ErrValidation = errors.New("invalid shift record")

	// ErrNotFound is returned when a referenced shift id does not exist.
	ErrNotFound = errors.New("shift not found")

	// ErrAlreadyExists is returned when creating a shift whose id is taken.
	ErrAlreadyExists = errors.New("shift already exists")

	// ErrPermission is returned when the caller's role lacks authority.
	ErrPermission = errors.New("permission denied")

	// ErrIllegalTransition is returned when the current status forbids the
	// requested operation.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrCapacityExceeded is returned when accept is attempted on a full shift.
	ErrCapacityExceeded = errors.New("shift capacity exceeded")

	// ErrDuplicateAssignment is returned when a worker already holding a slot
	// attempts to accept the same shift again.
	ErrDuplicateAssignment = errors.New("worker already assigned to shift")

	// ErrScheduleConflict is returned when accepting would give the worker two
	// overlapping shifts.
	ErrScheduleConflict = errors.New("schedule conflict")

	// ErrConcurrentModification is returned when the conditional write failed
	// after exhausting retries. Safe to retry from the caller's side.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the offending field. Produced before any store access.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// PermissionError records which operation the caller was denied.
type PermissionError struct {
	Actor     Actor
	Operation string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s %s may not %s", e.Actor.Role, e.Actor.ID, e.Operation)
}

func (e *PermissionError) Unwrap() error { return ErrPermission }

// CapacityExceededError reports a full shift.
type CapacityExceededError struct {
	ShiftID ShiftID
	Slots   int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("shift %s is full: all %d slots taken", e.ShiftID, e.Slots)
}

func (e *CapacityExceededError) Unwrap() error { return ErrCapacityExceeded }

// ScheduleConflictError carries the conflicting shift's id for caller display.
type ScheduleConflictError struct {
	Worker        WorkerID
	ShiftID       ShiftID
	ConflictingID ShiftID
}

func (e *ScheduleConflictError) Error() string {
	return fmt.Sprintf("worker %s cannot accept shift %s: overlaps shift %s",
		e.Worker, e.ShiftID, e.ConflictingID)
}

func (e *ScheduleConflictError) Unwrap() error { return ErrScheduleConflict }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsClientError returns true if the error is due to the caller's request
// rather than an engine or store fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrIllegalTransition) ||
		errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrDuplicateAssignment) ||
		errors.Is(err, ErrScheduleConflict)
}

// IsNotFound returns true if the error indicates a missing shift.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
