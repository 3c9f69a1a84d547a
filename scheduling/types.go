/*
Package scheduling provides the core shift lifecycle and capacity-allocation engine.

PURPOSE:
  This package contains the domain types and algorithms for posting, claiming,
  and fulfilling discrete work shifts: the status state machine, multi-slot
  capacity bookkeeping, schedule-conflict detection, deterministic ranking,
  and worker reliability scoring.

KEY CONCEPTS IN THIS FILE (types.go):
  - Shift: A schedulable unit of work with date, time range, pay, and capacity
  - Slot: One unit of capacity; Slots is total, FilledSlots currently occupied
  - Actor: Explicit caller identity (id + role) threaded through every operation
  - Status: One of open | pending | confirmed | completed | no-show

DESIGN PRINCIPLES:
  1. Explicit identity: No ambient "current user"; every operation takes an Actor
  2. Precision: Uses decimal.Decimal for pay rates to avoid floating-point errors
  3. Typed identifiers: ShiftID and WorkerID cannot be mixed up at compile time
  4. Boundary normalization: Defaults for partially-present records are applied
     once, at the store boundary, never at point of use

USAGE:
  shift := scheduling.Shift{
      ID:        "shift-123",
      Role:      "Bartender",
      Date:      scheduling.NewDate(2024, time.January, 5),
      StartTime: scheduling.NewClock(9, 0),
      EndTime:   scheduling.NewClock(17, 0),
      PayRate:   decimal.NewFromInt(22),
      Slots:     2,
  }

SEE ALSO:
  - statemachine.go: Legal status transitions
  - allocator.go: Accept/approve/reject/cancel/delete orchestration
  - conflict.go: Overlap detection between a worker's shifts
*/
package scheduling

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS AND ROLES
// =============================================================================

type ShiftID string
type WorkerID string

// Role distinguishes the two caller authorities the engine knows about.
// Authentication is an external concern; the engine only checks roles.
type Role string

const (
	RoleOrganizer Role = "organizer"
	RoleWorker    Role = "worker"
)

// Actor is the explicit caller identity for every allocator operation.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) IsOrganizer() bool { return a.Role == RoleOrganizer }
func (a Actor) IsWorker() bool    { return a.Role == RoleWorker }

// Worker returns the actor's identity as a WorkerID.
func (a Actor) Worker() WorkerID { return WorkerID(a.ID) }

// =============================================================================
// STATUS
// =============================================================================

type Status string

const (
	StatusOpen      Status = "open"
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusNoShow    Status = "no-show"
)

// Valid reports whether s is one of the five defined statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusPending, StatusConfirmed, StatusCompleted, StatusNoShow:
		return true
	}
	return false
}

// Terminal reports whether s is an end state with no outgoing transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusNoShow
}

// =============================================================================
// SHIFT - The central entity
// =============================================================================

// Flags are descriptive booleans carried on a shift. They have no behavioral
// effect on the engine.
type Flags struct {
	TipsIncluded   bool
	BonusAvailable bool
	OvertimePay    bool
	PayHidden      bool
}

// Shift is a schedulable unit of work.
//
// Invariants (checked by CheckInvariants, enforced by the allocator):
//   - 0 <= FilledSlots <= Slots
//   - len(AssignedWorkers) == FilledSlots, no duplicates
//   - Status is one of the five defined values
type Shift struct {
	ID              ShiftID
	Role            string
	Date            Date
	StartTime       ClockTime
	EndTime         ClockTime
	PayRate         decimal.Decimal
	Slots           int
	FilledSlots     int
	AssignedWorkers []WorkerID
	Status          Status
	Flags           Flags
	Notes           string
	CreatedAt       time.Time
}

// Clone returns a deep copy. Callers mutate copies, never shared snapshots.
func (s *Shift) Clone() *Shift {
	out := *s
	out.AssignedWorkers = append([]WorkerID(nil), s.AssignedWorkers...)
	return &out
}

// IsAssigned reports whether w currently holds a slot on the shift.
func (s *Shift) IsAssigned(w WorkerID) bool {
	for _, existing := range s.AssignedWorkers {
		if existing == w {
			return true
		}
	}
	return false
}

// StartsAt returns the shift's start as an instant (date + start time).
func (s *Shift) StartsAt() time.Time { return s.Date.At(s.StartTime) }

// EndsAt returns the shift's end as an instant (date + end time).
func (s *Shift) EndsAt() time.Time { return s.Date.At(s.EndTime) }

// Normalize applies defaults for partially-present records. Called once by
// store implementations when a record is read or written, so the rest of the
// engine can assume a fully-populated shape.
func (s *Shift) Normalize() {
	if s.Status == "" {
		s.Status = StatusOpen
	}
	if s.AssignedWorkers == nil {
		s.AssignedWorkers = []WorkerID{}
	}
	if s.FilledSlots < 0 {
		s.FilledSlots = 0
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
}

// Validate checks the record shape before it touches the store.
// Returns a *ValidationError on the first malformed or missing field.
func (s *Shift) Validate() error {
	if s.ID == "" {
		return &ValidationError{Field: "id", Reason: "required"}
	}
	if s.Role == "" {
		return &ValidationError{Field: "role", Reason: "required"}
	}
	if s.Date.IsZero() {
		return &ValidationError{Field: "date", Reason: "required"}
	}
	if s.Slots < 1 {
		return &ValidationError{Field: "slots", Reason: "must be at least 1"}
	}
	if s.PayRate.IsNegative() {
		return &ValidationError{Field: "payRate", Reason: "must not be negative"}
	}
	if !s.Status.Valid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", s.Status)}
	}
	return nil
}

// CheckInvariants verifies the capacity bookkeeping invariants. The allocator
// runs this after every mutation before the conditional write.
func (s *Shift) CheckInvariants() error {
	if s.FilledSlots < 0 || s.FilledSlots > s.Slots {
		return &ValidationError{
			Field:  "filledSlots",
			Reason: fmt.Sprintf("%d outside [0, %d]", s.FilledSlots, s.Slots),
		}
	}
	if len(s.AssignedWorkers) != s.FilledSlots {
		return &ValidationError{
			Field:  "assignedWorkers",
			Reason: fmt.Sprintf("%d workers for %d filled slots", len(s.AssignedWorkers), s.FilledSlots),
		}
	}
	seen := make(map[WorkerID]bool, len(s.AssignedWorkers))
	for _, w := range s.AssignedWorkers {
		if seen[w] {
			return &ValidationError{Field: "assignedWorkers", Reason: fmt.Sprintf("duplicate worker %s", w)}
		}
		seen[w] = true
	}
	return nil
}
