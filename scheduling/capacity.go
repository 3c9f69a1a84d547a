/*
capacity.go - Slot capacity bookkeeping

PURPOSE:
  Pure functions computing the legality of a capacity change and applying it.
  The allocator mutates only through these helpers so the capacity invariants
  (0 <= FilledSlots <= Slots, assignment set matches the count) hold after
  every operation.
*/
package scheduling

// CanFill reports whether one more slot can be filled. Returns a
// *CapacityExceededError when the shift is full.
func CanFill(s *Shift) error {
	if s.FilledSlots >= s.Slots {
		return &CapacityExceededError{ShiftID: s.ID, Slots: s.Slots}
	}
	return nil
}

// Fill assigns w to one slot. The caller has already checked CanFill and
// duplicate membership.
func Fill(s *Shift, w WorkerID) {
	s.AssignedWorkers = append(s.AssignedWorkers, w)
	s.FilledSlots++
}

// ReleaseAll clears every assignment. Reject and cancel act on the whole
// shift, releasing all workers simultaneously.
func ReleaseAll(s *Shift) {
	s.AssignedWorkers = []WorkerID{}
	s.FilledSlots = 0
}
