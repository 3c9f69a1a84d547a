/*
conflict.go - Schedule overlap detection between shifts

PURPOSE:
  Pure functions deciding whether two shifts overlap in time. A worker is
  blocked from accepting a shift that overlaps any of their existing pending
  or confirmed assignments.

INTERVAL MODEL:
  A shift occupies the half-open interval [StartTime, EndTime) on its date.
  Two intervals intersect iff start1 < end2 AND start2 < end1, so back-to-back
  shifts (end1 == start2) never conflict.

PROPERTIES:
  - Pure: no side effects, no store access
  - Symmetric: Conflicts(a, b) == Conflicts(b, a)
  - Total: defined for every pair of valid shifts
*/
package scheduling

// Conflicts reports whether two shifts overlap in time.
// Shifts on different dates never conflict.
func Conflicts(a, b *Shift) bool {
	if !a.Date.Equal(b.Date) {
		return false
	}
	return a.StartTime.Minutes() < b.EndTime.Minutes() &&
		b.StartTime.Minutes() < a.EndTime.Minutes()
}

// FindConflict returns the first shift in held that overlaps candidate,
// skipping the candidate itself. held should be the worker's current pending
// and confirmed assignments.
func FindConflict(candidate *Shift, held []Shift) (ShiftID, bool) {
	for i := range held {
		if held[i].ID == candidate.ID {
			continue
		}
		if Conflicts(candidate, &held[i]) {
			return held[i].ID, true
		}
	}
	return "", false
}
