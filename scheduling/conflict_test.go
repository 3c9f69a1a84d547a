package scheduling_test

import (
	"testing"

	"github.com/warp/shift-engine/scheduling"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// shiftAt builds a minimal shift for time-math tests.
// Shared across conflict, ranking, and reliability tests.
func shiftAt(id, date, start, end string) scheduling.Shift {
	d, err := scheduling.ParseDate(date)
	if err != nil {
		panic(err)
	}
	s, err := scheduling.ParseClock(start)
	if err != nil {
		panic(err)
	}
	e, err := scheduling.ParseClock(end)
	if err != nil {
		panic(err)
	}
	return scheduling.Shift{
		ID:              scheduling.ShiftID(id),
		Role:            "Bartender",
		Date:            d,
		StartTime:       s,
		EndTime:         e,
		Slots:           1,
		AssignedWorkers: []scheduling.WorkerID{},
		Status:          scheduling.StatusOpen,
	}
}

// =============================================================================
// CONFLICT DETECTION
// =============================================================================

func TestConflicts_OverlappingSameDay(t *testing.T) {
	// GIVEN: Shift A 09:00-17:00 and shift B 16:00-20:00 on the same date
	// WHEN: Checking for a conflict
	// THEN: They conflict (one hour of overlap)

	a := shiftAt("a", "2024-01-05", "09:00", "17:00")
	b := shiftAt("b", "2024-01-05", "16:00", "20:00")

	if !scheduling.Conflicts(&a, &b) {
		t.Errorf("expected %s-%s and %s-%s to conflict", a.StartTime, a.EndTime, b.StartTime, b.EndTime)
	}
}

func TestConflicts_BackToBack_NoConflict(t *testing.T) {
	// GIVEN: Shift A 09:00-17:00 and shift C 17:00-20:00 on the same date
	// WHEN: Checking for a conflict
	// THEN: Half-open intervals mean back-to-back shifts never conflict

	a := shiftAt("a", "2024-01-05", "09:00", "17:00")
	c := shiftAt("c", "2024-01-05", "17:00", "20:00")

	if scheduling.Conflicts(&a, &c) {
		t.Error("back-to-back shifts must not conflict")
	}
}

func TestConflicts_DifferentDates_NeverConflict(t *testing.T) {
	// GIVEN: Two shifts with identical times on different dates
	a := shiftAt("a", "2024-01-05", "09:00", "17:00")
	b := shiftAt("b", "2024-01-06", "09:00", "17:00")

	if scheduling.Conflicts(&a, &b) {
		t.Error("shifts on different dates must not conflict")
	}
}

func TestConflicts_ContainedInterval(t *testing.T) {
	// GIVEN: Shift B entirely inside shift A's time range
	a := shiftAt("a", "2024-01-05", "09:00", "17:00")
	b := shiftAt("b", "2024-01-05", "11:00", "12:00")

	if !scheduling.Conflicts(&a, &b) {
		t.Error("contained interval must conflict")
	}
}

func TestConflicts_Symmetric(t *testing.T) {
	// GIVEN: Assorted shift pairs, overlapping and not
	// THEN: Conflicts(a, b) == Conflicts(b, a) for every pair

	pairs := [][2]scheduling.Shift{
		{shiftAt("a", "2024-01-05", "09:00", "17:00"), shiftAt("b", "2024-01-05", "16:00", "20:00")},
		{shiftAt("a", "2024-01-05", "09:00", "17:00"), shiftAt("b", "2024-01-05", "17:00", "20:00")},
		{shiftAt("a", "2024-01-05", "09:00", "10:00"), shiftAt("b", "2024-01-06", "09:00", "10:00")},
		{shiftAt("a", "2024-01-05", "08:00", "22:00"), shiftAt("b", "2024-01-05", "11:00", "12:00")},
	}

	for _, pair := range pairs {
		ab := scheduling.Conflicts(&pair[0], &pair[1])
		ba := scheduling.Conflicts(&pair[1], &pair[0])
		if ab != ba {
			t.Errorf("asymmetric result for %v / %v: %v vs %v", pair[0].ID, pair[1].ID, ab, ba)
		}
	}
}

func TestFindConflict_ReturnsConflictingID(t *testing.T) {
	// GIVEN: A candidate shift and a held set with one overlapping entry
	candidate := shiftAt("new", "2024-01-05", "12:00", "18:00")
	held := []scheduling.Shift{
		shiftAt("morning", "2024-01-05", "08:00", "11:00"),
		shiftAt("evening", "2024-01-05", "17:00", "21:00"),
	}

	id, found := scheduling.FindConflict(&candidate, held)
	if !found {
		t.Fatal("expected a conflict")
	}
	if id != "evening" {
		t.Errorf("expected conflicting id evening, got %s", id)
	}
}

func TestFindConflict_SkipsCandidateItself(t *testing.T) {
	// GIVEN: The candidate already appears in the held set (re-read race)
	candidate := shiftAt("same", "2024-01-05", "09:00", "17:00")
	held := []scheduling.Shift{shiftAt("same", "2024-01-05", "09:00", "17:00")}

	if _, found := scheduling.FindConflict(&candidate, held); found {
		t.Error("a shift must not conflict with itself")
	}
}
