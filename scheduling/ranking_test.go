package scheduling_test

// Note: shiftAt is defined in conflict_test.go

import (
	"testing"
	"time"

	"github.com/warp/shift-engine/scheduling"
)

func ids(shifts []scheduling.Shift) []scheduling.ShiftID {
	out := make([]scheduling.ShiftID, len(shifts))
	for i := range shifts {
		out[i] = shifts[i].ID
	}
	return out
}

func assertOrder(t *testing.T, got []scheduling.Shift, want ...scheduling.ShiftID) {
	t.Helper()
	gotIDs := ids(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("got %d shifts, want %d", len(gotIDs), len(want))
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("order mismatch: got %v, want %v", gotIDs, want)
		}
	}
}

// =============================================================================
// CLOSEST POLICY
// =============================================================================

func TestRank_Closest_FutureFirstThenPast(t *testing.T) {
	// GIVEN: Shifts on Jan 8, Jan 11, and Jan 15, reference date Jan 10
	// WHEN: Ranking with the closest policy
	// THEN: Upcoming shifts come first nearest-first, the past shift last

	shifts := []scheduling.Shift{
		shiftAt("jan08", "2024-01-08", "09:00", "17:00"),
		shiftAt("jan11", "2024-01-11", "09:00", "17:00"),
		shiftAt("jan15", "2024-01-15", "09:00", "17:00"),
	}
	ref := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)

	ranked := scheduling.Rank(shifts, scheduling.RankClosest, ref)
	assertOrder(t, ranked, "jan11", "jan15", "jan08")
}

func TestRank_Closest_SameDayIsUpcoming(t *testing.T) {
	// GIVEN: A shift dated the reference day itself and one the day after
	shifts := []scheduling.Shift{
		shiftAt("tomorrow", "2024-01-11", "09:00", "17:00"),
		shiftAt("today", "2024-01-10", "09:00", "17:00"),
	}
	ref := time.Date(2024, time.January, 10, 8, 0, 0, 0, time.UTC)

	ranked := scheduling.Rank(shifts, scheduling.RankClosest, ref)
	assertOrder(t, ranked, "today", "tomorrow")
}

func TestRank_Closest_PastMostRecentFirst(t *testing.T) {
	// GIVEN: Only past shifts
	// THEN: Most recently past first

	shifts := []scheduling.Shift{
		shiftAt("jan02", "2024-01-02", "09:00", "17:00"),
		shiftAt("jan08", "2024-01-08", "09:00", "17:00"),
		shiftAt("jan05", "2024-01-05", "09:00", "17:00"),
	}
	ref := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)

	ranked := scheduling.Rank(shifts, scheduling.RankClosest, ref)
	assertOrder(t, ranked, "jan08", "jan05", "jan02")
}

// =============================================================================
// DATE / ROLE / STATUS POLICIES
// =============================================================================

func TestRank_Date_TieBreaksByStartTime(t *testing.T) {
	shifts := []scheduling.Shift{
		shiftAt("late", "2024-01-05", "14:00", "20:00"),
		shiftAt("nextday", "2024-01-06", "08:00", "12:00"),
		shiftAt("early", "2024-01-05", "08:00", "12:00"),
	}

	ranked := scheduling.Rank(shifts, scheduling.RankByDate, time.Time{})
	assertOrder(t, ranked, "early", "late", "nextday")
}

func TestRank_Role_TieBreaksByDate(t *testing.T) {
	barLate := shiftAt("bar-late", "2024-01-08", "09:00", "17:00")
	barEarly := shiftAt("bar-early", "2024-01-05", "09:00", "17:00")
	host := shiftAt("host", "2024-01-01", "09:00", "17:00")
	host.Role = "Host"

	ranked := scheduling.Rank([]scheduling.Shift{host, barLate, barEarly}, scheduling.RankByRole, time.Time{})
	assertOrder(t, ranked, "bar-early", "bar-late", "host")
}

func TestRank_Status_StableWithinEqualStatus(t *testing.T) {
	// GIVEN: Two open shifts in a known input order and one confirmed shift
	// THEN: Statuses sort lexicographically; equal statuses keep input order

	first := shiftAt("first", "2024-01-05", "09:00", "10:00")
	second := shiftAt("second", "2024-01-04", "09:00", "10:00")
	confirmed := shiftAt("confirmed", "2024-01-06", "09:00", "10:00")
	confirmed.Status = scheduling.StatusConfirmed

	ranked := scheduling.Rank([]scheduling.Shift{first, second, confirmed}, scheduling.RankByStatus, time.Time{})
	assertOrder(t, ranked, "confirmed", "first", "second")
}

// =============================================================================
// ORDERING PROPERTIES
// =============================================================================

func TestRank_DoesNotMutateInput(t *testing.T) {
	shifts := []scheduling.Shift{
		shiftAt("b", "2024-01-06", "09:00", "17:00"),
		shiftAt("a", "2024-01-05", "09:00", "17:00"),
	}

	scheduling.Rank(shifts, scheduling.RankByDate, time.Time{})

	if shifts[0].ID != "b" || shifts[1].ID != "a" {
		t.Error("rank mutated its input")
	}
}

func TestRank_Deterministic(t *testing.T) {
	// Repeated renders of an unchanged collection must never reorder.
	shifts := []scheduling.Shift{
		shiftAt("a", "2024-01-05", "09:00", "17:00"),
		shiftAt("b", "2024-01-05", "09:00", "17:00"),
		shiftAt("c", "2024-01-04", "09:00", "17:00"),
	}
	ref := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)

	for _, policy := range []scheduling.RankPolicy{
		scheduling.RankByRole, scheduling.RankByDate, scheduling.RankByStatus, scheduling.RankClosest,
	} {
		once := ids(scheduling.Rank(shifts, policy, ref))
		twice := ids(scheduling.Rank(shifts, policy, ref))
		for i := range once {
			if once[i] != twice[i] {
				t.Errorf("policy %s not deterministic: %v vs %v", policy, once, twice)
				break
			}
		}
	}
}

func TestRank_UnknownPolicyFallsBackToDate(t *testing.T) {
	shifts := []scheduling.Shift{
		shiftAt("b", "2024-01-06", "09:00", "17:00"),
		shiftAt("a", "2024-01-05", "09:00", "17:00"),
	}

	ranked := scheduling.Rank(shifts, scheduling.RankPolicy("bogus"), time.Time{})
	assertOrder(t, ranked, "a", "b")
}
