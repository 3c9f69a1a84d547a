/*
ranking.go - Deterministic ordering of shift collections

PURPOSE:
  Orders a shift collection under a selectable policy so that repeated
  renders of an unchanged collection never visibly reorder. Every policy is
  a stable total order: sort.SliceStable plus defined tie-breaks.

POLICIES:
  role    lexicographic by role, tie-break date ascending
  date    date ascending, tie-break start time ascending
  status  lexicographic by status, ties keep prior relative order
  closest future-or-present shifts first, nearest to the reference instant
          first; then past shifts, most recently past first

Rank does not mutate its input and has no side effects.
*/
package scheduling

import (
	"sort"
	"time"
)

// RankPolicy selects an ordering for Rank.
type RankPolicy string

const (
	RankByRole   RankPolicy = "role"
	RankByDate   RankPolicy = "date"
	RankByStatus RankPolicy = "status"
	RankClosest  RankPolicy = "closest"
)

// Rank returns a new slice ordered under the given policy. ref is only
// consulted by the closest policy. An unknown policy falls back to date
// ordering.
func Rank(shifts []Shift, policy RankPolicy, ref time.Time) []Shift {
	out := make([]Shift, len(shifts))
	copy(out, shifts)

	switch policy {
	case RankByRole:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Role != out[j].Role {
				return out[i].Role < out[j].Role
			}
			return out[i].Date.Before(out[j].Date)
		})
	case RankByStatus:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Status < out[j].Status
		})
	case RankClosest:
		refDate := DateOf(ref)
		sort.SliceStable(out, func(i, j int) bool {
			return closestLess(&out[i], &out[j], refDate, ref)
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			if !out[i].Date.Equal(out[j].Date) {
				return out[i].Date.Before(out[j].Date)
			}
			return out[i].StartTime < out[j].StartTime
		})
	}
	return out
}

// closestLess orders future-or-present shifts (date >= reference date) ahead
// of past shifts. Within either partition, the shift nearest the reference
// instant comes first: upcoming soonest, or most recently past. Ties break
// by start time ascending.
func closestLess(a, b *Shift, refDate Date, ref time.Time) bool {
	aUpcoming := !a.Date.Before(refDate)
	bUpcoming := !b.Date.Before(refDate)
	if aUpcoming != bUpcoming {
		return aUpcoming
	}

	da := absDuration(a.StartsAt().Sub(ref))
	db := absDuration(b.StartsAt().Sub(ref))
	if da != db {
		return da < db
	}
	return a.StartTime < b.StartTime
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
