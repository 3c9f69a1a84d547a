/*
reliability.go - Worker reliability scoring and badge derivation

PURPOSE:
  Derives a worker's completion-reliability metric and badge eligibility
  from their shift history. Everything here is a pure function over a
  history snapshot: badges are derived, never stored as authoritative
  state, and are recomputable at any time.

SCORING:
  reliability = completed / (completed + noShows) * 100, clamped to [0,100].
  Pending and confirmed shifts are neutral; they appear in the report but
  not in the denominator. A worker with no outcomes scores 100, the
  optimistic default.

BADGES:
  first-shift  at least one completion
  reliable     5+ completions with zero no-shows
  veteran      20+ completions
  early-bird   5+ completions starting before 09:00
  night-owl    5+ completions ending at or after 22:00
*/
package scheduling

import "github.com/shopspring/decimal"

type Badge string

const (
	BadgeFirstShift Badge = "first-shift"
	BadgeReliable   Badge = "reliable"
	BadgeVeteran    Badge = "veteran"
	BadgeEarlyBird  Badge = "early-bird"
	BadgeNightOwl   Badge = "night-owl"
)

// Badge thresholds.
const (
	reliableCompletions = 5
	veteranCompletions  = 20
	timeWindowShifts    = 5
)

var (
	earlyBirdBefore = NewClock(9, 0)
	nightOwlFrom    = NewClock(22, 0)

	oneHundred = decimal.NewFromInt(100)
)

// ReliabilityReport is the derived view of one worker's shift history.
type ReliabilityReport struct {
	Worker    WorkerID
	Completed int
	NoShows   int
	Upcoming  int
	Score     decimal.Decimal
	Badges    []Badge
}

// Reliability computes the completion-reliability percentage for a history.
// The result is rounded to one decimal place.
func Reliability(history []Shift) decimal.Decimal {
	completed, noShows := outcomes(history)
	total := completed + noShows
	if total == 0 {
		return oneHundred
	}

	score := decimal.NewFromInt(int64(completed)).
		Mul(oneHundred).
		Div(decimal.NewFromInt(int64(total))).
		Round(1)
	if score.IsNegative() {
		return decimal.Zero
	}
	if score.GreaterThan(oneHundred) {
		return oneHundred
	}
	return score
}

// Badges evaluates every badge predicate against the history snapshot.
func Badges(history []Shift) []Badge {
	completed, noShows := outcomes(history)

	early, late := 0, 0
	for i := range history {
		if history[i].Status != StatusCompleted {
			continue
		}
		if history[i].StartTime.Before(earlyBirdBefore) {
			early++
		}
		if !history[i].EndTime.Before(nightOwlFrom) {
			late++
		}
	}

	var badges []Badge
	if completed >= 1 {
		badges = append(badges, BadgeFirstShift)
	}
	if completed >= reliableCompletions && noShows == 0 {
		badges = append(badges, BadgeReliable)
	}
	if completed >= veteranCompletions {
		badges = append(badges, BadgeVeteran)
	}
	if early >= timeWindowShifts {
		badges = append(badges, BadgeEarlyBird)
	}
	if late >= timeWindowShifts {
		badges = append(badges, BadgeNightOwl)
	}
	return badges
}

// ScoreWorker assembles the full report for one worker's history.
func ScoreWorker(w WorkerID, history []Shift) ReliabilityReport {
	completed, noShows := outcomes(history)

	upcoming := 0
	for i := range history {
		if history[i].Status == StatusPending || history[i].Status == StatusConfirmed {
			upcoming++
		}
	}

	return ReliabilityReport{
		Worker:    w,
		Completed: completed,
		NoShows:   noShows,
		Upcoming:  upcoming,
		Score:     Reliability(history),
		Badges:    Badges(history),
	}
}

func outcomes(history []Shift) (completed, noShows int) {
	for i := range history {
		switch history[i].Status {
		case StatusCompleted:
			completed++
		case StatusNoShow:
			noShows++
		}
	}
	return completed, noShows
}
