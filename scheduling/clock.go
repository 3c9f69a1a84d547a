package scheduling

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar date, no timezone attached
// =============================================================================

// Date is a local calendar date. It is stored normalized to midnight UTC so
// comparisons are pure year/month/day comparisons.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf extracts the calendar date from an instant, in the instant's location.
func DateOf(at time.Time) Date {
	return NewDate(at.Year(), at.Month(), at.Day())
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, &ValidationError{Field: "date", Reason: fmt.Sprintf("want YYYY-MM-DD, got %q", s)}
	}
	return Date{t: t}, nil
}

func (d Date) Before(other Date) bool { return d.t.Before(other.t) }
func (d Date) After(other Date) bool  { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool  { return d.t.Equal(other.t) }
func (d Date) IsZero() bool           { return d.t.IsZero() }

func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// At combines the date with a time-of-day into an instant.
func (d Date) At(c ClockTime) time.Time {
	return d.t.Add(time.Duration(c) * time.Minute)
}

func (d Date) String() string {
	return d.t.Format("2006-01-02")
}

// =============================================================================
// CLOCK TIME - Time-of-day as a minute offset from midnight
// =============================================================================

// ClockTime is minutes since midnight. The minute-offset representation makes
// interval intersection a plain integer comparison.
type ClockTime int

func NewClock(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// ParseClock parses HH:MM.
func ParseClock(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, &ValidationError{Field: "time", Reason: fmt.Sprintf("want HH:MM, got %q", s)}
	}
	return NewClock(t.Hour(), t.Minute()), nil
}

func (c ClockTime) Minutes() int                { return int(c) }
func (c ClockTime) Before(other ClockTime) bool { return c < other }

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}
