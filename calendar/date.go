/*
Package calendar builds the repayment calendar of a loan.

PURPOSE:
  Due dates are calendar days, never instants. This package owns the Date
  value type used everywhere in the engine and the Scheduler that turns a
  start date, a requested repayment day and a duration into an ordered list
  of due dates.

KEY CONCEPTS IN THIS FILE (date.go):
  - Date: a UTC calendar day (no time of day, no time zone drift)
  - MonthOffset: month arithmetic that clamps instead of overflowing
  - DaysBetween: actual elapsed days between two dates

MONTH ARITHMETIC:
  time.Time.AddDate normalizes overflow, so January 31 plus one month is
  March 3. Repayment calendars need February 28/29 instead. MonthOffset
  always lands inside the target month and clamps the day to its length.

SEE ALSO:
  - scheduler.go: Build() and the minimum-lead-time rule
  - amortization/engine.go: Consumes the ScheduledDate sequence
*/
package calendar

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar day in UTC
// =============================================================================

// Date is a single calendar day. The zero value is the zero time.
type Date struct {
	Time time.Time
}

const (
	// LayoutISO is the canonical input/output layout.
	LayoutISO = "2006-01-02"

	// LayoutLegacy is the ddMMyyyy layout used by older fixture files.
	LayoutLegacy = "02012006"
)

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime truncates t to its calendar day, keeping t's own wall-clock date.
func FromTime(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date { return FromTime(time.Now()) }

// ParseDate accepts ISO dates (2024-03-15) and legacy ddMMyyyy dates (15032024).
func ParseDate(s string) (Date, error) {
	for _, layout := range []string{LayoutISO, LayoutLegacy} {
		if t, err := time.Parse(layout, s); err == nil {
			return FromTime(t), nil
		}
	}
	return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", s)
}

// Comparison
func (d Date) Equal(other Date) bool { return d.Time.Equal(other.Time) }

// Properties
func (d Date) Year() int         { return d.Time.Year() }
func (d Date) Month() time.Month { return d.Time.Month() }
func (d Date) Day() int          { return d.Time.Day() }
func (d Date) IsZero() bool      { return d.Time.IsZero() }
func (d Date) String() string    { return d.Time.Format(LayoutISO) }

// DaysInMonth returns the length of the month d falls in.
func (d Date) DaysInMonth() int {
	return EndOfMonth(d.Year(), d.Month()).Day()
}

// MonthOffset returns the date n months after d's month on the requested day.
// If the target month is shorter than day, the last day of that month is used.
func (d Date) MonthOffset(n, day int) Date {
	first := time.Date(d.Year(), d.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := EndOfMonth(first.Year(), first.Month()).Day()
	if day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return NewDate(first.Year(), first.Month(), day)
}

// =============================================================================
// DATE UTILITIES
// =============================================================================

// DaysBetween returns the number of whole days from -> to (negative if to is earlier).
func DaysBetween(from, to Date) int { return int(to.Time.Sub(from.Time).Hours() / 24) }

func EndOfMonth(year int, month time.Month) Date {
	t := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return Date{Time: t}
}
