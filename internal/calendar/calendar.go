// Package calendar provides whole-day date arithmetic. Budgets, bills and
// subscriptions are all dated by calendar day, so every comparison goes
// through Day to drop the time of day.
package calendar

import "time"

// DateLayout is the wire format for calendar days.
const DateLayout = "2006-01-02"

// Day truncates t to its calendar day at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar day in loc.
func Today(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Day(time.Now().In(loc))
}

// DaysBetween returns the number of whole calendar days from a to b.
// The result is negative when b is before a.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

// Format renders t as YYYY-MM-DD.
func Format(t time.Time) string {
	return Day(t).Format(DateLayout)
}

// Parse reads a YYYY-MM-DD string into a calendar day.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths moves t forward by n months and pins the day of month to
// anchorDay, clamped to the length of the target month. Passing the
// original day as the anchor keeps Jan 31 -> Feb 28 -> Mar 31 from drifting.
func AddMonths(t time.Time, n, anchorDay int) time.Time {
	d := Day(t)
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	day := anchorDay
	if last := DaysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}
