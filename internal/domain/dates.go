package domain

import "time"

// DateOnly is the wire format for calendar dates.
const DateOnly = "2006-01-02"

// Day truncates t to midnight UTC, discarding wall-clock time and zone.
// All date comparisons in the ledger happen on Day-truncated values.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the signed number of whole days from a to b,
// comparing calendar dates only. Negative when b is before a.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// WeekBounds snaps any date to its enclosing Monday–Sunday span.
// The weekly ledger is keyed by these two dates.
func WeekBounds(t time.Time) (start, end time.Time) {
	d := Day(t)
	offset := int(d.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7 // Sunday
	}
	start = d.AddDate(0, 0, -offset)
	end = start.AddDate(0, 0, 6)
	return start, end
}

// SameDate reports whether two timestamps fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}
