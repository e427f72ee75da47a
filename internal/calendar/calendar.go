// Package calendar provides calendar-day arithmetic at UTC midnight.
// A "day" is a time.Time truncated to 00:00:00 UTC; it is the only
// granularity used for attendance and holiday comparisons.
package calendar

import "time"

// DayFormat is the wire format for calendar days.
const DayFormat = "2006-01-02"

// Normalize truncates ts to UTC midnight of the same calendar date.
func Normalize(ts time.Time) time.Time {
	u := ts.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// PreviousDay returns the day exactly one calendar day before d,
// crossing month and year boundaries.
func PreviousDay(d time.Time) time.Time {
	return Normalize(d).AddDate(0, 0, -1)
}

// SameDay reports whether a and b fall on the same UTC calendar date.
func SameDay(a, b time.Time) bool {
	return Normalize(a).Equal(Normalize(b))
}

// StartOfMonth returns the first day of ts's UTC month.
func StartOfMonth(ts time.Time) time.Time {
	u := ts.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// DaysElapsedInMonth returns the ordinal day-of-month of asOf
// (1 on the 1st), i.e. days in the month so far including today.
func DaysElapsedInMonth(asOf time.Time) int {
	return asOf.UTC().Day()
}

// FormatDay renders a day as YYYY-MM-DD.
func FormatDay(d time.Time) string {
	return d.UTC().Format(DayFormat)
}

// ParseDay parses a YYYY-MM-DD string into a normalized day.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayFormat, s)
	if err != nil {
		return time.Time{}, err
	}
	return Normalize(t), nil
}
