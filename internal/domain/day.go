package domain

import "time"

const secondsPerDay = 24 * 60 * 60

// Day truncates ts to midnight of its calendar day, in UTC.
func Day(ts time.Time) time.Time {
	if ts.IsZero() {
		return ts
	}
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the signed number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int((Day(b).Unix() - Day(a).Unix()) / secondsPerDay)
}

// AddDays shifts ts by n calendar days.
func AddDays(ts time.Time, n int) time.Time {
	return Day(ts).AddDate(0, 0, n)
}
