// Package timeline maps task dates onto the horizontal pixel axis, routes
// dependency arrows between bars and hit-tests pointer positions.
package timeline

import (
	"time"

	"github.com/evanschultz/gantt/internal/domain"
)

// Default window size around the anchor day.
const (
	DefaultDaysBefore = 60
	DefaultDaysAfter  = 180
)

// Window is the visible date range, anchored on "today".
type Window struct {
	Anchor time.Time
	Start  time.Time
	End    time.Time
}

// NewWindow builds the range [now-before, now+after] in calendar days.
// Negative sizes are treated as zero.
func NewWindow(now time.Time, before, after int) Window {
	before = max(before, 0)
	after = max(after, 0)
	anchor := domain.Day(now)
	return Window{
		Anchor: anchor,
		Start:  domain.AddDays(anchor, -before),
		End:    domain.AddDays(anchor, after),
	}
}

// Len is the number of days in the window, inclusive of both ends.
func (w Window) Len() int {
	return domain.DaysBetween(w.Start, w.End) + 1
}

// Days lists each calendar day in the window in order.
func (w Window) Days() []time.Time {
	n := w.Len()
	out := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.AddDays(w.Start, i))
	}
	return out
}

// Contains reports whether ts falls on a day inside the window.
func (w Window) Contains(ts time.Time) bool {
	d := domain.Day(ts)
	return !d.Before(w.Start) && !d.After(w.End)
}

// Overlaps reports whether [start, end] shares at least one day with the window.
func (w Window) Overlaps(start, end time.Time) bool {
	return !domain.Day(end).Before(w.Start) && !domain.Day(start).After(w.End)
}

// AnchorIndex is the day index of the anchor within Days().
func (w Window) AnchorIndex() int {
	return domain.DaysBetween(w.Start, w.Anchor)
}

// MonthGroup is a contiguous run of days in one calendar month.
type MonthGroup struct {
	Year  int
	Month time.Month
	First int
	Days  int
}

// Label renders the group heading, e.g. "Mar 2026".
func (g MonthGroup) Label() string {
	return time.Date(g.Year, g.Month, 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006")
}

// MonthGroups folds days into (year, month) runs in the given order. A new
// group starts only where the calendar month changes.
func MonthGroups(days []time.Time) []MonthGroup {
	groups := make([]MonthGroup, 0)
	for i, d := range days {
		y, m, _ := d.Date()
		if n := len(groups); n > 0 && groups[n-1].Year == y && groups[n-1].Month == m {
			groups[n-1].Days++
			continue
		}
		groups = append(groups, MonthGroup{Year: y, Month: m, First: i, Days: 1})
	}
	return groups
}

// TickLabel returns the axis label for d at zoom z, or false when the day
// carries no label at that scale.
func TickLabel(d time.Time, z domain.ZoomLevel) (string, bool) {
	switch z {
	case domain.ZoomDay:
		return d.Format("Mon 2"), true
	case domain.ZoomMonth:
		if d.Day() == 1 || d.Day() == 15 {
			return d.Format("2"), true
		}
		return "", false
	default:
		if d.Weekday() == time.Monday {
			return d.Format("2"), true
		}
		return "", false
	}
}
