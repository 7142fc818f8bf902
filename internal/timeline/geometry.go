package timeline

import (
	"time"

	"github.com/evanschultz/gantt/internal/domain"
)

// Row geometry in pixels. A task row is two lines: the bar line and a gutter
// line below it that stub routes run through.
const (
	LineHeightPx = 20
	RowHeightPx  = 2 * LineHeightPx
)

// Bar is the horizontal pixel span of one task on its row.
type Bar struct {
	TaskID   string
	Row      int
	OffsetPx int
	WidthPx  int
}

// EndPx is the x coordinate of the bar's right edge.
func (b Bar) EndPx() int {
	return b.OffsetPx + b.WidthPx
}

// CenterY is the vertical center of the bar line.
func (b Bar) CenterY() int {
	return b.Row*RowHeightPx + LineHeightPx/2
}

// GutterY is the vertical center of the gutter line below the bar.
func (b Bar) GutterY() int {
	return b.CenterY() + LineHeightPx
}

// StartOffsetPx places a day on the axis relative to the window start.
func StartOffsetPx(w Window, start time.Time, z domain.ZoomLevel) int {
	return domain.DaysBetween(w.Start, start) * z.PixelsPerDay()
}

// WidthPx covers every day of [start, end] and never drops below one day.
func WidthPx(start, end time.Time, z domain.ZoomLevel) int {
	ppd := z.PixelsPerDay()
	return max(ppd, domain.DaysBetween(start, end)*ppd+ppd)
}

// Span computes the bar for a date range on row 0.
func Span(w Window, start, end time.Time, z domain.ZoomLevel) Bar {
	return Bar{
		OffsetPx: StartOffsetPx(w, start, z),
		WidthPx:  WidthPx(start, end, z),
	}
}

// Visible reports whether a task has any day inside the window.
func Visible(w Window, t domain.Task) bool {
	return w.Overlaps(t.StartDate, t.EndDate)
}

// Layout places each task on the row matching its list index. Tasks outside
// the window keep their row but get no bar.
func Layout(w Window, tasks []domain.Task, z domain.ZoomLevel) []Bar {
	bars := make([]Bar, 0, len(tasks))
	for row, t := range tasks {
		if !Visible(w, t) {
			continue
		}
		bar := Span(w, t.StartDate, t.EndDate, z)
		bar.TaskID = t.ID
		bar.Row = row
		bars = append(bars, bar)
	}
	return bars
}

// AxisWidthPx is the full pixel width of the window at zoom z.
func AxisWidthPx(w Window, z domain.ZoomLevel) int {
	return w.Len() * z.PixelsPerDay()
}
