package gesture

import (
	"errors"
	"testing"
	"time"

	"github.com/evanschultz/gantt/internal/domain"
)

// countingSurface records capture and release calls.
type countingSurface struct {
	captures int
	releases int
}

// Capture records a capture.
func (s *countingSurface) Capture() { s.captures++ }

// Release records a release.
func (s *countingSurface) Release() { s.releases++ }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleTask() domain.Task {
	return domain.Task{ID: "t1", Name: "task", StartDate: day(2026, 1, 10), EndDate: day(2026, 1, 15)}
}

// TestMoveShiftsBothDates verifies move mode and per-frame updates.
func TestMoveShiftsBothDates(t *testing.T) {
	tr := NewTracker(nil)
	if err := tr.BeginTask(ModeMove, sampleTask(), 100, 10, 60); err != nil {
		t.Fatalf("BeginTask() error = %v", err)
	}
	if _, ok := tr.Move(110, 10); ok {
		t.Fatal("expected no update below half a day")
	}
	up, ok := tr.Move(130, 10)
	if !ok || up.Kind != UpdateDates {
		t.Fatalf("expected date update, got %#v %v", up, ok)
	}
	if !up.StartDate.Equal(day(2026, 1, 11)) || !up.EndDate.Equal(day(2026, 1, 16)) {
		t.Fatalf("unexpected dates %s..%s", up.StartDate, up.EndDate)
	}
	if _, ok := tr.Move(135, 40); ok {
		t.Fatal("expected no repeated update for the same day delta")
	}
	up, ok = tr.Move(100-60*3, 10)
	if !ok || !up.StartDate.Equal(day(2026, 1, 7)) || !up.EndDate.Equal(day(2026, 1, 12)) {
		t.Fatalf("unexpected backward move %#v", up)
	}
	res, ok := tr.End(nil)
	if !ok || !res.Changed || res.Click {
		t.Fatalf("unexpected result %#v", res)
	}
	if !res.StartDate.Equal(day(2026, 1, 7)) {
		t.Fatalf("unexpected final start %s", res.StartDate)
	}
	if !tr.Idle() {
		t.Fatal("expected idle after End")
	}
}

// TestResizeStartClamps verifies the one-day-before-end clamp.
func TestResizeStartClamps(t *testing.T) {
	tr := NewTracker(nil)
	if err := tr.BeginTask(ModeResizeStart, sampleTask(), 0, 0, 40); err != nil {
		t.Fatalf("BeginTask() error = %v", err)
	}
	up, ok := tr.Move(10*40, 0)
	if !ok {
		t.Fatal("expected update")
	}
	if !up.StartDate.Equal(day(2026, 1, 14)) || !up.EndDate.Equal(day(2026, 1, 15)) {
		t.Fatalf("expected clamp to Jan 14, got %s..%s", up.StartDate, up.EndDate)
	}
	up, ok = tr.Move(-2*40, 0)
	if !ok || !up.StartDate.Equal(day(2026, 1, 8)) {
		t.Fatalf("expected start Jan 8, got %#v", up)
	}
}

// TestResizeEndClamps verifies the one-day-after-start clamp.
func TestResizeEndClamps(t *testing.T) {
	tr := NewTracker(nil)
	if err := tr.BeginTask(ModeResizeEnd, sampleTask(), 500, 0, 120); err != nil {
		t.Fatalf("BeginTask() error = %v", err)
	}
	up, ok := tr.Move(500-120*9, 0)
	if !ok {
		t.Fatal("expected update")
	}
	if !up.StartDate.Equal(day(2026, 1, 10)) || !up.EndDate.Equal(day(2026, 1, 11)) {
		t.Fatalf("expected clamp to Jan 11, got %s..%s", up.StartDate, up.EndDate)
	}
}

// TestResizeSingleDayNeverGrowsAgainstDrag verifies the clamp keeps a one-day
// bar in place instead of extending it away from the pointer.
func TestResizeSingleDayNeverGrowsAgainstDrag(t *testing.T) {
	oneDay := domain.Task{ID: "t1", Name: "launch", StartDate: day(2026, 1, 10), EndDate: day(2026, 1, 10)}
	cases := []struct {
		name string
		mode Mode
		dx   int
	}{
		{"start dragged right", ModeResizeStart, 60},
		{"end dragged left", ModeResizeEnd, -60},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := NewTracker(nil)
			if err := tr.BeginTask(tc.mode, oneDay, 300, 0, 60); err != nil {
				t.Fatalf("BeginTask() error = %v", err)
			}
			if up, ok := tr.Move(300+tc.dx, 0); ok {
				t.Fatalf("expected no change, got %s..%s", up.StartDate, up.EndDate)
			}
			res, ok := tr.End(nil)
			if !ok || res.Changed || !res.StartDate.Equal(oneDay.StartDate) || !res.EndDate.Equal(oneDay.EndDate) {
				t.Fatalf("expected unchanged result, got %#v", res)
			}
		})
	}

	tr := NewTracker(nil)
	if err := tr.BeginTask(ModeResizeStart, oneDay, 300, 0, 60); err != nil {
		t.Fatalf("BeginTask() error = %v", err)
	}
	up, ok := tr.Move(300-2*60, 0)
	if !ok || !up.StartDate.Equal(day(2026, 1, 8)) || !up.EndDate.Equal(day(2026, 1, 10)) {
		t.Fatalf("expected start extended to Jan 8, got %#v", up)
	}
}

// TestMoveAcceptsOutOfRangeDates verifies there is no global date clamp.
func TestMoveAcceptsOutOfRangeDates(t *testing.T) {
	tr := NewTracker(nil)
	task := domain.Task{ID: "old", StartDate: day(1970, 1, 2), EndDate: day(1970, 1, 3)}
	if err := tr.BeginTask(ModeMove, task, 0, 0, 40); err != nil {
		t.Fatalf("BeginTask() error = %v", err)
	}
	up, ok := tr.Move(-40*400, 0)
	if !ok || up.StartDate.Year() != 1968 {
		t.Fatalf("expected a date before the epoch, got %#v", up)
	}
}

// TestSingleActiveGesture verifies gestures are serialized.
func TestSingleActiveGesture(t *testing.T) {
	surface := &countingSurface{}
	tr := NewTracker(surface)
	if err := tr.BeginTask(ModeMove, sampleTask(), 0, 0, 60); err != nil {
		t.Fatalf("BeginTask() error = %v", err)
	}
	other := sampleTask()
	other.ID = "t2"
	if err := tr.BeginTask(ModeResizeEnd, other, 0, 0, 60); !errors.Is(err, ErrGestureActive) {
		t.Fatalf("expected ErrGestureActive, got %v", err)
	}
	if err := tr.BeginColumnResize(30, 10, 80, 0, 0); !errors.Is(err, ErrGestureActive) {
		t.Fatalf("expected ErrGestureActive, got %v", err)
	}
	state, ok := tr.Active()
	if !ok || state.Anchor.TaskID != "t1" {
		t.Fatalf("unexpected active state %#v", state)
	}
	if surface.captures != 1 {
		t.Fatalf("expected one capture, got %d", surface.captures)
	}
}

// TestSurfaceReleasedOnEveryExit verifies scoped capture and release.
func TestSurfaceReleasedOnEveryExit(t *testing.T) {
	surface := &countingSurface{}
	tr := NewTracker(surface)

	_ = tr.BeginTask(ModeMove, sampleTask(), 0, 0, 60)
	tr.End(nil)
	_ = tr.BeginTask(ModeLink, sampleTask(), 0, 0, 60)
	tr.End([]string{"", "t1"})
	_ = tr.BeginTask(ModeResizeStart, sampleTask(), 0, 0, 60)
	tr.Cancel()

	if surface.captures != 3 || surface.releases != 3 {
		t.Fatalf("expected 3/3 capture/release, got %d/%d", surface.captures, surface.releases)
	}
	if _, ok := tr.End(nil); ok {
		t.Fatal("expected End on idle tracker to be a no-op")
	}
	if _, ok := tr.Cancel(); ok {
		t.Fatal("expected Cancel on idle tracker to be a no-op")
	}
	if surface.releases != 3 {
		t.Fatalf("idle End/Cancel must not release, got %d", surface.releases)
	}
}

// TestLinkGesture verifies preview updates and release hit testing.
func TestLinkGesture(t *testing.T) {
	tr := NewTracker(nil)
	if err := tr.BeginTask(ModeLink, sampleTask(), 60, 10, 60); err != nil {
		t.Fatalf("BeginTask() error = %v", err)
	}
	up, ok := tr.Move(200, 50)
	if !ok || up.Kind != UpdatePreview || up.To != (Point{X: 200, Y: 50}) || up.From != (Point{X: 60, Y: 10}) {
		t.Fatalf("unexpected preview %#v", up)
	}
	state, _ := tr.Active()
	if state.Pointer() != (Point{X: 200, Y: 50}) {
		t.Fatalf("unexpected pointer %#v", state.Pointer())
	}
	start, _ := state.Dates()
	if !start.Equal(day(2026, 1, 10)) {
		t.Fatal("link gesture must not change dates")
	}
	res, ok := tr.End([]string{"", "t1", "t2", "t3"})
	if !ok || res.Link == nil {
		t.Fatalf("expected link request, got %#v", res)
	}
	if res.Link.FromTaskID != "t1" || res.Link.ToTaskID != "t2" {
		t.Fatalf("unexpected link %#v", res.Link)
	}
	if res.Changed || res.Click {
		t.Fatalf("link gesture must not report changes or clicks, got %#v", res)
	}
}

// TestLinkGestureAbandoned verifies release off-target has no side effect.
func TestLinkGestureAbandoned(t *testing.T) {
	tr := NewTracker(nil)
	_ = tr.BeginTask(ModeLink, sampleTask(), 0, 0, 60)
	res, ok := tr.End([]string{"t1", ""})
	if !ok || res.Link != nil {
		t.Fatalf("expected abandoned link, got %#v", res)
	}
}

// TestClickWithoutMovement verifies a stationary move gesture is a click.
func TestClickWithoutMovement(t *testing.T) {
	tr := NewTracker(nil)
	_ = tr.BeginTask(ModeMove, sampleTask(), 0, 0, 60)
	tr.Move(20, 0)
	res, _ := tr.End(nil)
	if !res.Click || res.Changed {
		t.Fatalf("expected click, got %#v", res)
	}
}

// TestColumnResize verifies width bounds.
func TestColumnResize(t *testing.T) {
	tr := NewTracker(nil)
	if err := tr.BeginColumnResize(30, 20, 50, 30, 0); err != nil {
		t.Fatalf("BeginColumnResize() error = %v", err)
	}
	up, ok := tr.Move(100, 0)
	if !ok || up.Width != 50 {
		t.Fatalf("expected width clamped to 50, got %#v", up)
	}
	up, ok = tr.Move(0, 0)
	if !ok || up.Width != 20 {
		t.Fatalf("expected width clamped to 20, got %#v", up)
	}
	res, _ := tr.End(nil)
	if res.Mode != ModeColumnResize || res.Width != 20 || !res.Changed {
		t.Fatalf("unexpected result %#v", res)
	}
	if err := tr.BeginTask(ModeColumnResize, sampleTask(), 0, 0, 60); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
}

// TestDaysDelta verifies rounding.
func TestDaysDelta(t *testing.T) {
	cases := []struct{ dx, ppd, want int }{
		{29, 60, 0}, {30, 60, 1}, {-30, 60, -1}, {-29, 60, 0}, {240, 120, 2}, {10, 0, 0},
	}
	for _, tc := range cases {
		if got := DaysDelta(tc.dx, tc.ppd); got != tc.want {
			t.Fatalf("DaysDelta(%d, %d) = %d, want %d", tc.dx, tc.ppd, got, tc.want)
		}
	}
}
