// Package gesture tracks the single active pointer gesture on the timeline:
// moving or resizing a bar, linking two bars, or resizing the side panel.
package gesture

import (
	"errors"
	"math"
	"time"

	"github.com/evanschultz/gantt/internal/domain"
)

var (
	// ErrGestureActive is returned when a gesture starts while another is running.
	ErrGestureActive = errors.New("gesture already active")
	ErrInvalidMode   = errors.New("invalid gesture mode")
)

// Mode identifies what the active gesture manipulates.
type Mode int

const (
	ModeMove Mode = iota
	ModeResizeStart
	ModeResizeEnd
	ModeLink
	ModeColumnResize
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case ModeMove:
		return "move"
	case ModeResizeStart:
		return "resize-start"
	case ModeResizeEnd:
		return "resize-end"
	case ModeLink:
		return "dependency-link"
	default:
		return "column-resize"
	}
}

// Surface is the shared input surface. It is captured while a gesture is
// active so every pointer event is routed to the tracker.
type Surface interface {
	Capture()
	Release()
}

// Anchor records the pointer and task state when the gesture began.
type Anchor struct {
	X            int
	Y            int
	TaskID       string
	StartDate    time.Time
	EndDate      time.Time
	PixelsPerDay int
	Width        int
	MinWidth     int
	MaxWidth     int
}

// State is the active gesture.
type State struct {
	Mode   Mode
	Anchor Anchor

	start   time.Time
	end     time.Time
	width   int
	pointer Point
	changed bool
}

// Pointer is the last pointer position fed to the gesture.
func (s State) Pointer() Point {
	return s.pointer
}

// Dates returns the task dates as of the last committed frame.
func (s State) Dates() (time.Time, time.Time) {
	return s.start, s.end
}

// Point is a pointer position in the caller's pixel space.
type Point struct {
	X int
	Y int
}

// UpdateKind tells the caller which field of Update is meaningful.
type UpdateKind int

const (
	UpdateNone UpdateKind = iota
	UpdateDates
	UpdatePreview
	UpdateWidth
)

// Update is the effect of one pointer move.
type Update struct {
	Kind      UpdateKind
	TaskID    string
	StartDate time.Time
	EndDate   time.Time
	From      Point
	To        Point
	Width     int
}

// LinkRequest asks for the dependency From -> To.
type LinkRequest struct {
	FromTaskID string
	ToTaskID   string
}

// Result describes how a gesture ended.
type Result struct {
	Mode      Mode
	TaskID    string
	Changed   bool
	Click     bool
	Canceled  bool
	StartDate time.Time
	EndDate   time.Time
	Width     int
	Link      *LinkRequest
}

// Tracker owns the one active gesture. The zero value is idle with no
// surface.
type Tracker struct {
	surface Surface
	active  *State
}

// NewTracker builds an idle tracker bound to surface. A nil surface is allowed.
func NewTracker(surface Surface) *Tracker {
	return &Tracker{surface: surface}
}

// Active returns the running gesture, if any.
func (t *Tracker) Active() (State, bool) {
	if t.active == nil {
		return State{}, false
	}
	return *t.active, true
}

// Idle reports whether no gesture is running.
func (t *Tracker) Idle() bool {
	return t.active == nil
}

// BeginTask starts a move, resize or link gesture on task at pointer (x, y).
func (t *Tracker) BeginTask(mode Mode, task domain.Task, x, y, pixelsPerDay int) error {
	if mode == ModeColumnResize {
		return ErrInvalidMode
	}
	return t.enter(State{
		Mode: mode,
		Anchor: Anchor{
			X:            x,
			Y:            y,
			TaskID:       task.ID,
			StartDate:    task.StartDate,
			EndDate:      task.EndDate,
			PixelsPerDay: max(pixelsPerDay, 1),
		},
	})
}

// BeginColumnResize starts dragging the side panel divider.
func (t *Tracker) BeginColumnResize(width, minWidth, maxWidth, x, y int) error {
	return t.enter(State{
		Mode: ModeColumnResize,
		Anchor: Anchor{
			X:        x,
			Y:        y,
			Width:    width,
			MinWidth: minWidth,
			MaxWidth: maxWidth,
		},
	})
}

func (t *Tracker) enter(s State) error {
	if t.active != nil {
		return ErrGestureActive
	}
	s.start = s.Anchor.StartDate
	s.end = s.Anchor.EndDate
	s.width = s.Anchor.Width
	s.pointer = Point{X: s.Anchor.X, Y: s.Anchor.Y}
	t.active = &s
	if t.surface != nil {
		t.surface.Capture()
	}
	return nil
}

func (t *Tracker) leave() State {
	s := *t.active
	t.active = nil
	if t.surface != nil {
		t.surface.Release()
	}
	return s
}

// Move feeds a pointer position. It returns false when nothing changed.
func (t *Tracker) Move(x, y int) (Update, bool) {
	if t.active == nil {
		return Update{}, false
	}
	s := t.active
	s.pointer = Point{X: x, Y: y}
	a := s.Anchor

	switch s.Mode {
	case ModeLink:
		return Update{
			Kind:   UpdatePreview,
			TaskID: a.TaskID,
			From:   Point{X: a.X, Y: a.Y},
			To:     s.pointer,
		}, true
	case ModeColumnResize:
		width := a.Width + (x - a.X)
		if a.MinWidth > 0 {
			width = max(width, a.MinWidth)
		}
		if a.MaxWidth > 0 {
			width = min(width, a.MaxWidth)
		}
		if width == s.width {
			return Update{}, false
		}
		s.width = width
		s.changed = true
		return Update{Kind: UpdateWidth, Width: width}, true
	}

	start, end := candidateDates(s.Mode, a, DaysDelta(x-a.X, a.PixelsPerDay))
	if start.Equal(s.start) && end.Equal(s.end) {
		return Update{}, false
	}
	s.start, s.end = start, end
	s.changed = true
	return Update{Kind: UpdateDates, TaskID: a.TaskID, StartDate: start, EndDate: end}, true
}

// End finishes the gesture. Callers feed the release position through Move
// first so the last frame is committed. under lists the task ids tagged on the
// elements below the release point, topmost first, and is only consulted for
// link gestures.
func (t *Tracker) End(under []string) (Result, bool) {
	if t.active == nil {
		return Result{}, false
	}
	s := t.leave()
	res := s.result()
	switch s.Mode {
	case ModeLink:
		for _, id := range under {
			if id != "" && id != s.Anchor.TaskID {
				res.Link = &LinkRequest{FromTaskID: s.Anchor.TaskID, ToTaskID: id}
				break
			}
		}
	case ModeMove:
		res.Click = !s.changed
	}
	return res, true
}

// Cancel abandons the gesture without a link or click. Date changes already
// reported through Move stay committed.
func (t *Tracker) Cancel() (Result, bool) {
	if t.active == nil {
		return Result{}, false
	}
	s := t.leave()
	res := s.result()
	res.Canceled = true
	return res, true
}

func (s State) result() Result {
	return Result{
		Mode:      s.Mode,
		TaskID:    s.Anchor.TaskID,
		Changed:   s.changed,
		StartDate: s.start,
		EndDate:   s.end,
		Width:     s.width,
	}
}

// DaysDelta converts a horizontal pixel offset to whole days, rounding half
// away from zero.
func DaysDelta(dx, pixelsPerDay int) int {
	if pixelsPerDay <= 0 {
		return 0
	}
	return int(math.Round(float64(dx) / float64(pixelsPerDay)))
}

func candidateDates(mode Mode, a Anchor, delta int) (time.Time, time.Time) {
	start, end := a.StartDate, a.EndDate
	if delta == 0 {
		return start, end
	}
	switch mode {
	case ModeMove:
		return domain.AddDays(start, delta), domain.AddDays(end, delta)
	case ModeResizeStart:
		next := domain.AddDays(start, delta)
		if !next.Before(end) {
			next = domain.AddDays(end, -1)
		}
		// A clamp never moves the handle against the drag.
		if delta > 0 && next.Before(start) {
			next = start
		}
		return next, end
	case ModeResizeEnd:
		next := domain.AddDays(end, delta)
		if !next.After(start) {
			next = domain.AddDays(start, 1)
		}
		if delta < 0 && next.After(end) {
			next = end
		}
		return start, next
	}
	return start, end
}
