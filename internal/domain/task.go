package domain

import (
	"slices"
	"strings"
	"time"
)

// Status is the lifecycle state shown on a task bar.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusOverdue    Status = "overdue"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusCompleted, StatusOverdue}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var validPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Priorities lists every priority from lowest to highest.
func Priorities() []Priority {
	return slices.Clone(validPriorities)
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return slices.Contains(validPriorities, p)
}

// Rank orders priorities for sorting: high=3, medium=2, low=1, unknown=0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Task is one bar on the timeline.
type Task struct {
	ID           string
	Name         string
	Status       Status
	Priority     Priority
	Assignee     string
	StartDate    time.Time
	EndDate      time.Time
	Progress     int
	Dependencies []string
	ParentID     string
	Description  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type TaskInput struct {
	ID           string
	Name         string
	Status       Status
	Priority     Priority
	Assignee     string
	StartDate    time.Time
	EndDate      time.Time
	Progress     int
	Dependencies []string
	ParentID     string
	Description  string
}

func NewTask(in TaskInput, now time.Time) (Task, error) {
	in.ID = strings.TrimSpace(in.ID)
	if in.ID == "" {
		return Task{}, ErrInvalidID
	}
	t := Task{
		ID:        in.ID,
		CreatedAt: now.UTC(),
	}
	if err := t.apply(in, now); err != nil {
		return Task{}, err
	}
	return t, nil
}

// UpdateDetails replaces every editable field. The id is kept.
func (t *Task) UpdateDetails(in TaskInput, now time.Time) error {
	next := *t
	if err := next.apply(in, now); err != nil {
		return err
	}
	*t = next
	return nil
}

// Reschedule sets both calendar days at once.
func (t *Task) Reschedule(start, end time.Time, now time.Time) error {
	start, end = Day(start), Day(end)
	if end.Before(start) {
		return ErrInvalidDateRange
	}
	t.StartDate = start
	t.EndDate = end
	t.UpdatedAt = now.UTC()
	return nil
}

// DependsOn reports whether id is one of the task's prerequisites.
func (t Task) DependsOn(id string) bool {
	return slices.Contains(t.Dependencies, id)
}

// AddDependency records id as a prerequisite. It reports false when the
// dependency was already present.
func (t *Task) AddDependency(id string, now time.Time) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, ErrInvalidID
	}
	if id == t.ID {
		return false, ErrSelfDependency
	}
	if t.DependsOn(id) {
		return false, nil
	}
	t.Dependencies = normalizeDependencies(append(slices.Clone(t.Dependencies), id))
	t.UpdatedAt = now.UTC()
	return true, nil
}

// RemoveDependency drops id from the prerequisites and reports whether it
// was present.
func (t *Task) RemoveDependency(id string, now time.Time) bool {
	idx := slices.Index(t.Dependencies, id)
	if idx < 0 {
		return false
	}
	t.Dependencies = slices.Delete(slices.Clone(t.Dependencies), idx, idx+1)
	t.UpdatedAt = now.UTC()
	return true
}

// DurationDays counts calendar days covered by the task, inclusive.
func (t Task) DurationDays() int {
	return DaysBetween(t.StartDate, t.EndDate) + 1
}

// Clone returns a copy that shares no slices with t.
func (t Task) Clone() Task {
	t.Dependencies = slices.Clone(t.Dependencies)
	return t
}

func (t *Task) apply(in TaskInput, now time.Time) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Assignee = strings.TrimSpace(in.Assignee)
	in.ParentID = strings.TrimSpace(in.ParentID)
	in.Description = strings.TrimSpace(in.Description)

	if in.Name == "" {
		return ErrInvalidName
	}
	if in.Status == "" {
		in.Status = StatusTodo
	}
	if !in.Status.Valid() {
		return ErrInvalidStatus
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !in.Priority.Valid() {
		return ErrInvalidPriority
	}
	if in.Progress < 0 || in.Progress > 100 {
		return ErrInvalidProgress
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return ErrInvalidDateRange
	}
	start, end := Day(in.StartDate), Day(in.EndDate)
	if end.Before(start) {
		return ErrInvalidDateRange
	}
	deps := normalizeDependencies(in.Dependencies)
	if slices.Contains(deps, t.ID) {
		return ErrSelfDependency
	}

	t.Name = in.Name
	t.Status = in.Status
	t.Priority = in.Priority
	t.Assignee = in.Assignee
	t.StartDate = start
	t.EndDate = end
	t.Progress = in.Progress
	t.Dependencies = deps
	t.ParentID = in.ParentID
	t.Description = in.Description
	t.UpdatedAt = now.UTC()
	return nil
}

// normalizeDependencies trims, dedupes and sorts dependency ids.
func normalizeDependencies(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := map[string]struct{}{}
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
