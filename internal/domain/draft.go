package domain

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// Draft field names used as FieldErrors keys.
const (
	FieldName      = "name"
	FieldStatus    = "status"
	FieldPriority  = "priority"
	FieldStartDate = "start_date"
	FieldEndDate   = "end_date"
	FieldProgress  = "progress"
)

// FieldErrors maps a form field to the message shown next to it.
type FieldErrors map[string]string

// Error implements error.
func (fe FieldErrors) Error() string {
	keys := slices.Sorted(maps.Keys(fe))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, fe[k]))
	}
	return "invalid task draft: " + strings.Join(parts, "; ")
}

// Unwrap lets callers match with errors.Is(err, ErrInvalidDraft).
func (fe FieldErrors) Unwrap() error {
	return ErrInvalidDraft
}

// Draft is the editable form state of a task before it is saved.
// Dates are nil when the user left them empty.
type Draft struct {
	Name         string
	Status       Status
	Priority     Priority
	Assignee     string
	StartDate    *time.Time
	EndDate      *time.Time
	Progress     int
	Dependencies []string
	ParentID     string
	Description  string
}

// DraftFromTask seeds a draft with the current values of t.
func DraftFromTask(t Task) Draft {
	start, end := t.StartDate, t.EndDate
	return Draft{
		Name:         t.Name,
		Status:       t.Status,
		Priority:     t.Priority,
		Assignee:     t.Assignee,
		StartDate:    &start,
		EndDate:      &end,
		Progress:     t.Progress,
		Dependencies: slices.Clone(t.Dependencies),
		ParentID:     t.ParentID,
		Description:  t.Description,
	}
}

// Validate reports every field problem at once. A nil result means the draft
// can be saved.
func (d Draft) Validate() FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(d.Name) == "" {
		errs[FieldName] = "name is required"
	}
	if d.Status != "" && !d.Status.Valid() {
		errs[FieldStatus] = fmt.Sprintf("unknown status %q", d.Status)
	}
	if d.Priority != "" && !d.Priority.Valid() {
		errs[FieldPriority] = fmt.Sprintf("unknown priority %q", d.Priority)
	}
	if d.StartDate == nil || d.StartDate.IsZero() {
		errs[FieldStartDate] = "start date is required"
	}
	if d.EndDate == nil || d.EndDate.IsZero() {
		errs[FieldEndDate] = "end date is required"
	}
	if _, ok := errs[FieldStartDate]; !ok {
		if _, ok := errs[FieldEndDate]; !ok && Day(*d.EndDate).Before(Day(*d.StartDate)) {
			errs[FieldEndDate] = "end date must not be before start date"
		}
	}
	if d.Progress < 0 || d.Progress > 100 {
		errs[FieldProgress] = "progress must be between 0 and 100"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Input converts a validated draft into constructor input for id.
func (d Draft) Input(id string) TaskInput {
	in := TaskInput{
		ID:           id,
		Name:         d.Name,
		Status:       d.Status,
		Priority:     d.Priority,
		Assignee:     d.Assignee,
		Progress:     d.Progress,
		Dependencies: slices.Clone(d.Dependencies),
		ParentID:     d.ParentID,
		Description:  d.Description,
	}
	if d.StartDate != nil {
		in.StartDate = *d.StartDate
	}
	if d.EndDate != nil {
		in.EndDate = *d.EndDate
	}
	return in
}
