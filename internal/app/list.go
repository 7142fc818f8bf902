package app

import (
	"fmt"
	"slices"
	"strings"

	"github.com/evanschultz/gantt/internal/domain"
)

// SortKey selects the list ordering.
type SortKey string

// SortStartDate and related constants define package defaults.
const (
	SortStartDate SortKey = "start_date"
	SortEndDate   SortKey = "end_date"
	SortName      SortKey = "name"
	SortPriority  SortKey = "priority"
)

var sortKeys = []SortKey{SortStartDate, SortEndDate, SortName, SortPriority}

// SortKeys lists every sort key in cycling order.
func SortKeys() []SortKey {
	return slices.Clone(sortKeys)
}

// ParseSortKey normalizes a sort key. Empty input selects SortStartDate.
func ParseSortKey(raw string) (SortKey, error) {
	key := SortKey(strings.ToLower(strings.TrimSpace(raw)))
	if key == "" {
		return SortStartDate, nil
	}
	if !slices.Contains(sortKeys, key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSortKey, raw)
	}
	return key, nil
}

// Next cycles through the sort keys.
func (k SortKey) Next() SortKey {
	idx := slices.Index(sortKeys, k)
	return sortKeys[(idx+1)%len(sortKeys)]
}

// StatusAll disables status filtering.
const StatusAll = "all"

// ParseStatusFilter accepts "all" or a task status. Empty input selects "all".
func ParseStatusFilter(raw string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" || v == StatusAll {
		return StatusAll, nil
	}
	if !domain.Status(v).Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return v, nil
}

// NextStatusFilter cycles all -> todo -> in-progress -> completed -> overdue -> all.
func NextStatusFilter(current string) string {
	options := []string{StatusAll}
	for _, st := range domain.Statuses {
		options = append(options, string(st))
	}
	idx := slices.Index(options, current)
	return options[(idx+1)%len(options)]
}

// ListOptions filter and order ListTasks.
type ListOptions struct {
	Search string
	Status string
	Sort   SortKey
}

// Matches reports whether t passes the search and status filters.
func (o ListOptions) Matches(t domain.Task) bool {
	search := strings.ToLower(o.Search)
	if search != "" && !strings.Contains(strings.ToLower(t.Name), search) {
		return false
	}
	status := strings.TrimSpace(o.Status)
	return status == "" || status == StatusAll || string(t.Status) == status
}

// ListTasks returns the filtered, stably sorted view of the collection.
func (s *Service) ListTasks(opts ListOptions) []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if opts.Matches(t) {
			out = append(out, t.Clone())
		}
	}
	slices.SortStableFunc(out, s.comparator(opts.Sort))
	return out
}

func (s *Service) comparator(key SortKey) func(a, b domain.Task) int {
	switch key {
	case SortEndDate:
		return func(a, b domain.Task) int { return a.EndDate.Compare(b.EndDate) }
	case SortName:
		return func(a, b domain.Task) int { return s.collator.CompareString(a.Name, b.Name) }
	case SortPriority:
		return func(a, b domain.Task) int { return b.Priority.Rank() - a.Priority.Rank() }
	default:
		return func(a, b domain.Task) int { return a.StartDate.Compare(b.StartDate) }
	}
}
