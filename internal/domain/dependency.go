package domain

import (
	"slices"
	"strings"
)

const dependencyIDSeparator = "->"

// Dependency is a directed "from finishes before to starts" edge. Edges are
// derived from Task.Dependencies on the target task.
type Dependency struct {
	ID         string
	FromTaskID string
	ToTaskID   string
}

// DependencyID builds the order-sensitive edge id for a pair of tasks.
func DependencyID(fromID, toID string) string {
	return fromID + dependencyIDSeparator + toID
}

// ParseDependencyID splits an edge id back into its endpoints.
func ParseDependencyID(id string) (string, string, bool) {
	from, to, ok := strings.Cut(id, dependencyIDSeparator)
	if !ok || from == "" || to == "" {
		return "", "", false
	}
	return from, to, true
}

// NewDependency validates a pair of endpoint ids.
func NewDependency(fromID, toID string) (Dependency, error) {
	fromID = strings.TrimSpace(fromID)
	toID = strings.TrimSpace(toID)
	if fromID == "" || toID == "" {
		return Dependency{}, ErrInvalidID
	}
	if fromID == toID {
		return Dependency{}, ErrSelfDependency
	}
	return Dependency{
		ID:         DependencyID(fromID, toID),
		FromTaskID: fromID,
		ToTaskID:   toID,
	}, nil
}

// DependenciesOf derives the edge list from tasks. Edges whose source task is
// missing are skipped. The result is ordered by target then source id.
func DependenciesOf(tasks []Task) []Dependency {
	known := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		known[t.ID] = struct{}{}
	}
	out := make([]Dependency, 0)
	for _, t := range tasks {
		for _, from := range t.Dependencies {
			if _, ok := known[from]; !ok {
				continue
			}
			dep, err := NewDependency(from, t.ID)
			if err != nil {
				continue
			}
			out = append(out, dep)
		}
	}
	slices.SortFunc(out, func(a, b Dependency) int {
		if c := strings.Compare(a.ToTaskID, b.ToTaskID); c != 0 {
			return c
		}
		return strings.Compare(a.FromTaskID, b.FromTaskID)
	})
	return out
}
