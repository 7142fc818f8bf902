package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/evanschultz/gantt/internal/domain"
)

// SnapshotVersion defines a package constant value.
const SnapshotVersion = "gantt.snapshot.v1"

// Snapshot is the portable JSON form of the task collection.
type Snapshot struct {
	Version    string         `json:"version"`
	ExportedAt time.Time      `json:"exported_at"`
	Tasks      []SnapshotTask `json:"tasks"`
}

// SnapshotTask represents snapshot task data used by this package.
type SnapshotTask struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Status       domain.Status   `json:"status"`
	Priority     domain.Priority `json:"priority"`
	Assignee     string          `json:"assignee,omitempty"`
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
	Progress     int             `json:"progress"`
	Dependencies []string        `json:"dependencies"`
	ParentID     string          `json:"parent_id,omitempty"`
	Description  string          `json:"description,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ExportSnapshot captures the collection in insertion order.
func (s *Service) ExportSnapshot() Snapshot {
	tasks := s.Tasks()
	snap := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: s.clock().UTC(),
		Tasks:      make([]SnapshotTask, 0, len(tasks)),
	}
	for _, t := range tasks {
		snap.Tasks = append(snap.Tasks, snapshotTaskFromDomain(t))
	}
	return snap
}

// ImportSnapshot validates snap and replaces the whole collection with it.
func (s *Service) ImportSnapshot(ctx context.Context, snap Snapshot) error {
	tasks, err := snap.toDomain()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.ReplaceTasks(ctx, tasks); err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}
	s.tasks = cloneTasks(tasks)
	clear(s.dirty)
	s.logger.Info("snapshot imported", "tasks", len(tasks))
	return nil
}

// Validate checks ids, dates, references and cycles without touching state.
func (snap Snapshot) Validate() error {
	_, err := snap.toDomain()
	return err
}

func (snap Snapshot) toDomain() ([]domain.Task, error) {
	if snap.Version != "" && snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version: %q", snap.Version)
	}
	tasks := make([]domain.Task, 0, len(snap.Tasks))
	ids := map[string]struct{}{}
	for i, st := range snap.Tasks {
		t, err := st.toDomain()
		if err != nil {
			return nil, fmt.Errorf("tasks[%d]: %w", i, err)
		}
		if _, exists := ids[t.ID]; exists {
			return nil, fmt.Errorf("duplicate task id: %q", t.ID)
		}
		ids[t.ID] = struct{}{}
		tasks = append(tasks, t)
	}
	for i, t := range tasks {
		for _, dep := range t.Dependencies {
			if _, ok := ids[dep]; !ok {
				return nil, fmt.Errorf("tasks[%d] depends on unknown task %q: %w", i, dep, ErrNotFound)
			}
		}
	}
	if cycles := domain.FindCycles(tasks); len(cycles) > 0 {
		return nil, fmt.Errorf("%s: %w", strings.Join(cycles[0], " -> "), ErrDependencyCycle)
	}
	return tasks, nil
}

func (st SnapshotTask) toDomain() (domain.Task, error) {
	start, err := time.Parse(time.DateOnly, strings.TrimSpace(st.StartDate))
	if err != nil {
		return domain.Task{}, fmt.Errorf("start_date: %w", err)
	}
	end, err := time.Parse(time.DateOnly, strings.TrimSpace(st.EndDate))
	if err != nil {
		return domain.Task{}, fmt.Errorf("end_date: %w", err)
	}
	created := st.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	t, err := domain.NewTask(domain.TaskInput{
		ID:           st.ID,
		Name:         st.Name,
		Status:       st.Status,
		Priority:     st.Priority,
		Assignee:     st.Assignee,
		StartDate:    start,
		EndDate:      end,
		Progress:     st.Progress,
		Dependencies: st.Dependencies,
		ParentID:     st.ParentID,
		Description:  st.Description,
	}, created)
	if err != nil {
		return domain.Task{}, err
	}
	if !st.UpdatedAt.IsZero() {
		t.UpdatedAt = st.UpdatedAt.UTC()
	}
	return t, nil
}

func snapshotTaskFromDomain(t domain.Task) SnapshotTask {
	return SnapshotTask{
		ID:           t.ID,
		Name:         t.Name,
		Status:       t.Status,
		Priority:     t.Priority,
		Assignee:     t.Assignee,
		StartDate:    t.StartDate.Format(time.DateOnly),
		EndDate:      t.EndDate.Format(time.DateOnly),
		Progress:     t.Progress,
		Dependencies: append([]string{}, t.Dependencies...),
		ParentID:     t.ParentID,
		Description:  t.Description,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}
