// Package memory keeps the task collection in process for sessions that do not
// persist.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/evanschultz/gantt/internal/app"
	"github.com/evanschultz/gantt/internal/domain"
)

// Repository is an in-memory app.Repository that keeps insertion order.
type Repository struct {
	mu    sync.Mutex
	tasks []domain.Task
}

var _ app.Repository = (*Repository)(nil)

// New returns an empty repository.
func New() *Repository {
	return &Repository{}
}

// ListTasks returns clones of every task in insertion order.
func (r *Repository) ListTasks(_ context.Context) ([]domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, t.Clone())
	}
	return out, nil
}

// CreateTask appends t.
func (r *Repository) CreateTask(_ context.Context, t domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexOf(t.ID) >= 0 {
		return fmt.Errorf("task %q already exists", t.ID)
	}
	r.tasks = append(r.tasks, t.Clone())
	return nil
}

// UpdateTask overwrites the stored copy of t.
func (r *Repository) UpdateTask(_ context.Context, t domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexOf(t.ID)
	if idx < 0 {
		return app.ErrNotFound
	}
	r.tasks[idx] = t.Clone()
	return nil
}

// DeleteTask removes the task and drops edges that referenced it.
func (r *Repository) DeleteTask(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexOf(id)
	if idx < 0 {
		return app.ErrNotFound
	}
	r.tasks = slices.Delete(r.tasks, idx, idx+1)
	for i := range r.tasks {
		r.tasks[i].Dependencies = slices.DeleteFunc(r.tasks[i].Dependencies, func(dep string) bool {
			return dep == id
		})
	}
	return nil
}

// ReplaceTasks swaps the whole collection.
func (r *Repository) ReplaceTasks(_ context.Context, tasks []domain.Task) error {
	next := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		next = append(next, t.Clone())
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = next
	return nil
}

func (r *Repository) indexOf(id string) int {
	return slices.IndexFunc(r.tasks, func(t domain.Task) bool { return t.ID == id })
}
