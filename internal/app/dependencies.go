package app

import (
	"context"
	"fmt"

	"github.com/evanschultz/gantt/internal/domain"
)

// Dependencies derives the edge list from the collection. Dangling edges are
// left out.
func (s *Service) Dependencies() []domain.Dependency {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.DependenciesOf(s.tasks)
}

// CreateDependency records that fromID finishes before toID starts. A
// duplicate pair is a no-op and reports created=false.
func (s *Service) CreateDependency(ctx context.Context, fromID, toID string) (domain.Dependency, bool, error) {
	dep, err := domain.NewDependency(fromID, toID)
	if err != nil {
		return domain.Dependency{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(dep.FromTaskID) < 0 {
		return domain.Dependency{}, false, fmt.Errorf("task %q: %w", dep.FromTaskID, ErrNotFound)
	}
	idx := s.indexOf(dep.ToTaskID)
	if idx < 0 {
		return domain.Dependency{}, false, fmt.Errorf("task %q: %w", dep.ToTaskID, ErrNotFound)
	}
	if s.tasks[idx].DependsOn(dep.FromTaskID) {
		return dep, false, nil
	}
	if domain.WouldCycle(s.tasks, dep.FromTaskID, dep.ToTaskID) {
		return domain.Dependency{}, false, fmt.Errorf("%s: %w", dep.ID, ErrDependencyCycle)
	}

	task := s.tasks[idx].Clone()
	if _, err := task.AddDependency(dep.FromTaskID, s.clock()); err != nil {
		return domain.Dependency{}, false, err
	}
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return domain.Dependency{}, false, fmt.Errorf("create dependency: %w", err)
	}
	s.tasks[idx] = task
	s.logger.Info("dependency created", "edge", dep.ID)
	return dep, true, nil
}

// DeleteDependency removes the edge with edgeID. Unknown ids are a no-op and
// report removed=false.
func (s *Service) DeleteDependency(ctx context.Context, edgeID string) (bool, error) {
	fromID, toID, ok := domain.ParseDependencyID(edgeID)
	if !ok {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(toID)
	if idx < 0 {
		return false, nil
	}
	task := s.tasks[idx].Clone()
	if !task.RemoveDependency(fromID, s.clock()) {
		return false, nil
	}
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return false, fmt.Errorf("delete dependency: %w", err)
	}
	s.tasks[idx] = task
	s.logger.Info("dependency deleted", "edge", edgeID)
	return true, nil
}

// DependencyChain lists every task id transitively waits on, nearest first.
func (s *Service) DependencyChain(id string) ([]domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(id) < 0 {
		return nil, fmt.Errorf("task %q: %w", id, ErrNotFound)
	}
	ids := domain.Prerequisites(s.tasks, id)
	out := make([]domain.Task, 0, len(ids))
	for _, pid := range ids {
		out = append(out, s.tasks[s.indexOf(pid)].Clone())
	}
	return out, nil
}
