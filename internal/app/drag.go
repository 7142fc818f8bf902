package app

import (
	"context"
	"fmt"
	"time"
)

// ApplyDragFrame commits one gesture frame to the collection. Under
// CommitLive the repository is written on every frame; under CommitRelease
// the task is marked dirty and written by FinishDrag.
func (s *Service) ApplyDragFrame(ctx context.Context, id string, start, end time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("task %q: %w", id, ErrNotFound)
	}
	task := s.tasks[idx].Clone()
	if err := task.Reschedule(start, end, s.clock()); err != nil {
		return err
	}
	s.tasks[idx] = task

	if s.commit == CommitLive {
		if err := s.repo.UpdateTask(ctx, task); err != nil {
			return fmt.Errorf("commit drag frame: %w", err)
		}
		return nil
	}
	s.dirty[id] = struct{}{}
	return nil
}

// FinishDrag flushes a task touched by drag frames. It is a no-op when there
// is nothing pending.
func (s *Service) FinishDrag(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.dirty[id]; !ok {
		return nil
	}
	idx := s.indexOf(id)
	if idx < 0 {
		delete(s.dirty, id)
		return nil
	}
	if err := s.repo.UpdateTask(ctx, s.tasks[idx]); err != nil {
		return fmt.Errorf("commit drag: %w", err)
	}
	delete(s.dirty, id)
	s.logger.Debug("drag committed", "task_id", id, "start", s.tasks[idx].StartDate.Format(time.DateOnly), "end", s.tasks[idx].EndDate.Format(time.DateOnly))
	return nil
}

// FlushPending writes every task still carrying uncommitted drag frames and
// returns how many were written.
func (s *Service) FlushPending(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	written := 0
	for id := range s.dirty {
		idx := s.indexOf(id)
		if idx < 0 {
			delete(s.dirty, id)
			continue
		}
		if err := s.repo.UpdateTask(ctx, s.tasks[idx]); err != nil {
			return written, fmt.Errorf("flush drag %q: %w", id, err)
		}
		delete(s.dirty, id)
		written++
	}
	if written > 0 {
		s.logger.Info("pending drags flushed", "tasks", written)
	}
	return written, nil
}

// Pending reports how many tasks carry drag frames not yet written.
func (s *Service) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.dirty)
}
