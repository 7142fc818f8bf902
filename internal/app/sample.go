package app

import (
	"context"
	"fmt"

	"github.com/evanschultz/gantt/internal/domain"
)

type sampleTask struct {
	name        string
	status      domain.Status
	priority    domain.Priority
	assignee    string
	startOffset int
	days        int
	progress    int
	dependsOn   []int
	description string
}

// sampleProject is a small product launch laid out around today.
var sampleProject = []sampleTask{
	{name: "Research", status: domain.StatusCompleted, priority: domain.PriorityHigh, assignee: "Ana", startOffset: -14, days: 7, progress: 100,
		description: "Interview **eight** customers and summarize the findings."},
	{name: "Design mockups", status: domain.StatusInProgress, priority: domain.PriorityHigh, assignee: "Ben", startOffset: -6, days: 10, progress: 60, dependsOn: []int{0}},
	{name: "API contract", status: domain.StatusInProgress, priority: domain.PriorityMedium, assignee: "Chen", startOffset: -3, days: 5, progress: 40, dependsOn: []int{0}},
	{name: "Backend build", status: domain.StatusTodo, priority: domain.PriorityHigh, assignee: "Chen", startOffset: 3, days: 14, dependsOn: []int{2}},
	{name: "Frontend build", status: domain.StatusTodo, priority: domain.PriorityMedium, assignee: "Ben", startOffset: 5, days: 12, dependsOn: []int{1, 2}},
	{name: "Security review", status: domain.StatusOverdue, priority: domain.PriorityLow, assignee: "Dee", startOffset: -10, days: 4, progress: 20},
	{name: "Launch", status: domain.StatusTodo, priority: domain.PriorityHigh, startOffset: 20, days: 1, dependsOn: []int{3, 4},
		description: "- [ ] release notes\n- [ ] announce"},
}

// SeedSample fills an empty collection with the sample project. It reports
// false when tasks already exist.
func (s *Service) SeedSample(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.tasks) > 0 {
		return false, nil
	}
	now := s.clock()
	today := domain.Day(now)
	tasks := make([]domain.Task, 0, len(sampleProject))
	for _, st := range sampleProject {
		id, err := s.nextIDAmong(tasks)
		if err != nil {
			return false, err
		}
		deps := make([]string, 0, len(st.dependsOn))
		for _, i := range st.dependsOn {
			deps = append(deps, tasks[i].ID)
		}
		start := domain.AddDays(today, st.startOffset)
		t, err := domain.NewTask(domain.TaskInput{
			ID:           id,
			Name:         st.name,
			Status:       st.status,
			Priority:     st.priority,
			Assignee:     st.assignee,
			StartDate:    start,
			EndDate:      domain.AddDays(start, st.days-1),
			Progress:     st.progress,
			Dependencies: deps,
			Description:  st.description,
		}, now)
		if err != nil {
			return false, fmt.Errorf("sample task %q: %w", st.name, err)
		}
		tasks = append(tasks, t)
	}
	if err := s.repo.ReplaceTasks(ctx, tasks); err != nil {
		return false, fmt.Errorf("seed sample: %w", err)
	}
	s.tasks = tasks
	s.logger.Info("sample project seeded", "tasks", len(tasks))
	return true, nil
}

func (s *Service) nextIDAmong(pending []domain.Task) (string, error) {
	for range maxIDAttempts {
		id, err := s.nextID()
		if err != nil {
			return "", err
		}
		taken := false
		for _, t := range pending {
			if t.ID == id {
				taken = true
				break
			}
		}
		if !taken {
			return id, nil
		}
	}
	return "", ErrIDExhausted
}
