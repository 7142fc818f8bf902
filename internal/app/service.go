package app

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/evanschultz/gantt/internal/domain"
)

// CommitPolicy decides when drag frames reach the repository.
type CommitPolicy string

// CommitLive and related constants define package defaults.
const (
	CommitLive    CommitPolicy = "live"
	CommitRelease CommitPolicy = "release"
)

// ParseCommitPolicy normalizes a policy name.
func ParseCommitPolicy(raw string) (CommitPolicy, error) {
	switch p := CommitPolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case CommitLive, CommitRelease:
		return p, nil
	case "":
		return CommitRelease, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCommitMode, raw)
	}
}

const maxIDAttempts = 8

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	CommitPolicy CommitPolicy
	Locale       string
	Logger       Logger
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service is the single owner of the task collection. Views read clones and
// request every mutation through its methods.
type Service struct {
	repo     Repository
	idGen    IDGenerator
	clock    Clock
	commit   CommitPolicy
	logger   Logger
	collator *collate.Collator

	mu    sync.Mutex
	tasks []domain.Task
	dirty map[string]struct{}
}

// NewService constructs a new value for this package.
func NewService(repo Repository, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	if cfg.CommitPolicy == "" {
		cfg.CommitPolicy = CommitRelease
	}
	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}
	tag, err := language.Parse(strings.TrimSpace(cfg.Locale))
	if err != nil {
		tag = language.English
	}
	return &Service{
		repo:     repo,
		idGen:    idGen,
		clock:    clock,
		commit:   cfg.CommitPolicy,
		logger:   cfg.Logger,
		collator: collate.New(tag, collate.IgnoreCase),
		dirty:    map[string]struct{}{},
	}
}

// Load replaces the in-memory collection with the repository contents.
func (s *Service) Load(ctx context.Context) error {
	tasks, err := s.repo.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = cloneTasks(tasks)
	clear(s.dirty)
	s.logger.Debug("tasks loaded", "count", len(tasks))
	return nil
}

// Tasks returns every task in insertion order.
func (s *Service) Tasks() []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTasks(s.tasks)
}

// GetTask returns one task by id.
func (s *Service) GetTask(id string) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Task{}, fmt.Errorf("task %q: %w", id, ErrNotFound)
	}
	return s.tasks[idx].Clone(), nil
}

// CreateTask validates the draft, assigns a fresh id and appends the task.
func (s *Service) CreateTask(ctx context.Context, draft domain.Draft) (domain.Task, error) {
	if errs := draft.Validate(); errs != nil {
		return domain.Task{}, errs
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.nextID()
	if err != nil {
		return domain.Task{}, err
	}
	task, err := domain.NewTask(draft.Input(id), s.clock())
	if err != nil {
		return domain.Task{}, err
	}
	if err := s.requireKnown(task.Dependencies); err != nil {
		return domain.Task{}, err
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return domain.Task{}, fmt.Errorf("create task: %w", err)
	}
	s.tasks = append(s.tasks, task)
	s.logger.Info("task created", "task_id", task.ID, "name", task.Name)
	return task.Clone(), nil
}

// UpdateTask replaces the editable fields of the task with matching id.
func (s *Service) UpdateTask(ctx context.Context, id string, draft domain.Draft) (domain.Task, error) {
	if errs := draft.Validate(); errs != nil {
		return domain.Task{}, errs
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Task{}, fmt.Errorf("task %q: %w", id, ErrNotFound)
	}
	task := s.tasks[idx].Clone()
	if err := task.UpdateDetails(draft.Input(id), s.clock()); err != nil {
		return domain.Task{}, err
	}
	if err := s.requireKnown(task.Dependencies); err != nil {
		return domain.Task{}, err
	}
	for _, dep := range task.Dependencies {
		if s.tasks[idx].DependsOn(dep) {
			continue
		}
		if domain.WouldCycle(s.tasks, dep, id) {
			return domain.Task{}, fmt.Errorf("%s -> %s: %w", dep, id, ErrDependencyCycle)
		}
	}
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, fmt.Errorf("update task: %w", err)
	}
	s.tasks[idx] = task
	delete(s.dirty, id)
	s.logger.Info("task updated", "task_id", id)
	return task.Clone(), nil
}

// DeleteTask removes the task and prunes every dependency that points at it.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("task %q: %w", id, ErrNotFound)
	}
	if err := s.repo.DeleteTask(ctx, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	s.tasks = slices.Delete(s.tasks, idx, idx+1)
	delete(s.dirty, id)

	now := s.clock()
	pruned := 0
	for i := range s.tasks {
		if !s.tasks[i].RemoveDependency(id, now) {
			continue
		}
		pruned++
		if err := s.repo.UpdateTask(ctx, s.tasks[i]); err != nil {
			return fmt.Errorf("prune dependency on %q: %w", s.tasks[i].ID, err)
		}
	}
	s.logger.Info("task deleted", "task_id", id, "pruned_edges", pruned)
	return nil
}

func (s *Service) nextID() (string, error) {
	for range maxIDAttempts {
		id := strings.TrimSpace(s.idGen())
		if id != "" && s.indexOf(id) < 0 {
			return id, nil
		}
	}
	return "", ErrIDExhausted
}

func (s *Service) indexOf(id string) int {
	return slices.IndexFunc(s.tasks, func(t domain.Task) bool { return t.ID == id })
}

func (s *Service) requireKnown(ids []string) error {
	for _, id := range ids {
		if s.indexOf(id) < 0 {
			return fmt.Errorf("dependency %q: %w", id, ErrNotFound)
		}
	}
	return nil
}

func cloneTasks(in []domain.Task) []domain.Task {
	out := make([]domain.Task, 0, len(in))
	for _, t := range in {
		out = append(out, t.Clone())
	}
	return out
}
