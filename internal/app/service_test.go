package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/evanschultz/gantt/internal/domain"
)

type fakeRepo struct {
	tasks   map[string]domain.Task
	updates int
	failOn  string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{tasks: map[string]domain.Task{}}
}

func (f *fakeRepo) ListTasks(context.Context) ([]domain.Task, error) {
	out := make([]domain.Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b domain.Task) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (f *fakeRepo) CreateTask(_ context.Context, t domain.Task) error {
	if f.failOn == "create" {
		return errors.New("boom")
	}
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeRepo) UpdateTask(_ context.Context, t domain.Task) error {
	if f.failOn == "update" {
		return errors.New("boom")
	}
	if _, ok := f.tasks[t.ID]; !ok {
		return ErrNotFound
	}
	f.updates++
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeRepo) DeleteTask(_ context.Context, id string) error {
	if _, ok := f.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeRepo) ReplaceTasks(_ context.Context, tasks []domain.Task) error {
	f.tasks = map[string]domain.Task{}
	for _, t := range tasks {
		f.tasks[t.ID] = t
	}
	return nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sequentialIDs(ids ...string) IDGenerator {
	i := 0
	return func() string {
		if i >= len(ids) {
			return ""
		}
		id := ids[i]
		i++
		return id
	}
}

func newTestService(t *testing.T, cfg ServiceConfig, ids ...string) (*Service, *fakeRepo) {
	t.Helper()
	repo := newFakeRepo()
	now := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	svc := NewService(repo, sequentialIDs(ids...), func() time.Time { return now }, cfg)
	return svc, repo
}

func draft(name string, start, end time.Time) domain.Draft {
	return domain.Draft{Name: name, StartDate: &start, EndDate: &end}
}

func mustCreate(t *testing.T, svc *Service, d domain.Draft) domain.Task {
	t.Helper()
	task, err := svc.CreateTask(context.Background(), d)
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	return task
}

// TestCreateTaskAssignsUniqueID verifies id generation skips collisions.
func TestCreateTaskAssignsUniqueID(t *testing.T) {
	svc, repo := newTestService(t, ServiceConfig{}, "a", "a", "", "b")
	first := mustCreate(t, svc, draft("one", day(2026, 1, 1), day(2026, 1, 2)))
	second := mustCreate(t, svc, draft("two", day(2026, 1, 1), day(2026, 1, 2)))
	if first.ID != "a" || second.ID != "b" {
		t.Fatalf("unexpected ids %q, %q", first.ID, second.ID)
	}
	if len(repo.tasks) != 2 {
		t.Fatalf("expected 2 persisted tasks, got %d", len(repo.tasks))
	}
	if _, err := svc.CreateTask(context.Background(), draft("three", day(2026, 1, 1), day(2026, 1, 2))); !errors.Is(err, ErrIDExhausted) {
		t.Fatalf("expected ErrIDExhausted, got %v", err)
	}
}

// TestCreateTaskRejectsInvalidDraft verifies field errors block save.
func TestCreateTaskRejectsInvalidDraft(t *testing.T) {
	svc, repo := newTestService(t, ServiceConfig{}, "a")
	_, err := svc.CreateTask(context.Background(), draft("", day(2026, 1, 5), day(2026, 1, 1)))
	var fields domain.FieldErrors
	if !errors.As(err, &fields) {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	if fields[domain.FieldName] == "" || fields[domain.FieldEndDate] == "" {
		t.Fatalf("unexpected field errors %#v", fields)
	}
	if len(repo.tasks) != 0 || len(svc.Tasks()) != 0 {
		t.Fatal("invalid draft must not be stored")
	}
}

// TestUpdateTask verifies replacement by id and the not-found policy.
func TestUpdateTask(t *testing.T) {
	svc, _ := newTestService(t, ServiceConfig{}, "a")
	task := mustCreate(t, svc, draft("one", day(2026, 1, 1), day(2026, 1, 2)))
	d := domain.DraftFromTask(task)
	d.Name = "renamed"
	d.Status = domain.StatusCompleted
	updated, err := svc.UpdateTask(context.Background(), task.ID, d)
	if err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if updated.Name != "renamed" || updated.Status != domain.StatusCompleted {
		t.Fatalf("unexpected update %#v", updated)
	}
	if _, err := svc.UpdateTask(context.Background(), "missing", d); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// TestUpdateTaskRejectsCycle verifies draft dependencies are cycle checked.
func TestUpdateTaskRejectsCycle(t *testing.T) {
	svc, _ := newTestService(t, ServiceConfig{}, "a", "b")
	a := mustCreate(t, svc, draft("a", day(2026, 1, 1), day(2026, 1, 2)))
	b := mustCreate(t, svc, draft("b", day(2026, 1, 3), day(2026, 1, 4)))
	if _, _, err := svc.CreateDependency(context.Background(), a.ID, b.ID); err != nil {
		t.Fatalf("CreateDependency() error = %v", err)
	}
	d := domain.DraftFromTask(a)
	d.Dependencies = []string{b.ID}
	if _, err := svc.UpdateTask(context.Background(), a.ID, d); !errors.Is(err, ErrDependencyCycle) {
		t.Fatalf("expected ErrDependencyCycle, got %v", err)
	}
	d.Dependencies = []string{"ghost"}
	if _, err := svc.UpdateTask(context.Background(), a.ID, d); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// TestDeleteTaskPrunesDependencies verifies eager pruning of dangling edges.
func TestDeleteTaskPrunesDependencies(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t, ServiceConfig{}, "1", "2", "3")
	one := mustCreate(t, svc, draft("one", day(2026, 1, 1), day(2026, 1, 2)))
	two := mustCreate(t, svc, draft("two", day(2026, 1, 3), day(2026, 1, 4)))
	three := mustCreate(t, svc, draft("three", day(2026, 1, 5), day(2026, 1, 6)))
	for _, pair := range [][2]string{{one.ID, two.ID}, {one.ID, three.ID}, {two.ID, three.ID}} {
		if _, _, err := svc.CreateDependency(ctx, pair[0], pair[1]); err != nil {
			t.Fatalf("CreateDependency(%v) error = %v", pair, err)
		}
	}
	if err := svc.DeleteTask(ctx, one.ID); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	deps := svc.Dependencies()
	if len(deps) != 1 || deps[0].ID != "2->3" {
		t.Fatalf("unexpected dependencies after delete %#v", deps)
	}
	if repo.tasks[three.ID].DependsOn(one.ID) {
		t.Fatal("expected pruned dependency to be persisted")
	}
	if err := svc.DeleteTask(ctx, one.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// TestCreateDependencyRules verifies self-loop, duplicate and cycle handling.
func TestCreateDependencyRules(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, ServiceConfig{}, "1", "2", "3")
	one := mustCreate(t, svc, draft("one", day(2025, 12, 16), day(2025, 12, 22)))
	two := mustCreate(t, svc, draft("two", day(2025, 12, 23), day(2026, 1, 10)))
	three := mustCreate(t, svc, draft("three", day(2026, 1, 11), day(2026, 1, 12)))

	dep, created, err := svc.CreateDependency(ctx, one.ID, two.ID)
	if err != nil || !created || dep.ID != "1->2" {
		t.Fatalf("CreateDependency() = %#v, %v, %v", dep, created, err)
	}
	dep, created, err = svc.CreateDependency(ctx, one.ID, two.ID)
	if err != nil || created || dep.ID != "1->2" {
		t.Fatalf("duplicate CreateDependency() = %#v, %v, %v", dep, created, err)
	}
	if n := len(svc.Dependencies()); n != 1 {
		t.Fatalf("expected 1 edge, got %d", n)
	}
	if _, _, err := svc.CreateDependency(ctx, one.ID, one.ID); !errors.Is(err, domain.ErrSelfDependency) {
		t.Fatalf("expected ErrSelfDependency, got %v", err)
	}
	if _, _, err := svc.CreateDependency(ctx, two.ID, three.ID); err != nil {
		t.Fatalf("CreateDependency(2,3) error = %v", err)
	}
	if _, _, err := svc.CreateDependency(ctx, three.ID, one.ID); !errors.Is(err, ErrDependencyCycle) {
		t.Fatalf("expected ErrDependencyCycle, got %v", err)
	}
	if _, _, err := svc.CreateDependency(ctx, "ghost", one.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if n := len(svc.Dependencies()); n != 2 {
		t.Fatalf("expected 2 edges, got %d", n)
	}

	chain, err := svc.DependencyChain(three.ID)
	if err != nil {
		t.Fatalf("DependencyChain() error = %v", err)
	}
	if len(chain) != 2 || chain[0].ID != two.ID || chain[1].ID != one.ID {
		t.Fatalf("unexpected chain %#v", chain)
	}
}

// TestDeleteDependency verifies removal and the absent no-op.
func TestDeleteDependency(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, ServiceConfig{}, "1", "2")
	one := mustCreate(t, svc, draft("one", day(2026, 1, 1), day(2026, 1, 2)))
	two := mustCreate(t, svc, draft("two", day(2026, 1, 3), day(2026, 1, 4)))
	if _, _, err := svc.CreateDependency(ctx, one.ID, two.ID); err != nil {
		t.Fatalf("CreateDependency() error = %v", err)
	}
	removed, err := svc.DeleteDependency(ctx, "1->2")
	if err != nil || !removed {
		t.Fatalf("DeleteDependency() = %v, %v", removed, err)
	}
	for _, id := range []string{"1->2", "nope", "9->1"} {
		removed, err = svc.DeleteDependency(ctx, id)
		if err != nil || removed {
			t.Fatalf("DeleteDependency(%q) = %v, %v; want no-op", id, removed, err)
		}
	}
}

// TestDragCommitPolicies verifies live and release persistence.
func TestDragCommitPolicies(t *testing.T) {
	for _, policy := range []CommitPolicy{CommitLive, CommitRelease} {
		t.Run(string(policy), func(t *testing.T) {
			ctx := context.Background()
			svc, repo := newTestService(t, ServiceConfig{CommitPolicy: policy}, "a")
			task := mustCreate(t, svc, draft("a", day(2026, 1, 10), day(2026, 1, 15)))
			for i := 1; i <= 3; i++ {
				if err := svc.ApplyDragFrame(ctx, task.ID, day(2026, 1, 10+i), day(2026, 1, 15+i)); err != nil {
					t.Fatalf("ApplyDragFrame() error = %v", err)
				}
			}
			got, _ := svc.GetTask(task.ID)
			if !got.StartDate.Equal(day(2026, 1, 13)) {
				t.Fatalf("expected in-memory collection updated every frame, got %s", got.StartDate)
			}
			wantBefore := 3
			if policy == CommitRelease {
				wantBefore = 0
				if svc.Pending() != 1 {
					t.Fatalf("expected 1 pending task, got %d", svc.Pending())
				}
			}
			if repo.updates != wantBefore {
				t.Fatalf("expected %d repo updates before release, got %d", wantBefore, repo.updates)
			}
			if err := svc.FinishDrag(ctx, task.ID); err != nil {
				t.Fatalf("FinishDrag() error = %v", err)
			}
			if !repo.tasks[task.ID].StartDate.Equal(day(2026, 1, 13)) {
				t.Fatalf("expected persisted start Jan 13, got %s", repo.tasks[task.ID].StartDate)
			}
			if svc.Pending() != 0 {
				t.Fatal("expected nothing pending after FinishDrag")
			}
		})
	}
}

// TestFlushPendingWritesEveryDirtyTask verifies unreleased drags can be saved in one pass.
func TestFlushPendingWritesEveryDirtyTask(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t, ServiceConfig{CommitPolicy: CommitRelease}, "a", "b")
	a := mustCreate(t, svc, draft("a", day(2026, 1, 10), day(2026, 1, 15)))
	b := mustCreate(t, svc, draft("b", day(2026, 1, 20), day(2026, 1, 22)))
	if err := svc.ApplyDragFrame(ctx, a.ID, day(2026, 1, 11), day(2026, 1, 16)); err != nil {
		t.Fatalf("ApplyDragFrame() error = %v", err)
	}
	if err := svc.ApplyDragFrame(ctx, b.ID, day(2026, 1, 19), day(2026, 1, 22)); err != nil {
		t.Fatalf("ApplyDragFrame() error = %v", err)
	}

	written, err := svc.FlushPending(ctx)
	if err != nil {
		t.Fatalf("FlushPending() error = %v", err)
	}
	if written != 2 || svc.Pending() != 0 {
		t.Fatalf("FlushPending() = %d, pending %d; want 2, 0", written, svc.Pending())
	}
	if !repo.tasks[a.ID].StartDate.Equal(day(2026, 1, 11)) || !repo.tasks[b.ID].StartDate.Equal(day(2026, 1, 19)) {
		t.Fatalf("unexpected persisted starts %s, %s", repo.tasks[a.ID].StartDate, repo.tasks[b.ID].StartDate)
	}
	if written, err := svc.FlushPending(ctx); err != nil || written != 0 {
		t.Fatalf("second FlushPending() = %d, %v; want 0, nil", written, err)
	}
}

// TestApplyDragFrameMissingTask verifies not-found handling.
func TestApplyDragFrameMissingTask(t *testing.T) {
	svc, _ := newTestService(t, ServiceConfig{})
	if err := svc.ApplyDragFrame(context.Background(), "x", day(2026, 1, 1), day(2026, 1, 2)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := svc.FinishDrag(context.Background(), "x"); err != nil {
		t.Fatalf("FinishDrag() with nothing pending error = %v", err)
	}
}

// TestRepositoryErrorsAreWrapped verifies persistence failures propagate.
func TestRepositoryErrorsAreWrapped(t *testing.T) {
	svc, repo := newTestService(t, ServiceConfig{}, "a")
	repo.failOn = "create"
	_, err := svc.CreateTask(context.Background(), draft("a", day(2026, 1, 1), day(2026, 1, 1)))
	if err == nil || len(svc.Tasks()) != 0 {
		t.Fatalf("expected create failure without in-memory insert, got %v", err)
	}
}

// TestLoadAndSeedSample verifies loading and sample seeding.
func TestLoadAndSeedSample(t *testing.T) {
	ctx := context.Background()
	ids := make([]string, 0, 20)
	for i := range 20 {
		ids = append(ids, fmt.Sprintf("s%02d", i))
	}
	svc, repo := newTestService(t, ServiceConfig{}, ids...)
	seeded, err := svc.SeedSample(ctx)
	if err != nil || !seeded {
		t.Fatalf("SeedSample() = %v, %v", seeded, err)
	}
	if len(repo.tasks) != len(sampleProject) {
		t.Fatalf("expected %d persisted tasks, got %d", len(sampleProject), len(repo.tasks))
	}
	if len(svc.Dependencies()) == 0 {
		t.Fatal("expected sample dependencies")
	}
	if len(domain.FindCycles(svc.Tasks())) != 0 {
		t.Fatal("sample project must be acyclic")
	}
	seeded, err = svc.SeedSample(ctx)
	if err != nil || seeded {
		t.Fatalf("second SeedSample() = %v, %v", seeded, err)
	}

	reloaded := NewService(repo, nil, nil, ServiceConfig{})
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(reloaded.Tasks()) != len(sampleProject) {
		t.Fatalf("expected %d loaded tasks, got %d", len(sampleProject), len(reloaded.Tasks()))
	}
}

// TestParseCommitPolicy verifies defaults and validation.
func TestParseCommitPolicy(t *testing.T) {
	if p, err := ParseCommitPolicy(""); err != nil || p != CommitRelease {
		t.Fatalf("ParseCommitPolicy(\"\") = %q, %v", p, err)
	}
	if p, err := ParseCommitPolicy(" LIVE "); err != nil || p != CommitLive {
		t.Fatalf("ParseCommitPolicy(LIVE) = %q, %v", p, err)
	}
	if _, err := ParseCommitPolicy("batch"); !errors.Is(err, ErrInvalidCommitMode) {
		t.Fatalf("expected ErrInvalidCommitMode, got %v", err)
	}
}
