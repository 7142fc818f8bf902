package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/evanschultz/gantt/internal/app"
	"github.com/evanschultz/gantt/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// Repository stores tasks and their dependency edges in SQLite.
type Repository struct {
	db *sql.DB
}

var _ app.Repository = (*Repository)(nil)

// Open opens (and migrates) the database at path.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return newRepository(db)
}

// OpenInMemory opens a private in-memory database.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, "file::memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	return newRepository(db)
}

func newRepository(db *sql.DB) (*Repository, error) {
	// foreign_keys is a per-connection pragma and each in-memory connection
	// is its own database, so the pool holds one connection.
	db.SetMaxOpenConns(1)
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the requested operation.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate handles migrate.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'todo',
			priority TEXT NOT NULL DEFAULT 'medium',
			assignee TEXT NOT NULL DEFAULT '',
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			progress INTEGER NOT NULL DEFAULT 0,
			parent_id TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS task_dependencies (
			task_id TEXT NOT NULL,
			depends_on_id TEXT NOT NULL,
			PRIMARY KEY(task_id, depends_on_id),
			FOREIGN KEY(task_id) REFERENCES tasks(id) ON DELETE CASCADE,
			FOREIGN KEY(depends_on_id) REFERENCES tasks(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_position ON tasks(position);`,
		`CREATE INDEX IF NOT EXISTS idx_task_dependencies_depends_on ON task_dependencies(depends_on_id);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// ListTasks returns every task in insertion order with its dependencies.
func (r *Repository) ListTasks(ctx context.Context) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, status, priority, assignee, start_date, end_date, progress, parent_id, description, created_at, updated_at
		FROM tasks
		ORDER BY position ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Task, 0)
	byID := map[string]int{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		byID[t.ID] = len(out)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	depRows, err := r.db.QueryContext(ctx, `SELECT task_id, depends_on_id FROM task_dependencies ORDER BY task_id, depends_on_id`)
	if err != nil {
		return nil, err
	}
	defer depRows.Close()
	for depRows.Next() {
		var taskID, dependsOn string
		if err := depRows.Scan(&taskID, &dependsOn); err != nil {
			return nil, err
		}
		if idx, ok := byID[taskID]; ok {
			out[idx].Dependencies = append(out[idx].Dependencies, dependsOn)
		}
	}
	return out, depRows.Err()
}

// CreateTask appends a task after the existing ones.
func (r *Repository) CreateTask(ctx context.Context, t domain.Task) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = insertTask(ctx, tx, t); err != nil {
		return err
	}
	if err = writeDependencies(ctx, tx, t); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateTask rewrites every stored field of t, including its dependencies.
func (r *Repository) UpdateTask(ctx context.Context, t domain.Task) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE tasks
		SET name = ?, status = ?, priority = ?, assignee = ?, start_date = ?, end_date = ?, progress = ?,
			parent_id = ?, description = ?, updated_at = ?
		WHERE id = ?
	`,
		t.Name,
		string(t.Status),
		string(t.Priority),
		t.Assignee,
		dateOnly(t.StartDate),
		dateOnly(t.EndDate),
		t.Progress,
		t.ParentID,
		t.Description,
		ts(t.UpdatedAt),
		t.ID,
	)
	if err != nil {
		return err
	}
	if err = translateNoRows(res); err != nil {
		return err
	}
	if err = writeDependencies(ctx, tx, t); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteTask deletes task. Dependency rows on either side cascade.
func (r *Repository) DeleteTask(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// ReplaceTasks swaps the whole collection in one transaction.
func (r *Repository) ReplaceTasks(ctx context.Context, tasks []domain.Task) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM task_dependencies`); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return err
	}
	for _, t := range tasks {
		if err = insertTask(ctx, tx, t); err != nil {
			return err
		}
	}
	for _, t := range tasks {
		if err = writeDependencies(ctx, tx, t); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertTask(ctx context.Context, tx *sql.Tx, t domain.Task) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO tasks(
			id, position, name, status, priority, assignee, start_date, end_date, progress, parent_id, description, created_at, updated_at
		)
		VALUES (?, (SELECT COALESCE(MAX(position), -1) + 1 FROM tasks), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID,
		t.Name,
		string(t.Status),
		string(t.Priority),
		t.Assignee,
		dateOnly(t.StartDate),
		dateOnly(t.EndDate),
		t.Progress,
		t.ParentID,
		t.Description,
		ts(t.CreatedAt),
		ts(t.UpdatedAt),
	)
	return err
}

func writeDependencies(ctx context.Context, tx *sql.Tx, t domain.Task) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM task_dependencies WHERE task_id = ?`, t.ID); err != nil {
		return err
	}
	for _, dep := range t.Dependencies {
		if _, err := tx.ExecContext(ctx, `INSERT INTO task_dependencies(task_id, depends_on_id) VALUES (?, ?)`, t.ID, dep); err != nil {
			return fmt.Errorf("insert dependency %s: %w", domain.DependencyID(dep, t.ID), err)
		}
	}
	return nil
}

// scanner abstracts row scanning.
type scanner interface {
	Scan(dest ...any) error
}

// scanTask scans one tasks row.
func scanTask(s scanner) (domain.Task, error) {
	var (
		t                      domain.Task
		status, priority       string
		startRaw, endRaw       string
		createdRaw, updatedRaw string
	)
	if err := s.Scan(
		&t.ID,
		&t.Name,
		&status,
		&priority,
		&t.Assignee,
		&startRaw,
		&endRaw,
		&t.Progress,
		&t.ParentID,
		&t.Description,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return domain.Task{}, err
	}
	t.Status = domain.Status(status)
	t.Priority = domain.Priority(priority)
	t.StartDate = parseDate(startRaw)
	t.EndDate = parseDate(endRaw)
	t.CreatedAt = parseTS(createdRaw)
	t.UpdatedAt = parseTS(updatedRaw)
	return t, nil
}

// translateNoRows handles translate no rows.
func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

// ts handles ts.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses input into a normalized form.
func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

func dateOnly(t time.Time) string {
	return domain.Day(t).Format(time.DateOnly)
}

func parseDate(v string) time.Time {
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}
	}
	return d
}
