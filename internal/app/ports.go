package app

import (
	"context"

	"github.com/evanschultz/gantt/internal/domain"
)

// Repository persists the task collection. Dependencies travel inside each
// task's Dependencies field.
type Repository interface {
	ListTasks(context.Context) ([]domain.Task, error)
	CreateTask(context.Context, domain.Task) error
	UpdateTask(context.Context, domain.Task) error
	DeleteTask(context.Context, string) error
	ReplaceTasks(context.Context, []domain.Task) error
}

// Logger receives structured service events as key/value pairs.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

// nopLogger discards every event.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
