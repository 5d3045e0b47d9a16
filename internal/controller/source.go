package controller

import (
	"context"

	"github.com/s1natex/tasks-sync-GO/internal/tasks"
)

// Source produces the initial task list.
type Source func(ctx context.Context) ([]tasks.Task, error)

// RemoteSource loads from the task service.
func RemoteSource(r RemoteService) Source {
	return func(ctx context.Context) ([]tasks.Task, error) {
		return r.ListTasks(ctx)
	}
}

// StoreSource loads from the local store. It never fails.
func StoreSource(s TaskStore) Source {
	return func(context.Context) ([]tasks.Task, error) {
		return s.LoadTasks(), nil
	}
}

// SampleTasks is the built-in offline list.
func SampleTasks() []tasks.Task {
	return []tasks.Task{
		{ID: 1, Title: "Learn Go", Completed: true},
		{ID: 2, Title: "Build a to-do app", Completed: false},
		{ID: 3, Title: "Ship it", Completed: false},
	}
}

// SampleSource loads SampleTasks.
func SampleSource() Source {
	return func(context.Context) ([]tasks.Task, error) {
		return SampleTasks(), nil
	}
}
