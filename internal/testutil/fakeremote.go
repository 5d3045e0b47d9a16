// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/s1natex/tasks-sync-GO/internal/remote"
	"github.com/s1natex/tasks-sync-GO/internal/tasks"
)

// ErrNotFound is returned when a task id is unknown.
var ErrNotFound = errors.New("not found")

// FakeRemote is an in-memory task service for testing. It records every call
// and lets tests inject per-operation errors.
type FakeRemote struct {
	mu    sync.Mutex
	tasks []tasks.Task
	calls []string

	// Error injection for testing
	ListErr   error
	CreateErr error
	UpdateErr error
	DeleteErr error
}

// NewFakeRemote creates a FakeRemote seeded with the given tasks.
func NewFakeRemote(seed ...tasks.Task) *FakeRemote {
	return &FakeRemote{tasks: tasks.Clone(seed)}
}

// Calls returns the operations received so far, e.g. "create:1".
func (f *FakeRemote) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Snapshot returns the tasks the fake currently holds.
func (f *FakeRemote) Snapshot() []tasks.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return tasks.Clone(f.tasks)
}

func (f *FakeRemote) record(op string, id int64) {
	f.calls = append(f.calls, op+":"+strconv.FormatInt(id, 10))
}

// ListTasks implements controller.RemoteService.
func (f *FakeRemote) ListTasks(ctx context.Context) ([]tasks.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "list")
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return tasks.Clone(f.tasks), nil
}

// CreateTask implements controller.RemoteService.
func (f *FakeRemote) CreateTask(ctx context.Context, t tasks.Task) (tasks.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create", t.ID)
	if f.CreateErr != nil {
		return tasks.Task{}, f.CreateErr
	}
	f.tasks = append(f.tasks, t)
	return t, nil
}

// UpdateTask implements controller.RemoteService.
func (f *FakeRemote) UpdateTask(ctx context.Context, t tasks.Task) (tasks.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("update", t.ID)
	if f.UpdateErr != nil {
		return tasks.Task{}, f.UpdateErr
	}
	i := tasks.IndexOf(f.tasks, t.ID)
	if i < 0 {
		return tasks.Task{}, ErrNotFound
	}
	f.tasks[i] = t
	return t, nil
}

// DeleteTask implements controller.RemoteService.
func (f *FakeRemote) DeleteTask(ctx context.Context, id int64) (remote.Confirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("delete", id)
	if f.DeleteErr != nil {
		return remote.Confirmation{}, f.DeleteErr
	}
	i := tasks.IndexOf(f.tasks, id)
	if i < 0 {
		return remote.Confirmation{}, ErrNotFound
	}
	f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
	return remote.Confirmation{Detail: "Task deleted"}, nil
}
