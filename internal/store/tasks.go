package store

import (
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/s1natex/tasks-sync-GO/internal/tasks"
)

const (
	KeyTasks     = "tasks_v1"
	KeyVisitorID = "anon_id_v1"

	// AnonymousVisitor is used when no identity can be read or stored.
	AnonymousVisitor = "anon"
)

// TaskStore reads and writes the task list and visitor id.
type TaskStore struct {
	kv     KeyValueStore
	logger *slog.Logger
}

func NewTaskStore(kv KeyValueStore, logger *slog.Logger) *TaskStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskStore{kv: kv, logger: logger}
}

// LoadTasks returns the stored list, or an empty list when nothing usable is
// stored.
func (s *TaskStore) LoadTasks() []tasks.Task {
	raw, ok, err := s.kv.Get(KeyTasks)
	if err != nil {
		s.logger.Warn("store_read_failed", slog.String("key", KeyTasks), slog.String("error", err.Error()))
		return []tasks.Task{}
	}
	if !ok {
		return []tasks.Task{}
	}
	var list []tasks.Task
	if err := json.Unmarshal(raw, &list); err != nil || list == nil {
		if err != nil {
			s.logger.Warn("store_corrupt", slog.String("key", KeyTasks), slog.String("error", err.Error()))
		}
		return []tasks.Task{}
	}
	return list
}

// SaveTasks writes the list. Failures are logged and dropped.
func (s *TaskStore) SaveTasks(list []tasks.Task) {
	if list == nil {
		list = []tasks.Task{}
	}
	raw, err := json.Marshal(list)
	if err == nil {
		err = s.kv.Set(KeyTasks, raw)
	}
	if err != nil {
		s.logger.Warn("store_write_failed", slog.String("key", KeyTasks), slog.String("error", err.Error()))
	}
}

// VisitorID returns the persisted visitor identity, creating it on first use.
func (s *TaskStore) VisitorID() string {
	raw, ok, err := s.kv.Get(KeyVisitorID)
	if err != nil {
		s.logger.Warn("store_read_failed", slog.String("key", KeyVisitorID), slog.String("error", err.Error()))
		return AnonymousVisitor
	}
	if ok && len(raw) > 0 {
		return string(raw)
	}
	id := uuid.NewString()
	if err := s.kv.Set(KeyVisitorID, []byte(id)); err != nil {
		s.logger.Warn("store_write_failed", slog.String("key", KeyVisitorID), slog.String("error", err.Error()))
		return AnonymousVisitor
	}
	return id
}
