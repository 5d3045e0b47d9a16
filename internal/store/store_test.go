package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/s1natex/tasks-sync-GO/internal/tasks"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func backends(t *testing.T) map[string]KeyValueStore {
	t.Helper()
	fileKV, err := NewFileKV(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)

	sqliteKV, err := OpenSQLiteKV(context.Background(), "file:"+filepath.ToSlash(filepath.Join(t.TempDir(), "kv.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteKV.Close() })

	return map[string]KeyValueStore{
		"memory": NewMemoryKV(),
		"file":   fileKV,
		"sqlite": sqliteKV,
	}
}

func TestTaskStore_RoundTrip(t *testing.T) {
	want := []tasks.Task{
		{ID: 3, Title: "C", Completed: true},
		{ID: 1, Title: "A"},
		{ID: 2, Title: "B"},
	}
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := NewTaskStore(kv, quietLogger())
			require.Empty(t, s.LoadTasks())

			s.SaveTasks(want)
			require.Equal(t, want, s.LoadTasks())

			s.SaveTasks(nil)
			got := s.LoadTasks()
			require.NotNil(t, got)
			require.Empty(t, got)
		})
	}
}

func TestTaskStore_CorruptDataLoadsEmpty(t *testing.T) {
	for _, raw := range []string{"{not json", `{"id":1}`, "null"} {
		kv := NewMemoryKV()
		require.NoError(t, kv.Set(KeyTasks, []byte(raw)))
		got := NewTaskStore(kv, quietLogger()).LoadTasks()
		require.NotNil(t, got, raw)
		require.Empty(t, got, raw)
	}
}

func TestTaskStore_VisitorIDIsStable(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := NewTaskStore(kv, quietLogger())
			first := s.VisitorID()
			require.NotEmpty(t, first)
			require.NotEqual(t, AnonymousVisitor, first)
			require.Equal(t, first, s.VisitorID())
			require.Equal(t, first, NewTaskStore(kv, quietLogger()).VisitorID())
		})
	}
}

type brokenKV struct{}

func (brokenKV) Get(string) ([]byte, bool, error) { return nil, false, errors.New("disk gone") }
func (brokenKV) Set(string, []byte) error         { return errors.New("quota exceeded") }

func TestTaskStore_FailuresAreSwallowed(t *testing.T) {
	s := NewTaskStore(brokenKV{}, quietLogger())
	require.NotPanics(t, func() { s.SaveTasks([]tasks.Task{{ID: 1, Title: "A"}}) })
	require.Empty(t, s.LoadTasks())
	require.Equal(t, AnonymousVisitor, s.VisitorID())
}

func TestFileKV_RejectsPathKeys(t *testing.T) {
	kv, err := NewFileKV(t.TempDir())
	require.NoError(t, err)
	require.Error(t, kv.Set("../escape", []byte("x")))
	_, _, err = kv.Get("a/b")
	require.Error(t, err)
}
