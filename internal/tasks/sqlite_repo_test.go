package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTempDB(t *testing.T) *SQLiteRepo {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	dsn, err := SQLiteFileDSN(dbPath)
	if err != nil {
		t.Fatalf("dsn error: %v", err)
	}
	repo, err := NewSQLiteRepo(dsn)
	if err != nil {
		t.Fatalf("open error: %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
		_ = os.RemoveAll(dir)
	})
	if err := repo.ApplyMigrations(context.Background()); err != nil {
		t.Fatalf("migrate error: %v", err)
	}
	return repo
}

func TestSQLiteRepo_CreateAndList(t *testing.T) {
	repo := newTempDB(t)

	_, err := repo.Create(Task{ID: 1, Title: ""}) // validation
	if !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired, got %v", err)
	}

	b, err := repo.Create(Task{ID: 2, Title: "second"})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if b.ID != 2 || b.Title != "second" || b.Completed {
		t.Fatalf("bad second task: %+v", b)
	}

	if _, err := repo.Create(Task{ID: 1, Title: "first", Completed: true}); err != nil {
		t.Fatalf("create first: %v", err)
	}

	if _, err := repo.Create(Task{ID: 2, Title: "dup"}); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	list, err := repo.List()
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(list))
	}
	if list[0].Title != "first" || list[1].Title != "second" {
		t.Fatalf("unexpected order: %+v", list)
	}
	if !list[0].Completed {
		t.Fatalf("completed flag lost: %+v", list[0])
	}
}

func TestSQLiteRepo_UpdateDelete(t *testing.T) {
	repo := newTempDB(t)

	if _, err := repo.Create(Task{ID: 1, Title: "Buy milk"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := repo.Update(1, Task{ID: 2, Title: "x"}); !errors.Is(err, ErrIDMismatch) {
		t.Fatalf("expected ErrIDMismatch, got %v", err)
	}
	if _, err := repo.Update(5, Task{ID: 5, Title: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := repo.Update(1, Task{ID: 1, Title: "Buy oat milk", Completed: true}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repo.Get(1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Buy oat milk" || !got.Completed {
		t.Fatalf("update not persisted: %+v", got)
	}

	if err := repo.Delete(1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := repo.Get(1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSQLiteRepo_UpdateRowGoneReturnsNotFound(t *testing.T) {
	repo := newTempDB(t)

	if _, err := repo.Create(Task{ID: 3, Title: "doomed"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	// Another writer removes the row before the update lands.
	if _, err := repo.db.Exec(`DELETE FROM tasks WHERE id = 3`); err != nil {
		t.Fatalf("raw delete: %v", err)
	}

	if _, err := repo.Update(3, Task{ID: 3, Title: "still here?"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.Update(3, Task{ID: 4, Title: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before id mismatch, got %v", err)
	}
}
