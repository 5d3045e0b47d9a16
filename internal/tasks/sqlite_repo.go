package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

type SQLiteRepo struct {
	db *sql.DB
}

func NewSQLiteRepo(dsn string) (*SQLiteRepo, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// Reasonable pragmas for an app server
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA synchronous=NORMAL;
		PRAGMA foreign_keys=ON;
	`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteRepo{db: db}, nil
}

func (r *SQLiteRepo) Close() error { return r.db.Close() }

// Create inserts t under its caller-assigned id.
func (r *SQLiteRepo) Create(t Task) (Task, error) {
	if err := Validate(t); err != nil {
		return Task{}, err
	}
	res, err := r.db.Exec(`
		INSERT INTO tasks (id, title, completed)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, t.ID, t.Title, t.Completed)
	if err != nil {
		return Task{}, fmt.Errorf("insert task %d: %w", t.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Task{}, err
	}
	if n == 0 {
		return Task{}, ErrDuplicateID
	}
	return t, nil
}

func (r *SQLiteRepo) Get(id int64) (Task, error) {
	var t Task
	err := r.db.QueryRow(`
		SELECT id, title, completed
		FROM tasks
		WHERE id = ?
	`, id).Scan(&t.ID, &t.Title, &t.Completed)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, fmt.Errorf("select task %d: %w", id, err)
	}
	return t, nil
}

// Update replaces the task stored under id.
// A missing id wins over a mismatched body.
func (r *SQLiteRepo) Update(id int64, t Task) (Task, error) {
	if t.ID != id {
		if _, err := r.Get(id); err != nil {
			return Task{}, err
		}
		return Task{}, ErrIDMismatch
	}
	if err := Validate(t); err != nil {
		return Task{}, err
	}
	res, err := r.db.Exec(`
		UPDATE tasks SET title = ?, completed = ?
		WHERE id = ?
	`, t.Title, t.Completed, id)
	if err != nil {
		return Task{}, fmt.Errorf("update task %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Task{}, err
	}
	if n == 0 {
		return Task{}, ErrNotFound
	}
	return t, nil
}

func (r *SQLiteRepo) Delete(id int64) error {
	res, err := r.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List implements Repository.List
func (r *SQLiteRepo) List() ([]Task, error) {
	rows, err := r.db.Query(`
		SELECT id, title, completed
		FROM tasks
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Task{}
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Completed); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ApplyMigrations ensures schema exists
func (r *SQLiteRepo) ApplyMigrations(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY,
	title TEXT NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0
);
	`)
	return err
}

// SQLiteFileDSN builds a DSN like: file:/absolute/path?_pragma=busy_timeout(5000)
func SQLiteFileDSN(path string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return "file:" + filepath.ToSlash(abs) + "?_pragma=busy_timeout(5000)", nil
}
