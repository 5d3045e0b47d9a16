package tasks

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

var (
	ErrTitleRequired = errors.New("title required")
	ErrNotFound      = errors.New("task not found")
	ErrDuplicateID   = errors.New("task with this ID already exists")
	ErrIDMismatch    = errors.New("task ID in body must match URL")
	ErrInvalidID     = errors.New("task ID must be positive")
)

// Repository is the server-side task storage.
type Repository interface {
	List() ([]Task, error)
	Get(id int64) (Task, error)
	Create(t Task) (Task, error)
	Update(id int64, t Task) (Task, error)
	Delete(id int64) error
}

// Validate checks the fields every stored task must satisfy.
func Validate(t Task) error {
	if t.ID <= 0 {
		return ErrInvalidID
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrTitleRequired
	}
	return nil
}

type InMemoryRepo struct {
	mu    sync.Mutex
	store map[int64]Task
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		store: make(map[int64]Task),
	}
}

func (r *InMemoryRepo) Create(t Task) (Task, error) {
	if err := Validate(t); err != nil {
		return Task{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.store[t.ID]; ok {
		return Task{}, ErrDuplicateID
	}
	r.store[t.ID] = t
	return t, nil
}

func (r *InMemoryRepo) Get(id int64) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.store[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	return t, nil
}

func (r *InMemoryRepo) Update(id int64, t Task) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.store[id]; !ok {
		return Task{}, ErrNotFound
	}
	if t.ID != id {
		return Task{}, ErrIDMismatch
	}
	if err := Validate(t); err != nil {
		return Task{}, err
	}
	r.store[id] = t
	return t, nil
}

func (r *InMemoryRepo) Delete(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.store[id]; !ok {
		return ErrNotFound
	}
	delete(r.store, id)
	return nil
}

// List returns tasks in ascending id order.
func (r *InMemoryRepo) List() ([]Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Task, 0, len(r.store))
	for _, t := range r.store {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
