package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
)

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errResponse struct {
	Error   string       `json:"error"`
	Detail  string       `json:"detail,omitempty"`
	Details []fieldError `json:"details,omitempty"`
}

type deleteResponse struct {
	Detail string `json:"detail"`
}

// RegisterRoutes mounts the task collection under /tasks. Both /tasks and
// /tasks/ address the collection.
func RegisterRoutes(r chi.Router, repo Repository) {
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", listTasks(repo))
		r.Post("/", createTask(repo))
		r.Get("/{id}", getTask(repo))
		r.Put("/{id}", updateTask(repo))
		r.Delete("/{id}", deleteTask(repo))
	})
}

func createTask(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		var req Task
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errResponse{Error: "invalid_json"})
			return
		}

		if vErrs := validateTask(req); len(vErrs) > 0 {
			writeJSON(w, http.StatusUnprocessableEntity, errResponse{
				Error:   "validation_error",
				Details: vErrs,
			})
			return
		}

		t, err := repo.Create(req)
		if err != nil {
			writeRepoError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, t)
	}
}

func listTasks(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		tasks, err := repo.List()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errResponse{Error: "unexpected_error"})
			return
		}
		writeJSON(w, http.StatusOK, tasks)
	}
}

func getTask(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		id, ok := pathID(w, r)
		if !ok {
			return
		}
		t, err := repo.Get(id)
		if err != nil {
			writeRepoError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func updateTask(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		id, ok := pathID(w, r)
		if !ok {
			return
		}

		var req Task
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errResponse{Error: "invalid_json"})
			return
		}

		if vErrs := validateTask(req); len(vErrs) > 0 {
			writeJSON(w, http.StatusUnprocessableEntity, errResponse{
				Error:   "validation_error",
				Details: vErrs,
			})
			return
		}

		t, err := repo.Update(id, req)
		if err != nil {
			writeRepoError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func deleteTask(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := repo.Delete(id); err != nil {
			writeRepoError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, deleteResponse{Detail: "Task deleted"})
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errResponse{Error: "invalid_id"})
		return 0, false
	}
	return id, true
}

func validateTask(t Task) []fieldError {
	var errs []fieldError

	if t.ID <= 0 {
		errs = append(errs, fieldError{
			Field:   "id",
			Message: "id must be a positive integer",
		})
	}

	if strings.TrimSpace(t.Title) == "" {
		errs = append(errs, fieldError{
			Field:   "title",
			Message: "title is required",
		})
	}

	if utf8.RuneCountInString(t.Title) > MaxTitleLen {
		errs = append(errs, fieldError{
			Field:   "title",
			Message: fmt.Sprintf("title must be at most %d characters", MaxTitleLen),
		})
	}

	return errs
}

func writeRepoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, errResponse{Error: "not_found", Detail: "Task not found"})
	case errors.Is(err, ErrDuplicateID):
		writeJSON(w, http.StatusBadRequest, errResponse{Error: "duplicate_id", Detail: "Task with this ID already exists"})
	case errors.Is(err, ErrIDMismatch):
		writeJSON(w, http.StatusBadRequest, errResponse{Error: "id_mismatch", Detail: "Task ID in body must match URL"})
	case errors.Is(err, ErrTitleRequired), errors.Is(err, ErrInvalidID):
		writeJSON(w, http.StatusUnprocessableEntity, errResponse{Error: "validation_error", Detail: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errResponse{Error: "unexpected_error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
