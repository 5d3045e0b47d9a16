package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/s1natex/tasks-sync-GO/internal/controller"
	"github.com/s1natex/tasks-sync-GO/internal/middleware"
	"github.com/s1natex/tasks-sync-GO/internal/remote"
	"github.com/s1natex/tasks-sync-GO/internal/store"
	"github.com/s1natex/tasks-sync-GO/internal/tasks"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestHealthEndpoint(t *testing.T) {
	r := newRouter(tasks.NewInMemoryRepo(), testLogger(), routerOptions{})

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	expected := `{"status":"ok"}`
	if strings.TrimSpace(w.Body.String()) != expected {
		t.Errorf("expected body %s, got %s", expected, w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	r := newRouter(tasks.NewInMemoryRepo(), testLogger(), routerOptions{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"message"`) {
		t.Errorf("expected message field, got %s", w.Body.String())
	}
}

func TestAuthSkipsHealthAndMetrics(t *testing.T) {
	r := newRouter(tasks.NewInMemoryRepo(), testLogger(), routerOptions{
		Auth: middleware.AuthConfig{
			Mode:      middleware.AuthAPIKey,
			APIKey:    "secret",
			SkipPaths: []string{"/health", "/metrics"},
		},
	})

	cases := []struct {
		path string
		key  string
		want int
	}{
		{"/health", "", http.StatusOK},
		{"/metrics", "", http.StatusOK},
		{"/tasks/", "", http.StatusUnauthorized},
		{"/tasks/", "secret", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("GET", tc.path, nil)
		if tc.key != "" {
			req.Header.Set(middleware.APIKeyHeader, tc.key)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Errorf("%s key=%q: expected %d, got %d", tc.path, tc.key, tc.want, w.Code)
		}
	}
}

func TestMetricsEndpointCountsRequests(t *testing.T) {
	r := newRouter(tasks.NewInMemoryRepo(), testLogger(), routerOptions{})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/tasks/", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Errorf("expected http_requests_total in metrics output")
	}
}

func TestOpenRepo(t *testing.T) {
	repo, closeRepo, err := openRepo(context.Background(), "")
	if err != nil {
		t.Fatalf("in-memory: %v", err)
	}
	closeRepo()
	if _, ok := repo.(*tasks.InMemoryRepo); !ok {
		t.Errorf("expected in-memory repo, got %T", repo)
	}

	repo, closeRepo, err = openRepo(context.Background(), t.TempDir()+"/tasks.db")
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	defer closeRepo()
	if _, err := repo.Create(tasks.Task{ID: 1, Title: "persisted"}); err != nil {
		t.Fatalf("create: %v", err)
	}
}

// TestControllerAgainstServer drives the controller through the real client
// and router.
func TestControllerAgainstServer(t *testing.T) {
	ctx := context.Background()
	repo := tasks.NewInMemoryRepo()
	srv := httptest.NewServer(newRouter(repo, testLogger(), routerOptions{}))
	defer srv.Close()

	client := remote.New(srv.URL + "/")
	ctrl := controller.New(controller.Options{
		Policy: controller.AuthoritativeRemote,
		Remote: client,
		Store:  store.NewTaskStore(store.NewMemoryKV(), testLogger()),
		Logger: testLogger(),
	})
	ctrl.Load(ctx, controller.RemoteSource(client))
	if ctrl.Loading() || ctrl.Err() != "" {
		t.Fatalf("load: loading=%v err=%q", ctrl.Loading(), ctrl.Err())
	}

	if err := ctrl.Sync(ctx, ctrl.Add("Write tests")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := ctrl.Sync(ctx, ctrl.Toggle(1)); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	got, err := repo.Get(1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != (tasks.Task{ID: 1, Title: "Write tests", Completed: true}) {
		t.Errorf("unexpected server task: %+v", got)
	}

	// A task created behind the controller's back makes its next id collide.
	if _, err := repo.Create(tasks.Task{ID: 2, Title: "elsewhere"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	err = ctrl.Sync(ctx, ctrl.Add("Collides"))
	var statusErr *remote.HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 status error, got %v", err)
	}
	if n := len(ctrl.Tasks()); n != 1 {
		t.Errorf("expected failed create to be reverted, have %d tasks", n)
	}
	if !strings.HasPrefix(ctrl.Err(), "Failed to add task: HTTP 400") {
		t.Errorf("unexpected error message %q", ctrl.Err())
	}

	if err := ctrl.Sync(ctx, ctrl.Delete(1)); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(1); !errors.Is(err, tasks.ErrNotFound) {
		t.Errorf("expected task 1 gone from server, got %v", err)
	}
}

func TestControllerAddsNonASCIITitle(t *testing.T) {
	ctx := context.Background()
	repo := tasks.NewInMemoryRepo()
	srv := httptest.NewServer(newRouter(repo, testLogger(), routerOptions{}))
	defer srv.Close()

	client := remote.New(srv.URL)
	ctrl := controller.New(controller.Options{Policy: controller.AuthoritativeRemote, Remote: client, Logger: testLogger()})
	ctrl.Load(ctx, controller.RemoteSource(client))

	title := strings.Repeat("é", 150)
	if err := ctrl.Sync(ctx, ctrl.Add(title)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if n := len(ctrl.Tasks()); n != 1 {
		t.Fatalf("expected the task to stay, have %d", n)
	}
	got, err := repo.Get(1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != title {
		t.Errorf("server stored %q", got.Title)
	}
}
