package middleware_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	appmw "github.com/s1natex/tasks-sync-GO/internal/middleware"
)

func TestRateLimit(t *testing.T) {
	lim := rate.NewLimiter(0.5, 1) // one token every 2s, burst 1
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Use(appmw.RateLimitMiddleware(lim, logger))
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	// first allowed
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/ping", nil)
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	// second immediately should be 429
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/ping", nil)
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "2" {
		t.Fatalf("expected Retry-After 2, got %q", got)
	}
}

func TestNewLimiter_DisabledWhenNonPositive(t *testing.T) {
	if appmw.NewLimiter(0, 5) != nil {
		t.Fatalf("expected nil limiter for rps=0")
	}
	if l := appmw.NewLimiter(10, 0); l == nil || l.Burst() != 1 {
		t.Fatalf("expected limiter with burst 1, got %+v", l)
	}
}
