package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/s1natex/tasks-sync-GO/internal/config"
	"github.com/s1natex/tasks-sync-GO/internal/middleware"
	"github.com/s1natex/tasks-sync-GO/internal/tasks"
	"github.com/s1natex/tasks-sync-GO/internal/telemetry"
)

func runServe(cfg config.Serve, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	auth, err := cfg.AuthConfig()
	if err != nil {
		return err
	}

	shutdownTracing, err := telemetry.Setup(ctx, "tasks-api", cfg.TraceExporter, os.Stdout)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("tracing_shutdown_failed", slog.String("error", err.Error()))
		}
	}()

	repo, closeRepo, err := openRepo(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer closeRepo()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := newRouter(repo, logger, routerOptions{
		Auth:           auth,
		CORSOrigins:    cfg.CORSOrigin,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Registry:       reg,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_listen", slog.String("addr", cfg.Addr), slog.String("auth_mode", string(auth.Mode)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("server_shutdown")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}

// openRepo returns an in-memory repository for an empty path, otherwise a
// migrated SQLite database at path.
func openRepo(ctx context.Context, path string) (tasks.Repository, func(), error) {
	if path == "" {
		return tasks.NewInMemoryRepo(), func() {}, nil
	}
	dsn, err := tasks.SQLiteFileDSN(path)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite dsn: %w", err)
	}
	repo, err := tasks.NewSQLiteRepo(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := repo.ApplyMigrations(ctx); err != nil {
		_ = repo.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return repo, func() { _ = repo.Close() }, nil
}

type routerOptions struct {
	Auth           middleware.AuthConfig
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
	// Registry receives the HTTP metrics; nil uses a fresh registry.
	Registry *prometheus.Registry
}

// newRouter wires the root and health endpoints, task routes, metrics, and
// the middleware stack
func newRouter(repo tasks.Repository, logger *slog.Logger, opts routerOptions) *chi.Mux {
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	metrics := middleware.NewMetrics(opts.Registry)

	r := chi.NewRouter()

	// RequestID first so the logger and error responses can include it
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(15 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.APIKeyHeader},
		ExposedHeaders:   []string{"Link", "X-Request-ID", "Retry-After", "Trace-Id"},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	}))

	// Tracing and metrics sit outside auth and rate limiting so rejected
	// requests are still observed.
	r.Use(middleware.TracingMiddleware)
	r.Use(metrics.Middleware)
	r.Use(middleware.RequestLogger(logger))

	if l := middleware.NewLimiter(opts.RateLimitRPS, opts.RateLimitBurst); l != nil {
		r.Use(middleware.RateLimitMiddleware(l, logger))
	}
	r.Use(middleware.AuthMiddleware(opts.Auth))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Hello from the tasks service!"})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	tasks.RegisterRoutes(r, repo)

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
