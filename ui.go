package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/s1natex/tasks-sync-GO/internal/analytics"
	"github.com/s1natex/tasks-sync-GO/internal/config"
	"github.com/s1natex/tasks-sync-GO/internal/controller"
	"github.com/s1natex/tasks-sync-GO/internal/remote"
	"github.com/s1natex/tasks-sync-GO/internal/store"
	"github.com/s1natex/tasks-sync-GO/internal/ui"
)

func runUI(cfg config.UI, level string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The terminal belongs to the UI; logs go to a file or nowhere.
	var logOut io.Writer = io.Discard
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := config.NewLogger(logOut, level)
	slog.SetDefault(logger)

	kv, closeKV, err := openKV(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeKV()
	taskStore := store.NewTaskStore(kv, logger)

	sink, closeSink := buildSink(cfg, logger)
	defer closeSink()

	opts := controller.Options{
		Policy: cfg.Policy(),
		Store:  taskStore,
		Sink:   sink,
		Logger: logger,
	}

	var source controller.Source
	switch cfg.Mode {
	case config.ModeOffline:
		source = controller.SampleSource()
	case config.ModeLocal:
		opts.Remote = newClient(cfg)
		source = controller.StoreSource(taskStore)
	default:
		client := newClient(cfg)
		opts.Remote = client
		source = controller.RemoteSource(client)
	}

	ctrl := controller.New(opts)
	logger.Info("ui_start",
		slog.String("mode", cfg.Mode),
		slog.String("policy", ctrl.Policy().String()),
		slog.String("api_base", cfg.APIBase),
		slog.String("store", cfg.Store),
	)
	return ui.Run(ctx, ui.New(ctx, ctrl, source, cfg.Mode))
}

func newClient(cfg config.UI) *remote.Client {
	var opts []remote.Option
	if cfg.Token != "" {
		opts = append(opts, remote.WithBearerToken(cfg.Token))
	}
	if cfg.APIKey != "" {
		opts = append(opts, remote.WithAPIKey(cfg.APIKey))
	}
	return remote.New(cfg.APIBase, opts...)
}

func openKV(ctx context.Context, cfg config.UI) (store.KeyValueStore, func(), error) {
	if cfg.Store == "sqlite" {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
		kv, err := store.OpenSQLiteKV(ctx, "file:"+filepath.ToSlash(filepath.Join(cfg.DataDir, "tasks.db"))+"?_pragma=busy_timeout(5000)")
		if err != nil {
			return nil, nil, err
		}
		return kv, func() { _ = kv.Close() }, nil
	}
	kv, err := store.NewFileKV(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	return kv, func() {}, nil
}

// buildSink fans events out to the log and to whichever collectors are
// configured. An unreachable NATS server is logged and skipped.
func buildSink(cfg config.UI, logger *slog.Logger) (analytics.EventSink, func()) {
	sinks := analytics.Multi{analytics.Logger{L: logger}}
	closeFn := func() {}

	if hec := analytics.NewHEC(analytics.HECConfig{URL: cfg.HECURL, Token: cfg.HECToken, Source: "tasks-ui"}, logger); hec != nil {
		sinks = append(sinks, hec)
	}
	if cfg.NATSURL != "" {
		n, err := analytics.ConnectNATS(cfg.NATSURL, analytics.DefaultSubject, logger)
		if err != nil {
			logger.Warn("nats_unavailable", slog.String("url", cfg.NATSURL), slog.String("error", err.Error()))
		} else {
			sinks = append(sinks, n)
			closeFn = func() { _ = n.Close() }
		}
	}
	return sinks, closeFn
}
