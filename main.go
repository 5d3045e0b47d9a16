package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/s1natex/tasks-sync-GO/internal/config"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Error("dotenv_load_failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var cli config.CLI
	kctx := kong.Parse(&cli,
		kong.Name("tasks"),
		kong.Description("A to-do list with an optimistic terminal UI and the REST service it syncs to."),
		kong.Vars(config.Vars(defaultDataDir())),
	)

	var err error
	switch kctx.Command() {
	case "serve":
		logger := config.NewLogger(os.Stdout, cli.LogLevel)
		slog.SetDefault(logger) // for third-party packages that use slog
		err = runServe(cli.Serve, logger)
	default:
		err = runUI(cli.UI, cli.LogLevel)
	}
	if err != nil {
		slog.Error("command_failed", slog.String("command", kctx.Command()), slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".tasks"
	}
	return filepath.Join(dir, "tasks-sync")
}
