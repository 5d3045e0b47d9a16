// Package config holds the command line surface. Every flag has an
// environment override; a .env file in the working directory is loaded
// before parsing.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"

	"github.com/s1natex/tasks-sync-GO/internal/controller"
	"github.com/s1natex/tasks-sync-GO/internal/middleware"
	"github.com/s1natex/tasks-sync-GO/internal/remote"
)

// Modes accepted by the ui command.
const (
	ModeRemote  = "remote"
	ModeLocal   = "local"
	ModeOffline = "offline"
)

type CLI struct {
	LogLevel string `help:"Log level (debug, info, warn, error)." env:"LOG_LEVEL" default:"info"`

	Serve Serve `cmd:"" help:"Run the task REST service."`
	UI    UI    `cmd:"" name:"ui" help:"Run the terminal task list." default:"1"`
}

type Serve struct {
	Addr           string   `help:"Listen address." env:"ADDR" default:":8080"`
	DB             string   `name:"db" help:"SQLite database path; empty keeps tasks in memory." env:"TASKS_DB"`
	AuthMode       string   `help:"Auth mode (none, apikey, bearer)." env:"AUTH_MODE" default:"none"`
	APIKey         string   `name:"api-key" help:"Shared key for apikey auth." env:"API_KEY"`
	BearerToken    string   `help:"Token for bearer auth." env:"BEARER_TOKEN"`
	RateLimitRPS   float64  `name:"rate-limit-rps" help:"Requests per second; 0 disables limiting." env:"RATE_LIMIT_RPS" default:"0"`
	RateLimitBurst int      `help:"Rate limiter burst." env:"RATE_LIMIT_BURST" default:"10"`
	CORSOrigin     []string `name:"cors-origin" help:"Allowed CORS origin (repeatable)." env:"CORS_ORIGINS" default:"*"`
	TraceExporter  string   `help:"Trace exporter (none, stdout, otlp)." env:"TRACE_EXPORTER" default:"none" enum:"none,stdout,otlp"`
}

type UI struct {
	APIBase  string `name:"api-base" help:"Task service base URL." env:"TODO_API_BASE" default:"${default_api_base}"`
	Mode     string `help:"Sync mode (remote, local, offline)." env:"TODO_MODE" default:"remote" enum:"remote,local,offline"`
	DataDir  string `help:"Directory for the local task cache." env:"TODO_DATA_DIR" default:"${default_data_dir}"`
	Store    string `help:"Local cache backend (file, sqlite)." env:"TODO_STORE" default:"file" enum:"file,sqlite"`
	Token    string `help:"Bearer token sent to the task service." env:"TODO_API_TOKEN"`
	APIKey   string `name:"api-key" help:"API key sent to the task service." env:"TODO_API_KEY"`
	LogFile  string `help:"Write logs to this file instead of discarding them." env:"TODO_LOG_FILE"`
	HECURL   string `name:"hec-url" help:"Splunk HEC URL for analytics events." env:"SPLUNK_HEC_URL"`
	HECToken string `name:"hec-token" help:"Splunk HEC token." env:"SPLUNK_HEC_TOKEN"`
	NATSURL  string `name:"nats-url" help:"NATS server for analytics events." env:"NATS_URL"`
}

// Vars returns the interpolation variables the CLI struct refers to.
func Vars(dataDir string) map[string]string {
	return map[string]string{
		"default_api_base": remote.DefaultBaseURL,
		"default_data_dir": dataDir,
	}
}

// LoadDotEnv loads path into the environment. A missing file is not an
// error; variables already set win.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

// AuthConfig converts the serve flags into middleware settings.
// /health and /metrics are always reachable.
func (s Serve) AuthConfig() (middleware.AuthConfig, error) {
	mode, err := middleware.ParseAuthMode(s.AuthMode)
	if err != nil {
		return middleware.AuthConfig{}, err
	}
	cfg := middleware.AuthConfig{
		Mode:        mode,
		APIKey:      s.APIKey,
		BearerToken: s.BearerToken,
		SkipPaths:   []string{"/health", "/metrics"},
	}
	return cfg, cfg.Validate()
}

// Policy maps the ui mode to a sync policy. Only remote mode lets the
// service veto local changes; offline has nothing to veto.
func (u UI) Policy() controller.SyncPolicy {
	p, err := controller.ParseSyncPolicy(u.Mode)
	if err != nil {
		return controller.AuthoritativeLocal
	}
	return p
}

// ParseLevel maps a LOG_LEVEL value to a slog level. Unknown values fall
// back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger returns a JSON logger writing to w at level.
func NewLogger(w io.Writer, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(handler)
}
