package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// HECConfig configures a Splunk HTTP Event Collector sink.
type HECConfig struct {
	URL        string
	Token      string
	Index      string
	Source     string
	SourceType string
}

// HEC posts events to a Splunk HTTP Event Collector. Each event is sent on
// its own goroutine with a one second timeout; failures are logged at debug.
type HEC struct {
	url    string
	cfg    HECConfig
	client *http.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewHEC returns nil when URL or token is missing, which callers treat as
// "disabled".
func NewHEC(cfg HECConfig, logger *slog.Logger) *HEC {
	url := collectorURL(cfg.URL)
	if url == "" || strings.TrimSpace(cfg.Token) == "" {
		return nil
	}
	if cfg.Source == "" {
		cfg.Source = "tasks-sync"
	}
	if cfg.SourceType == "" {
		cfg.SourceType = "_json"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HEC{
		url:    url,
		cfg:    cfg,
		client: &http.Client{Timeout: time.Second},
		logger: logger,
		now:    time.Now,
	}
}

// collectorURL accepts a bare base URL, a .../collector URL or a full
// .../collector/event URL and returns the event endpoint.
func collectorURL(raw string) string {
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	switch {
	case u == "":
		return ""
	case strings.HasSuffix(u, "/event"):
		return u
	case strings.HasSuffix(u, "/collector"):
		return u + "/event"
	case !strings.Contains(u, "/collector/"):
		return u + "/services/collector/event"
	default:
		return u
	}
}

type hecPayload struct {
	Time       int64          `json:"time"`
	Source     string         `json:"source"`
	SourceType string         `json:"sourcetype"`
	Index      string         `json:"index,omitempty"`
	Event      map[string]any `json:"event"`
}

func (h *HEC) Track(event string, props Props) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := h.send(ctx, event, props); err != nil {
			h.logger.Debug("hec_send_failed", slog.String("event", event), slog.String("error", err.Error()))
		}
	}()
}

func (h *HEC) send(ctx context.Context, event string, props Props) error {
	body := map[string]any{"type": event}
	for k, v := range props {
		body[k] = v
	}
	data, err := json.Marshal(hecPayload{
		Time:       h.now().Unix(),
		Source:     h.cfg.Source,
		SourceType: h.cfg.SourceType,
		Index:      h.cfg.Index,
		Event:      body,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Splunk "+h.cfg.Token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
