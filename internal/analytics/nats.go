package analytics

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubject is where NATS events are published.
const DefaultSubject = "tasks.events"

// Publisher is the part of *nats.Conn the sink uses.
type Publisher interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATS publishes each event as JSON on a subject.
type NATS struct {
	conn    Publisher
	subject string
	logger  *slog.Logger
}

type natsEvent struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Props     Props     `json:"props,omitempty"`
}

// ConnectNATS dials url and returns a sink publishing on subject.
func ConnectNATS(url, subject string, logger *slog.Logger) (*NATS, error) {
	conn, err := nats.Connect(url, nats.Name("tasks-sync"), nats.Timeout(2*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return NewNATS(conn, subject, logger), nil
}

// NewNATS wraps an existing connection.
func NewNATS(conn Publisher, subject string, logger *slog.Logger) *NATS {
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NATS{conn: conn, subject: subject, logger: logger}
}

func (n *NATS) Track(event string, props Props) {
	data, err := json.Marshal(natsEvent{Type: event, Timestamp: time.Now().UTC(), Props: props})
	if err != nil {
		n.logger.Debug("nats_encode_failed", slog.String("event", event), slog.String("error", err.Error()))
		return
	}
	// Publish only buffers; the connection flushes asynchronously.
	if err := n.conn.Publish(n.subject, data); err != nil {
		n.logger.Debug("nats_publish_failed", slog.String("event", event), slog.String("error", err.Error()))
	}
}

// Close drains pending messages and closes the connection.
func (n *NATS) Close() error {
	return n.conn.Drain()
}
