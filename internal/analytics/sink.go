// Package analytics forwards UI events to optional collectors. Sinks never
// fail the caller: delivery problems are dropped.
package analytics

import (
	"log/slog"
)

// Props are event properties.
type Props map[string]any

// EventSink receives named events.
type EventSink interface {
	Track(event string, props Props)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Track(string, Props) {}

// Logger writes events as debug log lines.
type Logger struct {
	L *slog.Logger
}

func (s Logger) Track(event string, props Props) {
	l := s.L
	if l == nil {
		l = slog.Default()
	}
	attrs := make([]any, 0, len(props)+1)
	attrs = append(attrs, slog.String("event", event))
	for k, v := range props {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.Debug("analytics_event", attrs...)
}

// Multi fans an event out to every sink.
type Multi []EventSink

func (m Multi) Track(event string, props Props) {
	for _, s := range m {
		if s != nil {
			s.Track(event, props)
		}
	}
}

// Recorder keeps events in memory. Handy in tests.
type Recorder struct {
	Events []Event
}

// Event is one recorded Track call.
type Event struct {
	Name  string
	Props Props
}

func (r *Recorder) Track(event string, props Props) {
	r.Events = append(r.Events, Event{Name: event, Props: props})
}

// Names returns the recorded event names in order.
func (r *Recorder) Names() []string {
	out := make([]string, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Name
	}
	return out
}
