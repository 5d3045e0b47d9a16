// Package remote is a thin client for the task REST service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"

	"github.com/s1natex/tasks-sync-GO/internal/tasks"
)

// DefaultBaseURL points at a locally running `serve` command.
const DefaultBaseURL = "http://localhost:8080"

// Confirmation is the body returned by a successful delete.
type Confirmation struct {
	Detail string `json:"detail"`
}

// Client talks to /tasks/ on BaseURL. It keeps no per-call state and is safe
// to use from several goroutines.
type Client struct {
	baseURL string
	http    *http.Client
	apiKey  string
	tracer  trace.Tracer
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Auth options wrap its
// transport, so pass this one first.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithBearerToken sends "Authorization: Bearer <token>" on every request.
func WithBearerToken(token string) Option {
	return func(cl *Client) {
		if token == "" {
			return
		}
		base := cl.http.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		cl.http = &http.Client{
			Timeout: cl.http.Timeout,
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
				Base:   base,
			},
		}
	}
}

// WithAPIKey sends the key in the X-API-Key header.
func WithAPIKey(key string) Option {
	return func(cl *Client) { cl.apiKey = key }
}

// New returns a client for baseURL. An empty baseURL selects DefaultBaseURL;
// a trailing slash is trimmed.
func New(baseURL string, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		tracer:  otel.Tracer("tasks-sync/remote"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalized service root.
func (c *Client) BaseURL() string { return c.baseURL }

// ListTasks fetches GET /tasks/.
func (c *Client) ListTasks(ctx context.Context) ([]tasks.Task, error) {
	var out []tasks.Task
	if err := c.do(ctx, "ListTasks", http.MethodGet, "/tasks/", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []tasks.Task{}
	}
	return out, nil
}

// CreateTask posts the full task, id included.
func (c *Client) CreateTask(ctx context.Context, t tasks.Task) (tasks.Task, error) {
	var out tasks.Task
	err := c.do(ctx, "CreateTask", http.MethodPost, "/tasks/", t, &out)
	return out, err
}

// UpdateTask replaces the task stored under t.ID.
func (c *Client) UpdateTask(ctx context.Context, t tasks.Task) (tasks.Task, error) {
	var out tasks.Task
	err := c.do(ctx, "UpdateTask", http.MethodPut, taskPath(t.ID), t, &out)
	return out, err
}

// DeleteTask removes the task with the given id.
func (c *Client) DeleteTask(ctx context.Context, id int64) (Confirmation, error) {
	var out Confirmation
	err := c.do(ctx, "DeleteTask", http.MethodDelete, taskPath(id), nil, &out)
	return out, err
}

func taskPath(id int64) string {
	return "/tasks/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) (err error) {
	url := c.baseURL + path

	ctx, span := c.tracer.Start(ctx, "remote."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.url", url),
	)

	var rdr io.Reader
	if body != nil {
		payload, mErr := json.Marshal(body)
		if mErr != nil {
			return fmt.Errorf("encode %s body: %w", op, mErr)
		}
		rdr = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return &NetworkError{Op: op, URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, URL: url, Err: err}
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, URL: url, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPStatusError{Code: resp.StatusCode, URL: url, Body: snippet(data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &NetworkError{Op: op, URL: url, Err: fmt.Errorf("decode body: %w", err)}
	}
	return nil
}
