// Package loadtest implements simulated device behavior and user sessions.
package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
	"github.com/vearutop/iothub-load/internal/domain/telemetry"
	"github.com/vearutop/iothub-load/internal/infra/transport"
	"github.com/vearutop/iothub-load/internal/iothub"
)

// RequestName tags device event requests in statistics.
const RequestName = "BXConnectorRequest"

// Metric names.
const (
	MetricRequests      = "iothub_requests"
	MetricFailures      = "iothub_request_failures"
	MetricLatency       = "iothub_request_latency_ms"
	MetricBytesSent     = "iothub_sent_bytes"
	MetricBytesReceived = "iothub_received_bytes"
)

// Poster sends a request body with headers.
type Poster interface {
	Post(ctx context.Context, url string, body []byte, headers map[string]string) (transport.Response, error)
}

// Task posts a fault event on behalf of a simulated device.
type Task struct {
	target  *url.URL
	url     string
	headers map[string]string
	payload []byte

	gen    *telemetry.Generator
	poster Poster
	stats  stats.Tracker
	clock  telemetry.Clock
}

// TaskOption configures Task.
type TaskOption func(t *Task)

// WithGenerator replaces default fault event generator.
func WithGenerator(g *telemetry.Generator) TaskOption {
	return func(t *Task) {
		t.gen = g
	}
}

// WithClock replaces wall clock used to measure latency.
func WithClock(c telemetry.Clock) TaskOption {
	return func(t *Task) {
		t.clock = c
	}
}

// NewTask creates a task from configuration.
//
// Configuration is captured once, task is safe for concurrent use.
func NewTask(cfg iothub.Config, poster Poster, tracker stats.Tracker, options ...TaskOption) (*Task, error) {
	t := &Task{
		url: cfg.EventsURL(),
		headers: map[string]string{
			"Authorization": cfg.SASToken,
			"Content-Type":  "application/json",
		},
		poster: poster,
		stats:  tracker,
	}

	target, err := url.Parse(t.url)
	if err != nil {
		return nil, ctxd.WrapError(context.Background(), err, "invalid events url", "url", t.url)
	}

	t.target = target

	if cfg.PayloadFile != "" {
		if t.payload, err = os.ReadFile(cfg.PayloadFile); err != nil {
			return nil, ctxd.WrapError(context.Background(), err, "failed to read payload file",
				"file", cfg.PayloadFile)
		}
	}

	for _, o := range options {
		o(t)
	}

	if t.gen == nil {
		t.gen = telemetry.NewGenerator()
	}

	if t.clock == nil {
		t.clock = t.gen.Clock
	}

	return t, nil
}

// URL returns request target.
func (t *Task) URL() string {
	return t.url
}

// Headers returns a copy of request headers.
func (t *Task) Headers() map[string]string {
	h := make(map[string]string, len(t.headers))
	for k, v := range t.headers {
		h[k] = v
	}

	return h
}

// Body makes a new request body.
func (t *Task) Body() ([]byte, error) {
	if t.payload != nil {
		return t.payload, nil
	}

	return json.Marshal(t.gen.Event())
}

// Run sends one fault event and records the outcome.
func (t *Task) Run(ctx context.Context) error {
	body, err := t.Body()
	if err != nil {
		return ctxd.WrapError(ctx, err, "failed to encode fault event")
	}

	start := t.clock.Now()
	res, err := t.poster.Post(ctx, t.url, body, t.headers)
	elapsed := t.clock.Now().Sub(start)

	t.record(ctx, res, elapsed, err)

	return err
}

func (t *Task) record(ctx context.Context, res transport.Response, elapsed time.Duration, err error) {
	if t.stats == nil {
		return
	}

	t.stats.Add(ctx, MetricRequests, 1, "name", RequestName, "status", strconv.Itoa(res.Status))
	t.stats.Add(ctx, MetricLatency, float64(elapsed)/float64(time.Millisecond), "name", RequestName)
	t.stats.Add(ctx, MetricBytesSent, float64(res.Sent), "name", RequestName)
	t.stats.Add(ctx, MetricBytesReceived, float64(res.Received), "name", RequestName)

	if err != nil {
		t.stats.Add(ctx, MetricFailures, 1, "name", RequestName)
	}
}

// PrepareRequest turns a request of external load generator into a fault event post.
func (t *Task) PrepareRequest(_ int, req *http.Request) error {
	body, err := t.Body()
	if err != nil {
		return ctxd.WrapError(req.Context(), err, "failed to encode fault event")
	}

	u := *t.target

	req.Method = http.MethodPost
	req.URL = &u
	req.Host = u.Host

	if req.Header == nil {
		req.Header = make(http.Header, len(t.headers))
	}

	for k, v := range t.headers {
		req.Header.Set(k, v)
	}

	req.Body = io.NopCloser(bytes.NewReader(body))
	req.ContentLength = int64(len(body))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}

	return nil
}
