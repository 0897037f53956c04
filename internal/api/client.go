// Package api is the HTTP client for the database monitoring backend.
//
// Every operation returns either its unwrapped payload or a single error kind,
// *errors.Error with code errors.ErrAPI, whose Message is the backend's
// {"message": ...} text or a per-operation fallback.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rileyhilliard/dbmon/internal/errors"
	"github.com/rileyhilliard/dbmon/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Fallback messages used when an error response has no parseable message.
const (
	FallbackConnect     = "Failed to connect to database"
	FallbackDisconnect  = "Failed to disconnect from database"
	FallbackStatus      = "Failed to get database stats"
	FallbackIssues      = "Failed to get database issues"
	FallbackJobs        = "Failed to get database jobs"
	FallbackLogs        = "Failed to get database logs"
	FallbackPerformance = "Failed to get performance metrics"
)

// RequestIDHeader carries a per-request uuid so backend logs can be correlated.
const RequestIDHeader = "X-Request-ID"

// tracerName identifies spans emitted by this package.
const tracerName = "github.com/rileyhilliard/dbmon/internal/api"

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// Client talks to the monitoring backend. It is stateless and safe for
// concurrent use.
type Client struct {
	baseURL   string
	http      *http.Client
	log       logger.Logger
	tracer    trace.Tracer
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the transport-level timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithTracerProvider routes spans to tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient creates a client for the backend rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: 10 * time.Second},
		log:       logger.NewEnvLogger("[api]"),
		tracer:    otel.Tracer(tracerName),
		userAgent: "dbmon",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Connect opens a backend session for connectionString.
func (c *Client) Connect(ctx context.Context, connectionString string) (*ConnectResult, error) {
	body := map[string]string{"connectionString": connectionString}

	var out ConnectResult
	if err := c.do(ctx, "connect", http.MethodPost, "/connect", body, &out, FallbackConnect); err != nil {
		return nil, err
	}
	return &out, nil
}

// Disconnect closes the backend session identified by connectionID.
func (c *Client) Disconnect(ctx context.Context, connectionID string) (*DisconnectResult, error) {
	var out DisconnectResult
	path := "/disconnect/" + url.PathEscape(connectionID)
	if err := c.do(ctx, "disconnect", http.MethodDelete, path, nil, &out, FallbackDisconnect); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStatus fetches the status snapshot for a session.
func (c *Client) GetStatus(ctx context.Context, connectionID string) (StatusSnapshot, error) {
	var out struct {
		Stats *StatusSnapshot `json:"stats"`
	}
	path := "/status/" + url.PathEscape(connectionID)
	if err := c.do(ctx, "status", http.MethodGet, path, nil, &out, FallbackStatus); err != nil {
		return StatusSnapshot{}, err
	}
	if out.Stats == nil {
		return DefaultStatus(), nil
	}
	return *out.Stats, nil
}

// GetIssues fetches the current issues for a session.
func (c *Client) GetIssues(ctx context.Context, connectionID string) ([]Issue, error) {
	var out struct {
		Issues []Issue `json:"issues"`
	}
	path := "/issues/" + url.PathEscape(connectionID)
	if err := c.do(ctx, "issues", http.MethodGet, path, nil, &out, FallbackIssues); err != nil {
		return nil, err
	}
	return nonNil(out.Issues), nil
}

// GetJobs fetches the pending jobs for a session.
func (c *Client) GetJobs(ctx context.Context, connectionID string) ([]Job, error) {
	var out struct {
		Jobs []Job `json:"jobs"`
	}
	path := "/jobs/" + url.PathEscape(connectionID)
	if err := c.do(ctx, "jobs", http.MethodGet, path, nil, &out, FallbackJobs); err != nil {
		return nil, err
	}
	return nonNil(out.Jobs), nil
}

// GetLogs fetches recent log entries for a session.
func (c *Client) GetLogs(ctx context.Context, connectionID string) ([]LogEntry, error) {
	var out struct {
		Logs []LogEntry `json:"logs"`
	}
	path := "/logs/" + url.PathEscape(connectionID)
	if err := c.do(ctx, "logs", http.MethodGet, path, nil, &out, FallbackLogs); err != nil {
		return nil, err
	}
	return nonNil(out.Logs), nil
}

// GetPerformance fetches the performance time series covering the last hours.
func (c *Client) GetPerformance(ctx context.Context, connectionID string, hours int) ([]MetricPoint, error) {
	var out struct {
		Performance []MetricPoint `json:"performance"`
	}
	path := "/performance/" + url.PathEscape(connectionID) + "?hours=" + strconv.Itoa(hours)
	if err := c.do(ctx, "performance", http.MethodGet, path, nil, &out, FallbackPerformance); err != nil {
		return nil, err
	}
	return nonNil(out.Performance), nil
}

// do issues one request and decodes the success body into out.
func (c *Client) do(ctx context.Context, op, method, path string, body, out interface{}, fallback string) (err error) {
	ctx, span := c.tracer.Start(ctx, "api."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, errors.Message(err))
		}
		span.End()
	}()

	requestID := uuid.NewString()
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.path", path),
		attribute.String("dbmon.request_id", requestID),
	)

	var reader io.Reader
	if body != nil {
		payload, mErr := json.Marshal(body)
		if mErr != nil {
			return errors.WrapWithCode(mErr, errors.ErrAPI, fallback, "")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrAPI, fallback, "Check api.base_url in your config")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("%s %s failed after %s: %v", method, path, time.Since(start), err)
		return errors.WrapWithCode(err, errors.ErrAPI, fallback,
			fmt.Sprintf("Is the monitoring backend running at %s?", c.baseURL))
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	c.log.Debug("%s %s -> %d in %s (request %s)", method, path, resp.StatusCode, time.Since(start), requestID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := errors.New(errors.ErrAPI, errorMessage(resp.Body, fallback), "")
		apiErr.StatusCode = resp.StatusCode
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return errors.WrapWithCode(err, errors.ErrAPI, fallback, "The backend returned a response dbmon couldn't parse")
	}
	return nil
}

// errorMessage extracts {"message": ...} from an error body, or returns fallback.
func errorMessage(body io.Reader, fallback string) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return fallback
	}
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err != nil {
		return fallback
	}
	if msg := strings.TrimSpace(eb.Message); msg != "" {
		return msg
	}
	return fallback
}

// nonNil turns a missing or null collection into an empty one.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
