package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rileyhilliard/dbmon/internal/errors"
	"github.com/rileyhilliard/dbmon/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// newTestClient points a client at handler with a quiet logger.
func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithLogger(logger.Noop())}, opts...)
	return NewClient(srv.URL+"/api", opts...)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestConnect(t *testing.T) {
	var gotBody map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/connect", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"connectionId": "abc",
			"status":       "Online",
			"tables":       10,
			"views":        2,
		})
	})

	res, err := c.Connect(context.Background(), "Server=db;Password=x;")
	require.NoError(t, err)
	assert.Equal(t, "Server=db;Password=x;", gotBody["connectionString"])
	assert.Equal(t, "abc", res.ConnectionID)
	assert.Equal(t, "Online", res.Status)
	assert.Equal(t, 12, res.TotalSchemaObjects())
}

func TestDisconnect(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/disconnect/abc", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Disconnected"})
	})

	res, err := c.Disconnect(context.Background(), "abc")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Disconnected", res.Message)
}

func TestGetStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/status/abc", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"stats": map[string]interface{}{
				"status":           "Healthy",
				"uptime":           "3 days",
				"connections":      42,
				"cpu":              12.5,
				"memory":           64,
				"diskSpace":        71.2,
				"responseTime":     8,
				"tables":           100,
				"views":            20,
				"storedProcedures": 5,
				"functions":        3,
				"triggers":         1,
			},
		})
	})

	s, err := c.GetStatus(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "Healthy", s.Status)
	assert.Equal(t, 42, s.Connections)
	assert.InDelta(t, 12.5, s.CPU, 0.001)
	assert.Equal(t, 129, s.TotalSchemaObjects())
	assert.Equal(t, HealthHealthy, s.Health())
}

func TestGetStatus_MissingStatsUsesDefault(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{})
	})

	s, err := c.GetStatus(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, DefaultStatus(), s)
}

func TestGetIssues(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/issues/abc", r.URL.Path)
		_, _ = io.WriteString(w, `{"issues":[
			{"id":1,"severity":"error","message":"Deadlock detected","timestamp":"2024-01-01T10:00:00Z"},
			{"id":"i-2","severity":"warning","message":"Slow query","timestamp":"2024-01-01T10:01:00Z"}
		]}`)
	})

	issues, err := c.GetIssues(context.Background(), "abc")
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, FlexString("1"), issues[0].ID)
	assert.Equal(t, SeverityError, issues[0].Severity)
	assert.Equal(t, "i-2", issues[1].ID.String())
}

func TestGetCollections_NullBecomesEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"issues":null,"jobs":null,"logs":null,"performance":null}`)
	})
	ctx := context.Background()

	issues, err := c.GetIssues(ctx, "abc")
	require.NoError(t, err)
	assert.NotNil(t, issues)
	assert.Empty(t, issues)

	jobs, err := c.GetJobs(ctx, "abc")
	require.NoError(t, err)
	assert.NotNil(t, jobs)

	logs, err := c.GetLogs(ctx, "abc")
	require.NoError(t, err)
	assert.NotNil(t, logs)

	perf, err := c.GetPerformance(ctx, "abc", 6)
	require.NoError(t, err)
	assert.NotNil(t, perf)
}

func TestGetJobs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/jobs/abc", r.URL.Path)
		_, _ = io.WriteString(w, `{"jobs":[{"id":7,"name":"Backup","status":"Running","startTime":"2024-01-01T09:00:00Z","estimatedDuration":45}]}`)
	})

	jobs, err := c.GetJobs(context.Background(), "abc")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Backup", jobs[0].Name)
	assert.Equal(t, JobRunning, jobs[0].Status)
	assert.Equal(t, FlexString("45"), jobs[0].EstimatedDuration)
}

func TestGetLogs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/logs/abc", r.URL.Path)
		_, _ = io.WriteString(w, `{"logs":[{"id":"l1","type":"info","message":"Checkpoint","timestamp":"2024-01-01T09:00:00Z"}]}`)
	})

	logs, err := c.GetLogs(context.Background(), "abc")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, SeverityInfo, logs[0].Type)
}

func TestGetPerformance_SendsHours(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/performance/abc", r.URL.Path)
		assert.Equal(t, "24", r.URL.Query().Get("hours"))
		_, _ = io.WriteString(w, `{"performance":[{"time":"10:00","queries":120,"cpu":30.5,"memory":60}]}`)
	})

	points, err := c.GetPerformance(context.Background(), "abc", 24)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.InDelta(t, 120, points[0].Queries, 0.001)
}

func TestErrorResponses(t *testing.T) {
	type call func(c *Client) error
	ctx := context.Background()

	ops := []struct {
		name     string
		call     call
		fallback string
	}{
		{"connect", func(c *Client) error { _, err := c.Connect(ctx, "x"); return err }, FallbackConnect},
		{"disconnect", func(c *Client) error { _, err := c.Disconnect(ctx, "abc"); return err }, FallbackDisconnect},
		{"status", func(c *Client) error { _, err := c.GetStatus(ctx, "abc"); return err }, FallbackStatus},
		{"issues", func(c *Client) error { _, err := c.GetIssues(ctx, "abc"); return err }, FallbackIssues},
		{"jobs", func(c *Client) error { _, err := c.GetJobs(ctx, "abc"); return err }, FallbackJobs},
		{"logs", func(c *Client) error { _, err := c.GetLogs(ctx, "abc"); return err }, FallbackLogs},
		{"performance", func(c *Client) error { _, err := c.GetPerformance(ctx, "abc", 6); return err }, FallbackPerformance},
	}

	bodies := []struct {
		name    string
		body    string
		wantMsg func(fallback string) string
	}{
		{"message body", `{"message":"Login failed for user 'sa'"}`, func(string) string { return "Login failed for user 'sa'" }},
		{"empty message", `{"message":""}`, func(fb string) string { return fb }},
		{"non-json body", `<html>Bad Gateway</html>`, func(fb string) string { return fb }},
		{"empty body", ``, func(fb string) string { return fb }},
	}

	for _, op := range ops {
		for _, b := range bodies {
			t.Run(op.name+"/"+b.name, func(t *testing.T) {
				c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = io.WriteString(w, b.body)
				})

				err := op.call(c)
				require.Error(t, err)
				assert.True(t, errors.IsCode(err, errors.ErrAPI))
				assert.Equal(t, b.wantMsg(op.fallback), errors.Message(err))

				var apiErr *errors.Error
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
			})
		}
	}
}

func TestTransportErrorUsesFallback(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := NewClient(base, WithLogger(logger.Noop()), WithTimeout(time.Second))
	_, err := c.GetIssues(context.Background(), "abc")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrAPI))
	assert.Equal(t, FallbackIssues, errors.Message(err))

	var apiErr *errors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Zero(t, apiErr.StatusCode)
	assert.NotNil(t, apiErr.Cause)
}

func TestCancelledContext(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.GetLogs(ctx, "abc")
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("request did not return after cancel")
	}
}

func TestRequestIDHeader(t *testing.T) {
	seen := make(chan string, 2)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Get(RequestIDHeader)
		writeJSON(w, http.StatusOK, map[string]interface{}{"logs": []interface{}{}})
	})

	_, err := c.GetLogs(context.Background(), "abc")
	require.NoError(t, err)
	_, err = c.GetLogs(context.Background(), "abc")
	require.NoError(t, err)

	first, second := <-seen, <-seen
	_, err = uuid.Parse(first)
	assert.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/jobs/abc" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"issues": []interface{}{}})
	}, WithTracerProvider(tp))

	_, err := c.GetIssues(context.Background(), "abc")
	require.NoError(t, err)
	_, err = c.GetJobs(context.Background(), "abc")
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "api.issues", spans[0].Name())
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "api.jobs", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, FallbackJobs, spans[1].Status().Description)
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	c := NewClient("http://localhost:3001/api/")
	assert.Equal(t, "http://localhost:3001/api", c.BaseURL())
}

func TestFlexString(t *testing.T) {
	tests := []struct {
		in   string
		want FlexString
	}{
		{`"abc"`, "abc"},
		{`42`, "42"},
		{`4.5`, "4.5"},
		{`null`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var f FlexString
			require.NoError(t, json.Unmarshal([]byte(tt.in), &f))
			assert.Equal(t, tt.want, f)
		})
	}

	var f FlexString
	assert.Error(t, json.Unmarshal([]byte(`{}`), &f))
}

func TestHealth(t *testing.T) {
	tests := []struct {
		status string
		want   Health
	}{
		{"Healthy", HealthHealthy},
		{"online", HealthHealthy},
		{"WARNING", HealthWarning},
		{"Offline", HealthCritical},
		{"error", HealthCritical},
		{"Unknown", HealthUnknown},
		{"", HealthUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusSnapshot{Status: tt.status}.Health())
		})
	}
}
