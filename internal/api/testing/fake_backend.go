// Package testing provides an in-process fake of the monitoring backend.
package testing

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/rileyhilliard/dbmon/internal/api"
)

// Call records one request the backend served.
type Call struct {
	Method string
	Path   string
	Query  string
	Body   string
}

// FakeBackend serves the monitoring REST surface from canned data.
type FakeBackend struct {
	Server *httptest.Server

	mu          sync.Mutex
	calls       []Call
	sessionID   string
	initial     api.StatusSnapshot
	status      api.StatusSnapshot
	issues      []api.Issue
	jobs        []api.Job
	logs        []api.LogEntry
	performance []api.MetricPoint
	failures    map[string]failure
}

type failure struct {
	status int
	body   string
}

// NewFakeBackend starts a backend that hands out sessionID on connect.
// Call Close when done.
func NewFakeBackend(sessionID string) *FakeBackend {
	b := &FakeBackend{
		sessionID:   sessionID,
		status:      api.StatusSnapshot{Status: api.StatusHealthy},
		issues:      []api.Issue{},
		jobs:        []api.Job{},
		logs:        []api.LogEntry{},
		performance: []api.MetricPoint{},
		failures:    make(map[string]failure),
	}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	return b
}

// URL is the API base address, including the /api prefix.
func (b *FakeBackend) URL() string {
	return b.Server.URL + "/api"
}

// Close shuts the server down.
func (b *FakeBackend) Close() {
	b.Server.Close()
}

// SetInitial sets the stats returned alongside the connection id.
func (b *FakeBackend) SetInitial(s api.StatusSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initial = s
}

// SetStatus sets the status feed payload.
func (b *FakeBackend) SetStatus(s api.StatusSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = s
}

// SetIssues sets the issues feed payload.
func (b *FakeBackend) SetIssues(v []api.Issue) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.issues = v
}

// SetJobs sets the jobs feed payload.
func (b *FakeBackend) SetJobs(v []api.Job) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jobs = v
}

// SetLogs sets the logs feed payload.
func (b *FakeBackend) SetLogs(v []api.LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logs = v
}

// SetPerformance sets the performance feed payload.
func (b *FakeBackend) SetPerformance(v []api.MetricPoint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.performance = v
}

// Fail makes every request to route ("connect", "status", "issues", ...)
// answer with status and body.
func (b *FakeBackend) Fail(route string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[route] = failure{status: status, body: body}
}

// Heal clears a failure set with Fail.
func (b *FakeBackend) Heal(route string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, route)
}

// Calls returns every request served so far.
func (b *FakeBackend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// CallCount returns how many requests hit route.
func (b *FakeBackend) CallCount(route string) int {
	n := 0
	for _, c := range b.Calls() {
		if routeOf(c.Path) == route {
			n++
		}
	}
	return n
}

// routeOf maps /api/issues/abc to "issues".
func routeOf(path string) string {
	parts := strings.Split(strings.TrimPrefix(path, "/api/"), "/")
	return parts[0]
}

func (b *FakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	b.mu.Lock()
	b.calls = append(b.calls, Call{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: string(body)})
	route := routeOf(r.URL.Path)
	fail, failing := b.failures[route]
	b.mu.Unlock()

	if failing {
		w.WriteHeader(fail.status)
		_, _ = io.WriteString(w, fail.body)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch route {
	case "connect":
		writeJSON(w, struct {
			ConnectionID string `json:"connectionId"`
			api.StatusSnapshot
		}{b.sessionID, b.initial})
	case "disconnect":
		writeJSON(w, api.DisconnectResult{Success: true, Message: "Disconnected"})
	case "status":
		writeJSON(w, map[string]interface{}{"stats": b.status})
	case "issues":
		writeJSON(w, map[string]interface{}{"issues": b.issues})
	case "jobs":
		writeJSON(w, map[string]interface{}{"jobs": b.jobs})
	case "logs":
		writeJSON(w, map[string]interface{}{"logs": b.logs})
	case "performance":
		writeJSON(w, map[string]interface{}{"performance": b.performance})
	default:
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, map[string]string{"message": "Not found"})
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
