package api

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FlexString decodes a JSON string or number into a string.
// The backend sends ids and durations as either.
type FlexString string

// UnmarshalJSON accepts "abc", 42, 4.5 and null.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// String returns the underlying value.
func (f FlexString) String() string {
	return string(f)
}

// Health is the coarse classification of StatusSnapshot.Status.
type Health int

const (
	HealthUnknown Health = iota
	HealthHealthy
	HealthWarning
	HealthCritical
)

// String returns a human-readable health label.
func (h Health) String() string {
	switch h {
	case HealthHealthy:
		return "healthy"
	case HealthWarning:
		return "warning"
	case HealthCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Backend status strings.
const (
	StatusHealthy = "Healthy"
	StatusOnline  = "Online"
	StatusWarning = "Warning"
	StatusOffline = "Offline"
	StatusError   = "Error"
	StatusUnknown = "Unknown"
)

// StatusSnapshot is the payload of the status feed.
type StatusSnapshot struct {
	Status           string     `json:"status" yaml:"status"`
	Uptime           FlexString `json:"uptime" yaml:"uptime"`
	Connections      int        `json:"connections" yaml:"connections"`
	CPU              float64    `json:"cpu" yaml:"cpu"`
	Memory           float64    `json:"memory" yaml:"memory"`
	DiskSpace        float64    `json:"diskSpace" yaml:"diskSpace"`
	ResponseTime     float64    `json:"responseTime" yaml:"responseTime"`
	Tables           int        `json:"tables" yaml:"tables"`
	Views            int        `json:"views" yaml:"views"`
	StoredProcedures int        `json:"storedProcedures" yaml:"storedProcedures"`
	Functions        int        `json:"functions" yaml:"functions"`
	Triggers         int        `json:"triggers" yaml:"triggers"`
}

// DefaultStatus is the snapshot shown before the first successful fetch.
func DefaultStatus() StatusSnapshot {
	return StatusSnapshot{Status: StatusUnknown}
}

// TotalSchemaObjects is the sum of the five schema-object counts.
func (s StatusSnapshot) TotalSchemaObjects() int {
	return s.Tables + s.Views + s.StoredProcedures + s.Functions + s.Triggers
}

// Health classifies the backend status string, case-insensitively.
// Online counts as healthy; Offline and Error count as critical.
func (s StatusSnapshot) Health() Health {
	switch strings.ToLower(strings.TrimSpace(s.Status)) {
	case "healthy", "online":
		return HealthHealthy
	case "warning":
		return HealthWarning
	case "offline", "error":
		return HealthCritical
	default:
		return HealthUnknown
	}
}

// Severity grades an issue or log entry.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue is one entry of the issues feed.
type Issue struct {
	ID        FlexString `json:"id" yaml:"id"`
	Severity  Severity   `json:"severity" yaml:"severity"`
	Message   string     `json:"message" yaml:"message"`
	Timestamp string     `json:"timestamp" yaml:"timestamp"`
}

// Job states the backend reports. Others may appear and are kept verbatim.
const (
	JobRunning   = "Running"
	JobQueued    = "Queued"
	JobScheduled = "Scheduled"
)

// Job is one entry of the pending jobs feed.
type Job struct {
	ID                FlexString `json:"id" yaml:"id"`
	Name              string     `json:"name" yaml:"name"`
	Status            string     `json:"status" yaml:"status"`
	StartTime         string     `json:"startTime" yaml:"startTime"`
	EstimatedDuration FlexString `json:"estimatedDuration" yaml:"estimatedDuration"`
}

// LogEntry is one entry of the logs feed.
type LogEntry struct {
	ID        FlexString `json:"id" yaml:"id"`
	Type      Severity   `json:"type" yaml:"type"`
	Message   string     `json:"message" yaml:"message"`
	Timestamp string     `json:"timestamp" yaml:"timestamp"`
}

// MetricPoint is one sample of the performance time series.
type MetricPoint struct {
	Time    string  `json:"time" yaml:"time"`
	Queries float64 `json:"queries" yaml:"queries"`
	CPU     float64 `json:"cpu" yaml:"cpu"`
	Memory  float64 `json:"memory" yaml:"memory"`
}

// ConnectResult is the POST /connect payload: the session id plus the
// initial stats the backend gathered while connecting.
type ConnectResult struct {
	ConnectionID string `json:"connectionId"`
	StatusSnapshot
}

// DisconnectResult is the DELETE /disconnect acknowledgement.
type DisconnectResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// errorBody is the JSON body carried by every non-2xx response.
type errorBody struct {
	Message string `json:"message"`
}
