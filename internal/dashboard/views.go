package dashboard

import (
	"github.com/rileyhilliard/dbmon/internal/api"
)

// IssueCountBySeverity counts issues per severity. The three known
// severities are always present, even at zero.
func IssueCountBySeverity(issues []api.Issue) map[api.Severity]int {
	counts := map[api.Severity]int{
		api.SeverityError:   0,
		api.SeverityWarning: 0,
		api.SeverityInfo:    0,
	}
	for _, is := range issues {
		counts[is.Severity]++
	}
	return counts
}

// HasCriticalIssues reports whether any issue has error severity.
func HasCriticalIssues(issues []api.Issue) bool {
	for _, is := range issues {
		if is.Severity == api.SeverityError {
			return true
		}
	}
	return false
}

// JobCountByStatus counts jobs with exactly the given status.
func JobCountByStatus(jobs []api.Job, status string) int {
	n := 0
	for _, j := range jobs {
		if j.Status == status {
			n++
		}
	}
	return n
}

// JobGroups partitions jobs by the three states the dashboard shows.
// Jobs in any other state appear in none of them.
type JobGroups struct {
	Running   []api.Job
	Queued    []api.Job
	Scheduled []api.Job
}

// JobsByStatus groups jobs, preserving backend order within each group.
func JobsByStatus(jobs []api.Job) JobGroups {
	var g JobGroups
	for _, j := range jobs {
		switch j.Status {
		case api.JobRunning:
			g.Running = append(g.Running, j)
		case api.JobQueued:
			g.Queued = append(g.Queued, j)
		case api.JobScheduled:
			g.Scheduled = append(g.Scheduled, j)
		}
	}
	return g
}

// LogsOfType filters logs to one type, preserving order.
func LogsOfType(logs []api.LogEntry, typ api.Severity) []api.LogEntry {
	out := []api.LogEntry{}
	for _, l := range logs {
		if l.Type == typ {
			out = append(out, l)
		}
	}
	return out
}

// LogGroups partitions logs by type.
type LogGroups struct {
	Errors   []api.LogEntry
	Warnings []api.LogEntry
	Info     []api.LogEntry
}

// LogsByType groups logs into error, warning and info.
func LogsByType(logs []api.LogEntry) LogGroups {
	return LogGroups{
		Errors:   LogsOfType(logs, api.SeverityError),
		Warnings: LogsOfType(logs, api.SeverityWarning),
		Info:     LogsOfType(logs, api.SeverityInfo),
	}
}

// MetricField names a numeric series of MetricPoint.
type MetricField string

const (
	FieldQueries MetricField = "queries"
	FieldCPU     MetricField = "cpu"
	FieldMemory  MetricField = "memory"
)

// Value reads field from p. Unknown fields read as 0.
func (f MetricField) Value(p api.MetricPoint) float64 {
	switch f {
	case FieldQueries:
		return p.Queries
	case FieldCPU:
		return p.CPU
	case FieldMemory:
		return p.Memory
	default:
		return 0
	}
}

// LatestMetric returns the last point, or nil for an empty series.
func LatestMetric(points []api.MetricPoint) *api.MetricPoint {
	if len(points) == 0 {
		return nil
	}
	p := points[len(points)-1]
	return &p
}

// MaxValue is the largest value of field, 0 for an empty series.
func MaxValue(points []api.MetricPoint, field MetricField) float64 {
	if len(points) == 0 {
		return 0
	}
	max := field.Value(points[0])
	for _, p := range points[1:] {
		if v := field.Value(p); v > max {
			max = v
		}
	}
	return max
}

// AverageValue is the mean of field, 0 for an empty series.
func AverageValue(points []api.MetricPoint, field MetricField) float64 {
	if len(points) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range points {
		sum += field.Value(p)
	}
	return sum / float64(len(points))
}

// Series extracts field from every point, in order.
func Series(points []api.MetricPoint, field MetricField) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = field.Value(p)
	}
	return out
}
