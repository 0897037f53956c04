package monitor

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/dbmon/internal/api"
	"github.com/rileyhilliard/dbmon/internal/dashboard"
	"github.com/rileyhilliard/dbmon/internal/feed"
	"github.com/rileyhilliard/dbmon/internal/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// snapshotModel builds a model that renders snap without a backend.
func snapshotModel(snap dashboard.Snapshot, width int) Model {
	m := Model{
		snap:    snap,
		history: NewHistory(DefaultHistorySize),
		width:   width,
		height:  60,
		now:     func() time.Time { return testStart.Add(time.Minute) },
	}
	return m
}

func TestRenderSection(t *testing.T) {
	out := renderSection("Jobs", "3", []string{"first", sectionDividerRow, "second"}, 30)
	lines := strings.Split(stripANSI(out), "\n")
	require.Len(t, lines, 5)

	assert.True(t, strings.HasPrefix(lines[0], "╭─ Jobs"))
	assert.Contains(t, lines[1], "first")
	assert.Equal(t, "├"+strings.Repeat("─", 28)+"┤", lines[2])
	assert.Contains(t, lines[3], "second")
	assert.True(t, strings.HasPrefix(lines[4], "╰"))
	for _, l := range lines {
		assert.Equal(t, 30, lipgloss.Width(l), l)
	}
}

func TestTruncateWithEllipsis(t *testing.T) {
	tests := []struct {
		input  string
		maxLen int
		expect string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"tiny limit", 3, "tiny limit"},
		{"ünïcödé text here", 8, "ünïcö..."},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expect, truncateWithEllipsis(tt.input, tt.maxLen))
		})
	}
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab   ", padRight("ab", 5))
	assert.Equal(t, "abcdef", padRight("abcdef", 3))
}

func TestRenderSchemaRows(t *testing.T) {
	s := api.StatusSnapshot{Tables: 1200, Views: 30, StoredProcedures: 12, Functions: 8, Triggers: 4}

	wide := renderSchemaRows(s, 200)
	require.Len(t, wide, 1)
	plain := stripANSI(wide[0])
	assert.Contains(t, plain, "Tables 1,200")
	assert.Contains(t, plain, "Procedures 12")
	assert.Contains(t, plain, "Total 1,254")

	narrow := renderSchemaRows(s, 30)
	assert.Greater(t, len(narrow), 1)
	for _, row := range narrow {
		assert.LessOrEqual(t, lipgloss.Width(row), 30)
	}
}

func TestRenderStatusCard(t *testing.T) {
	snap := dashboard.Snapshot{
		Status: feed.State[api.StatusSnapshot]{
			Data: api.StatusSnapshot{
				Status: api.StatusHealthy, Uptime: "1500", Connections: 1234,
				CPU: 45, Memory: 75, DiskSpace: 95, ResponseTime: 12,
				Tables: 10, Views: 2,
			},
			LastUpdated: testStart,
		},
	}
	m := snapshotModel(snap, 100)

	out := m.renderStatusCard(60)
	plain := stripANSI(out)
	assert.Contains(t, plain, "Status")
	assert.Contains(t, plain, "Healthy")
	assert.Contains(t, plain, "up 1d 1h")
	assert.Contains(t, plain, "connections 1,234")
	assert.Contains(t, plain, "CPU")
	assert.Contains(t, plain, "45.0%")
	assert.Contains(t, plain, "Memory")
	assert.Contains(t, plain, "Disk")
	assert.Contains(t, plain, "12 ms")
	assert.Contains(t, plain, "Total 12")
	assert.Contains(t, plain, "1 minute ago")

	// Gauges are colored by threshold.
	assert.Contains(t, out, ansiHealthy)
	assert.Contains(t, out, ansiWarning)
	assert.Contains(t, out, ansiCritical)

	for _, l := range strings.Split(plain, "\n") {
		assert.Equal(t, 60, lipgloss.Width(l), l)
	}
}

func TestRenderStatusCard_HistorySparklines(t *testing.T) {
	m := snapshotModel(dashboard.Snapshot{Status: feed.State[api.StatusSnapshot]{Data: api.DefaultStatus()}}, 100)

	noHistory := stripANSI(m.renderStatusCard(80))
	m.history.Push(api.StatusSnapshot{CPU: 10, ResponseTime: 5})
	m.history.Push(api.StatusSnapshot{CPU: 90, ResponseTime: 50})
	withHistory := stripANSI(m.renderStatusCard(80))

	assert.NotEqual(t, noHistory, withHistory)
}

func TestRenderStatusCard_ErrorKeepsStaleData(t *testing.T) {
	snap := dashboard.Snapshot{
		Status: feed.State[api.StatusSnapshot]{
			Data: api.StatusSnapshot{Status: api.StatusWarning, CPU: 71},
			Err:  "Failed to fetch database status",
		},
	}
	plain := stripANSI(snapshotModel(snap, 100).renderStatusCard(70))

	assert.Contains(t, plain, "✗ Failed to fetch database status")
	assert.Contains(t, plain, "Warning")
	assert.Contains(t, plain, "71.0%")
}

func TestRenderIssuesCard(t *testing.T) {
	var issues []api.Issue
	for i := 0; i < cardMaxListItems+2; i++ {
		issues = append(issues, api.Issue{
			ID: api.FlexString(fmt.Sprint(i)), Severity: api.SeverityWarning, Message: fmt.Sprintf("issue %d", i),
		})
	}
	issues[0].Severity = api.SeverityError

	snap := dashboard.Snapshot{Issues: feed.State[[]api.Issue]{Data: issues}}
	plain := stripANSI(snapshotModel(snap, 100).renderIssuesCard(60))

	assert.Contains(t, plain, "Issues")
	assert.Contains(t, plain, "✗ 1 errors")
	assert.Contains(t, plain, "▲ 7 warnings")
	assert.Contains(t, plain, "● 0 info")
	assert.Contains(t, plain, "issue 0")
	assert.Contains(t, plain, "issue 5")
	assert.NotContains(t, plain, "issue 6")
	assert.Contains(t, plain, "+2 more")
}

func TestRenderIssuesCard_Empty(t *testing.T) {
	plain := stripANSI(snapshotModel(dashboard.Snapshot{}, 100).renderIssuesCard(60))
	assert.Contains(t, plain, "No issues detected")
}

func TestRenderJobsCard(t *testing.T) {
	snap := dashboard.Snapshot{Jobs: feed.State[[]api.Job]{Data: []api.Job{
		{ID: "1", Name: "Nightly backup", Status: api.JobRunning, EstimatedDuration: "90"},
		{ID: "2", Name: "Index rebuild", Status: api.JobQueued},
		{ID: "3", Name: "Stats refresh", Status: api.JobScheduled, EstimatedDuration: "about an hour"},
	}}}
	plain := stripANSI(snapshotModel(snap, 100).renderJobsCard(70))

	assert.Contains(t, plain, "1 running")
	assert.Contains(t, plain, "1 queued")
	assert.Contains(t, plain, "1 scheduled")
	assert.Contains(t, plain, "Nightly backup")
	assert.Contains(t, plain, "~1h 30m")
	assert.Contains(t, plain, "~about an hour")
}

func TestRenderJobsCard_Empty(t *testing.T) {
	plain := stripANSI(snapshotModel(dashboard.Snapshot{}, 100).renderJobsCard(60))
	assert.Contains(t, plain, "No pending jobs")
	assert.Contains(t, plain, "0 running")
}

func TestRenderPerformanceCard(t *testing.T) {
	snap := dashboard.Snapshot{
		PerformanceHours: 12,
		Performance: feed.State[[]api.MetricPoint]{Data: []api.MetricPoint{
			{Time: "09:00", Queries: 1000, CPU: 20, Memory: 40},
			{Time: "10:00", Queries: 3000, CPU: 60, Memory: 50},
		}},
	}
	m := snapshotModel(snap, 100)
	out := m.renderPerformanceCard(70)
	plain := stripANSI(out)

	assert.Contains(t, plain, "Performance")
	assert.Contains(t, plain, "last 12h")
	assert.Contains(t, plain, "Queries")
	assert.Contains(t, plain, "now 3,000")
	assert.Contains(t, plain, "avg 2,000")
	assert.Contains(t, plain, "max 60%")
	assert.Contains(t, out, ansiGraph)

	// Minimal layout drops the graphs.
	m.width = 60
	minimal := stripANSI(m.renderPerformanceCard(56))
	assert.Less(t, strings.Count(minimal, "\n"), strings.Count(plain, "\n"))
}

func TestRenderPerformanceCard_Empty(t *testing.T) {
	snap := dashboard.Snapshot{PerformanceHours: 6}
	plain := stripANSI(snapshotModel(snap, 100).renderPerformanceCard(60))
	assert.Contains(t, plain, "No performance data")
	assert.Contains(t, plain, "last 6h")
}

func TestRenderLogsCard(t *testing.T) {
	var logs []api.LogEntry
	for i := 0; i < cardMaxLogLines+3; i++ {
		logs = append(logs, api.LogEntry{ID: api.FlexString(fmt.Sprint(i)), Type: api.SeverityInfo, Message: fmt.Sprintf("log line %d", i)})
	}
	snap := dashboard.Snapshot{Logs: feed.State[[]api.LogEntry]{Data: logs}}
	plain := stripANSI(snapshotModel(snap, 100).renderLogsCard(80))

	assert.Contains(t, plain, "log line 0")
	assert.Contains(t, plain, "log line 4")
	assert.NotContains(t, plain, "log line 5")
	assert.Contains(t, plain, "+3 more, press l to view all")
}

func TestHeaderValue_LoadingShowsSpinner(t *testing.T) {
	m := snapshotModel(dashboard.Snapshot{}, 100)
	m.spinner = ui.NewBubblesSpinner(ColorAccent)

	assert.Equal(t, "3", m.headerValue(false, "3"))
	assert.Equal(t, "◐ 3", stripANSI(m.headerValue(true, "3")))
	assert.Equal(t, "◐", stripANSI(m.headerValue(true, "")))
}
