package monitor

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/dbmon/internal/api"
	"github.com/rileyhilliard/dbmon/internal/dashboard"
	"github.com/rileyhilliard/dbmon/internal/feed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleLogs = []api.LogEntry{
	{ID: "1", Type: api.SeverityInfo, Message: "Checkpoint completed"},
	{ID: "2", Type: api.SeverityError, Message: "Login failed"},
	{ID: "3", Type: api.SeverityWarning, Message: "Log file 90% full"},
	{ID: "4", Type: api.SeverityInfo, Message: "Backup started"},
}

func TestLogsContent_GroupsByType(t *testing.T) {
	snap := dashboard.Snapshot{Logs: feed.State[[]api.LogEntry]{Data: sampleLogs}}
	plain := stripANSI(snapshotModel(snap, 100).logsContent(100))

	errIdx := strings.Index(plain, "Errors (1)")
	warnIdx := strings.Index(plain, "Warnings (1)")
	infoIdx := strings.Index(plain, "Info (2)")
	require.NotEqual(t, -1, errIdx)
	require.NotEqual(t, -1, warnIdx)
	require.NotEqual(t, -1, infoIdx)
	assert.Less(t, errIdx, warnIdx)
	assert.Less(t, warnIdx, infoIdx)

	assert.Less(t, strings.Index(plain, "Login failed"), warnIdx)
	assert.Greater(t, strings.Index(plain, "Backup started"), infoIdx)
}

func TestLogsContent_EmptyAndError(t *testing.T) {
	snap := dashboard.Snapshot{Logs: feed.State[[]api.LogEntry]{Err: "Failed to fetch logs"}}
	plain := stripANSI(snapshotModel(snap, 100).logsContent(100))

	assert.Contains(t, plain, "✗ Failed to fetch logs")
	assert.Contains(t, plain, "No log entries")
}

func TestLogsContent_SkipsEmptyGroups(t *testing.T) {
	snap := dashboard.Snapshot{Logs: feed.State[[]api.LogEntry]{Data: sampleLogs[:1]}}
	plain := stripANSI(snapshotModel(snap, 100).logsContent(100))

	assert.Contains(t, plain, "Info (1)")
	assert.NotContains(t, plain, "Errors")
	assert.NotContains(t, plain, "Warnings")
}

func TestRenderLogsView(t *testing.T) {
	f := newFixture(t, testConn)
	f.backend.SetLogs(sampleLogs)
	m := f.connected(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = update(t, m, keyMsg("l"))
	require.Equal(t, ViewLogs, m.viewMode)

	plain := stripANSI(m.View())
	assert.Contains(t, plain, "Logs")
	assert.Contains(t, plain, "1 errors")
	assert.Contains(t, plain, "2 info")
	assert.Contains(t, plain, "Checkpoint completed")
	assert.Contains(t, plain, "esc back")
	assert.NotContains(t, plain, "╭─ Status")
}

func TestLogsView_ScrollsWithKeys(t *testing.T) {
	f := newFixture(t, testConn)
	var logs []api.LogEntry
	for i := 0; i < 50; i++ {
		logs = append(logs, api.LogEntry{Type: api.SeverityInfo, Message: "entry"})
	}
	f.backend.SetLogs(logs)
	m := f.connected(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 20})
	m, _ = update(t, m, keyMsg("l"))

	require.Equal(t, 0, m.logViewport.YOffset)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.logViewport.YOffset)
}

func TestLogsView_RefreshesOnChange(t *testing.T) {
	f := newFixture(t, testConn)
	m := f.connected(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = update(t, m, keyMsg("l"))
	assert.Contains(t, stripANSI(m.logViewport.View()), "No log entries")

	f.backend.SetLogs(sampleLogs)
	f.dash.Logs.FetchNow(t.Context())
	m, _ = update(t, m, changeMsg{})

	assert.Contains(t, stripANSI(m.logViewport.View()), "Checkpoint completed")
}
