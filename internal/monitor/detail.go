package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/dbmon/internal/api"
	"github.com/rileyhilliard/dbmon/internal/dashboard"
)

// Logs view chrome: header line, blank line and footer line.
const logsViewChrome = 3

// Logs view styles
var (
	logsTitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	logsGroupStyle = lipgloss.NewStyle().
			Bold(true).
			MarginTop(1)
)

// renderLogsView renders the full-screen, scrollable log listing.
func (m Model) renderLogsView() string {
	st := m.snap.Logs
	groups := dashboard.LogsByType(st.Data)

	header := logsTitleStyle.Render("Logs") + "  " + strings.Join([]string{
		severityCount(api.SeverityError, len(groups.Errors), "errors"),
		severityCount(api.SeverityWarning, len(groups.Warnings), "warnings"),
		severityCount(api.SeverityInfo, len(groups.Info), "info"),
	}, "  ")
	if st.Loading {
		header += "  " + m.spinner.View()
	}

	var body string
	if m.viewportReady {
		body = m.logViewport.View()
	} else {
		body = m.logsContent(m.contentWidth())
	}

	footer := FooterStyle.Render("up/down scroll | esc back | ? help")
	return header + "\n\n" + body + "\n" + footer
}

// logsContent renders every log entry grouped by type.
func (m Model) logsContent(width int) string {
	st := m.snap.Logs
	inner := width - 2

	var lines []string
	if st.Err != "" {
		lines = append(lines, errorRow(st.Err))
	}
	if len(st.Data) == 0 {
		lines = append(lines, MutedStyle.Render("No log entries"))
		return strings.Join(lines, "\n")
	}

	groups := dashboard.LogsByType(st.Data)
	for _, g := range []struct {
		sev     api.Severity
		title   string
		entries []api.LogEntry
	}{
		{api.SeverityError, "Errors", groups.Errors},
		{api.SeverityWarning, "Warnings", groups.Warnings},
		{api.SeverityInfo, "Info", groups.Info},
	} {
		if len(g.entries) == 0 {
			continue
		}
		title := fmt.Sprintf("%s (%d)", g.title, len(g.entries))
		lines = append(lines, logsGroupStyle.Foreground(SeverityColor(g.sev)).Render(title))
		for _, e := range g.entries {
			lines = append(lines, "  "+renderLogRow(e, inner))
		}
	}
	return strings.Join(lines, "\n")
}

// resizeLogViewport fits the viewport to the terminal.
func (m *Model) resizeLogViewport() {
	if m.width == 0 || m.height == 0 {
		return
	}
	h := m.height - logsViewChrome
	if h < 1 {
		h = 1
	}
	if !m.viewportReady {
		m.logViewport = viewport.New(m.width, h)
		m.viewportReady = true
	} else {
		m.logViewport.Width = m.width
		m.logViewport.Height = h
	}
	m.updateLogViewport()
}

// updateLogViewport refreshes the viewport content from the latest snapshot.
func (m *Model) updateLogViewport() {
	if !m.viewportReady {
		m.resizeLogViewport()
		if !m.viewportReady {
			return
		}
	}
	m.logViewport.SetContent(m.logsContent(m.logViewport.Width))
}
