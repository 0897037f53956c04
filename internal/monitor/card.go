package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/dbmon/internal/api"
	"github.com/rileyhilliard/dbmon/internal/dashboard"
	"github.com/rileyhilliard/dbmon/internal/format"
)

// Card layout constants
const (
	cardGraphHeight     = 2  // braille graph rows
	cardWideGraphHeight = 4  // braille graph rows in LayoutWide
	cardMinBarWidth     = 6  // minimum gauge width
	cardSparkWidth      = 12 // history sparkline next to each gauge
	cardLabelWidth      = 8
	cardMaxListItems    = 6
	cardMaxLogLines     = 5
)

// renderSection frames rows into a bordered card. Rows that already span the
// full width (dividers) are passed through untouched.
func renderSection(title, value string, rows []string, width int) string {
	lines := make([]string, 0, len(rows)+2)
	lines = append(lines, SectionHeader(title, value, width))
	for _, row := range rows {
		if row == sectionDividerRow {
			lines = append(lines, SectionDivider(width))
			continue
		}
		lines = append(lines, SectionContentLine(row, width))
	}
	lines = append(lines, SectionFooter(width))
	return strings.Join(lines, "\n")
}

// sectionDividerRow marks a row that renderSection replaces with a divider.
const sectionDividerRow = "\x00divider"

// headerValue is the right-hand side of a card header: the spinner while the
// feed is loading, otherwise value.
func (m Model) headerValue(loading bool, value string) string {
	if loading {
		if value == "" {
			return m.spinner.View()
		}
		return m.spinner.View() + " " + value
	}
	return value
}

// errorRow renders a feed error. Stale data stays visible underneath.
func errorRow(err string) string {
	return ErrorLineStyle.Render("✗ " + err)
}

// labelCell renders a fixed-width label.
func labelCell(label string) string {
	return LabelStyle.Render(padRight(label, cardLabelWidth))
}

// padRight pads s with spaces to a display width of n.
func padRight(s string, n int) string {
	w := lipgloss.Width(s)
	if w >= n {
		return s
	}
	return s + strings.Repeat(" ", n-w)
}

// truncateWithEllipsis truncates a string to maxLen cells, adding ellipsis if needed.
func truncateWithEllipsis(s string, maxLen int) string {
	if maxLen <= 3 || lipgloss.Width(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+3 > maxLen {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

// innerWidth is the content width of a card of the given outer width.
func innerWidth(width int) int {
	if width < 8 {
		return 4
	}
	return width - 4
}

// renderStatusCard renders health, gauges with history and schema counts.
func (m Model) renderStatusCard(width int) string {
	st := m.snap.Status
	s := st.Data
	inner := innerWidth(width)

	var rows []string
	if st.Err != "" {
		rows = append(rows, errorRow(st.Err))
	}

	health := s.Health()
	dot := lipgloss.NewStyle().Foreground(HealthColor(health)).Render(IndicatorDot)
	summary := dot + " " + ValueStyle.Bold(true).Render(s.Status)
	if up := format.Duration(s.Uptime.String()); up != "" {
		summary += MutedStyle.Render("  up ") + ValueStyle.Render(up)
	}
	summary += MutedStyle.Render("  connections ") + ValueStyle.Render(format.Number(s.Connections))
	rows = append(rows, summary)
	rows = append(rows, sectionDividerRow)

	showHistory := m.LayoutMode() != LayoutMinimal
	for _, g := range []Gauge{GaugeCPU, GaugeMemory, GaugeDisk} {
		rows = append(rows, m.renderGaugeRow(g, g.value(s), inner, showHistory))
	}

	resp := ValueStyle.Render(fmt.Sprintf("%.0f ms", s.ResponseTime))
	line := labelCell("Response") + resp
	if showHistory && m.history.Count() > 1 {
		line += "  " + seriesSparkline(m.history.Get(GaugeResponseTime, cardSparkWidth), cardSparkWidth, ColorGraph)
	}
	rows = append(rows, line)
	rows = append(rows, sectionDividerRow)
	rows = append(rows, renderSchemaRows(s, inner)...)

	return renderSection("Status", m.headerValue(st.Loading, m.updatedLabel(st.LastUpdated)), rows, width)
}

// renderGaugeRow renders "Label  ▰▰▱▱  42.0%  ▂▃▅" for a percentage gauge.
func (m Model) renderGaugeRow(g Gauge, value float64, inner int, showHistory bool) string {
	pct := fmt.Sprintf("%6.1f%%", value)
	barWidth := inner - cardLabelWidth - len(pct) - 1
	var spark string
	if showHistory && m.history.Count() > 1 {
		spark = gaugeSparkline(m.history.Get(g, cardSparkWidth), cardSparkWidth)
		barWidth -= cardSparkWidth + 2
	}
	if barWidth < cardMinBarWidth {
		barWidth = cardMinBarWidth
	}

	row := labelCell(g.String()) + ProgressBar(barWidth, value) + " " +
		lipgloss.NewStyle().Foreground(MetricColor(value)).Render(pct)
	if spark != "" {
		row += "  " + spark
	}
	return row
}

// renderSchemaRows lays the schema object counts out in as few rows as fit.
func renderSchemaRows(s api.StatusSnapshot, inner int) []string {
	cells := []string{
		schemaCell("Tables", s.Tables),
		schemaCell("Views", s.Views),
		schemaCell("Procedures", s.StoredProcedures),
		schemaCell("Functions", s.Functions),
		schemaCell("Triggers", s.Triggers),
		LabelStyle.Render("Total ") + ValueStyle.Bold(true).Render(format.Number(s.TotalSchemaObjects())),
	}

	var rows []string
	var cur string
	for _, c := range cells {
		switch {
		case cur == "":
			cur = c
		case lipgloss.Width(cur)+2+lipgloss.Width(c) <= inner:
			cur += "  " + c
		default:
			rows = append(rows, cur)
			cur = c
		}
	}
	if cur != "" {
		rows = append(rows, cur)
	}
	return rows
}

func schemaCell(label string, n int) string {
	return LabelStyle.Render(label+" ") + ValueStyle.Render(format.Number(n))
}

// renderIssuesCard renders severity counts and the most recent issues.
func (m Model) renderIssuesCard(width int) string {
	st := m.snap.Issues
	inner := innerWidth(width)

	var rows []string
	if st.Err != "" {
		rows = append(rows, errorRow(st.Err))
	}

	counts := dashboard.IssueCountBySeverity(st.Data)
	rows = append(rows, strings.Join([]string{
		severityCount(api.SeverityError, counts[api.SeverityError], "errors"),
		severityCount(api.SeverityWarning, counts[api.SeverityWarning], "warnings"),
		severityCount(api.SeverityInfo, counts[api.SeverityInfo], "info"),
	}, "  "))

	if len(st.Data) == 0 {
		rows = append(rows, MutedStyle.Render("No issues detected"))
	} else {
		rows = append(rows, sectionDividerRow)
		for i, issue := range st.Data {
			if i == cardMaxListItems {
				rows = append(rows, MutedStyle.Render(fmt.Sprintf("+%d more", len(st.Data)-i)))
				break
			}
			rows = append(rows, renderIssueRow(issue, inner))
		}
	}

	return renderSection("Issues", m.headerValue(st.Loading, fmt.Sprintf("%d", len(st.Data))), rows, width)
}

func severityCount(sev api.Severity, n int, label string) string {
	style := lipgloss.NewStyle().Foreground(SeverityColor(sev))
	if n == 0 {
		style = MutedStyle
	}
	return style.Render(fmt.Sprintf("%s %d %s", SeveritySymbol(sev), n, label))
}

func renderIssueRow(issue api.Issue, inner int) string {
	symbol := lipgloss.NewStyle().Foreground(SeverityColor(issue.Severity)).Render(SeveritySymbol(issue.Severity))
	ts := format.Time(issue.Timestamp)
	msgWidth := inner - 2
	if ts != "" {
		msgWidth -= lipgloss.Width(ts) + 2
	}
	row := symbol + " " + ValueStyle.Render(truncateWithEllipsis(issue.Message, msgWidth))
	if ts != "" {
		row = padRight(row, inner-lipgloss.Width(ts)) + MutedStyle.Render(ts)
	}
	return row
}

// renderJobsCard renders job counts per state and the pending jobs list.
func (m Model) renderJobsCard(width int) string {
	st := m.snap.Jobs
	inner := innerWidth(width)

	var rows []string
	if st.Err != "" {
		rows = append(rows, errorRow(st.Err))
	}

	var counts []string
	for _, status := range []string{api.JobRunning, api.JobQueued, api.JobScheduled} {
		n := dashboard.JobCountByStatus(st.Data, status)
		style := lipgloss.NewStyle().Foreground(JobStatusColor(status))
		if n == 0 {
			style = MutedStyle
		}
		counts = append(counts, style.Render(fmt.Sprintf("%s %d %s", IndicatorDot, n, strings.ToLower(status))))
	}
	rows = append(rows, strings.Join(counts, "  "))

	if len(st.Data) == 0 {
		rows = append(rows, MutedStyle.Render("No pending jobs"))
	} else {
		rows = append(rows, sectionDividerRow)
		for i, job := range st.Data {
			if i == cardMaxListItems {
				rows = append(rows, MutedStyle.Render(fmt.Sprintf("+%d more", len(st.Data)-i)))
				break
			}
			rows = append(rows, renderJobRow(job, inner))
		}
	}

	return renderSection("Jobs", m.headerValue(st.Loading, fmt.Sprintf("%d", len(st.Data))), rows, width)
}

func renderJobRow(job api.Job, inner int) string {
	dot := lipgloss.NewStyle().Foreground(JobStatusColor(job.Status)).Render(IndicatorDot)

	var meta []string
	if start := format.Time(job.StartTime); start != "" {
		meta = append(meta, start)
	}
	if est := format.Duration(job.EstimatedDuration.String()); est != "" {
		meta = append(meta, "~"+est)
	}
	tail := strings.Join(meta, "  ")

	nameWidth := inner - 2
	if tail != "" {
		nameWidth -= lipgloss.Width(tail) + 2
	}
	row := dot + " " + ValueStyle.Render(truncateWithEllipsis(job.Name, nameWidth))
	if tail != "" {
		row = padRight(row, inner-lipgloss.Width(tail)) + MutedStyle.Render(tail)
	}
	return row
}

// renderPerformanceCard renders one graph per metric series.
func (m Model) renderPerformanceCard(width int) string {
	st := m.snap.Performance
	inner := innerWidth(width)
	title := fmt.Sprintf("last %dh", m.snap.PerformanceHours)

	var rows []string
	if st.Err != "" {
		rows = append(rows, errorRow(st.Err))
	}

	if len(st.Data) == 0 {
		rows = append(rows, MutedStyle.Render("No performance data"))
		return renderSection("Performance", m.headerValue(st.Loading, title), rows, width)
	}

	graphHeight := cardGraphHeight
	if m.LayoutMode() == LayoutWide {
		graphHeight = cardWideGraphHeight
	}

	series := []struct {
		label string
		field dashboard.MetricField
		unit  string
	}{
		{"Queries", dashboard.FieldQueries, ""},
		{"CPU", dashboard.FieldCPU, "%"},
		{"Memory", dashboard.FieldMemory, "%"},
	}
	for i, s := range series {
		if i > 0 {
			rows = append(rows, "")
		}
		rows = append(rows, metricSummary(st.Data, s.label, s.field, s.unit))

		data := dashboard.Series(st.Data, s.field)
		if m.LayoutMode() == LayoutMinimal {
			continue
		}
		var graph string
		if s.field == dashboard.FieldQueries {
			graph = RenderCountGraph(data, inner, graphHeight, ColorGraph)
		} else {
			graph = RenderPercentGraph(data, inner, graphHeight)
		}
		rows = append(rows, strings.Split(graph, "\n")...)
	}

	return renderSection("Performance", m.headerValue(st.Loading, title), rows, width)
}

func metricSummary(points []api.MetricPoint, label string, field dashboard.MetricField, unit string) string {
	var latest float64
	if p := dashboard.LatestMetric(points); p != nil {
		latest = field.Value(*p)
	}
	return labelCell(label) +
		MutedStyle.Render("now ") + ValueStyle.Render(format.Float(latest)+unit) +
		MutedStyle.Render("  avg ") + ValueStyle.Render(format.Float(dashboard.AverageValue(points, field))+unit) +
		MutedStyle.Render("  max ") + ValueStyle.Render(format.Float(dashboard.MaxValue(points, field))+unit)
}

// renderLogsCard renders the most recent log lines.
func (m Model) renderLogsCard(width int) string {
	st := m.snap.Logs
	inner := innerWidth(width)

	var rows []string
	if st.Err != "" {
		rows = append(rows, errorRow(st.Err))
	}

	if len(st.Data) == 0 {
		rows = append(rows, MutedStyle.Render("No log entries"))
	}
	for i, entry := range st.Data {
		if i == cardMaxLogLines {
			rows = append(rows, MutedStyle.Render(fmt.Sprintf("+%d more, press l to view all", len(st.Data)-i)))
			break
		}
		rows = append(rows, renderLogRow(entry, inner))
	}

	return renderSection("Logs", m.headerValue(st.Loading, fmt.Sprintf("%d", len(st.Data))), rows, width)
}

func renderLogRow(entry api.LogEntry, inner int) string {
	symbol := lipgloss.NewStyle().Foreground(SeverityColor(entry.Type)).Render(SeveritySymbol(entry.Type))
	ts := format.Time(entry.Timestamp)
	prefix := symbol + " "
	if ts != "" {
		prefix = MutedStyle.Render(ts) + " " + prefix
	}
	msgWidth := inner - lipgloss.Width(prefix)
	return prefix + ValueStyle.Render(truncateWithEllipsis(entry.Message, msgWidth))
}

// updatedLabel renders "updated 5 seconds ago" for a feed timestamp.
func (m Model) updatedLabel(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return format.Ago(t, m.now())
}
