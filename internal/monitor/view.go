package monitor

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/dbmon/internal/format"
)

// renderDashboard renders the complete dashboard view.
func (m Model) renderDashboard() string {
	width := m.contentWidth()

	var b strings.Builder
	b.WriteString(m.renderHeader(width))
	b.WriteString("\n")
	b.WriteString(m.renderConnectionForm(width))
	b.WriteString("\n")

	if m.snap.Session.Connected {
		b.WriteString(m.renderCards(width))
	} else {
		b.WriteString(m.renderPlaceholder(width))
	}

	if m.ShowFooter() {
		b.WriteString("\n")
		b.WriteString(m.renderFooter())
	}
	return b.String()
}

// renderHeader renders the title bar with connection state and freshness.
func (m Model) renderHeader(width int) string {
	title := lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true).
		Render("dbmon")

	sess := m.snap.Session
	var state string
	switch {
	case sess.Loading && sess.Connected:
		state = m.spinner.View() + LabelStyle.Render(" disconnecting")
	case sess.Loading:
		state = m.spinner.View() + LabelStyle.Render(" connecting")
	case sess.Connected:
		state = lipgloss.NewStyle().Foreground(ColorHealthy).Render(IndicatorConnected + " connected")
		if !sess.ConnectedAt.IsZero() {
			state += MutedStyle.Render(" since " + sess.ConnectedAt.Local().Format("15:04"))
		}
	default:
		state = MutedStyle.Render(IndicatorDisconnected + " disconnected")
	}

	left := title + LabelStyle.Render(" | ") + state

	var right string
	if sess.Connected {
		if last := m.lastUpdated(); !last.IsZero() {
			right = MutedStyle.Render("updated " + format.Ago(last, m.now()))
		}
		if m.snap.AnyLoading() {
			right = m.spinner.View() + " " + right
		}
	}

	gap := width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return HeaderStyle.Render(left + strings.Repeat(" ", gap) + right)
}

// lastUpdated is the most recent completion across all feeds.
func (m Model) lastUpdated() time.Time {
	var last time.Time
	for _, t := range []time.Time{
		m.snap.Status.LastUpdated,
		m.snap.Issues.LastUpdated,
		m.snap.Jobs.LastUpdated,
		m.snap.Logs.LastUpdated,
		m.snap.Performance.LastUpdated,
	} {
		if t.After(last) {
			last = t
		}
	}
	return last
}

// renderConnectionForm renders the connection string input and its action.
func (m Model) renderConnectionForm(width int) string {
	sess := m.snap.Session

	var value string
	if m.inputEditable() {
		value = m.input.View()
	} else {
		conn := sess.ConnectionString
		if !m.showPassword {
			conn = format.MaskPassword(conn)
		}
		value = ValueStyle.Render(truncateWithEllipsis(conn, width-8))
	}

	var action string
	switch {
	case sess.Loading:
		action = m.spinner.View() + MutedStyle.Render(" working...")
	case sess.Connected:
		action = MutedStyle.Render("enter ") + lipgloss.NewStyle().Foreground(ColorCritical).Render("Disconnect")
	default:
		action = MutedStyle.Render("enter ") + lipgloss.NewStyle().Foreground(ColorHealthy).Render("Connect")
	}

	lines := []string{
		LabelStyle.Render("Connection string"),
		value,
		action,
	}
	if sess.Error != "" {
		lines = append(lines, errorRow(sess.Error))
	}

	style := FormStyle
	if m.focus == FocusForm {
		style = FormFocusedStyle
	}
	return style.Width(width - 2).Render(strings.Join(lines, "\n"))
}

// renderPlaceholder is shown in place of the cards while disconnected.
func (m Model) renderPlaceholder(width int) string {
	msg := lipgloss.NewStyle().Foreground(ColorTextPrimary).Bold(true).Render("Not Connected") + "\n\n" +
		"Enter a connection string above and press enter to connect."
	return PlaceholderStyle.Width(width - 2).Render(msg)
}

// renderCards arranges the feed cards for the current layout mode.
func (m Model) renderCards(width int) string {
	if m.LayoutMode() >= LayoutStandard {
		colWidth := (width - 1) / 2
		left := lipgloss.JoinVertical(lipgloss.Left,
			m.renderStatusCard(colWidth),
			m.renderPerformanceCard(colWidth),
		)
		right := lipgloss.JoinVertical(lipgloss.Left,
			m.renderIssuesCard(width-1-colWidth),
			m.renderJobsCard(width-1-colWidth),
		)
		top := lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
		return lipgloss.JoinVertical(lipgloss.Left, top, m.renderLogsCard(width))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatusCard(width),
		m.renderIssuesCard(width),
		m.renderJobsCard(width),
		m.renderPerformanceCard(width),
		m.renderLogsCard(width),
	)
}

// renderFooter renders the keyboard help footer for the focused area.
func (m Model) renderFooter() string {
	var hints []string
	if m.focus == FocusForm {
		hints = []string{"enter connect", "ctrl+p show password", "tab dashboard", "ctrl+c quit"}
	} else {
		toggle := "enter connect"
		if m.snap.Session.Connected {
			toggle = "enter disconnect"
		}
		hints = []string{"q quit", "r refresh", "1-5 refresh feed", toggle, "p password", "l logs", "tab edit", "? help"}
	}
	return FooterStyle.Render(strings.Join(hints, " | "))
}
