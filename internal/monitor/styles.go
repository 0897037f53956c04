package monitor

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/dbmon/internal/api"
)

// Dashboard color palette - Gen Z Electric Synthwave
const (
	// Background colors (glassmorphism-inspired)
	ColorDarkBg    = lipgloss.Color("#0A0A0F") // Deep void
	ColorSurfaceBg = lipgloss.Color("#12121A") // Dark surface
	ColorBorder    = lipgloss.Color("#2A2A4A") // Glass border (purple tint)

	// Semantic colors for metrics - neon style
	ColorHealthy  = lipgloss.Color("#39FF14") // Neon green
	ColorWarning  = lipgloss.Color("#FFAA00") // Electric amber
	ColorCritical = lipgloss.Color("#FF0055") // Hot red-pink
	ColorInfo     = lipgloss.Color("#4D9DFF") // Electric blue

	// Text colors
	ColorTextPrimary   = lipgloss.Color("#FFFFFF") // Pure white
	ColorTextSecondary = lipgloss.Color("#B4B4D0") // Lavender gray
	ColorTextMuted     = lipgloss.Color("#6B6B8D") // Purple-gray

	// Accent colors - neon pink primary, cyan secondary
	ColorAccent    = lipgloss.Color("#FF2E97") // Neon pink
	ColorAccentDim = lipgloss.Color("#BF40FF") // Neon purple

	// Graph colors
	ColorGraph = lipgloss.Color("#00FFFF") // Neon cyan
)

// Thresholds for gauge severity levels
const (
	WarningThreshold  = 70.0
	CriticalThreshold = 90.0
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorSurfaceBg).
			Bold(true).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	ErrorLineStyle = lipgloss.NewStyle().
			Foreground(ColorCritical)

	// Connection form box; the accent border marks keyboard focus.
	FormStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	FormFocusedStyle = FormStyle.
				BorderForeground(ColorAccent)

	PlaceholderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorBorder).
				Foreground(ColorTextSecondary).
				Padding(1, 4).
				Align(lipgloss.Center)
)

// Status indicator characters
const (
	IndicatorConnected    = "◉"
	IndicatorDisconnected = "◌"
	IndicatorDot          = "●"
)

// MetricColor returns the color for a percentage gauge:
// green < 70%, amber 70-90%, red >= 90%.
func MetricColor(percent float64) lipgloss.Color {
	switch {
	case percent >= CriticalThreshold:
		return ColorCritical
	case percent >= WarningThreshold:
		return ColorWarning
	default:
		return ColorHealthy
	}
}

// HealthColor maps a database health classification to a color.
func HealthColor(h api.Health) lipgloss.Color {
	switch h {
	case api.HealthHealthy:
		return ColorHealthy
	case api.HealthWarning:
		return ColorWarning
	case api.HealthCritical:
		return ColorCritical
	default:
		return ColorTextMuted
	}
}

// SeverityColor maps an issue or log severity to a color.
func SeverityColor(s api.Severity) lipgloss.Color {
	switch s {
	case api.SeverityError:
		return ColorCritical
	case api.SeverityWarning:
		return ColorWarning
	case api.SeverityInfo:
		return ColorInfo
	default:
		return ColorTextMuted
	}
}

// JobStatusColor maps a job state to a color.
func JobStatusColor(status string) lipgloss.Color {
	switch status {
	case api.JobRunning:
		return ColorHealthy
	case api.JobQueued:
		return ColorWarning
	case api.JobScheduled:
		return ColorInfo
	default:
		return ColorTextMuted
	}
}

// SeveritySymbol is the glyph shown next to an issue or log line.
func SeveritySymbol(s api.Severity) string {
	switch s {
	case api.SeverityError:
		return "✗"
	case api.SeverityWarning:
		return "▲"
	case api.SeverityInfo:
		return "●"
	default:
		return "○"
	}
}

// ProgressBar renders a bracketless gauge with threshold-based coloring.
func ProgressBar(width int, percent float64) string {
	if width < 1 {
		width = 1
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	filled := int(percent / 100.0 * float64(width))
	bar := strings.Repeat("▰", filled) + strings.Repeat("▱", width-filled)
	return lipgloss.NewStyle().Foreground(MetricColor(percent)).Render(bar)
}

// SectionHeader renders a section header with the title on the left and value on the right.
// Format: ╭─ Title ────────────────────────────────────── Value ╮
func SectionHeader(title, value string, width int) string {
	if width < 10 {
		width = 10
	}

	// "╭─ " + title + " " on the left, " " + value + " ╮" on the right
	leftWidth := 3 + lipgloss.Width(title) + 1
	rightWidth := 1 + lipgloss.Width(value) + 2

	fillWidth := width - leftWidth - rightWidth
	if fillWidth < 1 {
		fillWidth = 1
	}

	borderStyle := lipgloss.NewStyle().Foreground(ColorBorder)
	titleStyle := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(ColorGraph).Bold(true)

	return borderStyle.Render("╭─ ") +
		titleStyle.Render(title) +
		borderStyle.Render(" "+strings.Repeat("─", fillWidth)+" ") +
		valueStyle.Render(value) +
		borderStyle.Render(" ╮")
}

// SectionFooter renders the bottom border of a section.
// Format: ╰────────────────────────────────────────────────────╯
func SectionFooter(width int) string {
	if width < 2 {
		width = 2
	}
	return lipgloss.NewStyle().Foreground(ColorBorder).Render("╰" + strings.Repeat("─", width-2) + "╯")
}

// SectionDivider renders a full-width rule inside a section.
func SectionDivider(width int) string {
	if width < 4 {
		width = 4
	}
	return lipgloss.NewStyle().Foreground(ColorBorder).Render("├" + strings.Repeat("─", width-2) + "┤")
}

// SectionContentLine renders a content line with left and right borders, padded to width.
// Format: │ content                                              │
// Content wider than the section is cut so the right border stays aligned.
func SectionContentLine(content string, width int) string {
	if width < 4 {
		width = 4
	}

	borderStyle := lipgloss.NewStyle().Foreground(ColorBorder)
	innerWidth := width - 4

	if lipgloss.Width(content) > innerWidth {
		content = lipgloss.NewStyle().MaxWidth(innerWidth).Render(content)
	}

	padding := innerWidth - lipgloss.Width(content)
	if padding < 0 {
		padding = 0
	}

	return borderStyle.Render("│") + " " + content + strings.Repeat(" ", padding) + " " + borderStyle.Render("│")
}
