package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// TableColumn defines a table column with name and width.
type TableColumn struct {
	Title string
	Width int
}

// NewTable creates a new Bubbles table with default styling.
func NewTable(columns []TableColumn, rows []table.Row) table.Model {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{
			Title: c.Title,
			Width: c.Width,
		}
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+1), // +1 for header
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		BorderBottom(true).
		Bold(true).
		Foreground(ColorPrimary)
	s.Cell = s.Cell.
		Foreground(ColorPrimary)
	// Non-interactive: the selected row must look like every other row.
	s.Selected = s.Cell

	t.SetStyles(s)
	return t
}

// RenderSimpleTable renders a non-interactive table string for CLI output.
func RenderSimpleTable(columns []TableColumn, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		tableRows[i] = table.Row(row)
	}

	return NewTable(columns, tableRows).View()
}

// ListRow is one entry of a grouped list.
type ListRow struct {
	Level   string // "error", "warning", "info"; anything else renders muted
	Group   string // Heading the row is listed under
	Message string
	Detail  string // Optional second line
}

// RenderGroupedList renders rows under their group headings, preserving the
// order in which groups first appear.
func RenderGroupedList(rows []ListRow, empty string) string {
	if len(rows) == 0 {
		return MutedStyle().Render(empty) + "\n"
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	mutedStyle := MutedStyle()

	groups := make(map[string][]ListRow)
	var order []string
	for _, row := range rows {
		if _, ok := groups[row.Group]; !ok {
			order = append(order, row.Group)
		}
		groups[row.Group] = append(groups[row.Group], row)
	}

	var b strings.Builder
	for _, g := range order {
		if g != "" {
			b.WriteString(headerStyle.Render(g) + "\n")
		}
		for _, row := range groups[g] {
			b.WriteString("  " + levelIcon(row.Level) + " " + row.Message + "\n")
			if row.Detail != "" {
				b.WriteString("    " + mutedStyle.Render(row.Detail) + "\n")
			}
		}
	}
	return b.String()
}

func levelIcon(level string) string {
	switch level {
	case "error":
		return ErrorStyle().Render(SymbolFail)
	case "warning":
		return lipgloss.NewStyle().Foreground(ColorWarning).Render(SymbolWarning)
	case "info":
		return lipgloss.NewStyle().Foreground(ColorSecondary).Render(SymbolComplete)
	default:
		return MutedStyle().Render(SymbolPending)
	}
}

// padRight pads a string to the specified visible width.
func padRight(s string, width int) string {
	visibleLen := lipgloss.Width(s)
	if visibleLen >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visibleLen)
}
