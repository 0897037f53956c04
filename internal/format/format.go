// Package format turns backend values into short display strings.
package format

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/rileyhilliard/dbmon/internal/ui"
)

// timestampLayouts are tried in order when parsing backend timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// ParseTimestamp parses the timestamp formats the backend emits.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Time renders a timestamp as local HH:MM. Empty input yields "" and
// input that isn't a recognizable timestamp is returned unchanged.
func Time(timestamp string) string {
	if strings.TrimSpace(timestamp) == "" {
		return ""
	}
	t, ok := ParseTimestamp(timestamp)
	if !ok {
		return timestamp
	}
	return t.Local().Format("15:04")
}

// DurationMinutes renders a minute count as "1d 2h 3m". Zero, negative and
// NaN yield "".
func DurationMinutes(minutes float64) string {
	if minutes <= 0 || math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		return ""
	}

	total := int64(minutes)
	days := total / (60 * 24)
	hours := (total % (60 * 24)) / 60
	mins := total % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if mins > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%dm", mins))
	}
	return strings.Join(parts, " ")
}

// Duration renders a wire duration that may be a minute count or free text.
// Numeric values go through DurationMinutes; anything else passes through.
func Duration(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	return DurationMinutes(v)
}

// Percentage renders v with the given number of decimals and a % sign.
func Percentage(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	return strconv.FormatFloat(v, 'f', decimals, 64) + "%"
}

// Number renders an integer with thousands separators.
func Number(v int) string {
	return humanize.Comma(int64(v))
}

// Float renders a float with thousands separators and at most two decimals.
func Float(v float64) string {
	return humanize.CommafWithDigits(v, 2)
}

// Ago renders t relative to now ("3 minutes ago"). The zero time is "never".
func Ago(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	if now.Sub(t) < time.Second {
		return "just now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

var passwordPattern = regexp.MustCompile(`(?i)(password\s*=\s*)([^;]+)`)

// MaskPassword hides the Password= value of a connection string.
func MaskPassword(connectionString string) string {
	return passwordPattern.ReplaceAllString(connectionString, "${1}******")
}

// SeverityColor maps an issue or log severity to a color.
func SeverityColor(severity string) lipgloss.Color {
	switch strings.ToLower(strings.TrimSpace(severity)) {
	case "error":
		return ui.ColorError
	case "warning":
		return ui.ColorWarning
	case "info":
		return ui.ColorSecondary
	default:
		return ui.ColorMuted
	}
}

// StatusColor maps a database or job status to a color.
func StatusColor(status string) lipgloss.Color {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "healthy", "online", "running", "success":
		return ui.ColorSuccess
	case "warning", "queued", "pending":
		return ui.ColorWarning
	case "error", "offline", "failed":
		return ui.ColorError
	case "scheduled":
		return ui.ColorSecondary
	default:
		return ui.ColorMuted
	}
}
