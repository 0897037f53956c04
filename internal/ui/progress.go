package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Progress bar characters.
const (
	progressFilled = '▰'
	progressEmpty  = '▱'
)

// ClampPercent clamps a percentage to the 0-100 range.
func ClampPercent(percent float64) float64 {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// RenderProgressBar renders a gauge as "[▰▰▰▱▱▱]  45%".
// Colors follow the resource thresholds: green < 60%, yellow < 80%, red above.
func RenderProgressBar(percent float64, width int) string {
	if width <= 0 {
		return ""
	}

	percent = ClampPercent(percent)
	filled := int((percent / 100.0) * float64(width))

	var sb strings.Builder
	sb.Grow(width*3 + 2)
	sb.WriteRune('[')
	for i := 0; i < width; i++ {
		if i < filled {
			sb.WriteRune(progressFilled)
		} else {
			sb.WriteRune(progressEmpty)
		}
	}
	sb.WriteRune(']')

	style := lipgloss.NewStyle().Foreground(getThresholdColor(percent))
	return style.Render(sb.String()) + fmt.Sprintf(" %3.0f%%", percent)
}
