// Package ui provides terminal output components for dbmon's non-interactive
// commands and the shared palette used by the monitor dashboard.
//
// # Components Overview
//
//	Spinner           - Animated status line while waiting on the backend
//	RenderHeader      - Branded title block for command output
//	RenderKeyValues   - Aligned label/value lines
//	RenderProgressBar - Gauge with color thresholds
//	RenderSparkline   - Single-row block-character series
//	RenderSimpleTable - Bubbles table rendered once, for CLI output
//	RenderGroupedList - Severity-iconed rows under group headings
//
// # Color Scheme
//
// Semantic colors are ANSI codes for broad terminal compatibility:
//
//	ColorSuccess   (green)  - Healthy, connected, running
//	ColorError     (red)    - Errors, offline
//	ColorWarning   (yellow) - Warnings, queued
//	ColorInfo      (cyan)   - Informational messages
//	ColorMuted     (gray)   - Secondary text, timing info
//	ColorSecondary (blue)   - Info severity, scheduled jobs
//
// Use DisableColors() to switch to monochrome output (for --no-color).
//
// # Spinner Usage
//
//	s := ui.NewSpinner("Connecting", os.Stderr)
//	s.Start()
//	// ... do work ...
//	s.Success() // or s.Fail()
//
// For Bubble Tea programs, NewBubblesSpinner returns a spinner.Model using
// the same glyph family.
package ui
