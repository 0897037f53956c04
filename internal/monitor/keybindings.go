package monitor

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/dbmon/internal/dashboard"
)

// Focus identifies which part of the screen receives keystrokes.
type Focus int

const (
	FocusForm Focus = iota
	FocusDashboard
)

// String returns a human-readable label for the focus.
func (f Focus) String() string {
	if f == FocusForm {
		return "form"
	}
	return "dashboard"
}

// ViewMode defines the current display mode of the dashboard.
type ViewMode int

const (
	ViewDashboard ViewMode = iota
	ViewLogs
)

// Key bindings as constants for consistency.
const (
	KeyQuit              = "q"
	KeyQuitAlt           = "ctrl+c"
	KeySubmit            = "enter"
	KeyRefresh           = "r"
	KeyTogglePassword    = "p"
	KeyTogglePasswordAlt = "ctrl+p"
	KeyFocus             = "tab"
	KeyBack              = "esc"
	KeyLogs              = "l"
	KeyToggleHelp        = "?"
	keyFeedFirst         = '1'
	keyFeedLast          = '5'
)

// feedForKey maps the 1-5 refresh keys to feed names.
func feedForKey(key string) (string, bool) {
	if len(key) != 1 || key[0] < keyFeedFirst || key[0] > keyFeedLast {
		return "", false
	}
	idx := int(key[0] - keyFeedFirst)
	if idx >= len(dashboard.FeedOrder) {
		return "", false
	}
	return dashboard.FeedOrder[idx], true
}

// HandleKeyMsg processes keyboard input and returns the command to run.
// Returns false when the key should fall through to the focused widget.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()

	if key == KeyQuitAlt {
		m.quitting = true
		return true, tea.Quit
	}

	// Help overlay swallows everything until it is closed.
	if m.showHelp {
		if key == KeyToggleHelp || key == KeyBack || key == KeyQuit {
			m.showHelp = false
		}
		return true, nil
	}

	if m.focus == FocusForm {
		switch key {
		case KeySubmit:
			return true, m.toggleConnection()
		case KeyFocus, KeyBack:
			m.focusDashboard()
			return true, nil
		case KeyTogglePasswordAlt:
			m.togglePassword()
			return true, nil
		}
		return false, nil
	}

	if m.viewMode == ViewLogs && (key == KeyBack || key == KeyLogs) {
		m.viewMode = ViewDashboard
		return true, nil
	}

	if feed, ok := feedForKey(key); ok {
		m.dash.RefreshFeed(feed)
		return true, nil
	}

	switch key {
	case KeyQuit:
		m.quitting = true
		return true, tea.Quit

	case KeyToggleHelp:
		m.showHelp = true
		return true, nil

	case KeySubmit:
		return true, m.toggleConnection()

	case KeyRefresh:
		m.dash.RefreshAll()
		return true, nil

	case KeyTogglePassword, KeyTogglePasswordAlt:
		m.togglePassword()
		return true, nil

	case KeyFocus:
		return true, m.focusForm()

	case KeyLogs:
		m.viewMode = ViewLogs
		m.updateLogViewport()
		return true, nil
	}

	return false, nil
}
