// Package monitor implements the interactive TUI dashboard for a database
// monitored through the dbmon backend.
//
// The screen has a connection form on top and, once a session is open, one
// card per feed: status, issues, jobs, performance and logs. Each card shows
// its feed's last good data, a spinner while a fetch is in flight and the
// last error above the stale data.
//
// # Architecture
//
// The package uses the Bubble Tea framework (Model-Update-View):
//
//   - Model: Holds a dashboard.Snapshot plus UI state (focus, view, input)
//   - Update: Processes keystrokes, session results and change notifications
//   - View: Renders the current snapshot to a string for display
//
// Polling is not driven from here. The dashboard package owns the session
// and the feed pollers; the model only listens on Dashboard.Changes and
// re-reads the snapshot on every notification.
//
// # Message Flow
//
//  1. waitForChange blocks on Dashboard.Changes and returns a changeMsg
//  2. Update copies a fresh snapshot and pushes new status samples to History
//  3. View re-renders; a new waitForChange is issued
//
// Connect and disconnect run as commands and report back with sessionDoneMsg.
//
// # Layout Modes
//
//	LayoutMinimal  (<80 cols)  - Single column, numbers only
//	LayoutCompact  (80-120)    - Single column with graphs
//	LayoutStandard (120-160)   - Two columns, logs below
//	LayoutWide     (160+)      - Two columns with taller graphs
//
// # Keyboard Shortcuts
//
//	q, Ctrl+C   - Quit
//	Enter       - Connect / disconnect
//	r           - Refresh all feeds
//	1-5         - Refresh a single feed
//	p, Ctrl+P   - Toggle password visibility
//	Tab         - Switch focus between form and dashboard
//	l           - Full log view
//	Esc         - Back
//	?           - Toggle help overlay
package monitor
