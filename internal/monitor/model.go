package monitor

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/dbmon/internal/dashboard"
	"github.com/rileyhilliard/dbmon/internal/ui"
)

// LayoutMode represents the responsive layout mode based on terminal size.
type LayoutMode int

const (
	// LayoutMinimal is for terminals < 80 columns: single column, no graphs
	LayoutMinimal LayoutMode = iota
	// LayoutCompact is for terminals 80-120 columns: single column with sparklines
	LayoutCompact
	// LayoutStandard is for terminals 120-160 columns: two columns
	LayoutStandard
	// LayoutWide is for terminals 160+ columns: two columns with taller graphs
	LayoutWide
)

// Width breakpoints for layout modes
const (
	BreakpointCompact  = 80
	BreakpointStandard = 120
	BreakpointWide     = 160
)

// Height breakpoints for layout adjustments
const (
	HeightMinimal  = 24
	HeightStandard = 40
)

// defaultWidth is used before the first WindowSizeMsg arrives.
const defaultWidth = 100

// Options configures the dashboard model.
type Options struct {
	// Context bounds connect and disconnect calls. Defaults to Background.
	Context context.Context
	// Now is the clock used for "updated ... ago" labels. Defaults to time.Now.
	Now func() time.Time
	// HistorySize is the number of status samples kept for sparklines.
	HistorySize int
	// AutoConnect connects on start when a connection string is preset.
	AutoConnect bool
}

// Model is the Bubble Tea model for the database dashboard.
type Model struct {
	ctx  context.Context
	dash *dashboard.Dashboard
	snap dashboard.Snapshot

	input        textinput.Model
	spinner      spinner.Model
	focus        Focus
	showPassword bool
	showHelp     bool
	viewMode     ViewMode
	quitting     bool
	autoConnect  bool

	history    *History
	historyFor string    // session the history belongs to
	lastSample time.Time // LastUpdated of the newest status sample in history

	// Logs view viewport for scrollable content
	logViewport   viewport.Model
	viewportReady bool

	width  int
	height int
	now    func() time.Time
}

// changeMsg signals that the session or a feed changed.
type changeMsg struct{}

// sessionOp names the controller call a sessionDoneMsg reports on.
type sessionOp int

const (
	opConnect sessionOp = iota
	opDisconnect
)

// sessionDoneMsg reports that a connect or disconnect call returned.
type sessionDoneMsg struct {
	op  sessionOp
	err error
}

// NewModel creates a dashboard model around d.
func NewModel(d *dashboard.Dashboard, opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "Server=localhost;Database=master;User Id=sa;Password=..."
	ti.CharLimit = 2048
	ti.Width = defaultWidth - 8
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.SetValue(d.Session.State().ConnectionString)

	m := Model{
		ctx:     ctx,
		dash:    d,
		input:   ti,
		spinner: ui.NewBubblesSpinner(ColorAccent),
		history:     NewHistory(opts.HistorySize),
		now:         now,
		autoConnect: opts.AutoConnect,
	}
	m.syncSnapshot()
	if m.snap.Session.Connected {
		m.focus = FocusDashboard
	} else {
		m.focus = FocusForm
		m.input.Focus()
	}
	return m
}

// Init starts the spinner, the cursor blink and the change listener, and
// connects right away when AutoConnect is set and a string is preset.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textinput.Blink,
		m.spinner.Tick,
		waitForChange(m.dash.Changes()),
	}
	if cmd := m.autoConnectCmd(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// autoConnectCmd is the connect Init issues, nil when there is nothing to do.
func (m *Model) autoConnectCmd() tea.Cmd {
	state := m.snap.Session
	if !m.autoConnect || state.Connected || state.Loading || strings.TrimSpace(state.ConnectionString) == "" {
		return nil
	}
	return m.connectCmd()
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		handled, cmd := m.HandleKeyMsg(msg)
		if handled {
			return m, cmd
		}
		if m.focus == FocusForm {
			if !m.inputEditable() {
				return m, nil
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		if m.viewMode == ViewLogs {
			var cmd tea.Cmd
			m.logViewport, cmd = m.logViewport.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(m.contentWidth()-8, 10)
		m.resizeLogViewport()
		return m, nil

	case changeMsg:
		m.syncSnapshot()
		return m, waitForChange(m.dash.Changes())

	case sessionDoneMsg:
		m.syncSnapshot()
		switch {
		case msg.op == opConnect && m.snap.Session.Connected:
			m.focusDashboard()
		case msg.op == opDisconnect && !m.snap.Session.Connected:
			m.viewMode = ViewDashboard
			return m, m.focusForm()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Cursor blink and other widget-internal messages.
	if m.focus == FocusForm {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	if m.viewMode == ViewLogs {
		return m.renderLogsView()
	}
	return m.renderDashboard()
}

// waitForChange blocks on the dashboard's change channel and reports one change.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return changeMsg{}
	}
}

// connectCmd runs Session.Connect off the UI goroutine.
func (m *Model) connectCmd() tea.Cmd {
	ctx, session := m.ctx, m.dash.Session
	return func() tea.Msg {
		return sessionDoneMsg{op: opConnect, err: session.Connect(ctx)}
	}
}

// disconnectCmd runs Session.Disconnect off the UI goroutine.
func (m *Model) disconnectCmd() tea.Cmd {
	ctx, session := m.ctx, m.dash.Session
	return func() tea.Msg {
		return sessionDoneMsg{op: opDisconnect, err: session.Disconnect(ctx)}
	}
}

// toggleConnection connects with the typed connection string, or disconnects
// when a session is open. Ignored while a call is in flight.
func (m *Model) toggleConnection() tea.Cmd {
	state := m.dash.Session.State()
	if state.Loading {
		return nil
	}
	if state.Connected {
		return m.disconnectCmd()
	}
	m.dash.Session.UpdateConnectionString(m.input.Value())
	return m.connectCmd()
}

// syncSnapshot copies dashboard state into the model and feeds the history.
func (m *Model) syncSnapshot() {
	m.snap = m.dash.Snapshot()

	if id := m.snap.Session.SessionID; id != "" && id != m.historyFor {
		m.history.Clear()
		m.historyFor = id
		m.lastSample = time.Time{}
	}

	status := m.snap.Status
	if m.snap.Session.Connected && status.Err == "" && status.LastUpdated.After(m.lastSample) {
		m.history.Push(status.Data)
		m.lastSample = status.LastUpdated
	}

	if m.viewMode == ViewLogs {
		m.updateLogViewport()
	}
}

// inputEditable reports whether the connection string can be edited.
func (m Model) inputEditable() bool {
	return !m.snap.Session.Connected && !m.snap.Session.Loading
}

func (m *Model) focusDashboard() {
	m.focus = FocusDashboard
	m.input.Blur()
}

// focusForm moves focus to the connection input when it is editable.
func (m *Model) focusForm() tea.Cmd {
	if !m.inputEditable() {
		return nil
	}
	m.focus = FocusForm
	return m.input.Focus()
}

func (m *Model) togglePassword() {
	m.showPassword = !m.showPassword
	if m.showPassword {
		m.input.EchoMode = textinput.EchoNormal
	} else {
		m.input.EchoMode = textinput.EchoPassword
	}
}

// Snapshot returns the dashboard state the last render was based on.
func (m Model) Snapshot() dashboard.Snapshot {
	return m.snap
}

// Focus returns which part of the screen receives keystrokes.
func (m Model) Focus() Focus {
	return m.focus
}

// LayoutMode returns the current layout mode based on terminal width.
func (m Model) LayoutMode() LayoutMode {
	w := m.contentWidth()
	switch {
	case w >= BreakpointWide:
		return LayoutWide
	case w >= BreakpointStandard:
		return LayoutStandard
	case w >= BreakpointCompact:
		return LayoutCompact
	default:
		return LayoutMinimal
	}
}

// ShowFooter returns true if the terminal is tall enough to show the footer.
func (m Model) ShowFooter() bool {
	return m.height == 0 || m.height >= HeightMinimal
}

// contentWidth is the terminal width, or a default before the first resize.
func (m Model) contentWidth() int {
	if m.width <= 0 {
		return defaultWidth
	}
	return m.width
}
