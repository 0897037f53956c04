package monitor

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/dbmon/internal/api"
	apitesting "github.com/rileyhilliard/dbmon/internal/api/testing"
	"github.com/rileyhilliard/dbmon/internal/dashboard"
	feedtesting "github.com/rileyhilliard/dbmon/internal/feed/testing"
	"github.com/rileyhilliard/dbmon/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConn = "Server=db;Database=master;User Id=sa;Password=hunter2;"

var testStart = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	backend *apitesting.FakeBackend
	clock   *feedtesting.FakeClock
	dash    *dashboard.Dashboard
}

func newFixture(t *testing.T, conn string) *fixture {
	t.Helper()
	b := apitesting.NewFakeBackend("sess-1")
	t.Cleanup(b.Close)

	clock := feedtesting.NewFakeClock(testStart)
	client := api.NewClient(b.URL(), api.WithLogger(logger.Noop()))
	d := dashboard.New(client, dashboard.Options{
		ConnectionString: conn,
		Clock:            clock,
		Logger:           logger.Noop(),
	})
	t.Cleanup(d.Close)
	return &fixture{backend: b, clock: clock, dash: d}
}

func (f *fixture) model() Model {
	return NewModel(f.dash, Options{Now: f.clock.Now})
}

// update runs one Update and unwraps the model.
func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

// connected returns a model whose session is open and whose feeds have all
// completed once.
func (f *fixture) connected(t *testing.T) Model {
	t.Helper()
	m := f.model()
	cmd := m.toggleConnection()
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	require.NoError(t, f.dash.WaitFirstFetch(context.Background()))
	m, _ = update(t, m, changeMsg{})
	require.True(t, m.Snapshot().Session.Connected)
	return m
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+p":
		return tea.KeyMsg{Type: tea.KeyCtrlP}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func TestNewModel_Disconnected(t *testing.T) {
	f := newFixture(t, testConn)
	m := f.model()

	assert.Equal(t, FocusForm, m.Focus())
	assert.True(t, m.input.Focused())
	assert.Equal(t, testConn, m.input.Value())
	assert.Equal(t, textinput.EchoPassword, m.input.EchoMode)
	assert.False(t, m.Snapshot().Session.Connected)
	assert.True(t, m.inputEditable())
}

func TestModel_Init(t *testing.T) {
	f := newFixture(t, testConn)
	m := f.model()
	assert.NotNil(t, m.Init())
}

func TestModel_AutoConnect(t *testing.T) {
	f := newFixture(t, testConn)
	m := NewModel(f.dash, Options{Now: f.clock.Now, AutoConnect: true})

	cmd := m.autoConnectCmd()
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.True(t, m.Snapshot().Session.Connected)
	assert.Equal(t, FocusDashboard, m.Focus())
	assert.Equal(t, 1, f.backend.CallCount("connect"))
}

func TestModel_AutoConnectSkipped(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		f := newFixture(t, testConn)
		m := f.model()
		assert.Nil(t, m.autoConnectCmd())
	})

	t.Run("no connection string", func(t *testing.T) {
		f := newFixture(t, "")
		m := NewModel(f.dash, Options{AutoConnect: true})
		assert.Nil(t, m.autoConnectCmd())
	})

	t.Run("already connected", func(t *testing.T) {
		f := newFixture(t, testConn)
		f.connected(t)
		m := NewModel(f.dash, Options{AutoConnect: true})
		assert.Nil(t, m.autoConnectCmd())
	})
}

func TestModel_ConnectMovesFocusToDashboard(t *testing.T) {
	f := newFixture(t, testConn)
	m := f.connected(t)

	assert.Equal(t, FocusDashboard, m.Focus())
	assert.False(t, m.input.Focused())
	assert.False(t, m.inputEditable())
	assert.Equal(t, "sess-1", m.Snapshot().Session.SessionID)
	assert.Equal(t, 1, f.backend.CallCount("connect"))
}

func TestModel_ConnectUsesTypedConnectionString(t *testing.T) {
	f := newFixture(t, "")
	m := f.model()
	m.input.SetValue("Server=typed;Password=x;")

	cmd := m.toggleConnection()
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.Equal(t, "Server=typed;Password=x;", m.Snapshot().Session.ConnectionString)
	calls := f.backend.Calls()
	require.NotEmpty(t, calls)
	assert.Contains(t, calls[0].Body, "Server=typed")
}

func TestModel_ConnectFailureKeepsForm(t *testing.T) {
	f := newFixture(t, testConn)
	f.backend.Fail("connect", http.StatusBadRequest, `{"message":"Login failed for user 'sa'"}`)
	m := f.model()

	cmd := m.toggleConnection()
	require.NotNil(t, cmd)
	msg := cmd()
	done, ok := msg.(sessionDoneMsg)
	require.True(t, ok)
	assert.Error(t, done.err)

	m, _ = update(t, m, msg)
	assert.Equal(t, FocusForm, m.Focus())
	assert.False(t, m.Snapshot().Session.Connected)
	assert.Equal(t, "Login failed for user 'sa'", m.Snapshot().Session.Error)
}

func TestModel_DisconnectReturnsToForm(t *testing.T) {
	f := newFixture(t, testConn)
	m := f.connected(t)
	m.viewMode = ViewLogs

	cmd := m.toggleConnection()
	require.NotNil(t, cmd)
	m, focusCmd := update(t, m, cmd())

	assert.False(t, m.Snapshot().Session.Connected)
	assert.Equal(t, FocusForm, m.Focus())
	assert.Equal(t, ViewDashboard, m.viewMode)
	assert.True(t, m.input.Focused())
	assert.NotNil(t, focusCmd)
	assert.Equal(t, 1, f.backend.CallCount("disconnect"))
}

func TestModel_HistoryFollowsStatusUpdates(t *testing.T) {
	f := newFixture(t, testConn)
	f.backend.SetStatus(api.StatusSnapshot{Status: api.StatusHealthy, CPU: 10, Memory: 20, DiskSpace: 30, ResponseTime: 5})
	m := f.connected(t)
	assert.Equal(t, 1, m.history.Count())

	// Same LastUpdated: no new sample.
	m, _ = update(t, m, changeMsg{})
	assert.Equal(t, 1, m.history.Count())

	f.backend.SetStatus(api.StatusSnapshot{Status: api.StatusHealthy, CPU: 50, Memory: 20, DiskSpace: 30, ResponseTime: 5})
	f.clock.Advance(time.Minute)
	f.dash.Status.FetchNow(context.Background())
	m, _ = update(t, m, changeMsg{})

	assert.Equal(t, 2, m.history.Count())
	assert.Equal(t, []float64{10, 50}, m.history.Get(GaugeCPU, 2))
}

func TestModel_HistoryIgnoresFailedFetches(t *testing.T) {
	f := newFixture(t, testConn)
	m := f.connected(t)
	require.Equal(t, 1, m.history.Count())

	f.backend.Fail("status", http.StatusInternalServerError, `{"message":"boom"}`)
	f.clock.Advance(time.Minute)
	f.dash.Status.FetchNow(context.Background())
	m, _ = update(t, m, changeMsg{})

	assert.Equal(t, "boom", m.Snapshot().Status.Err)
	assert.Equal(t, 1, m.history.Count())
}

func TestModel_HistoryClearedForNewSession(t *testing.T) {
	f := newFixture(t, testConn)
	m := f.connected(t)
	require.Equal(t, 1, m.history.Count())

	m.historyFor = "some-older-session"
	m.syncSnapshot()
	// Cleared, then the current status sample is pushed again.
	assert.Equal(t, 1, m.history.Count())
	assert.Equal(t, "sess-1", m.historyFor)
}

func TestModel_TogglePassword(t *testing.T) {
	f := newFixture(t, testConn)
	m := f.model()

	m.togglePassword()
	assert.True(t, m.showPassword)
	assert.Equal(t, textinput.EchoNormal, m.input.EchoMode)

	m.togglePassword()
	assert.False(t, m.showPassword)
	assert.Equal(t, textinput.EchoPassword, m.input.EchoMode)
}

func TestModel_TypingEditsInput(t *testing.T) {
	f := newFixture(t, "")
	m := f.model()

	m, _ = update(t, m, keyMsg("S"))
	m, _ = update(t, m, keyMsg("q"))
	assert.Equal(t, "Sq", m.input.Value())
	assert.False(t, m.quitting, "q types into the form instead of quitting")
}

func TestModel_WindowSize(t *testing.T) {
	f := newFixture(t, testConn)
	m := f.model()

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 140, Height: 50})
	assert.Equal(t, 140, m.width)
	assert.Equal(t, 50, m.height)
	assert.Equal(t, 132, m.input.Width)
	assert.True(t, m.viewportReady)
	assert.Equal(t, 140, m.logViewport.Width)
	assert.Equal(t, 50-logsViewChrome, m.logViewport.Height)
}

func TestModel_LayoutMode(t *testing.T) {
	tests := []struct {
		width  int
		expect LayoutMode
	}{
		{0, LayoutCompact}, // default width before the first resize
		{60, LayoutMinimal},
		{79, LayoutMinimal},
		{80, LayoutCompact},
		{119, LayoutCompact},
		{120, LayoutStandard},
		{159, LayoutStandard},
		{160, LayoutWide},
		{250, LayoutWide},
	}
	for _, tt := range tests {
		m := Model{width: tt.width}
		assert.Equal(t, tt.expect, m.LayoutMode(), "width %d", tt.width)
	}
}

func TestModel_ShowFooter(t *testing.T) {
	assert.True(t, Model{}.ShowFooter())
	assert.True(t, Model{height: HeightMinimal}.ShowFooter())
	assert.False(t, Model{height: HeightMinimal - 1}.ShowFooter())
}

func TestWaitForChange(t *testing.T) {
	ch := make(chan struct{}, 1)
	ch <- struct{}{}
	assert.Equal(t, changeMsg{}, waitForChange(ch)())
}

func TestModel_ChangeMsgReissuesListener(t *testing.T) {
	f := newFixture(t, testConn)
	m := f.model()

	_, cmd := update(t, m, changeMsg{})
	assert.NotNil(t, cmd)
}
