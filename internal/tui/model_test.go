package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iron-Ham/ralphui/internal/event"
	"github.com/Iron-Ham/ralphui/internal/message"
	"github.com/Iron-Ham/ralphui/internal/panelstate"
	"github.com/Iron-Ham/ralphui/internal/tui/keymap"
	"github.com/Iron-Ham/ralphui/internal/view"
)

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T) (Model, *view.Panel) {
	t.Helper()
	panel := view.NewPanel(view.Options{})
	t.Cleanup(panel.Dispose)
	return NewModel(context.Background(), panel, 0), panel
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	mm, ok := next.(Model)
	require.True(t, ok)
	return mm, cmd
}

func record(panel *view.Panel, name message.CommandName) *[]message.Command {
	var got []message.Command
	panel.On(name, event.NewHandler(string(name), func(data any) error {
		got = append(got, data.(message.Command))
		return nil
	}))
	return &got
}

func TestModel_LoopKeysDispatchCommands(t *testing.T) {
	m, panel := newTestModel(t)

	tests := []struct {
		key  string
		want message.CommandName
	}{
		{"s", message.CmdStart},
		{"p", message.CmdPause},
		{"r", message.CmdResume},
		{"x", message.CmdStop},
		{"n", message.CmdNext},
		{"k", message.CmdSkipTask},
		{"t", message.CmdRetryTask},
		{"e", message.CmdExportLog},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := record(panel, tt.want)
			_, cmd := update(t, m, key(tt.key))
			require.NotNil(t, cmd)

			res, ok := cmd().(dispatchedMsg)
			require.True(t, ok)
			assert.NoError(t, res.err)
			assert.Equal(t, tt.want, res.command)
			assert.Equal(t, []message.Command{message.Control{Command: tt.want}}, *got)
		})
	}
}

func TestModel_UnboundKeyDoesNothing(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := update(t, m, key("z"))
	assert.Nil(t, cmd)
}

func TestModel_GeneratePrdPrompt(t *testing.T) {
	m, panel := newTestModel(t)
	got := record(panel, message.CmdGeneratePrd)

	m, _ = update(t, m, key("g"))
	assert.Equal(t, keymap.ModePrompt, m.mode)

	// Loop keys type into the prompt instead of dispatching.
	for _, r := range "todo app" {
		m, _ = update(t, m, key(string(r)))
	}
	assert.Equal(t, "todo app", m.input.Value())
	assert.Contains(t, m.View(), "Generate PRD")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, keymap.ModeNormal, m.mode)
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, []message.Command{message.GeneratePrd{TaskDescription: "todo app"}}, *got)
}

func TestModel_PromptCancel(t *testing.T) {
	m, panel := newTestModel(t)
	got := record(panel, message.CmdGeneratePrd)

	m, _ = update(t, m, key("g"))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	assert.Equal(t, keymap.ModeNormal, m.mode)
	assert.Empty(t, *got)
}

func TestModel_CollapseLogsPersistsPanelState(t *testing.T) {
	m, panel := newTestModel(t)

	m, cmd := update(t, m, key("l"))
	require.NotNil(t, cmd)
	res := cmd().(dispatchedMsg)
	require.NoError(t, res.err)
	assert.Equal(t, []string{SectionLogs}, m.collapsed)
	assert.Equal(t, []string{SectionLogs}, panel.PanelState().CollapsedSections)

	m, cmd = update(t, m, key("l"))
	cmd()
	assert.Empty(t, m.collapsed)
	assert.Empty(t, panel.PanelState().CollapsedSections)
}

func TestModel_ScrollIsBoundedByLogs(t *testing.T) {
	m, panel := newTestModel(t)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Nil(t, cmd, "nothing to scroll")

	m, _ = update(t, m, OutboundMsg{Message: message.Log{Message: "a", Level: message.LevelInfo}})
	m, _ = update(t, m, OutboundMsg{Message: message.Log{Message: "b", Level: message.LevelInfo}})

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, 1, m.scroll)
	assert.Equal(t, 1.0, panel.PanelState().ScrollPosition)

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	cmd()
	assert.Equal(t, 0, m.scroll)
}

func TestModel_RestoresPanelState(t *testing.T) {
	storage := panelstate.NewMemoryStorage()
	require.NoError(t, storage.Put(panelstate.DefaultKey, []byte(`{"collapsedSections":["logs"],"scrollPosition":2}`)))
	panel := view.NewPanel(view.Options{Storage: storage})
	defer panel.Dispose()

	m := NewModel(context.Background(), panel, 0)
	assert.Equal(t, []string{"logs"}, m.collapsed)
	assert.Equal(t, 2, m.scroll)
}

func TestModel_AppliesOutboundMessages(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = update(t, m, OutboundMsg{Message: message.Update{Status: message.StatusRunning, Iteration: 2, TaskInfo: "Write docs"}})
	m, _ = update(t, m, OutboundMsg{Message: message.Stats{TaskStats: message.TaskStats{Completed: 1, Total: 4, Pending: 3, Progress: 25}}})
	m, _ = update(t, m, OutboundMsg{Message: message.Log{Message: "hello", Level: message.LevelSuccess, Highlight: true}})
	m, _ = update(t, m, OutboundMsg{Message: message.PanelStateAck{State: panelstate.State{CollapsedSections: []string{"history"}}}})

	out := m.View()
	assert.Contains(t, out, "running")
	assert.Contains(t, out, "iteration 2")
	assert.Contains(t, out, "Task: Write docs")
	assert.Contains(t, out, "1/4 (25%)")
	assert.Contains(t, out, "hello")
	assert.Equal(t, []string{"history"}, m.collapsed)
}

func TestModel_ToastExpiry(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := update(t, m, OutboundMsg{Message: message.Toast{ToastType: message.ToastSuccess, Message: "Saved", Title: "Success", Duration: 3000, Dismissible: true}})
	require.NotNil(t, cmd)
	require.NotNil(t, m.toast)
	assert.Contains(t, m.View(), "Saved")

	stale := toastExpiredMsg{seq: m.toastSeq - 1}
	m, _ = update(t, m, stale)
	assert.NotNil(t, m.toast)

	m, _ = update(t, m, toastExpiredMsg{seq: m.toastSeq})
	assert.Nil(t, m.toast)
}

func TestModel_StickyToastDismiss(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := update(t, m, OutboundMsg{Message: message.Toast{ToastType: message.ToastError, Message: "boom", Dismissible: true}})
	assert.Nil(t, cmd, "error toasts do not expire")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, m.toast)
}

func TestModel_FocusDrivesVisibility(t *testing.T) {
	m, panel := newTestModel(t)
	assert.False(t, panel.Visible())

	_, cmd := update(t, m, tea.FocusMsg{})
	cmd()
	assert.True(t, panel.Visible())

	_, cmd = update(t, m, tea.BlurMsg{})
	cmd()
	assert.False(t, panel.Visible())
}

func TestModel_DispatchErrorShown(t *testing.T) {
	m, panel := newTestModel(t)
	panel.Dispose()

	_, cmd := update(t, m, key("s"))
	m, _ = update(t, m, cmd())
	assert.Contains(t, m.View(), "start: view disposed")
}

func TestModel_Quit(t *testing.T) {
	m, _ := newTestModel(t)
	m, cmd := update(t, m, key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestModel_HelpToggle(t *testing.T) {
	m, _ := newTestModel(t)
	assert.NotContains(t, m.View(), "Reset all tasks")

	m, _ = update(t, m, key("?"))
	assert.Contains(t, m.View(), "Reset all tasks")
}

func TestTransport(t *testing.T) {
	tr := NewTransport(1)
	require.NoError(t, tr.Send(message.Countdown{Seconds: 1}))
	assert.ErrorIs(t, tr.Send(message.Countdown{Seconds: 2}), errTransportFull)

	got := make(chan tea.Msg, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tr.Pump(ctx, func(msg tea.Msg) { got <- msg })

	select {
	case msg := <-got:
		assert.Equal(t, OutboundMsg{Message: message.Countdown{Seconds: 1}}, msg)
	case <-time.After(time.Second):
		t.Fatal("pump did not forward")
	}

	tr.Close()
	tr.Close()
	assert.ErrorIs(t, tr.Send(message.Countdown{}), errTransportClosed)
}

func TestTransport_AttachedToPanel(t *testing.T) {
	panel := view.NewPanel(view.Options{Visible: true})
	defer panel.Dispose()

	tr := NewTransport(4)
	panel.Attach(tr)
	assert.Equal(t, view.Ok, panel.AddLog("x", message.LevelInfo))

	msg := <-tr.events
	assert.Equal(t, message.Log{Message: "x", Level: message.LevelInfo}, msg)
}

func TestRenderer(t *testing.T) {
	m := view.NewModel()
	m.Status = message.StatusPaused
	m.Stats = message.TaskStats{Completed: 2, Total: 4, Pending: 2, Progress: 50, NextTask: "c"}
	m.Countdown = 7
	m.History = []message.TaskCompletion{{TaskDescription: "a", Duration: 1500, Iteration: 1}}
	m.Logs = []message.Log{{Message: "one", Level: message.LevelInfo}, {Message: "two", Level: message.LevelError}}

	out := Renderer{}.Render(m)
	for _, want := range []string{"Ralph", "paused", "2/4 (50%)", "Next: c", "Next iteration in 7s", "a (1.5s, iteration 1)", "one", "two"} {
		assert.Contains(t, out, want)
	}

	collapsed := Renderer{}.render(m, frame{collapsed: []string{SectionLogs, SectionHistory}})
	assert.NotContains(t, collapsed, "one")
	assert.NotContains(t, collapsed, "1.5s")
	assert.Contains(t, collapsed, "▸ Log (2)")

	var _ view.Renderer = Renderer{}
	for _, line := range strings.Split(Renderer{Width: 30}.Render(m), "\n") {
		assert.LessOrEqual(t, lipgloss.Width(line), 30)
	}
}

func TestVisibleLogs(t *testing.T) {
	logs := []message.Log{{Message: "1"}, {Message: "2"}, {Message: "3"}, {Message: "4"}}

	tests := []struct {
		name   string
		scroll int
		limit  int
		want   []string
	}{
		{"all", 0, 0, []string{"1", "2", "3", "4"}},
		{"limited to newest", 0, 2, []string{"3", "4"}},
		{"scrolled", 1, 2, []string{"2", "3"}},
		{"scrolled past start", 9, 2, []string{}},
		{"negative scroll", -1, 0, []string{"1", "2", "3", "4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []string{}
			for _, l := range visibleLogs(logs, tt.scroll, tt.limit) {
				got = append(got, l.Message)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderer_CutsLongFieldsToWidth(t *testing.T) {
	m := view.NewModel()
	m.TaskInfo = "Implement the persistence layer for every todo list"
	m.Stats = message.TaskStats{Total: 2, Pending: 2, NextTask: "Write migration scripts for the legacy schema"}

	out := Renderer{Width: 24}.Render(m)
	assert.Contains(t, out, "Task: Implement the per…")
	assert.Contains(t, out, "…")
	assert.NotContains(t, out, "legacy schema")

	full := Renderer{}.Render(m)
	assert.Contains(t, full, "legacy schema")
}
