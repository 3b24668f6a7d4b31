package tui

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/ralphui/internal/channel"
	"github.com/Iron-Ham/ralphui/internal/message"
	"github.com/Iron-Ham/ralphui/internal/panelstate"
	"github.com/Iron-Ham/ralphui/internal/tui/keymap"
	"github.com/Iron-Ham/ralphui/internal/tui/styles"
	"github.com/Iron-Ham/ralphui/internal/view"
)

// Host is the view controller the terminal surface is attached to.
type Host interface {
	Dispatch(ctx context.Context, cmd message.Command) error
	Attach(t channel.Transport) view.Result
	Detach(t channel.Transport)
	SetVisible(visible bool) view.Result
	Snapshot() view.Model
	PanelState() panelstate.State
}

// dispatchedMsg reports the outcome of a command sent to the host.
type dispatchedMsg struct {
	command message.CommandName
	err     error
}

// toastExpiredMsg clears the toast it was scheduled for.
type toastExpiredMsg struct {
	seq int
}

// Model is the bubbletea model of the terminal view.
type Model struct {
	ctx      context.Context
	host     Host
	keymap   *keymap.Keymap
	renderer Renderer
	logLimit int

	mode    keymap.Mode
	state   view.Model
	spinner spinner.Model
	input   textinput.Model

	toast     *message.Toast
	toastSeq  int
	collapsed []string
	scroll    int
	showHelp  bool
	lastErr   string

	width    int
	height   int
	quitting bool
}

// NewModel creates a Model showing the host's current model and panel state.
func NewModel(ctx context.Context, host Host, logLimit int) Model {
	if logLimit <= 0 {
		logLimit = view.DefaultLogLimit
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Primary

	ti := textinput.New()
	ti.Placeholder = "Describe what to build"
	ti.CharLimit = 500
	ti.Width = 60

	ps := host.PanelState()
	return Model{
		ctx:       ctx,
		host:      host,
		keymap:    keymap.DefaultKeymap(),
		logLimit:  logLimit,
		mode:      keymap.ModeNormal,
		state:     host.Snapshot(),
		spinner:   sp,
		input:     ti,
		collapsed: ps.CollapsedSections,
		scroll:    int(ps.ScrollPosition),
	}
}

// Init starts the spinner and reports the surface as visible.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.setVisible(true))
}

// Update handles a message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.renderer.Width = msg.Width
		return m, nil

	case tea.FocusMsg:
		return m, m.setVisible(true)

	case tea.BlurMsg:
		return m, m.setVisible(false)

	case OutboundMsg:
		return m.applyOutbound(msg.Message)

	case dispatchedMsg:
		m.lastErr = ""
		if msg.err != nil {
			m.lastErr = string(msg.command) + ": " + msg.err.Error()
		}
		return m, nil

	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toast = nil
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.mode == keymap.ModePrompt {
			return m.handlePromptKey(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) applyOutbound(out message.Outbound) (tea.Model, tea.Cmd) {
	switch v := out.(type) {
	case message.Toast:
		m.toastSeq++
		m.toast = &v
		if v.Duration > 0 {
			seq := m.toastSeq
			return m, tea.Tick(time.Duration(v.Duration)*time.Millisecond, func(time.Time) tea.Msg {
				return toastExpiredMsg{seq: seq}
			})
		}
	case message.PanelStateAck:
		m.collapsed = slices.Clone(v.State.CollapsedSections)
		m.scroll = int(v.State.ScrollPosition)
	default:
		m.state.Apply(out, m.logLimit)
		m.scroll = min(m.scroll, len(m.state.Logs))
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cmd, ok := m.keymap.GetBinding(msg, keymap.ModeNormal)
	if !ok {
		return m, nil
	}
	if name, ok := cmd.Inbound(); ok {
		return m, m.dispatch(message.Control{Command: name})
	}

	switch cmd {
	case keymap.CmdPromptPrd:
		m.mode = keymap.ModePrompt
		m.input.Reset()
		focus := m.input.Focus()
		return m, focus
	case keymap.CmdToggleLogs:
		if i := slices.Index(m.collapsed, SectionLogs); i >= 0 {
			m.collapsed = slices.Delete(slices.Clone(m.collapsed), i, i+1)
		} else {
			m.collapsed = append(slices.Clone(m.collapsed), SectionLogs)
		}
		return m, m.sendPanelState(map[string]any{"collapsedSections": m.collapsed})
	case keymap.CmdScrollUp:
		if m.scroll >= len(m.state.Logs) {
			return m, nil
		}
		m.scroll++
		return m, m.sendPanelState(map[string]any{"scrollPosition": m.scroll})
	case keymap.CmdScrollDown:
		if m.scroll == 0 {
			return m, nil
		}
		m.scroll--
		return m, m.sendPanelState(map[string]any{"scrollPosition": m.scroll})
	case keymap.CmdDismiss:
		if m.toast != nil && m.toast.Dismissible {
			m.toast = nil
		}
		m.lastErr = ""
	case keymap.CmdToggleHelp:
		m.showHelp = !m.showHelp
	case keymap.CmdQuit:
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cmd, ok := m.keymap.GetBinding(msg, keymap.ModePrompt)
	if !ok {
		var c tea.Cmd
		m.input, c = m.input.Update(msg)
		return m, c
	}

	switch cmd {
	case keymap.CmdSubmit:
		desc := strings.TrimSpace(m.input.Value())
		m.mode = keymap.ModeNormal
		m.input.Blur()
		return m, m.dispatch(message.GeneratePrd{TaskDescription: desc})
	case keymap.CmdCancel:
		m.mode = keymap.ModeNormal
		m.input.Blur()
	case keymap.CmdQuit:
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// dispatch sends cmd to the host off the update loop; handlers may block on
// the task loop.
func (m Model) dispatch(cmd message.Command) tea.Cmd {
	ctx, host := m.ctx, m.host
	return func() tea.Msg {
		return dispatchedMsg{command: cmd.Name(), err: host.Dispatch(ctx, cmd)}
	}
}

func (m Model) sendPanelState(fields map[string]any) tea.Cmd {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil
	}
	return m.dispatch(message.PanelStateChanged{State: data})
}

func (m Model) setVisible(visible bool) tea.Cmd {
	host := m.host
	return func() tea.Msg {
		host.SetVisible(visible)
		return nil
	}
}

// View renders the terminal surface.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	maxLogs := 0
	if m.height > 0 {
		maxLogs = max(m.height-14, 3)
	}
	b.WriteString(m.renderer.render(m.state, frame{
		collapsed: m.collapsed,
		scroll:    m.scroll,
		maxLogs:   maxLogs,
		spinner:   m.spinner.View(),
	}))

	if m.toast != nil {
		b.WriteByte('\n')
		b.WriteString(renderToast(*m.toast))
	}
	if m.lastErr != "" {
		b.WriteByte('\n')
		b.WriteString(styles.Error.Render(m.lastErr))
	}
	if m.mode == keymap.ModePrompt {
		b.WriteByte('\n')
		b.WriteString(styles.Prompt.Render("Generate PRD\n" + m.input.View()))
	}
	b.WriteByte('\n')
	b.WriteString(m.renderHelp())
	return b.String()
}

func renderToast(t message.Toast) string {
	body := t.Message
	if t.Title != "" {
		body = styles.Highlight.Render(t.Title) + "  " + body
	}
	return styles.Toast.BorderForeground(styles.ToastColor(t.ToastType)).Render(body)
}

func (m Model) renderHelp() string {
	mode := m.mode
	if !m.showHelp && mode == keymap.ModeNormal {
		return styles.HelpBar.Render(styles.HelpKey.Render("s") + " start  " +
			styles.HelpKey.Render("p") + " pause  " +
			styles.HelpKey.Render("x") + " stop  " +
			styles.HelpKey.Render("g") + " generate PRD  " +
			styles.HelpKey.Render("?") + " help  " +
			styles.HelpKey.Render("q") + " quit")
	}

	var lines []string
	for _, category := range m.keymap.GetCategories(mode) {
		var keys []string
		for _, kb := range m.keymap.GetModeBindings(mode) {
			if kb.Category == category {
				keys = append(keys, styles.HelpKey.Render(kb.String())+" "+kb.Description)
			}
		}
		lines = append(lines, category+": "+strings.Join(keys, "  "))
	}
	return styles.HelpBar.Render(strings.Join(lines, "\n"))
}
