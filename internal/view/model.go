package view

import (
	"slices"

	"github.com/Iron-Ham/ralphui/internal/message"
)

// Model is the state a view needs for a full re-render.
type Model struct {
	Status       message.Status
	Iteration    int
	TaskInfo     string
	Countdown    int
	History      []message.TaskCompletion
	StartTime    int64
	PendingTasks int
	Stats        message.TaskStats
	Logs         []message.Log

	PrdGenerating bool
	PrdAvailable  bool
	Loading       bool
}

// NewModel returns an idle model.
func NewModel() Model {
	return Model{Status: message.StatusIdle}
}

func (m Model) clone() Model {
	m.History = slices.Clone(m.History)
	m.Logs = slices.Clone(m.Logs)
	return m
}

// Apply folds an outbound message into the model. limit bounds the log
// buffer; limit <= 0 keeps every line.
func (m *Model) Apply(msg message.Outbound, limit int) {
	switch v := msg.(type) {
	case message.Update:
		m.Status, m.Iteration, m.TaskInfo = v.Status, v.Iteration, v.TaskInfo
	case message.Countdown:
		m.Countdown = v.Seconds
	case message.History:
		m.History = slices.Clone(v.History)
	case message.Timing:
		m.StartTime, m.PendingTasks = v.StartTime, v.PendingTasks
		m.History = slices.Clone(v.TaskHistory)
	case message.Stats:
		m.Stats = v.TaskStats
	case message.Log:
		m.Logs = append(m.Logs, v)
		if limit > 0 && len(m.Logs) > limit {
			m.Logs = slices.Clone(m.Logs[len(m.Logs)-limit:])
		}
	case message.PrdGenerating:
		m.PrdGenerating = true
	case message.PrdComplete:
		m.PrdGenerating = false
	case message.Loading:
		m.Loading = v.IsLoading
	}
}

// Messages returns the outbound sequence that reproduces m on an empty view.
func (m Model) Messages() []message.Outbound {
	out := []message.Outbound{
		message.Update{Status: m.Status, Iteration: m.Iteration, TaskInfo: m.TaskInfo},
		message.Stats{TaskStats: m.Stats},
	}
	if m.StartTime > 0 {
		out = append(out, message.Timing{
			StartTime:    m.StartTime,
			TaskHistory:  slices.Clone(m.History),
			PendingTasks: m.PendingTasks,
		})
	} else if len(m.History) > 0 {
		out = append(out, message.History{History: slices.Clone(m.History)})
	}
	if m.Countdown > 0 {
		out = append(out, message.Countdown{Seconds: m.Countdown})
	}
	for _, l := range m.Logs {
		out = append(out, l)
	}
	if m.PrdGenerating {
		out = append(out, message.PrdGenerating{})
	}
	if m.Loading {
		out = append(out, message.Loading{IsLoading: true})
	}
	return out
}

// Renderer turns a model into text for surfaces that re-render wholesale.
type Renderer interface {
	Render(m Model) string
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(m Model) string

// Render calls f(m).
func (f RendererFunc) Render(m Model) string { return f(m) }
