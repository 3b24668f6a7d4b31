package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iron-Ham/ralphui/internal/message"
	"github.com/Iron-Ham/ralphui/internal/testutil"
)

func TestSidebar_AttachReplaysModel(t *testing.T) {
	s := NewSidebar(Options{Visible: true})
	s.UpdateStatus(message.StatusPaused, 4, "Refactor")
	s.UpdateStats(message.TaskStats{Completed: 1, Total: 2, Progress: 50, NextTask: "b"})
	s.UpdateCountdown(12)
	s.AddLog("paused", message.LevelWarning)

	rec := testutil.NewRecordingTransport()
	require.Equal(t, Ok, s.Attach(rec))

	assert.Equal(t, []message.Outbound{
		message.Update{Status: message.StatusPaused, Iteration: 4, TaskInfo: "Refactor"},
		message.Stats{TaskStats: message.TaskStats{Completed: 1, Total: 2, Progress: 50, NextTask: "b"}},
		message.Countdown{Seconds: 12},
		message.Log{Message: "paused", Level: message.LevelWarning},
	}, rec.Messages())
}

func TestSidebar_ReattachWhileHiddenDeliversReplayOnce(t *testing.T) {
	s := NewSidebar(Options{Visible: false})

	first := testutil.NewRecordingTransport()
	require.Equal(t, Ok, s.Attach(first))
	s.AddLog("hello", message.LevelInfo)
	s.Detach(first)

	second := testutil.NewRecordingTransport()
	require.Equal(t, Ok, s.Attach(second))
	require.Equal(t, Ok, s.SetVisible(true))

	assert.Empty(t, first.Messages())
	assert.Equal(t, s.Snapshot().Messages(), second.Messages())

	logs := 0
	for _, m := range second.Messages() {
		if l, ok := m.(message.Log); ok && l.Message == "hello" {
			logs++
		}
	}
	assert.Equal(t, 1, logs, "queued log must not be delivered on top of the replay")
	assert.Zero(t, s.QueueLen())
}

func TestPanel_AttachDoesNotReplay(t *testing.T) {
	p := NewPanel(Options{Visible: true})
	p.UpdateStatus(message.StatusRunning, 1, "x")

	rec := testutil.NewRecordingTransport()
	p.Attach(rec)
	assert.Empty(t, rec.Messages())
}

func TestController_OnAttachRunsAfterReplay(t *testing.T) {
	var s *Sidebar
	var seenAtHook int
	rec := testutil.NewRecordingTransport()
	s = NewSidebar(Options{Visible: true, OnAttach: func() {
		seenAtHook = len(rec.Messages())
		s.AddLog("attached", message.LevelInfo)
	}})

	require.Equal(t, Ok, s.Attach(rec))
	assert.Equal(t, 2, seenAtHook, "replay is posted before the hook")
	assert.Equal(t, message.Log{Message: "attached", Level: message.LevelInfo}, rec.Messages()[2])

	s.Dispose()
	assert.Equal(t, NoOp, s.Attach(testutil.NewRecordingTransport()))
	assert.Len(t, s.Snapshot().Logs, 1, "no hook after dispose")
}

func TestSidebar_Render(t *testing.T) {
	s := NewSidebar(Options{})
	s.UpdateStatus(message.StatusRunning, 2, "Write tests")
	s.UpdateStats(message.TaskStats{Completed: 1, Total: 4, Progress: 25, NextTask: "Docs"})
	s.AddLog("started", message.Highlight(true))

	out := s.Render()
	assert.Contains(t, out, "Status: running (iteration 2)")
	assert.Contains(t, out, "Task: Write tests")
	assert.Contains(t, out, "Progress: 1/4 (25%)")
	assert.Contains(t, out, "Next: Docs")
	assert.Contains(t, out, "[success] started")
}

func TestSidebar_CustomRenderer(t *testing.T) {
	s := NewSidebar(Options{Renderer: RendererFunc(func(m Model) string {
		return string(m.Status)
	})})
	assert.Equal(t, "idle", s.Render())
}

func TestModel_MessagesRoundTrip(t *testing.T) {
	src := NewModel()
	for _, m := range []message.Outbound{
		message.Update{Status: message.StatusRunning, Iteration: 3, TaskInfo: "t"},
		message.Timing{StartTime: 99, TaskHistory: []message.TaskCompletion{{TaskDescription: "a"}}, PendingTasks: 2},
		message.Countdown{Seconds: 4},
		message.Log{Message: "l", Level: message.LevelInfo},
		message.PrdGenerating{},
		message.Loading{IsLoading: true},
	} {
		src.Apply(m, 0)
	}

	dst := NewModel()
	for _, m := range src.Messages() {
		dst.Apply(m, 0)
	}
	assert.Equal(t, src, dst)
}
