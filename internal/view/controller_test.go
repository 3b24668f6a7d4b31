package view

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ralpherrors "github.com/Iron-Ham/ralphui/internal/errors"
	"github.com/Iron-Ham/ralphui/internal/event"
	"github.com/Iron-Ham/ralphui/internal/logging"
	"github.com/Iron-Ham/ralphui/internal/message"
	"github.com/Iron-Ham/ralphui/internal/panelstate"
	"github.com/Iron-Ham/ralphui/internal/testutil"
)

func newTestPanel(t *testing.T, visible bool) (*Panel, *testutil.RecordingTransport) {
	t.Helper()
	p := NewPanel(Options{Visible: visible})
	rec := testutil.NewRecordingTransport()
	require.Equal(t, Ok, p.Attach(rec))
	return p, rec
}

func TestController_UIMethodsPostTypedMessages(t *testing.T) {
	p, rec := newTestPanel(t, true)
	history := []message.TaskCompletion{{TaskDescription: "a", CompletedAt: 5, Duration: 2, Iteration: 1}}

	assert.Equal(t, Ok, p.UpdateStatus(message.StatusRunning, 2, "Write docs"))
	assert.Equal(t, Ok, p.UpdateCountdown(9))
	assert.Equal(t, Ok, p.UpdateHistory(history))
	assert.Equal(t, Ok, p.UpdateSessionTiming(1000, nil, 4))
	assert.Equal(t, Ok, p.UpdateStats(message.TaskStats{Completed: 1, Pending: 1, Total: 2, Progress: 50}))
	assert.Equal(t, Ok, p.ShowPrdGenerating())
	assert.Equal(t, Ok, p.HidePrdGenerating())
	assert.Equal(t, Ok, p.ShowLoading())
	assert.Equal(t, Ok, p.HideLoading())

	assert.Equal(t, []message.Outbound{
		message.Update{Status: message.StatusRunning, Iteration: 2, TaskInfo: "Write docs"},
		message.Countdown{Seconds: 9},
		message.History{History: history},
		message.Timing{StartTime: 1000, TaskHistory: []message.TaskCompletion{}, PendingTasks: 4},
		message.Stats{TaskStats: message.TaskStats{Completed: 1, Pending: 1, Total: 2, Progress: 50}},
		message.PrdGenerating{},
		message.PrdComplete{},
		message.Loading{IsLoading: true},
		message.Loading{IsLoading: false},
	}, rec.Messages())

	snap := p.Snapshot()
	assert.Equal(t, message.StatusRunning, snap.Status)
	assert.Equal(t, 9, snap.Countdown)
	assert.Equal(t, int64(1000), snap.StartTime)
	assert.False(t, snap.PrdGenerating)
	assert.False(t, snap.Loading)
}

func TestController_AddLogEncodings(t *testing.T) {
	p, rec := newTestPanel(t, true)

	p.AddLog("x", message.Highlight(true))
	p.AddLog("x", message.LevelWarning)

	assert.Equal(t, []message.Log{
		{Message: "x", Highlight: true, Level: message.LevelSuccess},
		{Message: "x", Highlight: false, Level: message.LevelWarning},
	}, rec.Logs())
}

func TestController_LogBufferKeepsMostRecent(t *testing.T) {
	p, rec := newTestPanel(t, true)

	for i := range 120 {
		p.AddLog(strings.Repeat("l", i+1), message.LevelInfo)
	}

	logs := p.Snapshot().Logs
	require.Len(t, logs, DefaultLogLimit)
	assert.Len(t, logs[0].Message, 71, "oldest entries are dropped first")
	assert.Len(t, logs[DefaultLogLimit-1].Message, 120)
	assert.Len(t, rec.Logs(), 120, "every line is still posted")
}

func TestController_CustomLogLimit(t *testing.T) {
	p := NewPanel(Options{LogLimit: 3})
	for range 5 {
		p.AddLog("x", nil)
	}
	assert.Len(t, p.Snapshot().Logs, 3)
}

func TestController_ToastVariants(t *testing.T) {
	p, rec := newTestPanel(t, true)

	p.ShowSuccessToast("done")
	p.ShowErrorToast("failed")
	p.ShowWarningToast("careful")
	p.ShowInfoToast("fyi")
	p.ShowToast(message.Toast{Message: "custom", Duration: 10})

	assert.Equal(t, []message.Outbound{
		message.Toast{ToastType: message.ToastSuccess, Message: "done", Title: "Success", Duration: 3000, Dismissible: true},
		message.Toast{ToastType: message.ToastError, Message: "failed", Title: "Error", Duration: 0, Dismissible: true},
		message.Toast{ToastType: message.ToastWarning, Message: "careful", Title: "Warning", Duration: 5000, Dismissible: true},
		message.Toast{ToastType: message.ToastInfo, Message: "fyi", Title: "Info", Duration: 3000, Dismissible: true},
		message.Toast{ToastType: message.ToastInfo, Message: "custom", Duration: 10},
	}, rec.Messages())
}

func TestController_HiddenPostsFlushInOrderOnShow(t *testing.T) {
	p, rec := newTestPanel(t, false)

	p.AddLog("A", message.LevelInfo)
	p.AddLog("B", message.LevelInfo)
	p.AddLog("C", message.LevelInfo)
	assert.Empty(t, rec.Messages())
	assert.Equal(t, 3, p.QueueLen())

	assert.Equal(t, Ok, p.SetVisible(true))

	var got []string
	for _, l := range rec.Logs() {
		got = append(got, l.Message)
	}
	assert.Equal(t, []string{"A", "B", "C"}, got)
	assert.Zero(t, p.QueueLen())
	assert.True(t, p.Visible())
}

func TestController_DisposeDropsQueuedMessages(t *testing.T) {
	p, rec := newTestPanel(t, false)
	for range 7 {
		p.UpdateCountdown(1)
	}
	require.Equal(t, 7, p.QueueLen())

	p.Dispose()

	assert.Zero(t, p.QueueLen())
	assert.Equal(t, NoOp, p.SetVisible(true))
	assert.Empty(t, rec.Messages())
}

func TestController_DisposeIsIdempotent(t *testing.T) {
	p, _ := newTestPanel(t, true)

	calls := 0
	require.Equal(t, Ok, p.OnDidDispose(func() { calls++ }))
	handlerCalls := 0
	p.On(message.CmdStart, event.NewHandler("start", func(any) error {
		handlerCalls++
		return nil
	}))

	for range 5 {
		p.Dispose()
	}

	assert.Equal(t, 1, calls)
	assert.True(t, p.IsDisposed())
	assert.False(t, p.Attached())
	assert.ErrorIs(t, p.HandleMessage(context.Background(), []byte(`{"command":"start"}`)), ralpherrors.ErrViewDisposed)
	assert.Zero(t, handlerCalls)
}

func TestController_UIMethodsAfterDisposeAreNoOps(t *testing.T) {
	p, rec := newTestPanel(t, true)
	p.Dispose()
	before := p.Snapshot()

	results := []Result{
		p.UpdateStatus(message.StatusRunning, 1, "x"),
		p.UpdateCountdown(1),
		p.UpdateHistory(nil),
		p.UpdateSessionTiming(1, nil, 1),
		p.UpdateStats(message.TaskStats{Total: 1}),
		p.AddLog("x", message.Highlight(true)),
		p.ShowPrdGenerating(),
		p.HidePrdGenerating(),
		p.ShowToast(message.Toast{}),
		p.ShowSuccessToast("x"),
		p.ShowErrorToast("x"),
		p.ShowWarningToast("x"),
		p.ShowInfoToast("x"),
		p.ShowLoading(),
		p.HideLoading(),
		p.Attach(testutil.NewRecordingTransport()),
		p.SetVisible(false),
		p.OnDidDispose(func() {}),
	}
	for i, r := range results {
		assert.Equal(t, NoOp, r, "call %d", i)
	}
	assert.Empty(t, rec.Messages())
	assert.Equal(t, before, p.Snapshot())
}

func TestController_OnAfterDisposeIsInert(t *testing.T) {
	p, _ := newTestPanel(t, true)
	p.Dispose()

	sub := p.On(message.CmdStart, event.NewHandler("start", func(any) error { return nil }))
	assert.False(t, sub.Active())
	assert.NotPanics(t, sub.Dispose)
}

func TestController_HandleMessageForwardsToBus(t *testing.T) {
	p, _ := newTestPanel(t, true)

	var got []message.Command
	h := event.NewHandler("record", func(data any) error {
		got = append(got, data.(message.Command))
		return nil
	})
	p.On(message.CmdStart, h)
	p.On(message.CmdGeneratePrd, h)

	ctx := context.Background()
	require.NoError(t, p.HandleMessage(ctx, []byte(`{"command":"start"}`)))
	require.NoError(t, p.HandleMessage(ctx, []byte(`{"command":"generatePrd","taskDescription":"cli"}`)))
	require.NoError(t, p.HandleMessage(ctx, []byte(`{"command":"pause"}`)))

	assert.Equal(t, []message.Command{
		message.Control{Command: message.CmdStart},
		message.GeneratePrd{TaskDescription: "cli"},
	}, got)
}

func TestController_HandleMessageRejectsUnknownCommand(t *testing.T) {
	p, _ := newTestPanel(t, true)

	err := p.HandleMessage(context.Background(), []byte(`{"command":"selfDestruct"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ralpherrors.ErrUnknownCommand)

	var viewErr *ralpherrors.ViewError
	require.True(t, errors.As(err, &viewErr))
	assert.Equal(t, "panel", viewErr.View)
}

func TestController_LocalCommandsAreNotForwarded(t *testing.T) {
	var buf bytes.Buffer
	opened := 0
	p := NewPanel(Options{
		Visible:     true,
		Logger:      logging.NewWriterLogger(&buf, "debug"),
		OnOpenPanel: func() { opened++ },
	})
	p.Attach(testutil.NewRecordingTransport())

	forwarded := 0
	h := event.NewHandler("spy", func(any) error {
		forwarded++
		return nil
	})
	for _, name := range []message.CommandName{message.CmdWebviewError, message.CmdPanelStateChanged, message.CmdOpenPanel} {
		p.On(name, h)
	}

	ctx := context.Background()
	require.NoError(t, p.HandleMessage(ctx, []byte(`{"command":"webviewError","error":{"message":"x is undefined","source":"main.js","lineno":12,"colno":5}}`)))
	require.NoError(t, p.HandleMessage(ctx, []byte(`{"command":"panelStateChanged","state":{"scrollPosition":3}}`)))
	require.NoError(t, p.HandleMessage(ctx, []byte(`{"command":"openPanel"}`)))

	assert.Zero(t, forwarded)
	assert.Equal(t, 1, opened)
	assert.Contains(t, buf.String(), "Panel script error at line 12:5 (main.js): x is undefined")
}

func TestController_PanelStateChangedPersistsAndAcks(t *testing.T) {
	storage := panelstate.NewMemoryStorage()
	p := NewPanel(Options{Visible: true, Storage: storage})
	rec := testutil.NewRecordingTransport()
	p.Attach(rec)

	err := p.HandleMessage(context.Background(), []byte(`{"command":"panelStateChanged","state":{"collapsedSections":["log"],"requirements":{"runTests":true,"runLinting":"yes"}}}`))
	require.NoError(t, err)

	want := panelstate.State{
		CollapsedSections: []string{"log"},
		Requirements:      panelstate.Requirements{RunTests: true},
	}
	assert.Equal(t, want, p.PanelState())
	assert.Equal(t, message.PanelStateAck{State: want}, rec.Last())

	// A new view over the same storage restores what was saved.
	assert.Equal(t, want, NewSidebar(Options{Storage: storage}).PanelState())
}

func TestController_EmptyPanelStateChangeIsIgnored(t *testing.T) {
	storage := panelstate.NewMemoryStorage()
	p := NewPanel(Options{Visible: true, Storage: storage})
	rec := testutil.NewRecordingTransport()
	p.Attach(rec)

	require.NoError(t, p.HandleMessage(context.Background(), []byte(`{"command":"panelStateChanged","state":{}}`)))

	assert.Empty(t, rec.Messages())
	_, ok, err := storage.Get(panelstate.DefaultKey)
	require.NoError(t, err)
	assert.False(t, ok, "nothing is persisted when nothing changed")
}

func TestController_MalformedPanelState(t *testing.T) {
	p, rec := newTestPanel(t, true)

	err := p.HandleMessage(context.Background(), []byte(`{"command":"panelStateChanged","state":[1]}`))
	require.Error(t, err)
	assert.Empty(t, rec.Messages())
	assert.Equal(t, panelstate.Default(), p.PanelState())
}

func TestController_SharedHandlerAcrossViews(t *testing.T) {
	panel := NewPanel(Options{Visible: true})
	sidebar := NewSidebar(Options{Visible: true})

	calls := 0
	orchestratorHandler := event.NewHandler("start", func(any) error {
		calls++
		return nil
	})
	panel.On(message.CmdStart, orchestratorHandler)
	sidebar.On(message.CmdStart, orchestratorHandler)

	ctx := context.Background()
	require.NoError(t, panel.HandleMessage(ctx, []byte(`{"command":"start"}`)))
	require.NoError(t, sidebar.HandleMessage(ctx, []byte(`{"command":"start"}`)))

	assert.Equal(t, 2, calls)
}

type stubStats struct {
	stats  message.TaskStats
	err    error
	during func()
}

func (s stubStats) Stats(context.Context) (message.TaskStats, error) {
	if s.during != nil {
		s.during()
	}
	return s.stats, s.err
}

type stubPrd struct {
	exists bool
	err    error
	during func()
}

func (s stubPrd) Exists(context.Context) (bool, error) {
	if s.during != nil {
		s.during()
	}
	return s.exists, s.err
}

func TestController_RefreshStats(t *testing.T) {
	p, rec := newTestPanel(t, true)
	stats := message.TaskStats{Completed: 2, Pending: 1, Total: 3, Progress: 66, NextTask: "c"}

	assert.Equal(t, Ok, p.RefreshStats(context.Background(), stubStats{stats: stats}))
	assert.Equal(t, message.Stats{TaskStats: stats}, rec.Last())

	rec.Reset()
	assert.Equal(t, Ok, p.RefreshStats(context.Background(), stubStats{err: errors.New("unreadable")}))
	assert.Empty(t, rec.Messages())
}

func TestController_RefreshStatsDiscardsResultAfterDispose(t *testing.T) {
	p, rec := newTestPanel(t, true)

	r := p.RefreshStats(context.Background(), stubStats{
		stats:  message.TaskStats{Total: 1},
		during: p.Dispose,
	})

	assert.Equal(t, NoOp, r)
	assert.Empty(t, rec.Messages())
	assert.Zero(t, p.Snapshot().Stats.Total)
}

func TestController_RefreshStatsBeforeStartIsNoOp(t *testing.T) {
	p, _ := newTestPanel(t, true)
	p.Dispose()

	called := false
	r := p.RefreshStats(context.Background(), stubStats{during: func() { called = true }})
	assert.Equal(t, NoOp, r)
	assert.False(t, called, "the computation does not start after dispose")
}

func TestController_CheckPrdAvailability(t *testing.T) {
	p, rec := newTestPanel(t, true)

	assert.Equal(t, Ok, p.CheckPrdAvailability(context.Background(), stubPrd{exists: true}))
	assert.True(t, p.Snapshot().PrdAvailable)
	assert.Empty(t, rec.Messages())

	assert.Equal(t, Ok, p.CheckPrdAvailability(context.Background(), stubPrd{exists: false}))
	assert.False(t, p.Snapshot().PrdAvailable)
	require.Len(t, rec.Logs(), 1)
	assert.Equal(t, message.LevelWarning, rec.Logs()[0].Level)
}

func TestController_CheckPrdAvailabilityDiscardsResultAfterDispose(t *testing.T) {
	p, rec := newTestPanel(t, true)

	r := p.CheckPrdAvailability(context.Background(), stubPrd{exists: false, during: p.Dispose})
	assert.Equal(t, NoOp, r)
	assert.Empty(t, rec.Messages())
}

func TestController_RestoresStateOnCreate(t *testing.T) {
	storage := panelstate.NewMemoryStorage()
	require.NoError(t, storage.Put("custom", []byte(`{"collapsedSections":["a"],"scrollPosition":"bad"}`)))

	p := NewPanel(Options{Storage: storage, StateKey: "custom"})
	assert.Equal(t, panelstate.State{
		CollapsedSections: []string{"a"},
		Requirements:      panelstate.Requirements{},
	}, p.PanelState())
}

func TestResult_String(t *testing.T) {
	assert.Equal(t, "ok", Ok.String())
	assert.Equal(t, "noop", NoOp.String())
	assert.Equal(t, "unknown", Result(9).String())
}
