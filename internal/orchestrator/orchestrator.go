package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Iron-Ham/ralphui/internal/event"
	"github.com/Iron-Ham/ralphui/internal/logging"
	"github.com/Iron-Ham/ralphui/internal/message"
	"github.com/Iron-Ham/ralphui/internal/panelstate"
	"github.com/Iron-Ham/ralphui/internal/view"
)

// Loop runs the task loop. Implementations live outside this package; every
// method is optional in the sense that a nil Loop only drives the views.
type Loop interface {
	Start(ctx context.Context) error
	Pause() error
	Resume() error
	Stop() error
}

// TaskEditor is implemented by loops that can change the task list.
type TaskEditor interface {
	Next() error
	SkipTask() error
	RetryTask() error
	CompleteAllTasks() error
	ResetAllTasks() error
	ReorderTasks(ids []string) error
}

// PrdGenerator is implemented by loops that can draft a PRD.
type PrdGenerator interface {
	GeneratePrd(ctx context.Context, description string) error
}

// Exporter writes exported session data somewhere the user can find it and
// returns where it went.
type Exporter interface {
	Export(ctx context.Context, name string, v any) (string, error)
}

// View is a view the orchestrator can bind its handlers to.
type View interface {
	view.UI
	Name() string
	On(cmd message.CommandName, h *event.Handler) *event.Subscription
	OnDidDispose(fn func()) view.Result
	RefreshStats(ctx context.Context, src view.StatsSource) view.Result
	CheckPrdAvailability(ctx context.Context, probe view.PrdChecker) view.Result
	Snapshot() view.Model
}

// Tasks is the task source the orchestrator reports progress from.
type Tasks interface {
	view.StatsSource
	view.PrdChecker
}

// Options configures an Orchestrator.
type Options struct {
	Loop     Loop
	Tasks    Tasks
	Exporter Exporter
	Logger   *logging.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Orchestrator is the single source of truth for run state. It binds one
// shared handler per command to every view's bus and pushes every state
// change to all views through a Broadcast.
type Orchestrator struct {
	ctx      context.Context
	loop     Loop
	tasks    Tasks
	exporter Exporter
	logger   *logging.Logger
	now      func() time.Time

	ui       *Broadcast
	handlers map[message.CommandName]*event.Handler

	mu           sync.Mutex
	views        map[string]View
	status       message.Status
	iteration    int
	startTime    time.Time
	history      []message.TaskCompletion
	requirements panelstate.Requirements
	settings     map[string]any
}

// New creates an Orchestrator. ctx bounds the loop it starts.
func New(ctx context.Context, opts Options) *Orchestrator {
	logger := logging.OrNop(opts.Logger).WithComponent("orchestrator")
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	o := &Orchestrator{
		ctx:      ctx,
		loop:     opts.Loop,
		tasks:    opts.Tasks,
		exporter: opts.Exporter,
		logger:   logger,
		now:      now,
		ui:       NewBroadcast(logger),
		views:    make(map[string]View),
		status:   message.StatusIdle,
		settings: make(map[string]any),
	}
	o.handlers = o.buildHandlers()
	return o
}

// UI returns the broadcast over every bound view.
func (o *Orchestrator) UI() *Broadcast { return o.ui }

// Bind subscribes the shared handlers on v and adds it to the broadcast. The
// view is dropped from the broadcast when it is disposed. Binding a view that
// is already disposed registers nothing.
func (o *Orchestrator) Bind(v View) {
	for _, name := range message.Commands() {
		if h, ok := o.handlers[name]; ok {
			v.On(name, h)
		}
	}

	o.mu.Lock()
	o.views[v.Name()] = v
	o.mu.Unlock()
	o.ui.Add(v)

	// Registered after the view is added so a dispose racing with Bind
	// still finds it to remove.
	if v.OnDidDispose(func() { o.unbind(v) }) == view.NoOp {
		o.unbind(v)
		o.logger.Debug("skipped binding disposed view", "view", v.Name())
		return
	}

	o.logger.Debug("view bound", "view", v.Name())
}

func (o *Orchestrator) unbind(v View) {
	o.mu.Lock()
	if o.views[v.Name()] == v {
		delete(o.views, v.Name())
	}
	o.mu.Unlock()
	o.ui.Remove(v)
	o.logger.Debug("view unbound", "view", v.Name())
}

// Handler returns the shared handler bound for cmd, or nil for commands the
// views handle themselves.
func (o *Orchestrator) Handler(cmd message.CommandName) *event.Handler {
	return o.handlers[cmd]
}

// Status returns the run status and iteration.
func (o *Orchestrator) Status() (message.Status, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status, o.iteration
}

// Requirements returns the last requirement toggles received from a view.
func (o *Orchestrator) Requirements() panelstate.Requirements {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.requirements
}

// Settings returns a copy of the last settings received from a view.
func (o *Orchestrator) Settings() map[string]any {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]any, len(o.settings))
	for k, v := range o.settings {
		out[k] = v
	}
	return out
}

func (o *Orchestrator) buildHandlers() map[message.CommandName]*event.Handler {
	control := func(name message.CommandName, fn func() error) *event.Handler {
		return event.NewHandler(string(name), func(any) error { return fn() })
	}

	return map[message.CommandName]*event.Handler{
		message.CmdStart:            control(message.CmdStart, o.start),
		message.CmdPause:            control(message.CmdPause, o.pause),
		message.CmdResume:           control(message.CmdResume, o.resume),
		message.CmdStop:             control(message.CmdStop, o.stop),
		message.CmdNext:             control(message.CmdNext, o.taskAction("Moving to next task", TaskEditor.Next)),
		message.CmdSkipTask:         control(message.CmdSkipTask, o.taskAction("Skipped current task", TaskEditor.SkipTask)),
		message.CmdRetryTask:        control(message.CmdRetryTask, o.taskAction("Retrying current task", TaskEditor.RetryTask)),
		message.CmdCompleteAllTasks: control(message.CmdCompleteAllTasks, o.taskAction("Marked all tasks complete", TaskEditor.CompleteAllTasks)),
		message.CmdResetAllTasks:    control(message.CmdResetAllTasks, o.taskAction("Reset all tasks", TaskEditor.ResetAllTasks)),
		message.CmdExportData:       control(message.CmdExportData, o.exportData),
		message.CmdExportLog:        control(message.CmdExportLog, o.exportLog),
		message.CmdGeneratePrd: event.NewHandler(string(message.CmdGeneratePrd), func(data any) error {
			cmd, ok := data.(message.GeneratePrd)
			if !ok {
				return fmt.Errorf("generatePrd: unexpected payload %T", data)
			}
			return o.generatePrd(cmd.TaskDescription)
		}),
		message.CmdRequirementsChanged: event.NewHandler(string(message.CmdRequirementsChanged), func(data any) error {
			cmd, ok := data.(message.RequirementsChanged)
			if !ok {
				return fmt.Errorf("requirementsChanged: unexpected payload %T", data)
			}
			o.mu.Lock()
			o.requirements = panelstate.ValidateRequirements(cmd.Requirements)
			o.mu.Unlock()
			return nil
		}),
		message.CmdSettingsChanged: event.NewHandler(string(message.CmdSettingsChanged), func(data any) error {
			cmd, ok := data.(message.SettingsChanged)
			if !ok {
				return fmt.Errorf("settingsChanged: unexpected payload %T", data)
			}
			o.mu.Lock()
			for k, v := range cmd.Settings {
				o.settings[k] = v
			}
			o.mu.Unlock()
			return nil
		}),
		message.CmdReorderTasks: event.NewHandler(string(message.CmdReorderTasks), func(data any) error {
			cmd, ok := data.(message.ReorderTasks)
			if !ok {
				return fmt.Errorf("reorderTasks: unexpected payload %T", data)
			}
			return o.taskAction("Reordered tasks", func(e TaskEditor) error { return e.ReorderTasks(cmd.TaskIDs) })()
		}),
	}
}

// transition moves the state machine from one of from to to. It reports the
// previous status and whether the move was allowed.
func (o *Orchestrator) transition(to message.Status, from ...message.Status) (message.Status, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	prev := o.status
	for _, f := range from {
		if prev == f {
			o.status = to
			return prev, true
		}
	}
	return prev, false
}

func (o *Orchestrator) start() error {
	if prev, ok := o.transition(message.StatusRunning, message.StatusIdle); !ok {
		o.ui.ShowInfoToast(fmt.Sprintf("Loop is already %s", prev))
		return nil
	}

	o.mu.Lock()
	o.iteration = 1
	o.startTime = o.now()
	o.history = nil
	start := o.startTime.UnixMilli()
	o.mu.Unlock()

	if o.loop != nil {
		if err := o.loop.Start(o.ctx); err != nil {
			o.transition(message.StatusIdle, message.StatusRunning)
			o.ui.ShowErrorToast(fmt.Sprintf("Failed to start: %v", err))
			return fmt.Errorf("start loop: %w", err)
		}
	}

	o.ui.UpdateStatus(message.StatusRunning, 1, "")
	o.ui.UpdateSessionTiming(start, nil, 0)
	o.ui.AddLog("Loop started", message.LevelSuccess)
	o.RefreshStats(o.ctx)
	return nil
}

func (o *Orchestrator) pause() error {
	if _, ok := o.transition(message.StatusPaused, message.StatusRunning, message.StatusWaiting); !ok {
		o.ui.ShowInfoToast("Nothing to pause")
		return nil
	}
	if o.loop != nil {
		if err := o.loop.Pause(); err != nil {
			o.transition(message.StatusRunning, message.StatusPaused)
			return fmt.Errorf("pause loop: %w", err)
		}
	}
	_, iteration := o.Status()
	o.ui.UpdateStatus(message.StatusPaused, iteration, "")
	o.ui.AddLog("Loop paused", message.LevelWarning)
	return nil
}

func (o *Orchestrator) resume() error {
	if _, ok := o.transition(message.StatusRunning, message.StatusPaused); !ok {
		o.ui.ShowInfoToast("Loop is not paused")
		return nil
	}
	if o.loop != nil {
		if err := o.loop.Resume(); err != nil {
			o.transition(message.StatusPaused, message.StatusRunning)
			return fmt.Errorf("resume loop: %w", err)
		}
	}
	_, iteration := o.Status()
	o.ui.UpdateStatus(message.StatusRunning, iteration, "")
	o.ui.AddLog("Loop resumed", message.LevelInfo)
	return nil
}

func (o *Orchestrator) stop() error {
	if _, ok := o.transition(message.StatusIdle, message.StatusRunning, message.StatusPaused, message.StatusWaiting); !ok {
		return nil
	}
	if o.loop != nil {
		if err := o.loop.Stop(); err != nil {
			o.logger.Warn("loop did not stop cleanly", "error", err)
		}
	}
	_, iteration := o.Status()
	o.ui.UpdateStatus(message.StatusIdle, iteration, "")
	o.ui.UpdateCountdown(0)
	o.ui.AddLog("Loop stopped", message.LevelInfo)
	return nil
}

func (o *Orchestrator) taskAction(done string, fn func(TaskEditor) error) func() error {
	return func() error {
		editor, ok := o.loop.(TaskEditor)
		if !ok {
			o.ui.ShowWarningToast("The task loop does not support this action")
			return nil
		}
		if err := fn(editor); err != nil {
			o.ui.ShowErrorToast(err.Error())
			return err
		}
		o.ui.AddLog(done, message.LevelInfo)
		o.RefreshStats(o.ctx)
		return nil
	}
}

func (o *Orchestrator) generatePrd(description string) error {
	if description == "" {
		o.ui.ShowErrorToast("Describe what to build before generating a PRD")
		return nil
	}
	gen, ok := o.loop.(PrdGenerator)
	if !ok {
		o.ui.ShowWarningToast("PRD generation is not available")
		return nil
	}

	o.ui.ShowPrdGenerating()
	err := gen.GeneratePrd(o.ctx, description)
	o.ui.HidePrdGenerating()
	if err != nil {
		o.ui.ShowErrorToast(fmt.Sprintf("PRD generation failed: %v", err))
		return fmt.Errorf("generate PRD: %w", err)
	}
	o.ui.ShowSuccessToast("PRD generated")
	o.CheckPrd(o.ctx)
	o.RefreshStats(o.ctx)
	return nil
}

// SessionExport is the document written by exportData.
type SessionExport struct {
	Status       message.Status           `json:"status"`
	Iteration    int                      `json:"iteration"`
	StartTime    int64                    `json:"startTime"`
	History      []message.TaskCompletion `json:"history"`
	Requirements panelstate.Requirements  `json:"requirements"`
	Settings     map[string]any           `json:"settings"`
}

func (o *Orchestrator) exportData() error {
	o.mu.Lock()
	doc := SessionExport{
		Status:       o.status,
		Iteration:    o.iteration,
		History:      append([]message.TaskCompletion{}, o.history...),
		Requirements: o.requirements,
		Settings:     make(map[string]any, len(o.settings)),
	}
	if !o.startTime.IsZero() {
		doc.StartTime = o.startTime.UnixMilli()
	}
	for k, v := range o.settings {
		doc.Settings[k] = v
	}
	o.mu.Unlock()
	return o.export("session", doc)
}

func (o *Orchestrator) exportLog() error {
	var logs []message.Log
	o.mu.Lock()
	for _, v := range o.views {
		if l := v.Snapshot().Logs; len(l) > len(logs) {
			logs = l
		}
	}
	o.mu.Unlock()
	if logs == nil {
		logs = []message.Log{}
	}
	return o.export("log", logs)
}

func (o *Orchestrator) export(name string, v any) error {
	if o.exporter == nil {
		o.ui.ShowWarningToast("Export is not configured")
		return nil
	}
	where, err := o.exporter.Export(o.ctx, name, v)
	if err != nil {
		o.ui.ShowErrorToast(fmt.Sprintf("Export failed: %v", err))
		return fmt.Errorf("export %s: %w", name, err)
	}
	o.ui.ShowSuccessToast("Exported to " + where)
	return nil
}

// RefreshStats recomputes task stats on every bound view.
func (o *Orchestrator) RefreshStats(ctx context.Context) {
	if o.tasks == nil {
		return
	}
	for _, v := range o.boundViews() {
		v.RefreshStats(ctx, o.tasks)
	}
}

// CheckPrd rechecks PRD availability on every bound view.
func (o *Orchestrator) CheckPrd(ctx context.Context) {
	if o.tasks == nil {
		return
	}
	for _, v := range o.boundViews() {
		v.CheckPrdAvailability(ctx, o.tasks)
	}
}

func (o *Orchestrator) boundViews() []View {
	o.mu.Lock()
	defer o.mu.Unlock()
	views := make([]View, 0, len(o.views))
	for _, v := range o.views {
		views = append(views, v)
	}
	return views
}

// ReportIteration is called by the loop when a new iteration starts.
func (o *Orchestrator) ReportIteration(iteration int, taskInfo string) {
	o.mu.Lock()
	o.iteration = iteration
	status := o.status
	o.mu.Unlock()
	o.ui.UpdateStatus(status, iteration, taskInfo)
}

// ReportCountdown is called by the loop while it waits between iterations.
func (o *Orchestrator) ReportCountdown(seconds int) {
	o.ui.UpdateCountdown(seconds)
}

// ReportCompletion is called by the loop when a task finishes.
func (o *Orchestrator) ReportCompletion(task string, took time.Duration) {
	o.mu.Lock()
	tc := message.TaskCompletion{
		TaskDescription: task,
		CompletedAt:     o.now().UnixMilli(),
		Duration:        took.Milliseconds(),
		Iteration:       o.iteration,
	}
	o.history = append(o.history, tc)
	history := append([]message.TaskCompletion{}, o.history...)
	o.mu.Unlock()

	o.ui.UpdateHistory(history)
	o.ui.AddLog("Completed: "+task, message.Highlight(true))
	o.RefreshStats(o.ctx)
}

// Log writes a line to every view.
func (o *Orchestrator) Log(text string, opt message.LogOption) {
	o.ui.AddLog(text, opt)
}
