package view

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Iron-Ham/ralphui/internal/channel"
	"github.com/Iron-Ham/ralphui/internal/errors"
	"github.com/Iron-Ham/ralphui/internal/event"
	"github.com/Iron-Ham/ralphui/internal/logging"
	"github.com/Iron-Ham/ralphui/internal/message"
	"github.com/Iron-Ham/ralphui/internal/panelstate"
)

// DefaultLogLimit is the number of log lines a view keeps for re-render.
const DefaultLogLimit = 50

// Options configures a view controller.
type Options struct {
	// Name identifies the view in routes and logs ("panel", "sidebar").
	Name string
	// Visible is the initial visibility of the surface.
	Visible bool
	// LogLimit bounds the log buffer. Zero means DefaultLogLimit.
	LogLimit int
	// Storage and StateKey locate the persisted panel state. A nil Storage
	// keeps state in memory.
	Storage  panelstate.Storage
	StateKey string
	Logger   *logging.Logger
	Tracer   trace.Tracer
	// OnOpenPanel runs when the view asks for the main panel to be shown.
	OnOpenPanel func()
	// Renderer renders the model for Sidebar.Render.
	Renderer Renderer
	// OnAttach runs after each transport is attached, once any replay has
	// been posted.
	OnAttach func()
}

// StatsSource computes task statistics, possibly slowly.
type StatsSource interface {
	Stats(ctx context.Context) (message.TaskStats, error)
}

// PrdChecker reports whether a PRD document exists.
type PrdChecker interface {
	Exists(ctx context.Context) (bool, error)
}

// Controller is the shared core of Panel and Sidebar. It owns one channel,
// one event bus and one panel state store, and implements UI.
type Controller struct {
	name        string
	label       string
	logLimit    int
	replay      bool
	onOpenPanel func()
	onAttach    func()
	logger      *logging.Logger
	tracer      trace.Tracer

	channel *channel.Channel
	bus     *event.Bus
	store   *panelstate.Store

	disposed    atomic.Bool
	disposeOnce sync.Once

	mu        sync.Mutex
	model     Model
	onDispose func()
}

func newController(opts Options, replay bool) *Controller {
	logger := logging.OrNop(opts.Logger).WithView(opts.Name)
	tracer := opts.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("ralphui/view")
	}
	limit := opts.LogLimit
	if limit <= 0 {
		limit = DefaultLogLimit
	}

	c := &Controller{
		name:        opts.Name,
		label:       label(opts.Name),
		logLimit:    limit,
		replay:      replay,
		onOpenPanel: opts.OnOpenPanel,
		onAttach:    opts.OnAttach,
		logger:      logger,
		tracer:      tracer,
		channel:     channel.New(opts.Visible, logger),
		bus:         event.NewBus(logger),
		store:       panelstate.NewStore(opts.Storage, opts.StateKey, logger),
		model:       NewModel(),
	}
	c.store.Restore()
	return c
}

func label(name string) string {
	if name == "" {
		return "View"
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// Name returns the view name.
func (c *Controller) Name() string { return c.name }

// guard runs fn unless the view is disposed.
func (c *Controller) guard(fn func()) Result {
	if c.disposed.Load() {
		return NoOp
	}
	fn()
	return Ok
}

// post folds m into the model and hands it to the channel.
func (c *Controller) post(m message.Outbound) Result {
	return c.guard(func() {
		c.mu.Lock()
		c.model.Apply(m, c.logLimit)
		c.mu.Unlock()
		c.channel.Post(m)
	})
}

// UpdateStatus posts the run status, iteration and current task.
func (c *Controller) UpdateStatus(status message.Status, iteration int, taskInfo string) Result {
	return c.post(message.Update{Status: status, Iteration: iteration, TaskInfo: taskInfo})
}

// UpdateCountdown posts the seconds left before the next iteration.
func (c *Controller) UpdateCountdown(seconds int) Result {
	return c.post(message.Countdown{Seconds: seconds})
}

// UpdateHistory posts the completed tasks. A nil history is sent as empty.
func (c *Controller) UpdateHistory(history []message.TaskCompletion) Result {
	if history == nil {
		history = []message.TaskCompletion{}
	}
	return c.post(message.History{History: history})
}

// UpdateSessionTiming posts the session start (unix ms), completed tasks and
// the number still pending.
func (c *Controller) UpdateSessionTiming(startTime int64, taskHistory []message.TaskCompletion, pendingTasks int) Result {
	if taskHistory == nil {
		taskHistory = []message.TaskCompletion{}
	}
	return c.post(message.Timing{StartTime: startTime, TaskHistory: taskHistory, PendingTasks: pendingTasks})
}

// UpdateStats posts task progress.
func (c *Controller) UpdateStats(stats message.TaskStats) Result {
	return c.post(message.Stats{TaskStats: stats})
}

// AddLog appends a log line. opt is a message.LogLevel or the legacy
// message.Highlight flag.
func (c *Controller) AddLog(text string, opt message.LogOption) Result {
	return c.post(message.NewLog(text, opt))
}

// ShowPrdGenerating shows the PRD generation indicator.
func (c *Controller) ShowPrdGenerating() Result { return c.post(message.PrdGenerating{}) }

// HidePrdGenerating hides the PRD generation indicator.
func (c *Controller) HidePrdGenerating() Result { return c.post(message.PrdComplete{}) }

// ShowToast posts t as given, defaulting an empty type to info.
func (c *Controller) ShowToast(t message.Toast) Result {
	if t.ToastType == "" {
		t.ToastType = message.ToastInfo
	}
	return c.post(t)
}

// ShowSuccessToast posts a success toast with the default duration.
func (c *Controller) ShowSuccessToast(text string) Result {
	return c.post(toastFor(message.ToastSuccess, text))
}

// ShowErrorToast posts an error toast. It stays until dismissed.
func (c *Controller) ShowErrorToast(text string) Result {
	return c.post(toastFor(message.ToastError, text))
}

// ShowWarningToast posts a warning toast.
func (c *Controller) ShowWarningToast(text string) Result {
	return c.post(toastFor(message.ToastWarning, text))
}

// ShowInfoToast posts an info toast.
func (c *Controller) ShowInfoToast(text string) Result {
	return c.post(toastFor(message.ToastInfo, text))
}

// ShowLoading shows the loading indicator.
func (c *Controller) ShowLoading() Result { return c.post(message.Loading{IsLoading: true}) }

// HideLoading hides the loading indicator.
func (c *Controller) HideLoading() Result { return c.post(message.Loading{IsLoading: false}) }

// RefreshStats computes stats from src and posts them. The disposal flag is
// checked before and after the computation; a result that arrives after
// Dispose is discarded.
func (c *Controller) RefreshStats(ctx context.Context, src StatsSource) Result {
	if c.disposed.Load() {
		return NoOp
	}
	stats, err := src.Stats(ctx)
	if c.disposed.Load() {
		c.logger.Debug("discarding stats computed after dispose")
		return NoOp
	}
	if err != nil {
		c.logger.Warn("failed to compute task stats", "error", err)
		return Ok
	}
	return c.UpdateStats(stats)
}

// CheckPrdAvailability records whether a PRD exists and logs a hint when it
// does not. Like RefreshStats it rechecks disposal after the probe.
func (c *Controller) CheckPrdAvailability(ctx context.Context, probe PrdChecker) Result {
	if c.disposed.Load() {
		return NoOp
	}
	ok, err := probe.Exists(ctx)
	if c.disposed.Load() {
		c.logger.Debug("discarding PRD check finished after dispose")
		return NoOp
	}
	if err != nil {
		c.logger.Warn("failed to check PRD availability", "error", err)
		return Ok
	}

	c.mu.Lock()
	c.model.PrdAvailable = ok
	c.mu.Unlock()
	if !ok {
		return c.AddLog("No PRD found. Generate one to get started.", message.LevelWarning)
	}
	return Ok
}

// HandleMessage decodes a raw command from the surface and dispatches it.
func (c *Controller) HandleMessage(ctx context.Context, data []byte) error {
	ctx, span := c.tracer.Start(ctx, "view.command", trace.WithAttributes(
		attribute.String("ralphui.view", c.name),
	))
	defer span.End()

	if c.disposed.Load() {
		return errors.ErrViewDisposed
	}

	cmd, err := message.DecodeCommand(data)
	if err != nil {
		c.logger.Warn("dropping undecodable command", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode failed")
		return errors.NewViewError("decode command", err).WithView(c.name).WithSeverity(errors.SeverityWarning)
	}
	span.SetAttributes(attribute.String("ralphui.command", string(cmd.Name())))

	if err := c.dispatch(ctx, cmd); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// Dispatch handles an already decoded command.
func (c *Controller) Dispatch(ctx context.Context, cmd message.Command) error {
	if c.disposed.Load() {
		return errors.ErrViewDisposed
	}
	return c.dispatch(ctx, cmd)
}

func (c *Controller) dispatch(_ context.Context, cmd message.Command) error {
	switch v := cmd.(type) {
	case message.WebviewError:
		c.logger.Error(v.Error.Format(c.label), "stack", v.Error.Stack)
		return nil
	case message.PanelStateChanged:
		return c.applyPanelState(v)
	}

	if cmd.Name() == message.CmdOpenPanel {
		if c.onOpenPanel != nil {
			c.onOpenPanel()
		} else {
			c.logger.Debug("openPanel requested but no panel opener is set")
		}
		return nil
	}

	if n := c.bus.Emit(string(cmd.Name()), cmd); n == 0 {
		c.logger.Debug("no handler for command", "command", string(cmd.Name()))
	}
	return nil
}

func (c *Controller) applyPanelState(cmd message.PanelStateChanged) error {
	partial, err := panelstate.DecodePartial(cmd.State)
	if err != nil {
		c.logger.Warn("ignoring malformed panel state", "error", err)
		return errors.NewViewError("decode panel state", err).
			WithView(c.name).
			WithCommand(string(message.CmdPanelStateChanged)).
			WithSeverity(errors.SeverityWarning)
	}

	state, changed := c.store.Update(partial)
	if !changed || c.disposed.Load() {
		return nil
	}
	if err := c.store.Save(state); err != nil {
		c.logger.Warn("failed to persist panel state", "error", err)
	}
	c.channel.Post(message.PanelStateAck{State: state})
	return nil
}

// On binds h to an inbound command on this view's bus. After Dispose the
// returned subscription is inert.
func (c *Controller) On(cmd message.CommandName, h *event.Handler) *event.Subscription {
	return c.bus.On(string(cmd), h)
}

// OnDidDispose sets the callback run once when the view is disposed.
func (c *Controller) OnDidDispose(fn func()) Result {
	return c.guard(func() {
		c.mu.Lock()
		c.onDispose = fn
		c.mu.Unlock()
	})
}

// Attach connects a transport. Views created with replay (Sidebar) re-send
// their model so a fresh surface starts complete. The replay replaces
// whatever was queued for an earlier transport, since the model already
// holds those messages.
func (c *Controller) Attach(t channel.Transport) Result {
	return c.guard(func() {
		if c.replay {
			if n := c.channel.Reset(); n > 0 {
				c.logger.Debug("dropped queue superseded by replay", "count", n)
			}
		}
		c.channel.Attach(t)
		if c.replay {
			for _, m := range c.Snapshot().Messages() {
				c.channel.Post(m)
			}
		}
		if c.onAttach != nil {
			c.onAttach()
		}
	})
}

// Detach disconnects t if it is the attached transport.
func (c *Controller) Detach(t channel.Transport) {
	c.channel.Detach(t)
}

// SetVisible forwards a visibility change. Becoming visible flushes the
// messages queued while hidden.
func (c *Controller) SetVisible(visible bool) Result {
	return c.guard(func() {
		if n := c.channel.SetVisible(visible); n > 0 {
			c.logger.Debug("flushed queued messages", "count", n)
		}
	})
}

// Visible reports the current visibility.
func (c *Controller) Visible() bool { return c.channel.Visible() }

// Attached reports whether a transport is attached.
func (c *Controller) Attached() bool { return c.channel.Attached() }

// QueueLen returns the number of messages waiting for the view to show.
func (c *Controller) QueueLen() int { return c.channel.QueueLen() }

// Snapshot returns a copy of the current view model.
func (c *Controller) Snapshot() Model {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model.clone()
}

// PanelState returns the current panel state.
func (c *Controller) PanelState() panelstate.State {
	return c.store.State()
}

// IsDisposed reports whether Dispose has been called.
func (c *Controller) IsDisposed() bool { return c.disposed.Load() }

// Dispose tears the view down: handlers are cleared, queued messages dropped
// and the disposal callback runs. Only the first call has any effect.
func (c *Controller) Dispose() {
	c.disposeOnce.Do(func() {
		c.disposed.Store(true)
		c.bus.Dispose()
		c.channel.Dispose()

		c.mu.Lock()
		cb := c.onDispose
		c.onDispose = nil
		c.mu.Unlock()
		if cb != nil {
			cb()
		}
		c.logger.Debug("view disposed")
	})
}
