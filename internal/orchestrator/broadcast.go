package orchestrator

import (
	"fmt"
	"runtime/debug"
	"slices"
	"sync"

	"github.com/Iron-Ham/ralphui/internal/logging"
	"github.com/Iron-Ham/ralphui/internal/message"
	"github.com/Iron-Ham/ralphui/internal/view"
)

// Broadcast fans every UI call out to a set of views so that all of them show
// the same state. Nil views are skipped and a view that panics does not stop
// the others.
type Broadcast struct {
	logger *logging.Logger

	mu    sync.RWMutex
	views []view.UI
}

// Ensure Broadcast implements view.UI.
var _ view.UI = (*Broadcast)(nil)

// NewBroadcast creates a Broadcast over views.
func NewBroadcast(logger *logging.Logger, views ...view.UI) *Broadcast {
	b := &Broadcast{logger: logging.OrNop(logger).WithComponent("broadcast")}
	for _, v := range views {
		b.Add(v)
	}
	return b
}

// Add registers v. Adding nil or an already registered view does nothing.
func (b *Broadcast) Add(v view.UI) {
	if v == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !slices.Contains(b.views, v) {
		b.views = append(b.views, v)
	}
}

// Remove unregisters v.
func (b *Broadcast) Remove(v view.UI) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := slices.Index(b.views, v); i >= 0 {
		b.views = slices.Delete(b.views, i, i+1)
	}
}

// Len returns the number of registered views.
func (b *Broadcast) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.views)
}

// each calls fn on every view and returns Ok if any view applied the call.
func (b *Broadcast) each(op string, fn func(view.UI) view.Result) view.Result {
	b.mu.RLock()
	views := slices.Clone(b.views)
	b.mu.RUnlock()

	result := view.NoOp
	for _, v := range views {
		if b.safeCall(op, v, fn) == view.Ok {
			result = view.Ok
		}
	}
	return result
}

func (b *Broadcast) safeCall(op string, v view.UI, fn func(view.UI) view.Result) (r view.Result) {
	defer func() {
		if p := recover(); p != nil {
			b.logger.Error("view panicked during broadcast",
				"op", op,
				"panic", fmt.Sprint(p),
				"stack", string(debug.Stack()),
			)
			r = view.NoOp
		}
	}()
	return fn(v)
}

// UpdateStatus calls UpdateStatus on every registered view.
func (b *Broadcast) UpdateStatus(status message.Status, iteration int, taskInfo string) view.Result {
	return b.each("updateStatus", func(v view.UI) view.Result { return v.UpdateStatus(status, iteration, taskInfo) })
}

// UpdateCountdown calls UpdateCountdown on every registered view.
func (b *Broadcast) UpdateCountdown(seconds int) view.Result {
	return b.each("updateCountdown", func(v view.UI) view.Result { return v.UpdateCountdown(seconds) })
}

// UpdateHistory calls UpdateHistory on every registered view.
func (b *Broadcast) UpdateHistory(history []message.TaskCompletion) view.Result {
	return b.each("updateHistory", func(v view.UI) view.Result { return v.UpdateHistory(history) })
}

// UpdateSessionTiming calls UpdateSessionTiming on every registered view.
func (b *Broadcast) UpdateSessionTiming(startTime int64, taskHistory []message.TaskCompletion, pendingTasks int) view.Result {
	return b.each("updateSessionTiming", func(v view.UI) view.Result {
		return v.UpdateSessionTiming(startTime, taskHistory, pendingTasks)
	})
}

// UpdateStats calls UpdateStats on every registered view.
func (b *Broadcast) UpdateStats(stats message.TaskStats) view.Result {
	return b.each("updateStats", func(v view.UI) view.Result { return v.UpdateStats(stats) })
}

// AddLog calls AddLog on every registered view.
func (b *Broadcast) AddLog(text string, opt message.LogOption) view.Result {
	return b.each("addLog", func(v view.UI) view.Result { return v.AddLog(text, opt) })
}

// ShowPrdGenerating calls ShowPrdGenerating on every registered view.
func (b *Broadcast) ShowPrdGenerating() view.Result {
	return b.each("showPrdGenerating", view.UI.ShowPrdGenerating)
}

// HidePrdGenerating calls HidePrdGenerating on every registered view.
func (b *Broadcast) HidePrdGenerating() view.Result {
	return b.each("hidePrdGenerating", view.UI.HidePrdGenerating)
}

// ShowToast calls ShowToast on every registered view.
func (b *Broadcast) ShowToast(toast message.Toast) view.Result {
	return b.each("showToast", func(v view.UI) view.Result { return v.ShowToast(toast) })
}

// ShowSuccessToast calls ShowSuccessToast on every registered view.
func (b *Broadcast) ShowSuccessToast(text string) view.Result {
	return b.each("showSuccessToast", func(v view.UI) view.Result { return v.ShowSuccessToast(text) })
}

// ShowErrorToast calls ShowErrorToast on every registered view.
func (b *Broadcast) ShowErrorToast(text string) view.Result {
	return b.each("showErrorToast", func(v view.UI) view.Result { return v.ShowErrorToast(text) })
}

// ShowWarningToast calls ShowWarningToast on every registered view.
func (b *Broadcast) ShowWarningToast(text string) view.Result {
	return b.each("showWarningToast", func(v view.UI) view.Result { return v.ShowWarningToast(text) })
}

// ShowInfoToast calls ShowInfoToast on every registered view.
func (b *Broadcast) ShowInfoToast(text string) view.Result {
	return b.each("showInfoToast", func(v view.UI) view.Result { return v.ShowInfoToast(text) })
}

// ShowLoading calls ShowLoading on every registered view.
func (b *Broadcast) ShowLoading() view.Result {
	return b.each("showLoading", view.UI.ShowLoading)
}

// HideLoading calls HideLoading on every registered view.
func (b *Broadcast) HideLoading() view.Result {
	return b.each("hideLoading", view.UI.HideLoading)
}
