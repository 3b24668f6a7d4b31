package view

import "github.com/Iron-Ham/ralphui/internal/message"

// Result reports whether a UI operation was applied.
type Result int

const (
	// Ok means the operation ran. Delivery to the surface may still have been
	// queued or dropped; see channel.Channel.Post.
	Ok Result = iota
	// NoOp means the view was disposed and nothing happened.
	NoOp
)

// String returns "ok" or "noop".
func (r Result) String() string {
	switch r {
	case Ok:
		return "ok"
	case NoOp:
		return "noop"
	default:
		return "unknown"
	}
}

// UI is the surface the orchestrator drives. Every method is a silent NoOp
// once the view is disposed.
type UI interface {
	UpdateStatus(status message.Status, iteration int, taskInfo string) Result
	UpdateCountdown(seconds int) Result
	UpdateHistory(history []message.TaskCompletion) Result
	UpdateSessionTiming(startTime int64, taskHistory []message.TaskCompletion, pendingTasks int) Result
	UpdateStats(stats message.TaskStats) Result
	AddLog(text string, opt message.LogOption) Result
	ShowPrdGenerating() Result
	HidePrdGenerating() Result
	ShowToast(toast message.Toast) Result
	ShowSuccessToast(text string) Result
	ShowErrorToast(text string) Result
	ShowWarningToast(text string) Result
	ShowInfoToast(text string) Result
	ShowLoading() Result
	HideLoading() Result
}

// Default toast durations in milliseconds. Zero keeps the toast until dismissed.
const (
	SuccessToastDuration = 3000
	InfoToastDuration    = 3000
	WarningToastDuration = 5000
	ErrorToastDuration   = 0
)

func toastFor(kind message.ToastType, text string) message.Toast {
	t := message.Toast{ToastType: kind, Message: text, Dismissible: true}
	switch kind {
	case message.ToastSuccess:
		t.Title, t.Duration = "Success", SuccessToastDuration
	case message.ToastError:
		t.Title, t.Duration = "Error", ErrorToastDuration
	case message.ToastWarning:
		t.Title, t.Duration = "Warning", WarningToastDuration
	default:
		t.ToastType, t.Title, t.Duration = message.ToastInfo, "Info", InfoToastDuration
	}
	return t
}
