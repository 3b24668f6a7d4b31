package message

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Iron-Ham/ralphui/internal/errors"
	"github.com/Iron-Ham/ralphui/internal/panelstate"
)

// Type is the "type" tag of an outbound message.
type Type string

const (
	TypeUpdate        Type = "update"
	TypeCountdown     Type = "countdown"
	TypeHistory       Type = "history"
	TypeTiming        Type = "timing"
	TypeStats         Type = "stats"
	TypeLog           Type = "log"
	TypePrdGenerating Type = "prdGenerating"
	TypePrdComplete   Type = "prdComplete"
	TypeToast         Type = "toast"
	TypeLoading       Type = "loading"
	TypePanelStateAck Type = "panelStateChanged"
)

// Outbound is a message posted from the host to a view surface.
// The set of implementations is closed; see Encode.
type Outbound interface {
	Type() Type
	outbound()
}

// Status is the run state of the task loop as shown in the views.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusPaused  Status = "paused"
	StatusWaiting Status = "waiting"
)

// LogLevel classifies a log line shown in the views.
type LogLevel string

const (
	LevelInfo    LogLevel = "info"
	LevelWarning LogLevel = "warning"
	LevelError   LogLevel = "error"
	LevelSuccess LogLevel = "success"
)

// Valid reports whether l is one of the four known levels.
func (l LogLevel) Valid() bool {
	switch l {
	case LevelInfo, LevelWarning, LevelError, LevelSuccess:
		return true
	}
	return false
}

// LogOption classifies a log line: either a LogLevel or the legacy
// Highlight flag.
type LogOption interface {
	logOption()
}

func (LogLevel) logOption() {}

// Highlight is the legacy boolean log classification. true maps to
// LevelSuccess, false to LevelInfo.
type Highlight bool

func (Highlight) logOption() {}

// NewLog normalizes a log line. With a LogLevel the line is highlighted only
// for LevelSuccess; with Highlight the level is success or info. A nil option
// or an unknown level yields a plain info line.
func NewLog(text string, opt LogOption) Log {
	switch o := opt.(type) {
	case Highlight:
		if o {
			return Log{Message: text, Highlight: true, Level: LevelSuccess}
		}
		return Log{Message: text, Level: LevelInfo}
	case LogLevel:
		if !o.Valid() {
			o = LevelInfo
		}
		return Log{Message: text, Highlight: o == LevelSuccess, Level: o}
	default:
		return Log{Message: text, Level: LevelInfo}
	}
}

// ToastType selects the toast styling in the view.
type ToastType string

const (
	ToastSuccess ToastType = "success"
	ToastError   ToastType = "error"
	ToastWarning ToastType = "warning"
	ToastInfo    ToastType = "info"
)

// TaskCompletion is one finished task in the session history.
// Times are unix milliseconds, durations are milliseconds.
type TaskCompletion struct {
	TaskDescription string `json:"taskDescription"`
	CompletedAt     int64  `json:"completedAt"`
	Duration        int64  `json:"duration"`
	Iteration       int    `json:"iteration"`
}

// TaskStats summarises task progress.
type TaskStats struct {
	Completed int    `json:"completed"`
	Pending   int    `json:"pending"`
	Total     int    `json:"total"`
	Progress  int    `json:"progress"`
	NextTask  string `json:"nextTask"`
}

// Update carries the run status line.
type Update struct {
	Status    Status `json:"status"`
	Iteration int    `json:"iteration"`
	TaskInfo  string `json:"taskInfo"`
}

// Countdown carries the seconds until the next iteration.
type Countdown struct {
	Seconds int `json:"seconds"`
}

// History carries the completed-task list.
type History struct {
	History []TaskCompletion `json:"history"`
}

// Timing carries session timing used for ETA display.
type Timing struct {
	StartTime    int64            `json:"startTime"`
	TaskHistory  []TaskCompletion `json:"taskHistory"`
	PendingTasks int              `json:"pendingTasks"`
}

// Stats carries task counts.
type Stats struct {
	TaskStats
}

// Log carries one log line.
type Log struct {
	Message   string   `json:"message"`
	Highlight bool     `json:"highlight"`
	Level     LogLevel `json:"level"`
}

// PrdGenerating tells the view a PRD is being generated.
type PrdGenerating struct{}

// PrdComplete tells the view PRD generation finished.
type PrdComplete struct{}

// Toast shows transient feedback. Duration is in milliseconds, 0 is sticky.
type Toast struct {
	ToastType   ToastType `json:"toastType"`
	Message     string    `json:"message"`
	Title       string    `json:"title"`
	Duration    int       `json:"duration"`
	Dismissible bool      `json:"dismissible"`
}

// Loading toggles the loading indicator.
type Loading struct {
	IsLoading bool `json:"isLoading"`
}

// PanelStateAck echoes the panel state after a panelStateChanged command was applied.
type PanelStateAck struct {
	State panelstate.State `json:"state"`
}

func (Update) Type() Type        { return TypeUpdate }
func (Countdown) Type() Type     { return TypeCountdown }
func (History) Type() Type       { return TypeHistory }
func (Timing) Type() Type        { return TypeTiming }
func (Stats) Type() Type         { return TypeStats }
func (Log) Type() Type           { return TypeLog }
func (PrdGenerating) Type() Type { return TypePrdGenerating }
func (PrdComplete) Type() Type   { return TypePrdComplete }
func (Toast) Type() Type         { return TypeToast }
func (Loading) Type() Type       { return TypeLoading }
func (PanelStateAck) Type() Type { return TypePanelStateAck }

func (Update) outbound()        {}
func (Countdown) outbound()     {}
func (History) outbound()       {}
func (Timing) outbound()        {}
func (Stats) outbound()         {}
func (Log) outbound()           {}
func (PrdGenerating) outbound() {}
func (PrdComplete) outbound()   {}
func (Toast) outbound()         {}
func (Loading) outbound()       {}
func (PanelStateAck) outbound() {}

// Encode renders m as {"type": <tag>, ...payload}.
func Encode(m Outbound) ([]byte, error) {
	switch m.(type) {
	case Update, Countdown, History, Timing, Stats, Log,
		PrdGenerating, PrdComplete, Toast, Loading, PanelStateAck:
	default:
		return nil, errors.NewDecodeError(fmt.Sprintf("%T", m), errors.ErrUnknownMessage)
	}

	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.Type(), err)
	}
	return withTag("type", string(m.Type()), payload)
}

// DecodeOutbound parses an encoded outbound message. Terminal views use it to
// read what the host posted.
func DecodeOutbound(data []byte) (Outbound, error) {
	var env struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.NewDecodeError("", fmt.Errorf("%w: %v", errors.ErrMalformedPayload, err))
	}

	var m Outbound
	var err error
	switch env.Type {
	case TypeUpdate:
		m, err = decodeAs[Update](data)
	case TypeCountdown:
		m, err = decodeAs[Countdown](data)
	case TypeHistory:
		m, err = decodeAs[History](data)
	case TypeTiming:
		m, err = decodeAs[Timing](data)
	case TypeStats:
		m, err = decodeAs[Stats](data)
	case TypeLog:
		m, err = decodeAs[Log](data)
	case TypePrdGenerating:
		m = PrdGenerating{}
	case TypePrdComplete:
		m = PrdComplete{}
	case TypeToast:
		m, err = decodeAs[Toast](data)
	case TypeLoading:
		m, err = decodeAs[Loading](data)
	case TypePanelStateAck:
		m, err = decodeAs[PanelStateAck](data)
	default:
		return nil, errors.NewDecodeError(string(env.Type), errors.ErrUnknownMessage)
	}
	if err != nil {
		return nil, errors.NewDecodeError(string(env.Type), fmt.Errorf("%w: %v", errors.ErrMalformedPayload, err))
	}
	return m, nil
}

func decodeAs[T any](data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

// withTag prepends "key":"value" to a JSON object.
func withTag(key, value string, object []byte) ([]byte, error) {
	tag, err := json.Marshal(map[string]string{key: value})
	if err != nil {
		return nil, err
	}
	object = bytes.TrimSpace(object)
	if len(object) < 2 || object[0] != '{' {
		return nil, fmt.Errorf("payload is not an object: %s", object)
	}
	if bytes.Equal(object, []byte("{}")) {
		return tag, nil
	}

	out := make([]byte, 0, len(tag)+len(object))
	out = append(out, tag[:len(tag)-1]...)
	out = append(out, ',')
	out = append(out, object[1:]...)
	return out, nil
}
