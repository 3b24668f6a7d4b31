package message

import (
	"encoding/json"
	"fmt"

	"github.com/Iron-Ham/ralphui/internal/errors"
)

// CommandName is the "command" tag of an inbound message.
type CommandName string

const (
	CmdStart               CommandName = "start"
	CmdStop                CommandName = "stop"
	CmdPause               CommandName = "pause"
	CmdResume              CommandName = "resume"
	CmdNext                CommandName = "next"
	CmdSkipTask            CommandName = "skipTask"
	CmdRetryTask           CommandName = "retryTask"
	CmdCompleteAllTasks    CommandName = "completeAllTasks"
	CmdResetAllTasks       CommandName = "resetAllTasks"
	CmdGeneratePrd         CommandName = "generatePrd"
	CmdRequirementsChanged CommandName = "requirementsChanged"
	CmdSettingsChanged     CommandName = "settingsChanged"
	CmdExportData          CommandName = "exportData"
	CmdExportLog           CommandName = "exportLog"
	CmdReorderTasks        CommandName = "reorderTasks"
	CmdOpenPanel           CommandName = "openPanel"
	CmdWebviewError        CommandName = "webviewError"
	CmdPanelStateChanged   CommandName = "panelStateChanged"
)

// Commands returns every known inbound command in declaration order.
func Commands() []CommandName {
	return []CommandName{
		CmdStart, CmdStop, CmdPause, CmdResume, CmdNext, CmdSkipTask, CmdRetryTask,
		CmdCompleteAllTasks, CmdResetAllTasks, CmdGeneratePrd, CmdRequirementsChanged,
		CmdSettingsChanged, CmdExportData, CmdExportLog, CmdReorderTasks, CmdOpenPanel,
		CmdWebviewError, CmdPanelStateChanged,
	}
}

// IsLocal reports whether the command is handled by the view controller
// itself instead of being forwarded to the orchestrator.
func (c CommandName) IsLocal() bool {
	switch c {
	case CmdWebviewError, CmdPanelStateChanged, CmdOpenPanel:
		return true
	}
	return false
}

// isControl reports whether c is a known command that carries no payload.
func (c CommandName) isControl() bool {
	switch c {
	case CmdStart, CmdStop, CmdPause, CmdResume, CmdNext, CmdSkipTask, CmdRetryTask,
		CmdCompleteAllTasks, CmdResetAllTasks, CmdExportData, CmdExportLog, CmdOpenPanel:
		return true
	}
	return false
}

// Command is a decoded inbound message. The set of implementations is closed;
// see DecodeCommand.
type Command interface {
	Name() CommandName
	command()
}

// Control is a command without payload (start, pause, exportLog, ...).
type Control struct {
	Command CommandName `json:"-"`
}

// GeneratePrd asks the orchestrator to draft a PRD from a description.
type GeneratePrd struct {
	TaskDescription string `json:"taskDescription"`
}

// RequirementsChanged carries the raw requirement toggles. The raw value is
// validated by panelstate.ValidateRequirements before use.
type RequirementsChanged struct {
	Requirements json.RawMessage `json:"requirements"`
}

// SettingsChanged carries loop settings edited in the view.
type SettingsChanged struct {
	Settings map[string]any `json:"settings"`
}

// ReorderTasks carries the new task order.
type ReorderTasks struct {
	TaskIDs []string `json:"taskIds"`
}

// WebviewError reports a script error raised inside the view.
type WebviewError struct {
	Error ScriptError `json:"error"`
}

// PanelStateChanged carries a partial panel state. The raw value is decoded
// leniently by panelstate.DecodePartial.
type PanelStateChanged struct {
	State json.RawMessage `json:"state"`
}

func (c Control) Name() CommandName           { return c.Command }
func (GeneratePrd) Name() CommandName         { return CmdGeneratePrd }
func (RequirementsChanged) Name() CommandName { return CmdRequirementsChanged }
func (SettingsChanged) Name() CommandName     { return CmdSettingsChanged }
func (ReorderTasks) Name() CommandName        { return CmdReorderTasks }
func (WebviewError) Name() CommandName        { return CmdWebviewError }
func (PanelStateChanged) Name() CommandName   { return CmdPanelStateChanged }

func (Control) command()             {}
func (GeneratePrd) command()         {}
func (RequirementsChanged) command() {}
func (SettingsChanged) command()     {}
func (ReorderTasks) command()        {}
func (WebviewError) command()        {}
func (PanelStateChanged) command()   {}

// DecodeCommand parses a raw {"command": ..., ...payload} message from a view.
// Commands outside the known set yield an error wrapping ErrUnknownCommand.
func DecodeCommand(data []byte) (Command, error) {
	var env struct {
		Command CommandName `json:"command"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.NewDecodeError("", fmt.Errorf("%w: %v", errors.ErrMalformedPayload, err))
	}

	var cmd Command
	var err error
	switch env.Command {
	case CmdGeneratePrd:
		cmd, err = decodeAs[GeneratePrd](data)
	case CmdRequirementsChanged:
		cmd, err = decodeAs[RequirementsChanged](data)
	case CmdSettingsChanged:
		cmd, err = decodeAs[SettingsChanged](data)
	case CmdReorderTasks:
		cmd, err = decodeAs[ReorderTasks](data)
	case CmdWebviewError:
		cmd, err = decodeAs[WebviewError](data)
	case CmdPanelStateChanged:
		cmd, err = decodeAs[PanelStateChanged](data)
	default:
		if env.Command.isControl() {
			return Control{Command: env.Command}, nil
		}
		return nil, errors.NewDecodeError(string(env.Command), errors.ErrUnknownCommand)
	}
	if err != nil {
		return nil, errors.NewDecodeError(string(env.Command), fmt.Errorf("%w: %v", errors.ErrMalformedPayload, err))
	}
	return cmd, nil
}

// EncodeCommand renders cmd in the wire form DecodeCommand accepts.
func EncodeCommand(cmd Command) ([]byte, error) {
	var payload []byte
	var err error
	switch c := cmd.(type) {
	case Control:
		if !c.Command.isControl() {
			return nil, errors.NewDecodeError(string(c.Command), errors.ErrUnknownCommand)
		}
		payload = []byte("{}")
	case GeneratePrd, RequirementsChanged, SettingsChanged, ReorderTasks, WebviewError, PanelStateChanged:
		payload, err = json.Marshal(c)
	default:
		return nil, errors.NewDecodeError(fmt.Sprintf("%T", cmd), errors.ErrUnknownCommand)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", cmd.Name(), err)
	}
	return withTag("command", string(cmd.Name()), payload)
}
