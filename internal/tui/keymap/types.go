// Package keymap provides key binding definitions and lookup for the terminal
// view. Bindings are grouped by input mode so the same key can mean different
// things while a prompt is open.
package keymap

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/ralphui/internal/message"
)

// Mode represents the current input mode of the TUI.
type Mode string

const (
	ModeNormal Mode = "normal" // Default viewing mode
	ModePrompt Mode = "prompt" // Typing a PRD description
)

// Command represents a named action that can be triggered by a key binding.
// Commands that are sent to the host as-is share their name with the inbound
// command they trigger.
type Command string

// Loop commands, sent to the host unchanged
const (
	CmdStart            = Command(message.CmdStart)
	CmdPause            = Command(message.CmdPause)
	CmdResume           = Command(message.CmdResume)
	CmdStop             = Command(message.CmdStop)
	CmdNext             = Command(message.CmdNext)
	CmdSkipTask         = Command(message.CmdSkipTask)
	CmdRetryTask        = Command(message.CmdRetryTask)
	CmdCompleteAllTasks = Command(message.CmdCompleteAllTasks)
	CmdResetAllTasks    = Command(message.CmdResetAllTasks)
	CmdExportLog        = Command(message.CmdExportLog)
	CmdExportData       = Command(message.CmdExportData)
	CmdOpenPanel        = Command(message.CmdOpenPanel)
)

// Local commands, handled by the terminal view
const (
	CmdPromptPrd  Command = "prompt_prd"
	CmdToggleLogs Command = "toggle_logs"
	CmdScrollUp   Command = "scroll_up"
	CmdScrollDown Command = "scroll_down"
	CmdDismiss    Command = "dismiss"
	CmdToggleHelp Command = "toggle_help"
	CmdQuit       Command = "quit"
)

// Prompt mode commands
const (
	CmdSubmit Command = "submit"
	CmdCancel Command = "cancel"
)

// Inbound returns the host command c stands for, if any.
func (c Command) Inbound() (message.CommandName, bool) {
	switch c {
	case CmdStart, CmdPause, CmdResume, CmdStop, CmdNext, CmdSkipTask, CmdRetryTask,
		CmdCompleteAllTasks, CmdResetAllTasks, CmdExportLog, CmdExportData, CmdOpenPanel:
		return message.CommandName(c), true
	}
	return "", false
}

// KeyBinding represents a single key binding configuration.
type KeyBinding struct {
	// KeyType is the key for this binding. For rune keys use tea.KeyRunes and
	// set Rune.
	KeyType tea.KeyType

	// Rune is the character for rune-based keys (when KeyType is tea.KeyRunes).
	Rune rune

	// Command is the action to execute when this binding is triggered.
	Command Command

	// Description is a human-readable description for help display.
	Description string

	// Category groups related bindings together in help display.
	Category string
}

// Matches checks if a tea.KeyMsg matches this binding.
func (kb KeyBinding) Matches(msg tea.KeyMsg) bool {
	if msg.Alt {
		return false
	}
	if kb.KeyType != tea.KeyRunes {
		return msg.Type == kb.KeyType
	}
	if msg.Type != tea.KeyRunes || len(msg.Runes) == 0 {
		return false
	}
	return msg.Runes[0] == kb.Rune
}

// String returns a human-readable representation of the key binding.
func (kb KeyBinding) String() string {
	if kb.KeyType != tea.KeyRunes {
		return kb.KeyType.String()
	}
	if kb.Rune == ' ' {
		return "space"
	}
	return string(kb.Rune)
}

// ModeBindings holds all key bindings for a specific mode.
type ModeBindings struct {
	Mode     Mode
	Bindings []KeyBinding
}

// GetBinding looks up a command for a key in this mode.
func (mb *ModeBindings) GetBinding(msg tea.KeyMsg) (Command, bool) {
	for _, binding := range mb.Bindings {
		if binding.Matches(msg) {
			return binding.Command, true
		}
	}
	return "", false
}

// Keymap contains all key bindings organized by mode.
type Keymap struct {
	Name  string
	Modes map[Mode]*ModeBindings
}

// GetBinding looks up a command for a key in a specific mode.
func (km *Keymap) GetBinding(msg tea.KeyMsg, mode Mode) (Command, bool) {
	mb, ok := km.Modes[mode]
	if !ok {
		return "", false
	}
	return mb.GetBinding(msg)
}

// GetModeBindings returns all bindings for a specific mode.
func (km *Keymap) GetModeBindings(mode Mode) []KeyBinding {
	mb, ok := km.Modes[mode]
	if !ok {
		return nil
	}
	return mb.Bindings
}

// GetBindingsForCommand returns all bindings that trigger cmd in mode.
func (km *Keymap) GetBindingsForCommand(cmd Command, mode Mode) []KeyBinding {
	var result []KeyBinding
	for _, binding := range km.GetModeBindings(mode) {
		if binding.Command == cmd {
			result = append(result, binding)
		}
	}
	return result
}

// GetCategories returns the categories of a mode's bindings in first-seen
// order.
func (km *Keymap) GetCategories(mode Mode) []string {
	seen := make(map[string]bool)
	var categories []string
	for _, binding := range km.GetModeBindings(mode) {
		if binding.Category != "" && !seen[binding.Category] {
			seen[binding.Category] = true
			categories = append(categories, binding.Category)
		}
	}
	return categories
}

// Validate reports keys bound more than once within a mode.
func (km *Keymap) Validate() error {
	for mode, mb := range km.Modes {
		seen := make(map[string]Command)
		for _, b := range mb.Bindings {
			key := b.String()
			if prev, dup := seen[key]; dup {
				return fmt.Errorf("mode %s: key %q bound to both %s and %s", mode, key, prev, b.Command)
			}
			seen[key] = b.Command
		}
	}
	return nil
}
