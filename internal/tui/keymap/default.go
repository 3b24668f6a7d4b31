package keymap

import tea "github.com/charmbracelet/bubbletea"

// DefaultKeymap returns the default key bindings.
func DefaultKeymap() *Keymap {
	return &Keymap{
		Name: "default",
		Modes: map[Mode]*ModeBindings{
			ModeNormal: defaultNormalBindings(),
			ModePrompt: defaultPromptBindings(),
		},
	}
}

func defaultNormalBindings() *ModeBindings {
	return &ModeBindings{
		Mode: ModeNormal,
		Bindings: []KeyBinding{
			// Loop control
			{KeyType: tea.KeyRunes, Rune: 's', Command: CmdStart, Description: "Start", Category: "Loop"},
			{KeyType: tea.KeyRunes, Rune: 'p', Command: CmdPause, Description: "Pause", Category: "Loop"},
			{KeyType: tea.KeyRunes, Rune: 'r', Command: CmdResume, Description: "Resume", Category: "Loop"},
			{KeyType: tea.KeyRunes, Rune: 'x', Command: CmdStop, Description: "Stop", Category: "Loop"},

			// Tasks
			{KeyType: tea.KeyRunes, Rune: 'n', Command: CmdNext, Description: "Complete current task", Category: "Tasks"},
			{KeyType: tea.KeyRunes, Rune: 'k', Command: CmdSkipTask, Description: "Skip task", Category: "Tasks"},
			{KeyType: tea.KeyRunes, Rune: 't', Command: CmdRetryTask, Description: "Retry task", Category: "Tasks"},
			{KeyType: tea.KeyRunes, Rune: 'C', Command: CmdCompleteAllTasks, Description: "Complete all tasks", Category: "Tasks"},
			{KeyType: tea.KeyRunes, Rune: 'R', Command: CmdResetAllTasks, Description: "Reset all tasks", Category: "Tasks"},
			{KeyType: tea.KeyRunes, Rune: 'g', Command: CmdPromptPrd, Description: "Generate PRD", Category: "Tasks"},

			// Output
			{KeyType: tea.KeyRunes, Rune: 'e', Command: CmdExportLog, Description: "Export log", Category: "Output"},
			{KeyType: tea.KeyRunes, Rune: 'E', Command: CmdExportData, Description: "Export session data", Category: "Output"},
			{KeyType: tea.KeyRunes, Rune: 'l', Command: CmdToggleLogs, Description: "Collapse logs", Category: "Output"},
			{KeyType: tea.KeyUp, Command: CmdScrollUp, Description: "Scroll up", Category: "Output"},
			{KeyType: tea.KeyDown, Command: CmdScrollDown, Description: "Scroll down", Category: "Output"},

			// View
			{KeyType: tea.KeyRunes, Rune: 'o', Command: CmdOpenPanel, Description: "Open panel", Category: "View"},
			{KeyType: tea.KeyEsc, Command: CmdDismiss, Description: "Dismiss toast", Category: "View"},
			{KeyType: tea.KeyRunes, Rune: '?', Command: CmdToggleHelp, Description: "Toggle help", Category: "View"},

			// Exit
			{KeyType: tea.KeyRunes, Rune: 'q', Command: CmdQuit, Description: "Quit", Category: "Application"},
			{KeyType: tea.KeyCtrlC, Command: CmdQuit, Description: "Quit", Category: "Application"},
		},
	}
}

func defaultPromptBindings() *ModeBindings {
	return &ModeBindings{
		Mode: ModePrompt,
		Bindings: []KeyBinding{
			{KeyType: tea.KeyEnter, Command: CmdSubmit, Description: "Generate", Category: "Control"},
			{KeyType: tea.KeyEsc, Command: CmdCancel, Description: "Cancel", Category: "Control"},
			{KeyType: tea.KeyCtrlC, Command: CmdQuit, Description: "Quit", Category: "Application"},
		},
	}
}
