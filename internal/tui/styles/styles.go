// Package styles holds the lipgloss palette and styles of the terminal view.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/ralphui/internal/message"
)

var (
	// Colors - all colors meet WCAG AA contrast (4.5:1) on both black and dark surfaces
	PrimaryColor   = lipgloss.Color("#A78BFA") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	ErrorColor     = lipgloss.Color("#F87171") // Red
	InfoColor      = lipgloss.Color("#60A5FA") // Blue
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	SurfaceColor   = lipgloss.Color("#1F2937") // Dark surface
	TextColor      = lipgloss.Color("#F9FAFB") // Light text
	BorderColor    = lipgloss.Color("#6B7280") // Gray

	// Run status colors
	StatusIdle    = MutedColor
	StatusRunning = SecondaryColor
	StatusPaused  = InfoColor
	StatusWaiting = WarningColor

	// Convenience styles for colors
	Primary   = lipgloss.NewStyle().Foreground(PrimaryColor)
	Secondary = lipgloss.NewStyle().Foreground(SecondaryColor)
	Warning   = lipgloss.NewStyle().Foreground(WarningColor)
	Error     = lipgloss.NewStyle().Foreground(ErrorColor)
	Muted     = lipgloss.NewStyle().Foreground(MutedColor)
	Text      = lipgloss.NewStyle().Foreground(TextColor)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor)

	StatusBadge = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextColor).
			Padding(0, 1).
			MarginLeft(1)

	SectionTitle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Bold(true).
			MarginTop(1)

	ContentBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	Highlight = lipgloss.NewStyle().Bold(true)

	Toast = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1).
		MarginTop(1)

	Prompt = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Padding(0, 1).
		MarginTop(1)

	HelpBar = lipgloss.NewStyle().
		Foreground(MutedColor).
		MarginTop(1)

	HelpKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(SecondaryColor)

	ProgressFilled = lipgloss.NewStyle().Foreground(SecondaryColor)
	ProgressEmpty  = lipgloss.NewStyle().Foreground(BorderColor)
)

// StatusColor returns the color for a run status.
func StatusColor(status message.Status) lipgloss.Color {
	switch status {
	case message.StatusRunning:
		return StatusRunning
	case message.StatusPaused:
		return StatusPaused
	case message.StatusWaiting:
		return StatusWaiting
	default:
		return StatusIdle
	}
}

// StatusIcon returns an icon for a run status.
func StatusIcon(status message.Status) string {
	switch status {
	case message.StatusRunning:
		return "●"
	case message.StatusPaused:
		return "⏸"
	case message.StatusWaiting:
		return "⏱"
	default:
		return "○"
	}
}

// LevelColor returns the color used for a log level or toast kind.
func LevelColor(level message.LogLevel) lipgloss.Color {
	switch level {
	case message.LevelSuccess:
		return SecondaryColor
	case message.LevelWarning:
		return WarningColor
	case message.LevelError:
		return ErrorColor
	default:
		return MutedColor
	}
}

// ToastColor returns the border color of a toast.
func ToastColor(kind message.ToastType) lipgloss.Color {
	switch kind {
	case message.ToastSuccess:
		return SecondaryColor
	case message.ToastWarning:
		return WarningColor
	case message.ToastError:
		return ErrorColor
	default:
		return InfoColor
	}
}
