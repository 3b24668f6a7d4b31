// Package util holds small text helpers shared by the view surfaces.
package util

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Ellipsis marks text cut by Ellipsize.
const Ellipsis = "…"

// Ellipsize fits s into width terminal columns, replacing the cut tail with
// Ellipsis. Styling escape codes and wide characters are measured the way
// the terminal draws them. A width below 1 returns s unchanged.
func Ellipsize(s string, width int) string {
	if width < 1 || lipgloss.Width(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, Ellipsis)
}
