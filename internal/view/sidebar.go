package view

import (
	"fmt"
	"strings"
)

// Sidebar is the secondary view. Its surface is re-rendered wholesale, so it
// replays the full model whenever a transport attaches.
type Sidebar struct {
	*Controller
	renderer Renderer
}

// NewSidebar creates a Sidebar and restores its persisted state.
func NewSidebar(opts Options) *Sidebar {
	if opts.Name == "" {
		opts.Name = "sidebar"
	}
	r := opts.Renderer
	if r == nil {
		r = RendererFunc(PlainText)
	}
	return &Sidebar{Controller: newController(opts, true), renderer: r}
}

// Render renders the current model.
func (s *Sidebar) Render() string {
	return s.renderer.Render(s.Snapshot())
}

// PlainText renders a model without styling.
func PlainText(m Model) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Status: %s", m.Status)
	if m.Iteration > 0 {
		fmt.Fprintf(&b, " (iteration %d)", m.Iteration)
	}
	b.WriteByte('\n')
	if m.TaskInfo != "" {
		fmt.Fprintf(&b, "Task: %s\n", m.TaskInfo)
	}
	fmt.Fprintf(&b, "Progress: %d/%d (%d%%)\n", m.Stats.Completed, m.Stats.Total, m.Stats.Progress)
	if m.Stats.NextTask != "" {
		fmt.Fprintf(&b, "Next: %s\n", m.Stats.NextTask)
	}
	if m.Countdown > 0 {
		fmt.Fprintf(&b, "Next iteration in %ds\n", m.Countdown)
	}
	if m.PrdGenerating {
		b.WriteString("Generating PRD...\n")
	}
	for _, l := range m.Logs {
		fmt.Fprintf(&b, "[%s] %s\n", l.Level, l.Message)
	}
	return b.String()
}
