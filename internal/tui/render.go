package tui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/ralphui/internal/message"
	"github.com/Iron-Ham/ralphui/internal/tui/styles"
	"github.com/Iron-Ham/ralphui/internal/util"
	"github.com/Iron-Ham/ralphui/internal/view"
)

// Section names stored in the panel state's collapsed list.
const (
	SectionLogs    = "logs"
	SectionHistory = "history"
)

const progressWidth = 24

// Renderer renders a view model with the terminal styles. It satisfies
// view.Renderer so a sidebar can render the same way the terminal does.
type Renderer struct {
	// Width wraps the output when positive. Single-line fields are cut to
	// fit instead of wrapping.
	Width int
}

// Render renders every section of m.
func (r Renderer) Render(m view.Model) string {
	return r.render(m, frame{})
}

// frame carries the interactive parts of the terminal surface into render.
type frame struct {
	collapsed []string
	scroll    int
	maxLogs   int
	spinner   string
}

// fit cuts a single-line field to the render width.
func (r Renderer) fit(s string) string {
	return util.Ellipsize(s, r.Width)
}

func (r Renderer) render(m view.Model, f frame) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteByte('\n')
	if m.TaskInfo != "" {
		b.WriteString(styles.Text.Render(r.fit("Task: " + m.TaskInfo)))
		b.WriteByte('\n')
	}
	b.WriteString(renderProgress(m.Stats))
	b.WriteByte('\n')
	if m.Stats.NextTask != "" {
		b.WriteString(styles.Muted.Render(r.fit("Next: " + m.Stats.NextTask)))
		b.WriteByte('\n')
	}
	if m.StartTime > 0 {
		started := time.UnixMilli(m.StartTime).Format("15:04:05")
		fmt.Fprintf(&b, "%s\n", styles.Muted.Render(fmt.Sprintf("Session started %s, %d pending", started, m.PendingTasks)))
	}
	if m.Countdown > 0 {
		fmt.Fprintf(&b, "%s\n", styles.Warning.Render(fmt.Sprintf("Next iteration in %ds", m.Countdown)))
	}
	if m.PrdGenerating {
		b.WriteString(styles.Primary.Render(strings.TrimSpace(f.spinner + " Generating PRD...")))
		b.WriteByte('\n')
	}
	if m.Loading {
		b.WriteString(styles.Muted.Render(strings.TrimSpace(f.spinner + " Loading...")))
		b.WriteByte('\n')
	}

	if len(m.History) > 0 {
		b.WriteString(sectionTitle("History", len(m.History), slices.Contains(f.collapsed, SectionHistory)))
		b.WriteByte('\n')
		if !slices.Contains(f.collapsed, SectionHistory) {
			for _, h := range m.History {
				row := fmt.Sprintf("%s %s %s",
					styles.Secondary.Render("✓"),
					h.TaskDescription,
					styles.Muted.Render(fmt.Sprintf("(%s, iteration %d)", time.Duration(h.Duration)*time.Millisecond, h.Iteration)))
				b.WriteString(r.fit(row))
				b.WriteByte('\n')
			}
		}
	}

	b.WriteString(sectionTitle("Log", len(m.Logs), slices.Contains(f.collapsed, SectionLogs)))
	b.WriteByte('\n')
	if !slices.Contains(f.collapsed, SectionLogs) {
		for _, l := range visibleLogs(m.Logs, f.scroll, f.maxLogs) {
			b.WriteString(renderLog(l))
			b.WriteByte('\n')
		}
	}

	out := strings.TrimRight(b.String(), "\n")
	if r.Width > 0 {
		out = lipgloss.NewStyle().Width(r.Width).Render(out)
	}
	return out
}

func renderHeader(m view.Model) string {
	badge := styles.StatusBadge.Background(styles.StatusColor(m.Status)).
		Render(styles.StatusIcon(m.Status) + " " + string(m.Status))
	header := styles.Title.Render("Ralph") + badge
	if m.Iteration > 0 {
		header += styles.Muted.Render(fmt.Sprintf("  iteration %d", m.Iteration))
	}
	return header
}

func renderProgress(s message.TaskStats) string {
	filled := 0
	if s.Total > 0 {
		filled = min(progressWidth*s.Progress/100, progressWidth)
	}
	bar := styles.ProgressFilled.Render(strings.Repeat("█", filled)) +
		styles.ProgressEmpty.Render(strings.Repeat("░", progressWidth-filled))
	return fmt.Sprintf("%s %d/%d (%d%%)", bar, s.Completed, s.Total, s.Progress)
}

func sectionTitle(name string, n int, collapsed bool) string {
	marker := "▾"
	if collapsed {
		marker = "▸"
	}
	return styles.SectionTitle.Render(fmt.Sprintf("%s %s (%d)", marker, name, n))
}

func renderLog(l message.Log) string {
	style := lipgloss.NewStyle().Foreground(styles.LevelColor(l.Level))
	if l.Highlight {
		style = style.Inherit(styles.Highlight)
	}
	return style.Render(l.Message)
}

// visibleLogs returns the window of logs ending scroll lines before the
// newest. limit <= 0 shows every line up to that point.
func visibleLogs(logs []message.Log, scroll, limit int) []message.Log {
	end := len(logs) - min(max(scroll, 0), len(logs))
	start := 0
	if limit > 0 && end > limit {
		start = end - limit
	}
	return logs[start:end]
}
