package prd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
)

var checkbox = regexp.MustCompile(`^(\s*[-*+]\s+\[)([ xX])(\]\s+.+)$`)

// Checklist drives the task loop directly off the PRD file: task actions
// tick, untick and reorder checklist lines in place. Tasks are identified by
// their 1-based position among the document's tasks.
type Checklist struct {
	file File

	mu      sync.Mutex
	running bool
	paused  bool
	skipped []int
}

// NewChecklist returns a Checklist editing the PRD at path.
func NewChecklist(path string) *Checklist {
	return &Checklist{file: File{Path: path}}
}

// File returns the PRD file the checklist edits.
func (c *Checklist) File() File { return c.file }

// Start begins a run. The PRD must exist.
func (c *Checklist) Start(ctx context.Context) error {
	ok, err := c.file.Exists(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no PRD at %s", c.file.Path)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running, c.paused, c.skipped = true, false, nil
	return nil
}

// Pause holds the current run. It fails when no run is active.
func (c *Checklist) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return fmt.Errorf("not running")
	}
	c.paused = true
	return nil
}

// Resume continues a paused run.
func (c *Checklist) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return fmt.Errorf("not running")
	}
	c.paused = false
	return nil
}

// Stop ends the run. Stopping an idle checklist is not an error.
func (c *Checklist) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running, c.paused = false, false
	return nil
}

// Running reports whether a run is active and not paused.
func (c *Checklist) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running && !c.paused
}

// Next marks the current task complete.
func (c *Checklist) Next() error {
	return c.edit(func(lines []string, tasks []Task) error {
		t, ok := c.current(tasks)
		if !ok {
			return fmt.Errorf("no pending tasks")
		}
		lines[t.Line-1] = setChecked(lines[t.Line-1], true)
		return nil
	})
}

// SkipTask leaves the current task pending and moves on to the one after it.
func (c *Checklist) SkipTask() error {
	return c.edit(func(_ []string, tasks []Task) error {
		t, ok := c.current(tasks)
		if !ok {
			return fmt.Errorf("no pending tasks")
		}
		c.mu.Lock()
		c.skipped = append(c.skipped, t.Line)
		c.mu.Unlock()
		return nil
	})
}

// RetryTask reopens the most recently completed task.
func (c *Checklist) RetryTask() error {
	return c.edit(func(lines []string, tasks []Task) error {
		for i := len(tasks) - 1; i >= 0; i-- {
			if tasks[i].Done {
				lines[tasks[i].Line-1] = setChecked(lines[tasks[i].Line-1], false)
				c.mu.Lock()
				c.skipped = slices.DeleteFunc(c.skipped, func(l int) bool { return l == tasks[i].Line })
				c.mu.Unlock()
				return nil
			}
		}
		return fmt.Errorf("no completed tasks to retry")
	})
}

// CompleteAllTasks ticks every task in the PRD.
func (c *Checklist) CompleteAllTasks() error {
	return c.setAll(true)
}

// ResetAllTasks unticks every task and forgets skipped ones.
func (c *Checklist) ResetAllTasks() error {
	c.mu.Lock()
	c.skipped = nil
	c.mu.Unlock()
	return c.setAll(false)
}

// ReorderTasks rewrites the task lines in the order given by ids. Every task
// id must appear exactly once; the lines keep their original positions in
// the document and only the task text moves between them.
func (c *Checklist) ReorderTasks(ids []string) error {
	return c.edit(func(lines []string, tasks []Task) error {
		if len(ids) != len(tasks) {
			return fmt.Errorf("reorder needs %d task ids, got %d", len(tasks), len(ids))
		}
		seen := make(map[int]bool, len(ids))
		reordered := make([]string, len(ids))
		for i, id := range ids {
			n, err := strconv.Atoi(id)
			if err != nil || n < 1 || n > len(tasks) || seen[n] {
				return fmt.Errorf("invalid task id %q", id)
			}
			seen[n] = true
			reordered[i] = lines[tasks[n-1].Line-1]
		}
		for i, t := range tasks {
			lines[t.Line-1] = reordered[i]
		}
		c.mu.Lock()
		c.skipped = nil
		c.mu.Unlock()
		return nil
	})
}

func (c *Checklist) setAll(done bool) error {
	return c.edit(func(lines []string, tasks []Task) error {
		for _, t := range tasks {
			lines[t.Line-1] = setChecked(lines[t.Line-1], done)
		}
		return nil
	})
}

// current returns the first pending task that has not been skipped this run.
func (c *Checklist) current(tasks []Task) (Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range tasks {
		if !t.Done && !slices.Contains(c.skipped, t.Line) {
			return t, true
		}
	}
	return Task{}, false
}

// edit loads the PRD, applies fn to its lines and writes the result back
// atomically.
func (c *Checklist) edit(fn func(lines []string, tasks []Task) error) error {
	data, err := os.ReadFile(c.file.Path)
	if err != nil {
		return fmt.Errorf("read PRD: %w", err)
	}
	doc := Parse(data)
	lines := strings.Split(string(data), "\n")
	if err := fn(lines, doc.Tasks); err != nil {
		return err
	}
	return writeAtomic(c.file.Path, []byte(strings.Join(lines, "\n")))
}

func setChecked(line string, done bool) string {
	mark := " "
	if done {
		mark = "x"
	}
	return checkbox.ReplaceAllString(line, "${1}"+mark+"${3}")
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".prd-*")
	if err != nil {
		return fmt.Errorf("write PRD: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("write PRD: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write PRD: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write PRD: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write PRD: %w", err)
	}
	return nil
}
