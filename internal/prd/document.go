// Package prd reads the PRD markdown file that drives the task loop.
//
// Tasks are checklist items:
//
//	- [ ] Write the parser
//	- [x] Set up the repository
//
// Anything else in the document is ignored.
package prd

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/Iron-Ham/ralphui/internal/message"
)

var taskLine = regexp.MustCompile(`^\s*[-*+]\s+\[([ xX])\]\s+(.+?)\s*$`)

// Task is one checklist item.
type Task struct {
	Description string
	Done        bool
	// Line is the 1-based line number in the source document.
	Line int
}

// Document is a parsed PRD.
type Document struct {
	Tasks []Task
}

// Parse extracts the checklist tasks from markdown source.
func Parse(src []byte) Document {
	var doc Document
	sc := bufio.NewScanner(bytes.NewReader(src))
	line := 0
	for sc.Scan() {
		line++
		m := taskLine.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		doc.Tasks = append(doc.Tasks, Task{
			Description: m[2],
			Done:        strings.EqualFold(m[1], "x"),
			Line:        line,
		})
	}
	return doc
}

// Load reads and parses the PRD at path.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read PRD: %w", err)
	}
	return Parse(data), nil
}

// Stats summarises the document. Progress is the completed percentage,
// rounded down; an empty document reports 0.
func (d Document) Stats() message.TaskStats {
	var s message.TaskStats
	for _, t := range d.Tasks {
		if t.Done {
			s.Completed++
			continue
		}
		s.Pending++
		if s.NextTask == "" {
			s.NextTask = t.Description
		}
	}
	s.Total = s.Completed + s.Pending
	if s.Total > 0 {
		s.Progress = s.Completed * 100 / s.Total
	}
	return s
}

// File is a PRD on disk. It satisfies view.StatsSource and view.PrdChecker.
type File struct {
	Path string
}

// Stats loads the file and summarises it. A missing file has no tasks.
func (f File) Stats(ctx context.Context) (message.TaskStats, error) {
	if err := ctx.Err(); err != nil {
		return message.TaskStats{}, err
	}
	doc, err := Load(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return message.TaskStats{}, nil
	}
	if err != nil {
		return message.TaskStats{}, err
	}
	return doc.Stats(), nil
}

// Exists reports whether the file is present.
func (f File) Exists(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	info, err := os.Stat(f.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, err
	default:
		return !info.IsDir(), nil
	}
}
