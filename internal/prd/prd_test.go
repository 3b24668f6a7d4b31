package prd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iron-Ham/ralphui/internal/message"
	"github.com/Iron-Ham/ralphui/internal/testutil"
)

const sample = `# Todo app

Some prose that is not a task.

## Tasks

- [x] Set up the repository
- [ ] Write the parser
* [X] Add CI
  - [ ] Nested follow-up
- [] not a task
- [ ]
`

func TestParse(t *testing.T) {
	doc := Parse([]byte(sample))
	require.Len(t, doc.Tasks, 4)

	assert.Equal(t, Task{Description: "Set up the repository", Done: true, Line: 7}, doc.Tasks[0])
	assert.Equal(t, Task{Description: "Write the parser", Done: false, Line: 8}, doc.Tasks[1])
	assert.True(t, doc.Tasks[2].Done)
	assert.Equal(t, "Nested follow-up", doc.Tasks[3].Description)
}

func TestDocument_Stats(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want message.TaskStats
	}{
		{"empty", "", message.TaskStats{}},
		{"no tasks", "# Title\n", message.TaskStats{}},
		{
			"mixed",
			sample,
			message.TaskStats{Completed: 2, Pending: 2, Total: 4, Progress: 50, NextTask: "Write the parser"},
		},
		{
			"rounds down",
			"- [x] a\n- [ ] b\n- [ ] c\n",
			message.TaskStats{Completed: 1, Pending: 2, Total: 3, Progress: 33, NextTask: "b"},
		},
		{
			"all done",
			"- [x] a\n- [x] b\n",
			message.TaskStats{Completed: 2, Total: 2, Progress: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse([]byte(tt.src)).Stats())
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "PRD.md"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFile(t *testing.T) {
	ctx := context.Background()
	path := testutil.WritePRD(t, "- [x] one\n- [ ] two\n")
	f := File{Path: path}

	ok, err := f.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	stats, err := f.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, "two", stats.NextTask)

	missing := File{Path: filepath.Join(t.TempDir(), "PRD.md")}
	ok, err = missing.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	stats, err = missing.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, message.TaskStats{}, stats)

	dir := File{Path: t.TempDir()}
	ok, err = dir.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFile_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := File{Path: testutil.WritePRD(t, "- [ ] a\n")}
	_, err := f.Stats(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = f.Exists(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func waitChange(t *testing.T, ch <-chan ChangeKind) ChangeKind {
	t.Helper()
	select {
	case k, ok := <-ch:
		require.True(t, ok, "channel closed")
		return k
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
		return 0
	}
}

func TestWatcher_ReportsWritesAndRemoval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	path := testutil.WritePRD(t, "- [ ] a\n")
	w := NewWatcher(path, 20*time.Millisecond, nil)
	changes, err := w.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("- [x] a\n"), 0o644))
	assert.Equal(t, Modified, waitChange(t, changes))

	require.NoError(t, os.Remove(path))
	assert.Equal(t, Removed, waitChange(t, changes))
}

func TestWatcher_FileCreatedLater(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	path := filepath.Join(t.TempDir(), "docs", "PRD.md")
	changes, err := NewWatcher(path, 20*time.Millisecond, nil).Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "notes.md"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("- [ ] a\n"), 0o644))
	assert.Equal(t, Modified, waitChange(t, changes))
}

func TestWatcher_ClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	changes, err := NewWatcher(testutil.WritePRD(t, ""), 0, nil).Watch(ctx)
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-changes:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestChangeKind_String(t *testing.T) {
	assert.Equal(t, "modified", Modified.String())
	assert.Equal(t, "removed", Removed.String())
}
