package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileExporter writes exports as indented JSON files under Dir.
type FileExporter struct {
	Dir string
	// Now defaults to time.Now.
	Now func() time.Time
}

// Export writes v to "<Dir>/ralph-<name>-<timestamp>.json" and returns the path.
func (e FileExporter) Export(_ context.Context, name string, v any) (string, error) {
	now := e.Now
	if now == nil {
		now = time.Now
	}
	if err := os.MkdirAll(e.Dir, 0755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s export: %w", name, err)
	}

	path := filepath.Join(e.Dir, fmt.Sprintf("ralph-%s-%s.json", name, now().Format("20060102-150405")))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write %s export: %w", name, err)
	}
	return path, nil
}
