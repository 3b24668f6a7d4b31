// Package testutil provides testing utilities for ralphui tests.
package testutil

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Iron-Ham/ralphui/internal/message"
)

// RecordingTransport records every message it is asked to send. It satisfies
// channel.Transport.
type RecordingTransport struct {
	mu       sync.Mutex
	messages []message.Outbound
	err      error
	onSend   func(message.Outbound)
}

// NewRecordingTransport returns an empty RecordingTransport.
func NewRecordingTransport() *RecordingTransport {
	return &RecordingTransport{}
}

// Send records m, or returns the configured failure without recording.
func (r *RecordingTransport) Send(m message.Outbound) error {
	r.mu.Lock()
	err := r.err
	hook := r.onSend
	if err == nil {
		r.messages = append(r.messages, m)
	}
	r.mu.Unlock()

	if hook != nil {
		hook(m)
	}
	return err
}

// FailWith makes subsequent sends fail with err. A nil err restores success.
func (r *RecordingTransport) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// OnSend installs a hook called after every send attempt.
func (r *RecordingTransport) OnSend(fn func(message.Outbound)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onSend = fn
}

// Messages returns a copy of the recorded messages.
func (r *RecordingTransport) Messages() []message.Outbound {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]message.Outbound(nil), r.messages...)
}

// Types returns the type tags of the recorded messages in order.
func (r *RecordingTransport) Types() []message.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]message.Type, len(r.messages))
	for i, m := range r.messages {
		types[i] = m.Type()
	}
	return types
}

// Logs returns the recorded log messages.
func (r *RecordingTransport) Logs() []message.Log {
	r.mu.Lock()
	defer r.mu.Unlock()
	var logs []message.Log
	for _, m := range r.messages {
		if l, ok := m.(message.Log); ok {
			logs = append(logs, l)
		}
	}
	return logs
}

// Last returns the most recent message, or nil.
func (r *RecordingTransport) Last() message.Outbound {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return nil
	}
	return r.messages[len(r.messages)-1]
}

// Reset forgets the recorded messages.
func (r *RecordingTransport) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}

// WritePRD writes content to PRD.md in a fresh temporary directory and
// returns the file path. The directory is removed when the test completes.
func WritePRD(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "PRD.md")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write PRD: %v", err)
	}
	return path
}
