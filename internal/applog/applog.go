// Package applog provides the UI-facing log history consumed by a
// diagnostic panel, plus thin slog wrappers for ambient process
// diagnostics. The two halves are independent: Diag never touches History.
package applog

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// History is an append-only buffer of formatted "[tag] message" strings
// guarded by a mutex, with a has-new flag a UI can poll cheaply without
// taking the lock.
type History struct {
	mu      sync.Mutex
	entries []string
	hasNew  atomic.Bool
}

// NewHistory returns an empty log history.
func NewHistory() *History {
	return &History{}
}

// Log appends a formatted entry and raises hasNew. tag defaults to "LOG".
func (h *History) Log(msg string, tag ...string) {
	t := "LOG"
	if len(tag) > 0 && tag[0] != "" {
		t = tag[0]
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, fmt.Sprintf("[%s] %s", t, msg))
	h.hasNew.Store(true)
}

// GetHistory returns a copy of all entries and clears hasNew.
func (h *History) GetHistory() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hasNew.Store(false)
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

// Clear empties the history and clears hasNew.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
	h.hasNew.Store(false)
}

// HasNew reports whether any entries were added since the last GetHistory
// or Clear call.
func (h *History) HasNew() bool {
	return h.hasNew.Load()
}

var diag = slog.Default()

// SetDiag replaces the logger used by the ambient diagnostic helpers below.
// Call once at process startup.
func SetDiag(l *slog.Logger) {
	diag = l
}

// Startup logs a process-lifecycle diagnostic at info level.
func Startup(msg string, args ...any) {
	diag.Info(msg, args...)
}

// Warn logs a recoverable condition (a directory the scanner couldn't open,
// a watch that hit a platform limit) at warn level.
func Warn(msg string, args ...any) {
	diag.Warn(msg, args...)
}

// Fatal logs an unrecoverable I/O condition at error level. Callers decide
// whether to exit; Fatal never calls os.Exit itself.
func Fatal(msg string, args ...any) {
	diag.Error(msg, args...)
}
