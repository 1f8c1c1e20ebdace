package logging

import (
	"strings"
	"sync"
)

// DefaultCaptureLines is how many lines GlobalLogCapture keeps.
const DefaultCaptureLines = 32

// LogCaptureWriter keeps the most recent log lines in a fixed ring.
// Each Write is one slog record.
type LogCaptureWriter struct {
	mu    sync.RWMutex
	lines []string
	next  int
	full  bool
}

// GlobalLogCapture backs the /api/log/latest endpoint.
var GlobalLogCapture = NewLogCaptureWriter(DefaultCaptureLines)

// NewLogCaptureWriter returns a writer that keeps size lines (at least one).
func NewLogCaptureWriter(size int) *LogCaptureWriter {
	if size < 1 {
		size = 1
	}
	return &LogCaptureWriter{lines: make([]string, size)}
}

// Write implements io.Writer.
func (w *LogCaptureWriter) Write(p []byte) (n int, err error) {
	line := strings.TrimRight(string(p), "\n")

	w.mu.Lock()
	defer w.mu.Unlock()
	w.lines[w.next] = line
	w.next = (w.next + 1) % len(w.lines)
	if w.next == 0 {
		w.full = true
	}
	return len(p), nil
}

// GetLastLine returns the most recent log line, or "" before the first write.
func (w *LogCaptureWriter) GetLastLine() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.full && w.next == 0 {
		return ""
	}
	return w.lines[(w.next-1+len(w.lines))%len(w.lines)]
}

// Recent returns up to n lines, oldest first.
func (w *LogCaptureWriter) Recent(n int) []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	count := w.next
	if w.full {
		count = len(w.lines)
	}
	if n > count {
		n = count
	}
	if n <= 0 {
		return nil
	}

	out := make([]string, n)
	start := (w.next - n + len(w.lines)) % len(w.lines)
	for i := range out {
		out[i] = w.lines[(start+i)%len(w.lines)]
	}
	return out
}
