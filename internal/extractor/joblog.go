package extractor

import (
	"strings"
	"sync"
)

// maxLogLines caps how much extractor output is retained per job; the oldest
// lines are dropped first.
const maxLogLines = 200

// LogBuffer collects leveled extractor output for a single job. Only the tail
// ends up in user-facing error messages.
type LogBuffer struct {
	mu      sync.Mutex
	lines   []string
	verbose bool
}

// NewLogBuffer returns an empty buffer. Debug lines are kept only when
// verbose is set.
func NewLogBuffer(verbose bool) *LogBuffer {
	return &LogBuffer{verbose: verbose}
}

// Debug records a debug-level line when verbose capture is enabled.
func (b *LogBuffer) Debug(msg string) {
	if !b.verbose {
		return
	}
	b.add("debug", msg)
}

// Warning records a warning-level line.
func (b *LogBuffer) Warning(msg string) { b.add("warning", msg) }

// Error records an error-level line.
func (b *LogBuffer) Error(msg string) { b.add("error", msg) }

func (b *LogBuffer) add(level, msg string) {
	line := strings.TrimSpace("[" + level + "] " + msg)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, line)
	if len(b.lines) > maxLogLines {
		b.lines = b.lines[len(b.lines)-maxLogLines:]
	}
}

// Tail returns up to n of the most recent lines.
func (b *LogBuffer) Tail(n int) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n <= 0 || len(b.lines) == 0 {
		return nil
	}
	if n > len(b.lines) {
		n = len(b.lines)
	}
	out := make([]string, n)
	copy(out, b.lines[len(b.lines)-n:])
	return out
}

// Len returns the number of retained lines.
func (b *LogBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}
