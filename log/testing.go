package log

import (
	"fmt"
	"strings"
	"sync"
)

// MemoryLogger captures all log messages in memory for testing.
// Thread-safe for concurrent use.
type MemoryLogger struct {
	mu       sync.Mutex
	messages []LogMessage
}

// LogMessage represents a captured log entry
type LogMessage struct {
	Level   string // LevelInfo, LevelDebug, LevelWarn, LevelError
	Message string
}

// NewMemoryLogger creates a new MemoryLogger for testing
func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (m *MemoryLogger) record(level, format string, args []any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, LogMessage{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (m *MemoryLogger) Info(format string, args ...any)  { m.record(LevelInfo, format, args) }
func (m *MemoryLogger) Debug(format string, args ...any) { m.record(LevelDebug, format, args) }
func (m *MemoryLogger) Warn(format string, args ...any)  { m.record(LevelWarn, format, args) }
func (m *MemoryLogger) Error(format string, args ...any) { m.record(LevelError, format, args) }

// Messages returns a copy of the captured messages, optionally restricted
// to one level.
func (m *MemoryLogger) Messages(level string) []LogMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []LogMessage
	for _, msg := range m.messages {
		if level == "" || msg.Level == level {
			out = append(out, msg)
		}
	}
	return out
}

// HasMessage checks if any message contains the given substring
func (m *MemoryLogger) HasMessage(substring string) bool {
	return m.HasMessageWithLevel("", substring)
}

// HasMessageWithLevel checks if any message at the given level contains the
// substring. An empty level matches every level.
func (m *MemoryLogger) HasMessageWithLevel(level, substring string) bool {
	for _, msg := range m.Messages(level) {
		if strings.Contains(msg.Message, substring) {
			return true
		}
	}
	return false
}

// Count returns the number of captured messages at level, or all of them
// when level is empty.
func (m *MemoryLogger) Count(level string) int {
	return len(m.Messages(level))
}

// Clear removes all captured messages
func (m *MemoryLogger) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
}

// String returns a formatted string of all messages (useful for debugging tests)
func (m *MemoryLogger) String() string {
	var sb strings.Builder
	for i, msg := range m.Messages("") {
		fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1, msg.Level, msg.Message)
	}
	return sb.String()
}
