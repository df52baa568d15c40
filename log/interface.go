package log

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// LibraryLogger is a minimal interface for packages that need to report
// progress or diagnostics without knowing where the output goes.
//
// The analysis packages never log; the service layer receives a
// LibraryLogger so the same code can run behind the CLI (console + file),
// the interactive browser (file only) and tests (memory).
type LibraryLogger interface {
	// Info logs informational messages (e.g., "Parsed 1200 lines")
	Info(format string, args ...any)

	// Debug logs debug/diagnostic messages (may be no-op in production)
	Debug(format string, args ...any)

	// Warn logs warning messages (non-fatal issues)
	Warn(format string, args ...any)

	// Error logs error messages (failures, but execution continues)
	Error(format string, args ...any)
}

// Level names used in every logger's output.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// NoOpLogger discards all log messages.
type NoOpLogger struct{}

func (NoOpLogger) Info(format string, args ...any)  {}
func (NoOpLogger) Debug(format string, args ...any) {}
func (NoOpLogger) Warn(format string, args ...any)  {}
func (NoOpLogger) Error(format string, args ...any) {}

// ConsoleLogger prints messages with a severity prefix. Out defaults to
// stderr so that reports written to stdout stay machine-readable. Debug
// messages are dropped unless Verbose is set.
type ConsoleLogger struct {
	Out     io.Writer
	Verbose bool

	mu sync.Mutex
}

// NewConsoleLogger returns a ConsoleLogger writing to stderr.
func NewConsoleLogger(verbose bool) *ConsoleLogger {
	return &ConsoleLogger{Out: os.Stderr, Verbose: verbose}
}

func (c *ConsoleLogger) write(level, format string, args []any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.Out
	if out == nil {
		out = os.Stderr
	}
	fmt.Fprintf(out, "["+level+"] "+format+"\n", args...)
}

func (c *ConsoleLogger) Info(format string, args ...any) { c.write(LevelInfo, format, args) }

func (c *ConsoleLogger) Debug(format string, args ...any) {
	if c.Verbose {
		c.write(LevelDebug, format, args)
	}
}

func (c *ConsoleLogger) Warn(format string, args ...any)  { c.write(LevelWarn, format, args) }
func (c *ConsoleLogger) Error(format string, args ...any) { c.write(LevelError, format, args) }

// MultiLogger fans every message out to several loggers.
type MultiLogger []LibraryLogger

// Tee combines loggers, skipping nil entries.
func Tee(loggers ...LibraryLogger) LibraryLogger {
	var m MultiLogger
	for _, l := range loggers {
		if l != nil {
			m = append(m, l)
		}
	}
	if len(m) == 1 {
		return m[0]
	}
	return m
}

func (m MultiLogger) Info(format string, args ...any) {
	for _, l := range m {
		l.Info(format, args...)
	}
}

func (m MultiLogger) Debug(format string, args ...any) {
	for _, l := range m {
		l.Debug(format, args...)
	}
}

func (m MultiLogger) Warn(format string, args ...any) {
	for _, l := range m {
		l.Warn(format, args...)
	}
}

func (m MultiLogger) Error(format string, args ...any) {
	for _, l := range m {
		l.Error(format, args...)
	}
}
