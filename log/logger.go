package log

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Compile-time interface checks
var (
	_ LibraryLogger = (*FileLogger)(nil)
	_ LibraryLogger = (*ContextLogger)(nil)
	_ LibraryLogger = (*ConsoleLogger)(nil)
	_ LibraryLogger = MultiLogger(nil)
)

// FileLogger appends timestamped entries to the analyzer log file.
type FileLogger struct {
	path string
	file *os.File
	mu   sync.Mutex
	now  func() time.Time
}

// LogContext provides metadata for contextual logging
type LogContext struct {
	RunID     string // Analysis run UUID (full or short)
	TracePath string // Trace being analyzed
}

// ContextLogger wraps FileLogger with run metadata for enriched log entries
type ContextLogger struct {
	logger *FileLogger
	ctx    LogContext
}

// RunSummary is written to the log when an analysis completes.
type RunSummary struct {
	RunID       string
	TracePath   string
	Workers     int
	Tasks       int
	HealthKills int
	Findings    int
	Elapsed     time.Duration
}

// NewFileLogger opens path for appending, creating the directory if needed.
func NewFileLogger(path string) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := &FileLogger{path: path, file: f, now: time.Now}
	l.writeHeader()
	return l, nil
}

// Path returns the log file location.
func (l *FileLogger) Path() string {
	return l.path
}

// Close closes the log file
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// writeHeader marks the start of a session in the log
func (l *FileLogger) writeHeader() {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.file, "\ndltrace analyzer log - %s\n", l.now().Format(time.RFC3339))
	fmt.Fprintf(l.file, "%s\n", strings.Repeat("=", 70))
}

func (l *FileLogger) write(prefix, level, format string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return
	}
	timestamp := l.now().Format("15:04:05")
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(l.file, "[%s] %s%s: %s\n", timestamp, prefix, level, msg)
}

// Debug logs debug information
func (l *FileLogger) Debug(format string, args ...any) { l.write("", LevelDebug, format, args) }

// Info logs an informational message
func (l *FileLogger) Info(format string, args ...any) { l.write("", LevelInfo, format, args) }

// Warn logs a warning message (non-fatal issues)
func (l *FileLogger) Warn(format string, args ...any) { l.write("", LevelWarn, format, args) }

// Error logs an error message
func (l *FileLogger) Error(format string, args ...any) { l.write("", LevelError, format, args) }

// WriteSummary writes a run summary block to the log
func (l *FileLogger) WriteSummary(s RunSummary) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return
	}
	fmt.Fprintf(l.file, "%s\n", strings.Repeat("-", 70))
	fmt.Fprintf(l.file, "ANALYSIS SUMMARY\n")
	fmt.Fprintf(l.file, "Run:          %s\n", s.RunID)
	fmt.Fprintf(l.file, "Trace:        %s\n", s.TracePath)
	fmt.Fprintf(l.file, "Workers:      %d\n", s.Workers)
	fmt.Fprintf(l.file, "Tasks:        %d\n", s.Tasks)
	fmt.Fprintf(l.file, "Health kills: %d\n", s.HealthKills)
	fmt.Fprintf(l.file, "Findings:     %d\n", s.Findings)
	fmt.Fprintf(l.file, "Elapsed:      %s\n", s.Elapsed)
	fmt.Fprintf(l.file, "%s\n", strings.Repeat("-", 70))
}

// WithContext creates a ContextLogger with metadata for enriched logging.
// The RunID will be truncated to 8 characters for readability.
//
// Example:
//
//	ctxLogger := logger.WithContext(log.LogContext{
//	    RunID:     runUUID,
//	    TracePath: "debug.log",
//	})
//	ctxLogger.Info("Parsed %d lines", n)
//	// Output: [15:04:05] [a1b2c3d4] debug.log: INFO: Parsed 1200 lines
func (l *FileLogger) WithContext(ctx LogContext) *ContextLogger {
	return &ContextLogger{
		logger: l,
		ctx:    ctx,
	}
}

// formatPrefix creates a log prefix with context metadata
func (cl *ContextLogger) formatPrefix() string {
	shortUUID := cl.ctx.RunID
	if len(shortUUID) > 8 {
		shortUUID = shortUUID[:8]
	}
	return fmt.Sprintf("[%s] %s: ", shortUUID, cl.ctx.TracePath)
}

func (cl *ContextLogger) Info(format string, args ...any) {
	cl.logger.write(cl.formatPrefix(), LevelInfo, format, args)
}

func (cl *ContextLogger) Debug(format string, args ...any) {
	cl.logger.write(cl.formatPrefix(), LevelDebug, format, args)
}

func (cl *ContextLogger) Warn(format string, args ...any) {
	cl.logger.write(cl.formatPrefix(), LevelWarn, format, args)
}

func (cl *ContextLogger) Error(format string, args ...any) {
	cl.logger.write(cl.formatPrefix(), LevelError, format, args)
}
