package trace

import (
	"errors"
	"fmt"
)

// Sentinel errors - check with errors.Is()
var (
	// ErrTraceUnreadable is returned when the trace file cannot be opened
	// or read.
	ErrTraceUnreadable = fmt.Errorf("trace unreadable")

	// ErrBadTimeRange is returned by filter option parsing when since is
	// after until.
	ErrBadTimeRange = fmt.Errorf("since is after until")
)

// TraceError wraps I/O failures on the trace with the operation and path.
type TraceError struct {
	// Op is the operation that failed ("open", "read")
	Op string

	// Path is the trace path (empty for readers)
	Path string

	// Err is the underlying error
	Err error
}

// Error implements the error interface
func (e *TraceError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("trace %s [%s]: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("trace %s: %v", e.Op, e.Err)
}

// Unwrap allows errors.Is() to reach the underlying I/O error
func (e *TraceError) Unwrap() error {
	return e.Err
}

// Is makes every TraceError match ErrTraceUnreadable
func (e *TraceError) Is(target error) bool {
	return target == ErrTraceUnreadable
}

// IsUnreadable reports whether err means the trace could not be read.
func IsUnreadable(err error) bool {
	return errors.Is(err, ErrTraceUnreadable)
}
