package stats

import "fmt"

// Sentinel errors - check with errors.Is()
var (
	// ErrNoData is returned when the context holds no tasks to analyze.
	ErrNoData = fmt.Errorf("no task data")

	// ErrInvalidBucketCount is returned for a bucket count below one.
	ErrInvalidBucketCount = fmt.Errorf("bucket count must be at least 1")

	// ErrInvalidWindow is returned for a non-positive impact window.
	ErrInvalidWindow = fmt.Errorf("impact window must be positive")
)
