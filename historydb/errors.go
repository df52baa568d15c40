package historydb

import (
	"errors"
	"fmt"
)

// ==================== Sentinel Errors ====================
// These are simple error constants that can be checked with errors.Is()

var (
	// ErrDatabaseNotOpen is returned when attempting operations on a closed database
	ErrDatabaseNotOpen = fmt.Errorf("database not open")

	// ErrEmptyRunID is returned when a run ID parameter is empty or missing
	ErrEmptyRunID = fmt.Errorf("run ID cannot be empty")

	// ErrNilRecord is returned when a nil record is passed for saving
	ErrNilRecord = fmt.Errorf("record cannot be nil")

	// ErrRecordNotFound is returned when a run record doesn't exist in the database
	ErrRecordNotFound = fmt.Errorf("run record not found")

	// ErrAmbiguousRunID is returned when a run ID prefix matches several runs
	ErrAmbiguousRunID = fmt.Errorf("run ID prefix is ambiguous")

	// ErrBucketNotFound is returned when a required database bucket doesn't exist
	ErrBucketNotFound = fmt.Errorf("database bucket not found")

	// ErrCorruptedData is returned when database data cannot be parsed or is invalid
	ErrCorruptedData = fmt.Errorf("corrupted database data")
)

// ==================== Structured Error Types ====================

// DatabaseError wraps database operation errors with context about the operation
// and bucket involved.
type DatabaseError struct {
	// Op is the operation that failed (e.g., "open", "create bucket", "transaction")
	Op string

	// Bucket is the bucket name involved in the operation (empty if not applicable)
	Bucket string

	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface
func (e *DatabaseError) Error() string {
	if e.Bucket != "" {
		return fmt.Sprintf("database %s [bucket: %s]: %v", e.Op, e.Bucket, e.Err)
	}
	return fmt.Sprintf("database %s: %v", e.Op, e.Err)
}

// Unwrap allows errors.Is() and errors.As() to work with wrapped errors
func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// RecordError wraps run record operation errors with context about which
// run was involved and what operation failed.
type RecordError struct {
	// Op is the operation that failed (e.g., "save", "get", "delete")
	Op string

	// RunID is the run involved in the operation
	RunID string

	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface
func (e *RecordError) Error() string {
	return fmt.Sprintf("run record %s [run: %s]: %v", e.Op, e.RunID, e.Err)
}

// Unwrap allows errors.Is() and errors.As() to work with wrapped errors
func (e *RecordError) Unwrap() error {
	return e.Err
}

// ValidationError wraps input validation errors with context about which
// field failed validation and what the invalid value was.
type ValidationError struct {
	// Field is the name of the field that failed validation
	Field string

	// Value is the invalid value (truncated if too long for readability)
	Value string

	// Err is the underlying sentinel error (e.g., ErrEmptyRunID)
	Err error
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("validation failed [%s=%s]: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("validation failed [%s]: %v", e.Field, e.Err)
}

// Unwrap allows errors.Is() and errors.As() to work with wrapped errors
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ==================== Error Inspection Helpers ====================

// IsValidationError checks if the error is a validation error.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsDatabaseError checks if the error is a database operation error.
func IsDatabaseError(err error) bool {
	var de *DatabaseError
	return errors.As(err, &de)
}

// IsRecordNotFound checks if the error indicates a run record was not found.
func IsRecordNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound)
}
