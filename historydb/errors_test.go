package historydb

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "database error with bucket",
			err:  &DatabaseError{Op: "get bucket", Bucket: BucketRuns, Err: ErrBucketNotFound},
			want: "database get bucket [bucket: runs]: database bucket not found",
		},
		{
			name: "database error without bucket",
			err:  &DatabaseError{Op: "open", Err: errors.New("timeout")},
			want: "database open: timeout",
		},
		{
			name: "record error",
			err:  &RecordError{Op: "get", RunID: "abc", Err: ErrRecordNotFound},
			want: "run record get [run: abc]: run record not found",
		},
		{
			name: "validation error with value",
			err:  &ValidationError{Field: "runID", Value: "x", Err: ErrEmptyRunID},
			want: "validation failed [runID=x]: run ID cannot be empty",
		},
		{
			name: "validation error without value",
			err:  &ValidationError{Field: "runID", Err: ErrEmptyRunID},
			want: "validation failed [runID]: run ID cannot be empty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorChains(t *testing.T) {
	err := &RecordError{Op: "save", RunID: "r", Err: &DatabaseError{Op: "get bucket", Err: ErrBucketNotFound}}

	if !errors.Is(err, ErrBucketNotFound) {
		t.Error("errors.Is should reach ErrBucketNotFound")
	}
	if !IsDatabaseError(err) {
		t.Error("IsDatabaseError should see the nested DatabaseError")
	}
	if IsValidationError(err) || IsRecordNotFound(err) {
		t.Error("unexpected classification")
	}
	if !strings.Contains(err.Error(), "run record save") {
		t.Errorf("Error() = %q", err.Error())
	}
}
