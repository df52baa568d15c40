package config

import (
	"errors"
	"fmt"
)

// ErrInvalidValue is returned when a configuration key holds a value
// outside its allowed range.
var ErrInvalidValue = errors.New("invalid value")

// ConfigError reports a config file that could not be loaded or a key
// that could not be accepted.
type ConfigError struct {
	File  string
	Key   string
	Value string
	Err   error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config %s=%q: %v", e.Key, e.Value, e.Err)
	}
	return fmt.Sprintf("config [%s]: %v", e.File, e.Err)
}

// Unwrap allows errors.Is() to reach the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Err
}
