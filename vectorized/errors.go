package vectorized

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks schema and query mismatches: a referenced table
// or field that does not exist, or a value whose type does not fit the
// field. These are never retried and never turned into an empty result.
var ErrConfiguration = errors.New("configuration error")

// ConfigError describes one configuration problem.
type ConfigError struct {
	Table  string
	Field  string
	Reason string
}

// NewConfigError creates a configuration error for table.field
func NewConfigError(table, field, reason string) *ConfigError {
	return &ConfigError{Table: table, Field: field, Reason: reason}
}

func (e *ConfigError) Error() string {
	switch {
	case e.Table != "" && e.Field != "":
		return fmt.Sprintf("configuration error: %s.%s: %s", e.Table, e.Field, e.Reason)
	case e.Table != "":
		return fmt.Sprintf("configuration error: %s: %s", e.Table, e.Reason)
	default:
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
}

// Unwrap lets errors.Is match ErrConfiguration.
func (e *ConfigError) Unwrap() error {
	return ErrConfiguration
}
