package core

import (
	"fmt"

	"jobbench/vectorized"
)

// ErrConfiguration is matched by every configuration error the engine
// returns. An empty join result is never reported through it.
var ErrConfiguration = vectorized.ErrConfiguration

// ConfigError describes one configuration problem.
type ConfigError = vectorized.ConfigError

func configErrorf(table, field, format string, args ...interface{}) error {
	return vectorized.NewConfigError(table, field, fmt.Sprintf(format, args...))
}
