// Package logger builds the service-wide zerolog logger.
package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New returns a JSON logger writing to stderr, tagged with the service name.
func New() zerolog.Logger {
	return zerolog.New(os.Stderr).
		With().
		Timestamp().
		Str("service", "lead-capture").
		Logger()
}
