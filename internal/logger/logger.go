package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New returns the process-wide structured logger. Output is JSON on
// stderr so log shippers can pick it up unchanged.
func New(service string) zerolog.Logger {
	return zerolog.New(os.Stderr).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}
