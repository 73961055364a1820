package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New constructs the service logger. Full error detail for store and
// verification failures goes here; clients only ever see generic messages.
func New(service string, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	return zerolog.New(os.Stdout).
		Level(lvl).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}
