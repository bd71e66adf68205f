package logging

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup routes the global zerolog logger to a file. The terminal is owned
// by the TUI, so nothing may be written to stdout or stderr after startup.
// The returned closer flushes and releases the log file.
func Setup(path string, debug bool) (func() error, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	// A run id distinguishes interleaved sessions appending to the same file.
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = zerolog.New(f).Level(level).With().
		Timestamp().
		Str("run", uuid.NewString()).
		Logger()

	return f.Close, nil
}

// Component creates a new logger with a component identifier.
// Uses the "cmp" key for consistency with zerolog conventions.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}
