package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New creates a zerolog logger. Development gets pretty console output,
// everything else gets JSON.
func New(env, level string) zerolog.Logger {
	return NewWithWriter(os.Stdout, env, level)
}

// NewWithWriter is New with an explicit output, used by tests.
func NewWithWriter(out io.Writer, env, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	if env == "development" || env == "dev" {
		return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
			Level(parseLevel(level)).
			With().
			Timestamp().
			Caller().
			Str("service", "contentboard").
			Logger()
	}

	return zerolog.New(out).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Str("service", "contentboard").
		Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
