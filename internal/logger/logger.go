package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a component-tagged console logger.
type Logger struct {
	zerolog.Logger
}

// New creates a logger for a specific component.
// The log level is taken from the LOG_LEVEL environment variable
// (debug, info, warn, error) and defaults to info.
func New(component string) *Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "2006-01-02 15:04:05",
	}

	l := zerolog.New(output).
		Level(level()).
		With().
		Timestamp().
		Str("component", component).
		Logger()

	return &Logger{l}
}

func level() zerolog.Level {
	switch os.Getenv("LOG_LEVEL") {
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
