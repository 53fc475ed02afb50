package logger

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var once sync.Once
var Log zerolog.Logger

// Status text owns stdout, so log lines go to stderr.
var output io.Writer = os.Stderr

func configureLogger() {
	customTimeFormat := "2006-01-02T15:04:05.000Z07:00"
	zerolog.TimeFieldFormat = customTimeFormat

	consoleOutput := zerolog.ConsoleWriter{
		Out:        output,
		TimeFormat: customTimeFormat,
	}

	Log = zerolog.New(consoleOutput).With().Timestamp().Logger()
}

// GetLoggerConfigured returns the shared logger and sets the global level.
// The level is applied on every call, not only the first one.
func GetLoggerConfigured(level zerolog.Level) *zerolog.Logger {
	once.Do(func() {
		configureLogger()
	})
	zerolog.SetGlobalLevel(level)
	return &Log
}

func GetLogger() *zerolog.Logger {
	once.Do(func() {
		configureLogger()
	})
	return &Log
}

// SetLevel parses a level name such as "debug" or "warn" and applies it.
func SetLevel(levelName string) (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		return zerolog.NoLevel, err
	}
	GetLoggerConfigured(level)
	return level, nil
}
