package cliconfig

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a console logger writing to w at the given level.
func NewLogger(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, err
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().
		Timestamp().
		Logger(), nil
}

// Logger returns the default stderr logger at info level.
func Logger() zerolog.Logger {
	logger, _ := NewLogger(os.Stderr, DefaultLogLevel)
	return logger
}
