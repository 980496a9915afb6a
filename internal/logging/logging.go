// Package logging builds the zerolog logger shared by the harness. Requests,
// retries, back-pressure waits and teardown problems all go through it.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"apiprobe/internal/config"
)

// New returns a logger writing human-readable lines to stderr and, when
// settings.File is set, JSON lines to a size-rotated file.
func New(settings config.LogSettings, noColor bool) zerolog.Logger {
	level, err := zerolog.ParseLevel(settings.Level)
	if err != nil || settings.Level == "" {
		level = zerolog.InfoLevel
	}

	console := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	}

	var w io.Writer = console
	if settings.File != "" {
		w = zerolog.MultiLevelWriter(console, &lumberjack.Logger{
			Filename:   settings.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
		})
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
