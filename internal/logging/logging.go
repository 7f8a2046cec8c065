// Package logging builds the daemon's logr.Logger on top of zerolog.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zerologr"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sweeney/lightswitch/internal/config"
)

// Rotation settings for file logging.
const (
	maxSizeMB  = 10
	maxBackups = 5
	maxAgeDays = 28
)

// Writer returns where logs should go: a rotating file when cfg.File is
// set, stderr otherwise.
func Writer(cfg config.LogConfig) io.Writer {
	if cfg.File == "" {
		return os.Stderr
	}
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}
}

// New creates a logger writing to w.
//
// Format "json" writes one JSON object per line (for journald and log
// shippers); anything else writes human-readable console output, coloured
// only when w is a terminal.
// logr verbosity V(1) maps to zerolog debug.
func New(cfg config.LogConfig, w io.Writer) logr.Logger {
	zerologr.NameFieldName = "logger"
	zerologr.NameSeparator = "/"
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level := ParseLevel(cfg.Level)

	zl := zerolog.New(w)
	if strings.ToLower(cfg.Format) != "json" {
		zl = zl.Output(zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    !isTerminal(w),
			TimeFormat: time.RFC3339,
		})
	}
	zl = zl.Level(level).With().Timestamp().Logger()

	return zerologr.New(&zl)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ParseLevel converts a level name to a zerolog level.
//
// Supported levels: debug, info, warn, error.
// Defaults to info if unrecognised.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
