// Package logger builds the process-wide structured logger. Logs are JSON
// written to <logDir>/courier.log with size-based rotation.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options tune rotation and output.
type Options struct {
	// MaxSizeMB is the size a log file reaches before it is rotated.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Stderr mirrors every record to standard error.
	Stderr bool
}

// DefaultOptions returns the rotation settings used by the CLI.
func DefaultOptions() Options {
	return Options{MaxSizeMB: 50, MaxBackups: 5, MaxAgeDays: 28}
}

// NewSystemLogger creates a JSON slog.Logger that writes to
// <logDir>/courier.log. The directory is created if it does not exist.
// The returned closer releases the log file.
func NewSystemLogger(logDir string, level slog.Level, opts Options) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(logDir, 0750); err != nil {
		return nil, nil, fmt.Errorf("creating log directory %q: %w", logDir, err)
	}

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "courier.log"),
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}

	var w io.Writer = rotator
	if opts.Stderr {
		w = io.MultiWriter(rotator, os.Stderr)
	}
	return New(w, level), rotator, nil
}

// New creates a JSON logger writing to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// ParseLevel converts a level name to a slog.Level. Unknown values map to info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
