// Package logger provides structured slog loggers for the delivery engine.
// All logs are written in JSON format to a size-rotated file under the
// configured log directory.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewSystemLogger creates a JSON slog.Logger that writes to
// <logDir>/herald.log with size-based rotation. When echo is true the
// logger also writes to stderr, which is what the long-running service
// wants under a process supervisor.
func NewSystemLogger(logDir string, level slog.Level, echo bool) (*slog.Logger, error) {
	if err := os.MkdirAll(logDir, 0750); err != nil {
		return nil, fmt.Errorf("creating log directory %q: %w", logDir, err)
	}

	var w io.Writer = &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "herald.log"),
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
	if echo {
		w = io.MultiWriter(w, os.Stderr)
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler), nil
}
