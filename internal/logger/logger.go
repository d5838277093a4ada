// Package logger provides the structured slog logger for the application.
// All logs are written in JSON format to a size-rotated file under the
// configured log directory, so a long-running watch session cannot fill
// the disk.
package logger

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxSizeMB  = 10
	maxBackups = 3
	maxAgeDays = 28
)

// New creates a JSON slog.Logger that writes to <logDir>/orderpulse.log with
// rotation. The directory is created if it does not exist.
func New(logDir string, level slog.Level) (*slog.Logger, error) {
	if err := os.MkdirAll(logDir, 0750); err != nil {
		return nil, fmt.Errorf("creating log directory %q: %w", logDir, err)
	}

	w := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "orderpulse.log"),
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler), nil
}

// NewWithSession returns a logger with the admin id attached to every record.
// An empty adminID returns the plain logger.
func NewWithSession(logDir string, level slog.Level, adminID string) (*slog.Logger, error) {
	l, err := New(logDir, level)
	if err != nil {
		return nil, err
	}
	if adminID == "" {
		return l, nil
	}
	return l.With("admin_id", adminID), nil
}
