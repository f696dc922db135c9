// Package logging builds the charmbracelet loggers used across codequest.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// New creates a logger writing to w at the given level
// ("debug", "info", "warn" or "error"). Unknown levels fall back to info.
func New(w io.Writer, level, prefix string) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
		Level:           ParseLevel(level),
	})
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// OrDiscard returns l, or a discard logger when l is nil.
func OrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// ParseLevel maps a level name to a log level.
func ParseLevel(level string) log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// OpenFile creates a logger appending to path, creating parent
// directories. The returned closer must be closed by the caller.
func OpenFile(path, level, prefix string) (*log.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("logging: cannot create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("logging: cannot open log file: %w", err)
	}
	return New(f, level, prefix), f, nil
}
