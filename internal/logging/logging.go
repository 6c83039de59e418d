// Package logging builds the application logger. The TUI owns the terminal,
// so logs go to a file in the data directory.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// FileName is the log file inside the data directory.
const FileName = "chatdeck.log"

// Options configures the logger.
type Options struct {
	Dir     string // data directory; empty discards output
	Verbose bool   // debug level instead of info
}

// New opens <dir>/chatdeck.log for appending and returns a text logger
// writing to it, plus a function closing the file.
func New(opts Options) (*slog.Logger, func() error, error) {
	if opts.Dir == "" {
		return Discard(), func() error { return nil }, nil
	}
	if err := os.MkdirAll(opts.Dir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(opts.Dir, FileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return NewWriter(f, opts.Verbose), f.Close, nil
}

// NewWriter returns a text logger writing to w.
func NewWriter(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
