package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Options configures a run logger.
type Options struct {
	// Console receives warnings, or everything when Verbose is set.
	// Defaults to os.Stderr.
	Console io.Writer

	// Verbose lowers the console level to Debug.
	Verbose bool

	// LogFile, if set, receives every record at Debug level as JSON.
	LogFile string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewRunLogger builds the logger of one crawl run: a text console handler
// and an optional JSON file handler behind one SecureHandler.
// The returned closer closes the log file.
func NewRunLogger(opts Options) (*slog.Logger, io.Closer, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	handlers := []slog.Handler{
		slog.NewTextHandler(console, &slog.HandlerOptions{Level: levelFor(opts.Verbose)}),
	}

	var closer io.Closer = nopCloser{}
	if opts.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(opts.LogFile), 0o750); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
		closer = f
	}

	return slog.New(NewSecureHandler(NewFanoutHandler(handlers...))), closer, nil
}
