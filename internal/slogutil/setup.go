package slogutil

import (
	"io"
	"log/slog"
)

// Options describes where an invocation's logs go.
type Options struct {
	// Console receives human-facing diagnostics (stderr for the CLI).
	Console io.Writer
	// Level applies to the console sink.
	Level slog.Level
	// File, when set, receives every record at FileLevel through a rotating file.
	File       string
	FileLevel  slog.Level
	MaxSize    string
	MaxBackups int
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup builds the invocation logger. The returned closer flushes the log
// file, if any, and must be closed before exit.
func Setup(opts Options) (*slog.Logger, io.Closer, error) {
	console := NewStyledHandler(opts.Console, StyleConsole, &slog.HandlerOptions{Level: opts.Level})
	if opts.File == "" {
		return slog.New(console), nopCloser{}, nil
	}

	rf, err := OpenRotatingFile(opts.File, ParseSize(opts.MaxSize), opts.MaxBackups)
	if err != nil {
		return slog.New(console), nopCloser{}, err
	}
	file := NewLineHandler(rf, &slog.HandlerOptions{Level: opts.FileLevel})
	return slog.New(fanout{console, file}), rf, nil
}
