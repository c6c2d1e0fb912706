package logging

import (
	"context"
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	// Debug sends debug logs to Stderr.
	Debug  bool
	Stderr io.Writer
	// File, when set, also receives the logs through a rotating writer.
	File string
}

// New returns the logger of a run and a function releasing its resources.
// Without Debug or File every record is discarded.
func New(options Options) (*slog.Logger, func() error) {
	var writers []io.Writer
	closer := func() error { return nil }

	if options.Debug && options.Stderr != nil {
		writers = append(writers, options.Stderr)
	}
	if options.File != "" {
		logFile := &lumberjack.Logger{
			Filename:   options.File,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     14,
			Compress:   true,
		}
		writers = append(writers, logFile)
		closer = logFile.Close
	}

	if len(writers) == 0 {
		return slog.New(discardHandler{}), closer
	}
	h := slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(h), closer
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
