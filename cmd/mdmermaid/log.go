package main

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"go.uber.org/automaxprocs/maxprocs"
)

// newLogger creates a stderr logger for the requested verbosity:
// errors only with quiet, debug output with verbose, info otherwise.
func newLogger(w io.Writer, quiet, verbose bool) *log.Logger {
	level := log.InfoLevel
	switch {
	case quiet:
		level = log.ErrorLevel
	case verbose:
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// setMaxProcs adjusts GOMAXPROCS to the container CPU quota.
// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
// in which case Go runtime defaults apply and the program continues safely.
func setMaxProcs(l *log.Logger) {
	_, _ = maxprocs.Set(maxprocs.Logger(l.Debugf))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or a discarding logger
// when none is attached.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.New(io.Discard)
}
