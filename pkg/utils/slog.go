package utils

import (
	"log/slog"
	"strings"
)

// ErrAttr returns a slog attribute for an error.
func ErrAttr(err error) slog.Attr {
	return slog.Any("error", err)
}

// SlogReplacer normalizes attribute values for log output: timestamps are
// rendered as "2006-01-02 15:04:05" and durations in their short string form.
func SlogReplacer(_ []string, a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindTime:
		a.Value = slog.StringValue(a.Value.Time().Format("2006-01-02 15:04:05"))
	case slog.KindDuration:
		a.Value = slog.StringValue(a.Value.Duration().String())
	}

	return a
}

// LogWriter adapts a slog.Logger to io.Writer so that libraries expecting a
// plain log sink can write through structured logging.
type LogWriter struct {
	logger *slog.Logger
}

// NewSlogWriter creates a LogWriter around the given logger.
func NewSlogWriter(logger *slog.Logger) *LogWriter {
	return &LogWriter{logger: logger}
}

func (w *LogWriter) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\n")
	if msg != "" {
		w.logger.Info(msg)
	}

	return len(p), nil
}

// LogOnError runs fn and logs msg with the error if fn fails.
// Intended for deferred cleanup calls.
func LogOnError(l *slog.Logger, fn func() error, msg string) {
	if err := fn(); err != nil {
		l.Error(msg, ErrAttr(err))
	}
}
