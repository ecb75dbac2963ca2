package cli

import (
	"context"
	"io"

	charmlog "github.com/charmbracelet/log"

	"github.com/pagebox/pagebox/observability"
)

func newLogger(w io.Writer, level charmlog.Level) *charmlog.Logger {
	return charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *charmlog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by Execute, or the
// package default so commands always have one.
func loggerFromContext(ctx context.Context) *charmlog.Logger {
	if l, ok := ctx.Value(loggerKey).(*charmlog.Logger); ok {
		return l
	}
	return charmlog.Default()
}

// charmLogger adapts a charmbracelet logger to the library's logging
// interface so render pipeline stages surface in CLI output.
type charmLogger struct {
	l *charmlog.Logger
}

func flatten(fields []observability.Field) []interface{} {
	kv := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		kv = append(kv, f.Key(), f.Value())
	}
	return kv
}

func (c charmLogger) Debug(msg string, fields ...observability.Field) {
	c.l.Debug(msg, flatten(fields)...)
}

func (c charmLogger) Info(msg string, fields ...observability.Field) {
	c.l.Info(msg, flatten(fields)...)
}

func (c charmLogger) Warn(msg string, fields ...observability.Field) {
	c.l.Warn(msg, flatten(fields)...)
}

func (c charmLogger) Error(msg string, fields ...observability.Field) {
	c.l.Error(msg, flatten(fields)...)
}

func (c charmLogger) With(fields ...observability.Field) observability.Logger {
	return charmLogger{l: c.l.With(flatten(fields)...)}
}
