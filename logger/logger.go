// Package logger provides a thin wrapper around zerolog.Logger with
// context-aware helpers so handlers can log with request-scoped fields.
package logger

import (
	"context"
	"net/http"
	"os"

	"github.com/rs/zerolog"
)

type Logger struct {
	zerolog.Logger
}

type ctxKey struct{}

// New constructs a JSON logger writing to stdout, tagged with a role label
// (e.g. "server") so multiple components can be told apart in the output.
func New(role string) *Logger {
	l := zerolog.New(os.Stdout).With().
		Str("role", role).
		Timestamp().
		Logger()
	return &Logger{l}
}

// WithContext returns a child context carrying l.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored in ctx, or a default one if none
// was attached.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return New("default")
}

// FromRequest is shorthand for FromContext(r.Context()).
func FromRequest(r *http.Request) *Logger {
	return FromContext(r.Context())
}
