// Package logger configures the process-wide slog logger and provides the
// field helpers and context propagation used across the service.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Format selects the handler used for output.
type Format string

const (
	// FormatJSON writes one JSON object per line. Used in production.
	FormatJSON Format = "json"
	// FormatText writes colored human-readable lines via tint.
	FormatText Format = "text"
)

// ParseLevel parses a string into a slog level. Unknown values map to INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Options configures New.
type Options struct {
	Level  slog.Level
	Format Format
	Output io.Writer

	// Attrs are attached to every record, e.g. service name and version.
	Attrs []slog.Attr
}

// New builds a logger from opts.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var h slog.Handler
	switch opts.Format {
	case FormatText:
		h = tint.NewHandler(out, &tint.Options{
			Level:      opts.Level,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		})
	default:
		h = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: opts.Level})
	}
	if len(opts.Attrs) > 0 {
		h = h.WithAttrs(opts.Attrs)
	}
	return slog.New(h)
}

// Setup builds a logger from level and format strings and installs it as the
// slog default.
func Setup(level, format string, attrs ...slog.Attr) *slog.Logger {
	l := New(Options{
		Level:  ParseLevel(level),
		Format: Format(strings.ToLower(format)),
		Attrs:  attrs,
	})
	slog.SetDefault(l)
	return l
}

// ══════════════════════════════════════════════════════════════════════════════
// CONTEXT PROPAGATION
// ══════════════════════════════════════════════════════════════════════════════

type contextKey struct{}

// WithContext returns a context carrying l.
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the logger stored in ctx, or the slog default.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}

// ══════════════════════════════════════════════════════════════════════════════
// FIELD HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func Component(name string) slog.Attr   { return slog.String("component", name) }
func Operation(name string) slog.Attr   { return slog.String("operation", name) }
func Group(name string) slog.Attr       { return slog.String("group", name) }
func Handle(h string) slog.Attr         { return slog.String("handle", h) }
func RequestID(id string) slog.Attr     { return slog.String("request_id", id) }
func Latency(d time.Duration) slog.Attr { return slog.Int64("latency_ms", d.Milliseconds()) }

// Err creates an error field. A nil error yields an empty attribute, which
// slog drops.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}
