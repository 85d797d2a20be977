// Package logging provides the application Logger: leveled, structured JSON
// records whose debug and info output is suppressed in production.
// PRINCIPLES:
// - KISS: Four methods, two options
// - DIP: Components receive a *Logger, never a global
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// DefaultModule is recorded when no module option is given.
const DefaultModule = "app"

// timestampLayout is ISO-8601 in UTC with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Options configures a Logger.
type Options struct {
	// Environment is the deployment environment; "production" silences
	// debug and info.
	Environment string
	// Stdout receives debug and info records. Defaults to os.Stdout.
	Stdout io.Writer
	// Stderr receives warn and error records. Defaults to os.Stderr.
	Stderr io.Writer
	// Module replaces DefaultModule for records without WithModule.
	Module string
}

// Logger writes one JSON line per record.
type Logger struct {
	slog       *slog.Logger
	module     string
	production bool
}

// Option attaches context to a single record.
type Option func(*entry)

type entry struct {
	module  string
	data    interface{}
	hasData bool
}

// WithModule names the component emitting the record.
func WithModule(module string) Option {
	return func(e *entry) { e.module = module }
}

// WithData attaches an arbitrary payload to the record.
func WithData(data interface{}) Option {
	return func(e *entry) {
		e.data = data
		e.hasData = true
	}
}

// New creates a Logger. It never fails; missing writers fall back to the
// process streams.
func New(opts Options) *Logger {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Module == "" {
		opts.Module = DefaultModule
	}
	production := IsProduction(opts.Environment)

	handlerOpts := &slog.HandlerOptions{Level: slog.LevelDebug, ReplaceAttr: replaceAttr}
	h := &splitHandler{
		low:        slog.NewJSONHandler(opts.Stdout, handlerOpts),
		high:       slog.NewJSONHandler(opts.Stderr, handlerOpts),
		production: production,
	}
	return &Logger{slog: slog.New(h), module: opts.Module, production: production}
}

// Discard returns a Logger that drops every record.
func Discard() *Logger {
	return New(Options{Stdout: io.Discard, Stderr: io.Discard})
}

// IsProduction reports whether env names the production environment.
func IsProduction(env string) bool {
	return strings.EqualFold(strings.TrimSpace(env), "production")
}

// Production reports whether debug and info are suppressed.
func (l *Logger) Production() bool { return l.production }

// Named returns a Logger whose default module is module.
func (l *Logger) Named(module string) *Logger {
	c := *l
	c.module = module
	return &c
}

// Slog exposes the underlying logger for components that accept one.
// Records without a module attribute are emitted as they are.
func (l *Logger) Slog() *slog.Logger { return l.slog }

// Debug records a development diagnostic.
func (l *Logger) Debug(message string, opts ...Option) {
	l.log(slog.LevelDebug, message, opts)
}

// Info records a notable event.
func (l *Logger) Info(message string, opts ...Option) {
	l.log(slog.LevelInfo, message, opts)
}

// Warn records a recoverable problem. Always emitted.
func (l *Logger) Warn(message string, opts ...Option) {
	l.log(slog.LevelWarn, message, opts)
}

// Error records a failure. Always emitted.
func (l *Logger) Error(message string, opts ...Option) {
	l.log(slog.LevelError, message, opts)
}

func (l *Logger) log(level slog.Level, message string, opts []Option) {
	ctx := context.Background()
	if !l.slog.Enabled(ctx, level) {
		return
	}
	e := entry{module: l.module}
	for _, opt := range opts {
		opt(&e)
	}
	if e.module == "" {
		e.module = DefaultModule
	}
	attrs := []slog.Attr{slog.String("module", e.module)}
	if e.hasData && e.data != nil {
		attrs = append(attrs, slog.Any("data", e.data))
	}
	l.slog.LogAttrs(ctx, level, message, attrs...)
}

// replaceAttr renames the built-in keys to the record schema.
func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		a.Key = "timestamp"
		if t, ok := a.Value.Any().(time.Time); ok {
			a.Value = slog.StringValue(t.UTC().Format(timestampLayout))
		}
	case slog.LevelKey:
		if lvl, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(strings.ToLower(lvl.String()))
		}
	case slog.MessageKey:
		a.Key = "message"
	}
	return a
}

// splitHandler routes warn and above to high and everything else to low.
type splitHandler struct {
	low        slog.Handler
	high       slog.Handler
	production bool
}

func (h *splitHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.production && level < slog.LevelWarn {
		return false
	}
	return h.pick(level).Enabled(ctx, level)
}

func (h *splitHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.pick(r.Level).Handle(ctx, r)
}

func (h *splitHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &splitHandler{low: h.low.WithAttrs(attrs), high: h.high.WithAttrs(attrs), production: h.production}
}

func (h *splitHandler) WithGroup(name string) slog.Handler {
	return &splitHandler{low: h.low.WithGroup(name), high: h.high.WithGroup(name), production: h.production}
}

func (h *splitHandler) pick(level slog.Level) slog.Handler {
	if level >= slog.LevelWarn {
		return h.high
	}
	return h.low
}
