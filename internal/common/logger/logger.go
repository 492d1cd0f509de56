package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	slogmulti "github.com/samber/slog-multi"
)

// Logger is the structured logger used across the exporter.
type Logger interface {
	Debug(msg string, tags ...any)
	Info(msg string, tags ...any)
	Warn(msg string, tags ...any)
	Error(msg string, tags ...any)

	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)

	With(attrs ...any) Logger
	WithGroup(name string) Logger
}

var _ Logger = (*appLogger)(nil)

type appLogger struct {
	logger *slog.Logger
}

// Config holds the options applied by NewLogger.
type Config struct {
	debug  bool
	format string
	writer io.Writer
	quiet  bool
}

// Option configures a logger.
type Option func(*Config)

// WithDebug sets the level of the logger to debug.
func WithDebug() Option {
	return func(o *Config) {
		o.debug = true
	}
}

// WithFormat sets the format of the logger (text or json).
func WithFormat(format string) Option {
	return func(o *Config) {
		o.format = format
	}
}

// WithWriter adds a secondary destination, typically a log file.
func WithWriter(w io.Writer) Option {
	return func(o *Config) {
		o.writer = w
	}
}

// WithQuiet suppresses output to stderr.
func WithQuiet() Option {
	return func(o *Config) {
		o.quiet = true
	}
}

var defaultLogger = NewLogger(WithFormat("text"))

// NewLogger builds a logger that fans records out to stderr and, when
// configured, to an extra writer.
func NewLogger(opts ...Option) Logger {
	cfg := &Config{}
	for _, opt := range opts {
		opt(cfg)
	}

	level := slog.LevelInfo
	if cfg.debug {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.debug,
	}

	var handlers []slog.Handler
	if !cfg.quiet {
		handlers = append(handlers, newHandler(os.Stderr, cfg.format, handlerOpts))
	}
	if cfg.writer != nil {
		handlers = append(handlers, &guardedHandler{
			handler: newHandler(cfg.writer, cfg.format, handlerOpts),
			mu:      &sync.Mutex{},
		})
	}

	return &appLogger{logger: slog.New(slogmulti.Fanout(handlers...))}
}

var _ slog.Handler = (*guardedHandler)(nil)

// guardedHandler serializes writes to a shared writer so that lines coming
// from derived loggers never interleave.
type guardedHandler struct {
	handler slog.Handler
	mu      *sync.Mutex
}

func (g *guardedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return g.handler.Enabled(ctx, level)
}

func (g *guardedHandler) Handle(ctx context.Context, record slog.Record) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.handler.Handle(ctx, record)
}

func (g *guardedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &guardedHandler{handler: g.handler.WithAttrs(attrs), mu: g.mu}
}

func (g *guardedHandler) WithGroup(name string) slog.Handler {
	return &guardedHandler{handler: g.handler.WithGroup(name), mu: g.mu}
}

func newHandler(w io.Writer, format string, opts *slog.HandlerOptions) slog.Handler {
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func (a *appLogger) Debug(msg string, tags ...any) { a.logger.Debug(msg, tags...) }
func (a *appLogger) Info(msg string, tags ...any)  { a.logger.Info(msg, tags...) }
func (a *appLogger) Warn(msg string, tags ...any)  { a.logger.Warn(msg, tags...) }
func (a *appLogger) Error(msg string, tags ...any) { a.logger.Error(msg, tags...) }

func (a *appLogger) Debugf(format string, v ...any) { a.logger.Debug(fmt.Sprintf(format, v...)) }
func (a *appLogger) Infof(format string, v ...any)  { a.logger.Info(fmt.Sprintf(format, v...)) }
func (a *appLogger) Warnf(format string, v ...any)  { a.logger.Warn(fmt.Sprintf(format, v...)) }
func (a *appLogger) Errorf(format string, v ...any) { a.logger.Error(fmt.Sprintf(format, v...)) }

// With implements Logger.
func (a *appLogger) With(attrs ...any) Logger {
	return &appLogger{logger: a.logger.With(attrs...)}
}

// WithGroup implements Logger.
func (a *appLogger) WithGroup(name string) Logger {
	return &appLogger{logger: a.logger.WithGroup(name)}
}
