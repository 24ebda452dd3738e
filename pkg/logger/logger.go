// Package logger provides structured logging with context support.
package logger

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appctx "smartfilter/internal/core/context"
)

// Logger wraps zap.SugaredLogger with context-aware logging.
type Logger struct {
	*zap.SugaredLogger
}

type loggerKey struct{}

// Config holds logger configuration.
type Config struct {
	Level       string   `yaml:"level"`       // debug, info, warn, error
	Development bool     `yaml:"development"` // console encoder with colors
	OutputPaths []string `yaml:"output_paths"`
	Service     string   `yaml:"service"` // added to every entry, default "smartfilter"
}

var (
	defaultOnce   sync.Once
	defaultLogger *Logger
)

// New creates a new Logger from configuration. An unknown level falls back to info.
func New(cfg Config) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	if len(cfg.OutputPaths) > 0 {
		zc.OutputPaths = cfg.OutputPaths
	}

	service := cfg.Service
	if service == "" {
		service = "smartfilter"
	}

	z, err := zc.Build(zap.AddCallerSkip(1), zap.Fields(zap.String("service", service)))
	if err != nil {
		return nil, err
	}
	return &Logger{z.Sugar()}, nil
}

// Default returns the process-wide fallback logger (production encoder, stdout).
func Default() *Logger {
	defaultOnce.Do(func() {
		l, err := New(Config{Level: "info", OutputPaths: []string{"stdout"}})
		if err != nil {
			l = Nop()
		}
		defaultLogger = l
	})
	return defaultLogger
}

// Nop returns a logger that discards everything. Used in tests.
func Nop() *Logger {
	return &Logger{zap.NewNop().Sugar()}
}

// FromCore wraps an existing zap core, e.g. an observer in tests.
func FromCore(core zapcore.Core) *Logger {
	return &Logger{zap.New(core).Sugar()}
}

// WithContext adds the request trace fields found in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	trace := appctx.GetTrace(ctx)
	if trace == nil {
		return l
	}
	return &Logger{l.SugaredLogger.With(
		"trace_id", trace.TraceID,
		"span_id", trace.SpanID,
		"request_id", trace.RequestID,
	)}
}

// With adds key-value pairs to logger.
func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{l.SugaredLogger.With(keysAndValues...)}
}

// WithComponent adds component name to logger.
func (l *Logger) WithComponent(name string) *Logger {
	return l.With("component", name)
}

// DebugEnabled reports whether debug entries would be written.
func (l *Logger) DebugEnabled() bool {
	return l.Desugar().Core().Enabled(zapcore.DebugLevel)
}

// WithLogger adds Logger to context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the Logger stored in ctx (or the default one) with trace fields applied.
func FromContext(ctx context.Context) *Logger {
	l, ok := ctx.Value(loggerKey{}).(*Logger)
	if !ok {
		l = Default()
	}
	return l.WithContext(ctx)
}

// Info logs at info level from context.
func Info(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Infow(msg, keysAndValues...)
}

// Warn logs at warn level from context.
func Warn(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Warnw(msg, keysAndValues...)
}

// Error logs at error level from context.
func Error(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Errorw(msg, keysAndValues...)
}
