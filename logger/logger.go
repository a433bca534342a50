// Package logger provides the structured logging interface used across the
// engine. It wraps zap to keep call sites simple while staying cheap enough
// for the dispatch hot path. WithContext enriches entries with the
// correlation identifier of the current dispatch.
package logger

import (
	"context"

	"github.com/code19m/errx"
	"github.com/rise-and-shine/cqrsbus/correlation"
	"go.uber.org/zap"
)

// Logger is the logging contract consumed by the dispatchers and wrappers.
type Logger interface {
	// Debug logs a message at debug level.
	Debug(args ...any)
	// Info logs a message at info level.
	Info(args ...any)
	// Warn logs a message at warn level.
	Warn(args ...any)
	// Error logs a message at error level.
	Error(args ...any)

	// With returns a logger that includes the given key-value pairs in all
	// subsequent entries.
	With(keysAndValues ...any) Logger

	// WithContext returns a logger enriched with request-scoped data from
	// the context, currently the correlation identifier.
	WithContext(ctx context.Context) Logger

	// Named adds a sub-scope to the logger's name.
	Named(name string) Logger

	// Sync flushes any buffered entries. Call on shutdown.
	Sync() error
}

type logger struct {
	*zap.SugaredLogger
}

// New creates a Logger from the given configuration.
func New(cfg Config) (Logger, error) {
	zapCfg, err := cfg.build()
	if err != nil {
		return nil, errx.Wrap(err)
	}

	zapLogger, err := zapCfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return &logger{SugaredLogger: zapLogger.Sugar()}, nil
}

// NewNop returns a Logger that discards everything. It is the fallback when
// the host supplies no logger, and the default in tests.
func NewNop() Logger {
	return &logger{SugaredLogger: zap.NewNop().Sugar()}
}

func (l *logger) With(keysAndValues ...any) Logger {
	return &logger{SugaredLogger: l.SugaredLogger.With(keysAndValues...)}
}

func (l *logger) WithContext(ctx context.Context) Logger {
	if ctx == nil {
		return l
	}

	if id, ok := correlation.FromContext(ctx); ok {
		return l.With("correlation_id", id)
	}

	return l
}

func (l *logger) Named(name string) Logger {
	return &logger{SugaredLogger: l.SugaredLogger.Named(name)}
}
