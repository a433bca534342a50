package wrapper

import (
	"context"
	"time"

	"github.com/code19m/errx"
	"github.com/rise-and-shine/cqrsbus/command"
	"github.com/rise-and-shine/cqrsbus/logger"
)

// LoggingWrapper logs every command execution with its outcome and timing.
type LoggingWrapper[C command.Command, R any] struct {
	logger  logger.Logger
	next    command.Handler[C, R]
	cmdName string
}

// NewLoggingWrapper returns a WrapFunc that logs command executions under
// the given command name.
func NewLoggingWrapper[C command.Command, R any](
	log logger.Logger,
	cmdName string,
) command.WrapFunc[C, R] {
	return func(next command.Handler[C, R]) command.Handler[C, R] {
		return &LoggingWrapper[C, R]{
			logger:  log.Named("cqrs.command.logging").With("command_name", cmdName),
			next:    next,
			cmdName: cmdName,
		}
	}
}

func (w *LoggingWrapper[C, R]) Handle(ctx context.Context, cmd C) (R, error) {
	start := time.Now()

	result, err := w.next.Handle(ctx, cmd)

	log := w.logger.
		WithContext(ctx).
		With("command_id", cmd.RequestID()).
		With("execution_time", time.Since(start).String())

	if err != nil {
		e := errx.AsErrorX(err)
		log.With("error", map[string]any{
			"code":    e.Code(),
			"message": e.Error(),
			"type":    e.Type().String(),
			"details": e.Details(),
		}).Error("command failed")

		return result, err
	}

	log.Info("command processed")

	return result, nil
}
