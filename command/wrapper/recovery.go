package wrapper

import (
	"context"
	"fmt"
	"runtime"

	"github.com/code19m/errx"
	"github.com/rise-and-shine/cqrsbus/command"
	"github.com/rise-and-shine/cqrsbus/logger"
)

// RecoveryWrapper converts a panicking handler into an error return, so one
// misbehaving command cannot take down the host process.
type RecoveryWrapper[C command.Command, R any] struct {
	logger  logger.Logger
	next    command.Handler[C, R]
	cmdName string
}

// NewRecoveryWrapper returns a WrapFunc that recovers handler panics.
func NewRecoveryWrapper[C command.Command, R any](
	log logger.Logger,
	cmdName string,
) command.WrapFunc[C, R] {
	return func(next command.Handler[C, R]) command.Handler[C, R] {
		return &RecoveryWrapper[C, R]{
			logger:  log.Named("cqrs.command.recovery").With("command_name", cmdName),
			next:    next,
			cmdName: cmdName,
		}
	}
}

func (w *RecoveryWrapper[C, R]) Handle(ctx context.Context, cmd C) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			stackTrace := make([]byte, 4096) // 4KB
			stackTrace = stackTrace[:runtime.Stack(stackTrace, false)]

			w.logger.
				WithContext(ctx).
				With("command_id", cmd.RequestID()).
				With("stack_trace", string(stackTrace)).
				With("panic_values", fmt.Sprintf("%v", r)).
				Error("panic recovered in command handler")

			err = errx.New("panic recovered in command handler", errx.WithDetails(errx.D{
				"stack_trace":  string(stackTrace),
				"panic_values": fmt.Sprintf("%v", r),
			}))
		}
	}()

	result, err = w.next.Handle(ctx, cmd)
	return result, err
}
