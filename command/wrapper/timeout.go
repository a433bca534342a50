package wrapper

import (
	"context"
	"time"

	"github.com/rise-and-shine/cqrsbus/command"
)

// TimeoutWrapper bounds the execution time of a single handler. The
// dispatcher itself enforces no deadline; hosts that want one per command
// type apply this wrapper at registration.
type TimeoutWrapper[C command.Command, R any] struct {
	timeout time.Duration
	next    command.Handler[C, R]
}

// NewTimeoutWrapper returns a WrapFunc that cancels the handler context
// after the given duration.
func NewTimeoutWrapper[C command.Command, R any](timeout time.Duration) command.WrapFunc[C, R] {
	return func(next command.Handler[C, R]) command.Handler[C, R] {
		return &TimeoutWrapper[C, R]{timeout: timeout, next: next}
	}
}

func (w *TimeoutWrapper[C, R]) Handle(ctx context.Context, cmd C) (R, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	return w.next.Handle(ctx, cmd)
}
