package wrapper

import (
	"context"

	"github.com/rise-and-shine/cqrsbus/command"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingWrapper records one OpenTelemetry span per command execution.
// The dispatcher core emits no spans itself; tracing is opt-in through this
// wrapper.
type TracingWrapper[C command.Command, R any] struct {
	tracer   trace.Tracer
	spanName string
	next     command.Handler[C, R]
}

// NewTracingWrapper returns a WrapFunc that traces command executions under
// the given command name.
func NewTracingWrapper[C command.Command, R any](cmdName string) command.WrapFunc[C, R] {
	return func(next command.Handler[C, R]) command.Handler[C, R] {
		return &TracingWrapper[C, R]{
			tracer:   otel.Tracer("cqrs/command"),
			spanName: cmdName,
			next:     next,
		}
	}
}

func (w *TracingWrapper[C, R]) Handle(ctx context.Context, cmd C) (R, error) {
	ctx, span := w.tracer.Start(ctx, w.spanName,
		trace.WithAttributes(attribute.String("command.id", cmd.RequestID())),
	)
	defer span.End()

	result, err := w.next.Handle(ctx, cmd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return result, err
}
