package wrapper

import (
	"context"

	"github.com/rise-and-shine/cqrsbus/query"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingWrapper records one OpenTelemetry span per query execution.
type TracingWrapper[Q query.Query, R any] struct {
	tracer   trace.Tracer
	spanName string
	next     query.Handler[Q, R]
}

// NewTracingWrapper returns a WrapFunc that traces query executions under
// the given query name.
func NewTracingWrapper[Q query.Query, R any](qryName string) query.WrapFunc[Q, R] {
	return func(next query.Handler[Q, R]) query.Handler[Q, R] {
		return &TracingWrapper[Q, R]{
			tracer:   otel.Tracer("cqrs/query"),
			spanName: qryName,
			next:     next,
		}
	}
}

func (w *TracingWrapper[Q, R]) Handle(ctx context.Context, qry Q) (R, error) {
	ctx, span := w.tracer.Start(ctx, w.spanName,
		trace.WithAttributes(attribute.String("query.id", qry.RequestID())),
	)
	defer span.End()

	result, err := w.next.Handle(ctx, qry)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return result, err
}
