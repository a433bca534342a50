package wrapper

import (
	"context"
	"time"

	"github.com/code19m/errx"
	"github.com/rise-and-shine/cqrsbus/logger"
	"github.com/rise-and-shine/cqrsbus/query"
)

// LoggingWrapper logs every query execution with its outcome and timing.
type LoggingWrapper[Q query.Query, R any] struct {
	logger  logger.Logger
	next    query.Handler[Q, R]
	qryName string
}

// NewLoggingWrapper returns a WrapFunc that logs query executions under the
// given query name.
func NewLoggingWrapper[Q query.Query, R any](
	log logger.Logger,
	qryName string,
) query.WrapFunc[Q, R] {
	return func(next query.Handler[Q, R]) query.Handler[Q, R] {
		return &LoggingWrapper[Q, R]{
			logger:  log.Named("cqrs.query.logging").With("query_name", qryName),
			next:    next,
			qryName: qryName,
		}
	}
}

func (w *LoggingWrapper[Q, R]) Handle(ctx context.Context, qry Q) (R, error) {
	start := time.Now()

	result, err := w.next.Handle(ctx, qry)

	log := w.logger.
		WithContext(ctx).
		With("query_id", qry.RequestID()).
		With("execution_time", time.Since(start).String())

	if err != nil {
		e := errx.AsErrorX(err)
		log.With("error", map[string]any{
			"code":    e.Code(),
			"message": e.Error(),
			"type":    e.Type().String(),
			"details": e.Details(),
		}).Error("query failed")

		return result, err
	}

	log.Info("query processed")

	return result, nil
}
