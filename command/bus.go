package command

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/code19m/errx"
	"github.com/rise-and-shine/cqrsbus"
	"github.com/rise-and-shine/cqrsbus/correlation"
	"github.com/rise-and-shine/cqrsbus/logger"
	"github.com/rise-and-shine/cqrsbus/metrics"
	"github.com/rise-and-shine/cqrsbus/registry"
	"github.com/rise-and-shine/cqrsbus/validation"
)

// Bus routes commands to their registered handlers.
//
// Dispatch calls on distinct commands are fully independent: the only shared
// state is the read-mostly registry and the atomically updated metrics. The
// bus enforces no timeout and no concurrency limit; callers bound a dispatch
// through the context they pass in.
type Bus struct {
	registry  registry.Registry[Registration]
	validator validation.Processor
	metrics   metrics.Recorder
	logger    logger.Logger
}

// Option customizes a Bus during construction.
type Option func(*Bus)

// WithMetrics installs a metrics recorder. Absent, metrics are discarded.
func WithMetrics(rec metrics.Recorder) Option {
	return func(b *Bus) {
		if rec != nil {
			b.metrics = rec
		}
	}
}

// NewBus creates a command bus and registers the supplied handler bindings.
// A binding that cannot be registered is logged and skipped; the remaining
// bindings are still installed.
func NewBus(log logger.Logger, registrations []Registration, opts ...Option) *Bus {
	if log == nil {
		log = logger.NewNop()
	}

	b := &Bus{
		validator: validation.NewProcessor(),
		metrics:   metrics.Noop(),
		logger:    log.Named("cqrs.command"),
	}

	for _, opt := range opts {
		opt(b)
	}

	b.Register(registrations...)

	return b
}

// Register installs handler bindings, replacing (with a warning) any prior
// binding for the same command type. Invalid bindings are logged and do not
// abort the others.
func (b *Bus) Register(registrations ...Registration) {
	for _, reg := range registrations {
		if reg.requestType == nil || reg.invoke == nil {
			b.logger.With("handler", reg.handlerName).
				Error("skipping invalid handler registration")
			continue
		}

		if replaced := b.registry.Register(reg.requestType, reg); replaced {
			b.logger.
				With("request_type", typeName(reg.requestType)).
				With("handler", reg.handlerName).
				Warn("replaced existing handler registration")
		}
	}
}

// Unregister removes the binding for the given command type. Removing an
// unknown type is a no-op with a warning.
func (b *Bus) Unregister(t reflect.Type) {
	if present := b.registry.Unregister(t); !present {
		b.logger.
			With("request_type", typeName(t)).
			Warn("unregister requested for unknown command type")
	}
}

// HasHandler reports whether a handler is registered for the given command
// type.
func (b *Bus) HasHandler(t reflect.Type) bool {
	return b.registry.Has(t)
}

// Dispatch routes the command to its handler.
//
// The dispatch order is fixed: handler lookup, correlation install,
// validation, invocation, metrics. HandlerNotFound and ValidationFailed
// surface unchanged; every other failure is wrapped as ProcessingFailed
// carrying the command identifier. The correlation identifier lives on a
// context derived for this dispatch only, so it can never leak into the
// caller or a concurrent dispatch, including on cancellation.
func (b *Bus) Dispatch(ctx context.Context, cmd Command) (any, error) {
	if cmd == nil {
		return nil, cqrsbus.ProcessingFailedError("", errx.New("nil command dispatched"))
	}

	reg, ok := b.registry.Lookup(reflect.TypeOf(cmd))
	if !ok || !reg.canHandle(cmd) {
		return nil, cqrsbus.HandlerNotFoundError(typeName(reflect.TypeOf(cmd)))
	}

	if id := cmd.CorrelationID(); id != "" {
		ctx = correlation.Inject(ctx, id)
	}

	violations, err := b.validator.Validate(ctx, cmd)
	if err != nil {
		return nil, cqrsbus.ProcessingFailedError(cmd.RequestID(), err)
	}
	if len(violations) > 0 {
		b.metrics.Inc(metrics.ValidationFailed)
		return nil, validation.FailedError(violations)
	}

	start := time.Now()

	result, err := reg.invoke(ctx, cmd)
	if err != nil {
		b.metrics.Inc(metrics.CommandsFailed)

		if errx.IsCodeIn(err, cqrsbus.CodeHandlerNotFound, validation.CodeValidationFailed) {
			return nil, err
		}
		return nil, cqrsbus.ProcessingFailedError(cmd.RequestID(), err)
	}

	b.metrics.Inc(metrics.CommandsProcessed)
	b.metrics.Observe(metrics.CommandProcessingTime, time.Since(start))

	return result, nil
}

// Dispatch routes cmd through the bus and asserts the result to R.
// It is the typed facade over Bus.Dispatch.
func Dispatch[C Command, R any](ctx context.Context, b *Bus, cmd C) (R, error) {
	var zero R

	result, err := b.Dispatch(ctx, cmd)
	if err != nil {
		return zero, err
	}

	if result == nil {
		return zero, nil
	}

	typed, ok := result.(R)
	if !ok {
		return zero, cqrsbus.ProcessingFailedError(cmd.RequestID(), errx.New(fmt.Sprintf(
			"handler returned %T, caller expected %T", result, zero,
		)))
	}

	return typed, nil
}
