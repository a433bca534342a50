package query

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/code19m/errx"
	"github.com/rise-and-shine/cqrsbus"
	"github.com/rise-and-shine/cqrsbus/cache"
	"github.com/rise-and-shine/cqrsbus/correlation"
	"github.com/rise-and-shine/cqrsbus/logger"
	"github.com/rise-and-shine/cqrsbus/metrics"
	"github.com/rise-and-shine/cqrsbus/registry"
	"github.com/rise-and-shine/cqrsbus/validation"
)

const defaultCacheTTL = 5 * time.Minute

// Bus routes queries to their registered handlers, consulting the result
// cache for queries that opt in.
//
// Without a store, caching is skipped entirely, even for cacheable queries.
// Store failures never fail a dispatch: a broken read degrades to a miss, a
// broken write is logged and the fresh result is still returned.
type Bus struct {
	registry  registry.Registry[Registration]
	validator validation.Processor
	store     cache.Store
	cacheTTL  time.Duration
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

// WithStore installs the result-cache store.
func WithStore(store cache.Store) Option {
	return func(b *Bus) {
		b.store = store
	}
}

// WithDefaultTTL overrides the bus-level TTL applied to cached results when
// the handler declares no override. Default is 5 minutes.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(b *Bus) {
		if ttl > 0 {
			b.cacheTTL = ttl
		}
	}
}

// NewBus creates a query bus and registers the supplied handler bindings.
// A binding that cannot be registered is logged and skipped; the remaining
// bindings are still installed.
func NewBus(log logger.Logger, registrations []Registration, opts ...Option) *Bus {
	if log == nil {
		log = logger.NewNop()
	}

	b := &Bus{
		validator: validation.NewProcessor(),
		cacheTTL:  defaultCacheTTL,
		metrics:   metrics.Noop(),
		logger:    log.Named("cqrs.query"),
	}

	for _, opt := range opts {
		opt(b)
	}

	b.Register(registrations...)

	return b
}

// Register installs handler bindings, replacing (with a warning) any prior
// binding for the same query type. Invalid bindings are logged and do not
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

// Unregister removes the binding for the given query type. Removing an
// unknown type is a no-op with a warning.
func (b *Bus) Unregister(t reflect.Type) {
	if present := b.registry.Unregister(t); !present {
		b.logger.
			With("request_type", typeName(t)).
			Warn("unregister requested for unknown query type")
	}
}

// HasHandler reports whether a handler is registered for the given query
// type.
func (b *Bus) HasHandler(t reflect.Type) bool {
	return b.registry.Has(t)
}

// Dispatch routes the query to its handler, serving it from the cache when
// possible.
//
// The order mirrors the command bus through handler lookup, correlation
// install, and validation. After validation, a cacheable query whose handler
// supports caching is looked up in the store: a hit returns immediately,
// bypassing the handler and the processing timer; a miss falls through to
// invocation and writes the fresh result back before returning. A cacheable
// query that yields an empty key is a configuration error.
func (b *Bus) Dispatch(ctx context.Context, qry Query) (any, error) {
	if qry == nil {
		return nil, cqrsbus.ProcessingFailedError("", errx.New("nil query dispatched"))
	}

	reg, ok := b.registry.Lookup(reflect.TypeOf(qry))
	if !ok || !reg.canHandle(qry) {
		return nil, cqrsbus.HandlerNotFoundError(typeName(reflect.TypeOf(qry)))
	}

	if id := qry.CorrelationID(); id != "" {
		ctx = correlation.Inject(ctx, id)
	}

	violations, err := b.validator.Validate(ctx, qry)
	if err != nil {
		return nil, cqrsbus.ProcessingFailedError(qry.RequestID(), err)
	}
	if len(violations) > 0 {
		b.metrics.Inc(metrics.ValidationFailed)
		return nil, validation.FailedError(violations)
	}

	cacheKey := ""
	if b.store != nil && qry.Cacheable() && reg.supportsCaching {
		cacheKey = qry.CacheKey()
		if cacheKey == "" {
			return nil, cqrsbus.ProcessingFailedError(qry.RequestID(), errx.New(
				"cacheable query produced an empty cache key",
			))
		}

		if value, hit := b.cacheRead(ctx, cacheKey); hit {
			return value, nil
		}
	}

	start := time.Now()

	result, err := reg.invoke(ctx, qry)
	if err != nil {
		if errx.IsCodeIn(err, cqrsbus.CodeHandlerNotFound, validation.CodeValidationFailed) {
			return nil, err
		}
		return nil, cqrsbus.ProcessingFailedError(qry.RequestID(), err)
	}

	if cacheKey != "" {
		b.cacheWrite(ctx, cacheKey, result, reg.cacheTTL)
	}

	b.metrics.Inc(metrics.QueriesProcessed)
	b.metrics.Observe(metrics.QueriesProcessingTime, time.Since(start))

	return result, nil
}

// ClearCache evicts one cached result. Administrative entry point, safe to
// call concurrently with in-flight dispatches.
func (b *Bus) ClearCache(ctx context.Context, key string) error {
	if b.store == nil {
		b.logger.Warn("cache clear requested but no store is configured")
		return nil
	}
	return b.store.Evict(ctx, key)
}

// ClearAllCache removes every cached result. Administrative entry point,
// safe to call concurrently with in-flight dispatches.
func (b *Bus) ClearAllCache(ctx context.Context) error {
	if b.store == nil {
		b.logger.Warn("cache clear requested but no store is configured")
		return nil
	}
	return b.store.Clear(ctx)
}

func (b *Bus) cacheRead(ctx context.Context, key string) (any, bool) {
	value, hit, err := b.store.Get(ctx, key)
	if err != nil {
		// A broken store read degrades to a miss.
		b.logger.WithContext(ctx).
			With("cache_key", key).
			With("error", err.Error()).
			Warn("cache read failed")
		return nil, false
	}

	if hit {
		b.logger.WithContext(ctx).
			With("cache_key", key).
			Debug("query served from cache")
	}

	return value, hit
}

func (b *Bus) cacheWrite(ctx context.Context, key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = b.cacheTTL
	}

	if err := b.store.Put(ctx, key, value, ttl); err != nil {
		b.logger.WithContext(ctx).
			With("cache_key", key).
			With("error", err.Error()).
			Warn("cache write failed")
	}
}

// Dispatch routes qry through the bus and asserts the result to R.
// It is the typed facade over Bus.Dispatch.
func Dispatch[Q Query, R any](ctx context.Context, b *Bus, qry Q) (R, error) {
	var zero R

	result, err := b.Dispatch(ctx, qry)
	if err != nil {
		return zero, err
	}

	if result == nil {
		return zero, nil
	}

	typed, ok := result.(R)
	if !ok {
		return zero, cqrsbus.ProcessingFailedError(qry.RequestID(), errx.New(fmt.Sprintf(
			"handler returned %T, caller expected %T", result, zero,
		)))
	}

	return typed, nil
}
