// Package query defines the CQRS query contract and the query dispatcher.
//
// Queries are read-intent requests: idempotent, producing a result without
// changing state. A query may opt in to result caching by declaring itself
// cacheable and deriving a cache key from its own fields; the dispatcher
// then consults the configured store before invoking the handler.
package query

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/code19m/errx"
	"github.com/rise-and-shine/cqrsbus/request"
)

// Query is a read-intent request.
type Query interface {
	request.Request

	// Cacheable reports whether results of this query may be cached.
	Cacheable() bool

	// CacheKey returns the key derived deterministically from the query's
	// own fields. Only consulted when Cacheable is true.
	CacheKey() string
}

// NotCacheable is the embeddable default for queries that never cache.
type NotCacheable struct{}

func (NotCacheable) Cacheable() bool { return false }

func (NotCacheable) CacheKey() string { return "" }

// Handler processes one query type.
type Handler[Q Query, R any] interface {
	// Handle executes the query and returns its result or an error.
	Handle(ctx context.Context, qry Q) (R, error)
}

// WrapFunc decorates a handler with a cross-cutting concern. Wrappers are
// applied at registration time; the last wrapper in the list becomes the
// outermost one.
type WrapFunc[Q Query, R any] func(Handler[Q, R]) Handler[Q, R]

// Matcher lets a handler narrow which requests it accepts beyond the
// default runtime-type match.
type Matcher interface {
	CanHandle(req request.Request) bool
}

// CacheSupporter lets a handler opt out of caching even for cacheable
// queries. Handlers that do not implement it support caching.
type CacheSupporter interface {
	SupportsCaching() bool
}

// TTLProvider lets a handler override the bus-level default TTL for its
// cached results.
type TTLProvider interface {
	CacheTTL() time.Duration
}

// Registration is the type-erased binding between one query type and its
// handler, ready to be installed into a Bus.
type Registration struct {
	requestType     reflect.Type
	handlerName     string
	canHandle       func(qry Query) bool
	invoke          func(ctx context.Context, qry Query) (any, error)
	supportsCaching bool
	cacheTTL        time.Duration // 0 => bus default
}

// RequestType returns the query runtime type the binding is keyed by.
func (r Registration) RequestType() reflect.Type { return r.requestType }

// HandlerName returns the short type name of the bound handler.
func (r Registration) HandlerName() string { return r.handlerName }

// NewRegistration erases a typed handler into a Registration, applying the
// given wrappers around it. Caching behavior and CanHandle are taken from
// the unwrapped handler's optional interfaces.
func NewRegistration[Q Query, R any](h Handler[Q, R], wraps ...WrapFunc[Q, R]) Registration {
	base := h
	for _, wrap := range wraps {
		h = wrap(h)
	}

	wrapped := h

	canHandle := func(qry Query) bool {
		_, ok := qry.(Q)
		return ok
	}
	if m, ok := any(base).(Matcher); ok {
		canHandle = func(qry Query) bool {
			return m.CanHandle(qry)
		}
	}

	supportsCaching := true
	if cs, ok := any(base).(CacheSupporter); ok {
		supportsCaching = cs.SupportsCaching()
	}

	var cacheTTL time.Duration
	if tp, ok := any(base).(TTLProvider); ok {
		cacheTTL = tp.CacheTTL()
	}

	return Registration{
		requestType:     reflect.TypeFor[Q](),
		handlerName:     shortTypeName(base),
		canHandle:       canHandle,
		supportsCaching: supportsCaching,
		cacheTTL:        cacheTTL,
		invoke: func(ctx context.Context, qry Query) (any, error) {
			typed, ok := qry.(Q)
			if !ok {
				return nil, errx.New(fmt.Sprintf(
					"handler %T cannot process request of type %T", base, qry,
				))
			}
			return wrapped.Handle(ctx, typed)
		},
	}
}

// RequestType returns the registry key for the query type Q.
func RequestType[Q Query]() reflect.Type {
	return reflect.TypeFor[Q]()
}

func shortTypeName(v any) string {
	fullType := fmt.Sprintf("%T", v)
	fullType = strings.TrimPrefix(fullType, "*")

	parts := strings.Split(fullType, ".")
	if len(parts) > 1 {
		return parts[len(parts)-1]
	}

	return fullType
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	name := t.String()
	name = strings.TrimPrefix(name, "*")

	parts := strings.Split(name, ".")
	if len(parts) > 1 {
		return parts[len(parts)-1]
	}

	return name
}
