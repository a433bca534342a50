// Package request defines the envelope shared by all commands and queries.
//
// A request is an immutable value carrying a unique identifier, a creation
// timestamp, and optional correlation, actor, and metadata attributes.
// Concrete commands and queries embed Base and add their own payload fields.
package request

import (
	"time"

	"github.com/google/uuid"
)

// Request exposes the envelope attributes common to every command and query.
type Request interface {
	// RequestID returns the unique identifier of the request.
	RequestID() string

	// CreatedAt returns the moment the request value was constructed.
	CreatedAt() time.Time

	// CorrelationID returns the trace-correlation token, or "" if absent.
	CorrelationID() string

	// ActorID returns the identifier of the request initiator, or "" if absent.
	ActorID() string

	// Meta returns the request metadata mapping. May be nil.
	Meta() map[string]any
}

// Base is the embeddable implementation of Request.
//
// Construct it with New so the identifier and timestamp are always populated.
// Base is a value type; once constructed it is not meant to be mutated.
type Base struct {
	ID          string         `json:"id"`
	OccurredAt  time.Time      `json:"occurred_at"`
	Correlation string         `json:"correlation_id,omitempty"`
	Actor       string         `json:"actor_id,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Option customizes a Base during construction.
type Option func(*Base)

// WithID overrides the generated request identifier.
func WithID(id string) Option {
	return func(b *Base) {
		b.ID = id
	}
}

// WithCorrelationID attaches a trace-correlation token to the request.
func WithCorrelationID(id string) Option {
	return func(b *Base) {
		b.Correlation = id
	}
}

// WithActorID attaches the initiator identifier to the request.
func WithActorID(id string) Option {
	return func(b *Base) {
		b.Actor = id
	}
}

// WithMeta attaches a metadata mapping to the request. Keys are unique;
// a later WithMeta replaces the whole mapping.
func WithMeta(md map[string]any) Option {
	return func(b *Base) {
		b.Metadata = md
	}
}

// New builds a request envelope with a generated identifier and the current
// timestamp, then applies the given options.
func New(opts ...Option) Base {
	b := Base{
		ID:         uuid.NewString(),
		OccurredAt: time.Now().UTC(),
	}

	for _, opt := range opts {
		opt(&b)
	}

	// An explicit empty ID still gets a generated one.
	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	return b
}

func (b Base) RequestID() string { return b.ID }

func (b Base) CreatedAt() time.Time { return b.OccurredAt }

func (b Base) CorrelationID() string { return b.Correlation }

func (b Base) ActorID() string { return b.Actor }

func (b Base) Meta() map[string]any { return b.Metadata }
