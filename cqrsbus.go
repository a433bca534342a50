// Package cqrsbus provides an in-process Command Query Responsibility Segregation (CQRS) dispatch engine.
//
// The engine routes typed write requests (commands) and read requests (queries) to exactly one
// registered handler. Around each handler invocation it enforces a two-stage validation pipeline,
// optional TTL-bound result caching for queries, correlation-identifier propagation, and metrics
// recording. Cross-cutting concerns such as logging, tracing, and panic recovery are applied as
// decorator wrappers at registration time.
//
// The engine is purely in-memory and transport-agnostic: no network transport, no persistence,
// no replay, and no cross-process delivery guarantees. Hosts wire handlers, an optional cache
// store, and an optional metrics recorder at startup.
package cqrsbus

const (
	// CodeHandlerNotFound indicates that no handler is registered for the
	// runtime type of a dispatched request. Surfaced unchanged, never wrapped.
	CodeHandlerNotFound = "HANDLER_NOT_FOUND"

	// CodeProcessingFailed indicates that a handler or the dispatch plumbing
	// failed for any reason other than a missing handler or rejected input.
	// The original cause is always preserved in the wrap chain.
	CodeProcessingFailed = "PROCESSING_FAILED"
)
