// Package wrapper provides decorator wrappers for CQRS command handlers.
//
// Wrappers are applied at registration time and compose around the handler,
// so cross-cutting concerns such as logging, tracing, panic recovery, and
// timeouts stay out of the business logic and out of the dispatcher core.
package wrapper
