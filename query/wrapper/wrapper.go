// Package wrapper provides decorator wrappers for CQRS query handlers.
//
// Wrappers are applied at registration time and compose around the handler.
// They run on the invocation path only: a query served from the result
// cache never reaches the wrapped handler.
package wrapper
