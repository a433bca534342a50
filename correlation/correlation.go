// Package correlation manages the request-scoped correlation identifier.
//
// The identifier is carried on context.Context, which is Go's task-scoped
// storage: every dispatch derives its own context, so concurrently executing
// dispatches can never observe each other's identifier, and an abandoned or
// cancelled dispatch leaks nothing into other goroutines.
package correlation

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

// Inject returns a context carrying the given correlation identifier.
// An empty id leaves the context unchanged.
func Inject(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the correlation identifier installed on the context,
// or ("", false) when none is present.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// Clear returns a context with no correlation identifier, shadowing any
// value installed by an outer scope.
func Clear(ctx context.Context) context.Context {
	if _, ok := FromContext(ctx); !ok {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, "")
}

// Ensure returns a context that carries a correlation identifier, generating
// a new one when the context has none, along with the effective identifier.
func Ensure(ctx context.Context) (context.Context, string) {
	if id, ok := FromContext(ctx); ok {
		return ctx, id
	}

	id := uuid.NewString()
	return Inject(ctx, id), id
}
