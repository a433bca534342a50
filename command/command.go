// Package command defines the CQRS command contract and the command
// dispatcher.
//
// Commands are write-intent requests: they may change state and produce a
// result. A handler binds exactly one command type to exactly one result
// type; the binding is erased into a Registration so heterogeneous handlers
// can share one dispatcher. Cross-cutting concerns are applied as WrapFunc
// decorators at registration time.
package command

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/code19m/errx"
	"github.com/rise-and-shine/cqrsbus/request"
)

// Command is a write-intent request.
type Command interface {
	request.Request
}

// Handler processes one command type.
type Handler[C Command, R any] interface {
	// Handle executes the command and returns its result or an error.
	Handle(ctx context.Context, cmd C) (R, error)
}

// WrapFunc decorates a handler with a cross-cutting concern. Wrappers are
// applied at registration time; the last wrapper in the list becomes the
// outermost one.
type WrapFunc[C Command, R any] func(Handler[C, R]) Handler[C, R]

// Matcher lets a handler narrow which requests it accepts beyond the
// default runtime-type match.
type Matcher interface {
	CanHandle(req request.Request) bool
}

// Registration is the type-erased binding between one command type and its
// handler, ready to be installed into a Bus.
type Registration struct {
	requestType reflect.Type
	handlerName string
	canHandle   func(cmd Command) bool
	invoke      func(ctx context.Context, cmd Command) (any, error)
}

// RequestType returns the command runtime type the binding is keyed by.
func (r Registration) RequestType() reflect.Type { return r.requestType }

// HandlerName returns the short type name of the bound handler.
func (r Registration) HandlerName() string { return r.handlerName }

// NewRegistration erases a typed handler into a Registration, applying the
// given wrappers around it. CanHandle is taken from the unwrapped handler
// when it implements Matcher; the default is a runtime-type match.
func NewRegistration[C Command, R any](h Handler[C, R], wraps ...WrapFunc[C, R]) Registration {
	base := h
	for _, wrap := range wraps {
		h = wrap(h)
	}

	wrapped := h

	canHandle := func(cmd Command) bool {
		_, ok := cmd.(C)
		return ok
	}
	if m, ok := any(base).(Matcher); ok {
		canHandle = func(cmd Command) bool {
			return m.CanHandle(cmd)
		}
	}

	return Registration{
		requestType: reflect.TypeFor[C](),
		handlerName: shortTypeName(base),
		canHandle:   canHandle,
		invoke: func(ctx context.Context, cmd Command) (any, error) {
			typed, ok := cmd.(C)
			if !ok {
				return nil, errx.New(fmt.Sprintf(
					"handler %T cannot process request of type %T", base, cmd,
				))
			}
			return wrapped.Handle(ctx, typed)
		},
	}
}

// RequestType returns the registry key for the command type C.
func RequestType[C Command]() reflect.Type {
	return reflect.TypeFor[C]()
}

// shortTypeName returns the bare type name of v, without package path or
// pointer marker.
func shortTypeName(v any) string {
	fullType := fmt.Sprintf("%T", v)
	fullType = strings.TrimPrefix(fullType, "*")

	parts := strings.Split(fullType, ".")
	if len(parts) > 1 {
		return parts[len(parts)-1]
	}

	return fullType
}

// typeName renders a request runtime type for error messages, using the
// same short form as shortTypeName.
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
