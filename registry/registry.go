// Package registry maps request runtime types to their registered handler
// bindings. The registry is read-mostly after startup: lookups are served
// lock-free from a sync.Map, and registration replaces concurrently without
// external locking.
package registry

import (
	"reflect"
	"sync"
)

// Registry stores one binding per request runtime type.
// The zero value is ready to use.
type Registry[H any] struct {
	entries sync.Map // reflect.Type -> H
}

// Register records the binding under the given request type, replacing any
// prior binding. It reports whether a previous binding was replaced.
func (r *Registry[H]) Register(t reflect.Type, binding H) (replaced bool) {
	_, replaced = r.entries.Swap(t, binding)
	return replaced
}

// Unregister removes the binding for the given request type and reports
// whether one was present.
func (r *Registry[H]) Unregister(t reflect.Type) bool {
	_, present := r.entries.LoadAndDelete(t)
	return present
}

// Lookup returns the binding registered for the given request type.
func (r *Registry[H]) Lookup(t reflect.Type) (H, bool) {
	v, ok := r.entries.Load(t)
	if !ok {
		var zero H
		return zero, false
	}
	return v.(H), true
}

// Has reports whether a binding exists for the given request type.
func (r *Registry[H]) Has(t reflect.Type) bool {
	_, ok := r.entries.Load(t)
	return ok
}

// Len returns the number of registered bindings.
func (r *Registry[H]) Len() int {
	n := 0
	r.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Types returns the registered request types in unspecified order.
func (r *Registry[H]) Types() []reflect.Type {
	var types []reflect.Type
	r.entries.Range(func(k, _ any) bool {
		types = append(types, k.(reflect.Type))
		return true
	})
	return types
}
