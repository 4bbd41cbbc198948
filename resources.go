package loom

import (
	"fmt"
	"reflect"
)

// Resources is the world's singleton container: one instance of each
// resource type the caller has installed. Resources never participate in
// archetype bitsets — a ResourceView is a borrow request the scheduler
// and query engine arbitrate against the resource list on its own, in
// parallel with (and independent of) component-column borrows.
type Resources struct {
	values map[reflect.Type]reflect.Value // reflect.Type(T) -> addressable *T
}

// NewResources builds a Resources set preloaded with the given values,
// one of each concrete type.
func NewResources(items ...any) *Resources {
	r := &Resources{values: make(map[reflect.Type]reflect.Value, len(items))}
	for _, item := range items {
		typ := reflect.TypeOf(item)
		ptr := reflect.New(typ)
		ptr.Elem().Set(reflect.ValueOf(item))
		r.values[typ] = ptr
	}
	return r
}

// SetResource installs or replaces the resource of type T.
func SetResource[T any](r *Resources, v T) {
	typ := reflect.TypeFor[T]()
	ptr := reflect.New(typ)
	ptr.Elem().Set(reflect.ValueOf(v))
	r.values[typ] = ptr
}

// GetResource returns a pointer to the resource of type T, or an error if
// none was installed. The pointer aliases the stored value, so mutations
// through it are visible to subsequent GetResource calls.
func GetResource[T any](r *Resources) (*T, error) {
	typ := reflect.TypeFor[T]()
	ptr, ok := r.values[typ]
	if !ok {
		return nil, fmt.Errorf("loom: resource %v is not installed", typ)
	}
	return ptr.Interface().(*T), nil
}

// HasResource reports whether a resource of type T is installed.
func HasResource[T any](r *Resources) bool {
	_, ok := r.values[reflect.TypeFor[T]()]
	return ok
}

// resourceKey names a resource type for borrow-conflict bookkeeping in
// the query engine and scheduler, independent of the component registry.
type resourceKey = reflect.Type

// resourceKeyFor returns the key a ResourceView[T] would use.
func resourceKeyFor[T any]() resourceKey {
	return reflect.TypeFor[T]()
}
