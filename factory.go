package loom

import "github.com/loom-ecs/loom/internal/coltable"

// factory implements the factory pattern for building loom primitives
// that need package-private constructors.
type factory struct{}

// Factory is the global factory instance for constructing worlds,
// queries, and cursors.
var Factory factory

// NewWorld builds an empty World.
func (f factory) NewWorld() *World {
	return NewWorld()
}

// NewQuery builds an empty Query bundle.
func (f factory) NewQuery() *Query {
	return NewQuery()
}

// NewCursor builds a Cursor over a compiled query and world.
func (f factory) NewCursor(query *CompiledQuery, world *World) *Cursor {
	return newCursor(query, world)
}

// FactoryNewComponent declares a new component type T, assigning it a
// stable identity and a typed accessor in one step.
func FactoryNewComponent[T any]() AccessibleComponent[T] {
	iden := coltable.FactoryNewElementType[T]()
	return AccessibleComponent[T]{
		Component: iden,
		Accessor:  coltable.FactoryNewAccessor[T](iden),
	}
}
