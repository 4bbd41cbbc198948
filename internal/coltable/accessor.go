package coltable

import "unsafe"

// Accessor gives typed, allocation-free access to one component's column
// across any table that holds it. It is bound to a component identity at
// construction and resolves the column index fresh against whichever
// table it is asked about, so the same Accessor works for every archetype
// containing that component.
type Accessor[T any] struct {
	et ElementType
}

// FactoryNewAccessor builds an Accessor bound to the given component
// identity.
func FactoryNewAccessor[T any](et ElementType) Accessor[T] {
	return Accessor[T]{et: et}
}

// Get returns a pointer to the value at row in tbl's column for this
// accessor's component. Callers must have already established that the
// column exists (Check, or a query that required it).
func (a Accessor[T]) Get(row int, tbl Table) *T {
	t := tbl.(*table)
	col, ok := t.columnByRow[t.schema.RowIndexFor(a.et)]
	if !ok {
		return nil
	}
	return (*T)(unsafe.Pointer(col.at(row)))
}

// Check reports whether tbl's archetype has this accessor's component.
func (a Accessor[T]) Check(tbl Table) bool {
	return tbl.Contains(a.et)
}
