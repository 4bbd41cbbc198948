package coltable

import (
	"reflect"
	"unsafe"
)

// column is an aligned, growable, type-erased buffer holding every value
// of one component type for one table. It is backed by a real Go slice of
// the concrete element type obtained through reflection, so growth reuses
// the runtime's own amortised-doubling append rather than reimplementing
// it by hand; the only type erasure needed is at the edges (construction
// and raw pointer access), matching the "descriptor used to write a cell
// is the descriptor used to read it" invariant.
type column struct {
	et    ElementType
	slice reflect.Value // reflect.Slice of et.Type()
}

func newColumn(et ElementType) *column {
	return &column{
		et:    et,
		slice: reflect.MakeSlice(reflect.SliceOf(et.Type()), 0, 0),
	}
}

func (c *column) Len() int { return c.slice.Len() }

// growZero appends n zero-valued elements, used when a row is added
// without an explicit value, or when a migration adds a column the
// origin table didn't have.
func (c *column) growZero(n int) {
	zeros := reflect.MakeSlice(c.slice.Type(), n, n)
	c.slice = reflect.AppendSlice(c.slice, zeros)
}

// pushFrom appends the value at row `srcRow` of another column of the
// same element type. The caller guarantees the types match.
func (c *column) pushFrom(src *column, srcRow int) {
	c.slice = reflect.Append(c.slice, src.slice.Index(srcRow))
}

// swapRemove moves the last element into row and shrinks the column by
// one, mirroring the table-wide swap-remove used for row deletion.
func (c *column) swapRemove(row int) {
	last := c.slice.Len() - 1
	if row != last {
		c.slice.Index(row).Set(c.slice.Index(last))
	}
	c.slice = c.slice.Slice(0, last)
}

// at returns an unsafe pointer to the element at row, for use by the
// generic Accessor. The pointer is only valid until the next structural
// change to the column (push/grow/remove), exactly like a slice pointer
// invalidated by append.
func (c *column) at(row int) unsafe.Pointer {
	return c.slice.Index(row).Addr().UnsafePointer()
}

// raw exposes the backing reflect.Value, used by the row-oriented
// reflection path (AddComponentWithValue) and the serialization bridge's
// byte-identical column encoding.
func (c *column) raw() reflect.Value { return c.slice }

func (c *column) shrinkToFit() {
	if c.slice.Cap() == c.slice.Len() {
		return
	}
	fresh := reflect.MakeSlice(c.slice.Type(), c.slice.Len(), c.slice.Len())
	reflect.Copy(fresh, c.slice)
	c.slice = fresh
}
