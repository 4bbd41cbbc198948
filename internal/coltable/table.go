package coltable

import (
	"fmt"
	"reflect"

	"github.com/loom-ecs/loom/internal/bitset"
)

// Table is one archetype's row-aligned storage: a parallel set of columns,
// one per component it holds, plus an implicit entity-id column. Every
// column always has the same length, equal to the table's entity count —
// the column-parity invariant the rest of the engine leans on.
type Table interface {
	bitset.Maskable

	Length() int
	Contains(t ElementType) bool
	Columns() []ElementType
	Rows() []reflect.Value
	Schema() Schema

	Entry(row int) (Entry, error)
	EntityAt(row int) EntryID

	NewEntries(n int) ([]Entry, error)
	DeleteEntries(ids ...int) (int, error)
	TransferEntries(dst Table, row int) error
}

type table struct {
	schema     Schema
	entryIndex *EntryIndex

	mask        bitset.Set
	columns     []*column          // canonical order
	columnByRow map[uint32]*column // row index -> column, O(1) lookup
	ids         []EntryID          // parallel to rows
}

func newTable(schema Schema, entryIndex *EntryIndex, types []ElementType) *table {
	ordered, mask := schema.Canonicalize(types)

	t := &table{
		schema:      schema,
		entryIndex:  entryIndex,
		mask:        mask,
		columns:     make([]*column, len(ordered)),
		columnByRow: make(map[uint32]*column, len(ordered)),
	}
	for i, et := range ordered {
		col := newColumn(et)
		t.columns[i] = col
		t.columnByRow[schema.RowIndexFor(et)] = col
	}
	return t
}

func (t *table) Mask() bitset.Set { return t.mask }

func (t *table) Length() int { return len(t.ids) }

func (t *table) Schema() Schema { return t.schema }

func (t *table) Contains(et ElementType) bool {
	_, ok := t.columnByRow[t.schema.RowIndexFor(et)]
	return ok
}

func (t *table) Columns() []ElementType {
	out := make([]ElementType, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.et
	}
	return out
}

func (t *table) Rows() []reflect.Value {
	out := make([]reflect.Value, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.raw()
	}
	return out
}

func (t *table) EntityAt(row int) EntryID {
	return t.ids[row]
}

func (t *table) Entry(row int) (Entry, error) {
	if row < 0 || row >= len(t.ids) {
		return nil, fmt.Errorf("coltable: row %d out of range (len %d)", row, len(t.ids))
	}
	return t.entryIndex.Entry(t.ids[row])
}

// NewEntries appends n freshly zero-valued rows and allocates an EntryID
// for each, returning cursors onto them in row order.
func (t *table) NewEntries(n int) ([]Entry, error) {
	if n <= 0 {
		return nil, fmt.Errorf("coltable: NewEntries count must be positive, got %d", n)
	}
	start := len(t.ids)
	for _, c := range t.columns {
		c.growZero(n)
	}
	entries := make([]Entry, n)
	for i := 0; i < n; i++ {
		row := start + i
		id := t.entryIndex.Alloc(t, row)
		t.ids = append(t.ids, id)
		e, _ := t.entryIndex.Entry(id)
		entries[i] = e
	}
	return entries, nil
}

// DeleteEntries removes the rows currently holding the given entity ids,
// via swap-remove. Removing out of any particular order is safe: each
// deletion is resolved to its *current* row just before it happens, so an
// earlier deletion's swap cannot stale a later lookup.
func (t *table) DeleteEntries(ids ...int) (int, error) {
	removed := 0
	for _, rawID := range ids {
		id := EntryID(rawID)
		if !t.entryIndex.Valid(id) {
			continue
		}
		e, err := t.entryIndex.Entry(id)
		if err != nil {
			continue
		}
		if e.Table() != t {
			continue
		}
		row := e.Index()
		t.removeRow(row)
		t.entryIndex.Free(id)
		removed++
	}
	return removed, nil
}

// removeRow performs the swap-remove at the table level: every column is
// shrunk in lockstep, the moved entity's EntryIndex location is corrected,
// and no value is dropped twice.
func (t *table) removeRow(row int) {
	last := len(t.ids) - 1
	for _, c := range t.columns {
		c.swapRemove(row)
	}
	if row != last {
		t.ids[row] = t.ids[last]
		t.entryIndex.Move(t.ids[row], t, row)
	}
	t.ids = t.ids[:last]
}

// TransferEntries migrates the row at `row` into dst, carrying forward
// values for any component both tables share, zero-filling components
// dst has that the origin lacked, dropping components the origin has
// that dst doesn't, and leaving no row double-counted or double-freed.
func (t *table) TransferEntries(dst Table, row int) error {
	if row < 0 || row >= len(t.ids) {
		return fmt.Errorf("coltable: row %d out of range (len %d)", row, len(t.ids))
	}
	dstT, ok := dst.(*table)
	if !ok {
		return fmt.Errorf("coltable: TransferEntries target is not a coltable.Table")
	}
	id := t.ids[row]

	newRow := len(dstT.ids)
	for _, dstCol := range dstT.columns {
		srcCol, ok := t.columnByRow[t.schema.RowIndexFor(dstCol.et)]
		if ok {
			dstCol.pushFrom(srcCol, row)
		} else {
			dstCol.growZero(1)
		}
	}
	dstT.ids = append(dstT.ids, id)

	t.removeRow(row)
	dstT.entryIndex.Move(id, dstT, newRow)
	return nil
}
