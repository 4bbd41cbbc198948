package coltable

import "fmt"

// EntryID names a single row inside some Table. It packs a 0-based slot
// index in the low 32 bits and a generation counter, which starts at 1,
// in the high 32 bits, so the zero value is never a live id (mirrors the "id != 0 means
// valid" convention used throughout the row-cursor API) and a recycled
// slot's old identifiers compare unequal to its new one.
type EntryID uint64

func newEntryID(slot uint32, generation uint32) EntryID {
	return EntryID(uint64(generation)<<32 | uint64(slot))
}

func (id EntryID) slot() uint32       { return uint32(id) }
func (id EntryID) generation() uint32 { return uint32(id >> 32) }

// Entry is a handle to one row: the entity/table/index triple a Table
// hands back from NewEntries, and that the owning EntryIndex keeps
// pointing at the correct live row across swap-removes and migrations.
type Entry interface {
	ID() EntryID
	Index() int
	Recycled() int
	Table() Table
}

type location struct {
	tbl  *table
	row  int
	live bool
}

type slotRecord struct {
	generation uint32
	loc        location
}

// EntryIndex is the world's entity table: for every live slot it records
// which table and row currently hold that entity's components, and it
// recycles freed slots by bumping a generation counter so stale EntryIDs
// are detected rather than silently aliasing a new entity.
type EntryIndex struct {
	slots    []slotRecord
	freeList []uint32
}

// NewEntryIndex builds an empty entity table.
func NewEntryIndex() *EntryIndex {
	return &EntryIndex{}
}

// Alloc reserves a slot (reusing a freed one when available) and records
// its initial location.
func (x *EntryIndex) Alloc(tbl *table, row int) EntryID {
	var slot uint32
	if n := len(x.freeList); n > 0 {
		slot = x.freeList[n-1]
		x.freeList = x.freeList[:n-1]
	} else {
		x.slots = append(x.slots, slotRecord{generation: 1})
		slot = uint32(len(x.slots) - 1)
	}
	x.slots[slot].loc = location{tbl: tbl, row: row, live: true}
	return newEntryID(slot, x.slots[slot].generation)
}

// Free recycles id's slot, invalidating every EntryID previously issued
// for it.
func (x *EntryIndex) Free(id EntryID) {
	slot := id.slot()
	if int(slot) >= len(x.slots) {
		return
	}
	rec := &x.slots[slot]
	if rec.generation != id.generation() || !rec.loc.live {
		return
	}
	rec.loc = location{}
	rec.generation++
	x.freeList = append(x.freeList, slot)
}

// Move updates the recorded location for a slot after a swap-remove or
// migration moved its row.
func (x *EntryIndex) Move(id EntryID, tbl *table, row int) {
	slot := id.slot()
	if int(slot) >= len(x.slots) {
		return
	}
	rec := &x.slots[slot]
	if rec.generation != id.generation() {
		return
	}
	rec.loc.tbl = tbl
	rec.loc.row = row
}

// Valid reports whether id still refers to a live row (its generation
// matches the slot's current generation).
func (x *EntryIndex) Valid(id EntryID) bool {
	slot := id.slot()
	if int(slot) >= len(x.slots) {
		return false
	}
	rec := &x.slots[slot]
	return rec.generation == id.generation() && rec.loc.live
}

// entry implements Entry for a live EntryID.
type entry struct {
	id    EntryID
	index *EntryIndex
}

// Entry resolves id to a live row cursor. The row is re-read from the
// index on every accessor call (ID/Index/Table), never cached, so that an
// Entry obtained before a migration still observes the entity's current
// location afterward.
func (x *EntryIndex) Entry(id EntryID) (Entry, error) {
	if !x.Valid(id) {
		return nil, fmt.Errorf("coltable: entry %d is not valid (recycled or never allocated)", id)
	}
	return entry{id: id, index: x}, nil
}

func (e entry) record() slotRecord {
	return e.index.slots[e.id.slot()]
}

func (e entry) ID() EntryID { return e.id }

func (e entry) Index() int { return e.record().loc.row }

func (e entry) Recycled() int { return int(e.record().generation) }

func (e entry) Table() Table {
	tbl := e.record().loc.tbl
	if tbl == nil {
		return nil
	}
	return tbl
}
