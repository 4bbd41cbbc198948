package loom

import "github.com/loom-ecs/loom/internal/coltable"

// archetypeID names one archetype within a single World. Ids are assigned
// in creation order starting at 1; 0 is never a valid id.
type archetypeID uint32

// Archetype is the public, read-only view onto one archetype: its id and
// its backing column table. CompiledQuery.matches inspects an archetype's
// component bitset via Table().Mask().
type Archetype interface {
	ID() uint32
	Table() coltable.Table
}

// archetype is the concrete Archetype.
type archetype struct {
	id    archetypeID
	table coltable.Table
}

func newArchetype(schema coltable.Schema, entryIndex *coltable.EntryIndex, id archetypeID, components ...Component) (archetype, error) {
	elementTypes := make([]coltable.ElementType, len(components))
	for i, comp := range components {
		elementTypes[i] = comp
	}
	tbl, err := coltable.NewTableBuilder().
		WithSchema(schema).
		WithEntryIndex(entryIndex).
		WithElementTypes(elementTypes...).
		Build()
	if err != nil {
		return archetype{}, err
	}
	return archetype{
		table: tbl,
		id:    id,
	}, nil
}

func (a archetype) ID() uint32 {
	return uint32(a.id)
}

func (a archetype) Table() coltable.Table {
	return a.table
}
