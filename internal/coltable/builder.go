package coltable

import "fmt"

// TableBuilder assembles a Table from a schema, a shared entry index, and
// the component set the table should hold. It mirrors the construction
// source used throughout the higher-level archetype code: schema and
// entry index are pinned first, component types last, then Build.
type TableBuilder struct {
	schema      Schema
	entryIndex  *EntryIndex
	elementType []ElementType
}

// NewTableBuilder starts a new builder.
func NewTableBuilder() *TableBuilder {
	return &TableBuilder{}
}

func (b *TableBuilder) WithSchema(s Schema) *TableBuilder {
	b.schema = s
	return b
}

func (b *TableBuilder) WithEntryIndex(x *EntryIndex) *TableBuilder {
	b.entryIndex = x
	return b
}

func (b *TableBuilder) WithElementTypes(types ...ElementType) *TableBuilder {
	b.elementType = types
	return b
}

// Build validates the builder's required fields and constructs the Table.
func (b *TableBuilder) Build() (Table, error) {
	if b.schema == nil {
		return nil, fmt.Errorf("coltable: table builder requires WithSchema")
	}
	if b.entryIndex == nil {
		return nil, fmt.Errorf("coltable: table builder requires WithEntryIndex")
	}
	return newTable(b.schema, b.entryIndex, b.elementType), nil
}
