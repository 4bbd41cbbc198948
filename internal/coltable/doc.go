// Package coltable implements the struct-of-arrays row store that backs
// one archetype: a Schema canonicalizing component order, an EntryIndex
// tracking where each entity's row currently lives, and a Table holding
// one column per component plus the parallel entity-id column.
package coltable
