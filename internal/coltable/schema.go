package coltable

import (
	"fmt"

	"github.com/loom-ecs/loom/internal/bitset"
)

// Schema is the canonicalizer: it assigns every distinct component type a
// row index in first-registration order and uses that order as the one
// true canonical order for every list of components presented against it
// afterward — a view, a filter, an entity's component set, a table's
// column layout. Two lists that name the same components, in whatever
// order the caller wrote them, always canonicalize to the same sequence
// and the same bitset.
type Schema interface {
	Register(types ...ElementType)
	RowIndexFor(t ElementType) uint32
	Width() int
	// Canonicalize reorders types into registry order and returns the
	// bitset naming the set. Panics if a type was never registered;
	// callers register before they canonicalize, same as the source.
	Canonicalize(types []ElementType) ([]ElementType, bitset.Set)
}

type schema struct {
	rowByID map[uint32]uint32
	next    uint32
}

// NewSchema creates an empty canonicalizer with no registered types.
func NewSchema() Schema {
	return &schema{rowByID: make(map[uint32]uint32)}
}

func (s *schema) Register(types ...ElementType) {
	for _, t := range types {
		if _, ok := s.rowByID[t.ID()]; ok {
			continue
		}
		s.rowByID[t.ID()] = s.next
		s.next++
	}
}

func (s *schema) RowIndexFor(t ElementType) uint32 {
	row, ok := s.rowByID[t.ID()]
	if !ok {
		panic(fmt.Sprintf("coltable: component %v was never registered with this schema", t.Type()))
	}
	return row
}

func (s *schema) Width() int {
	return int(s.next)
}

func (s *schema) Canonicalize(types []ElementType) ([]ElementType, bitset.Set) {
	ordered := make([]ElementType, len(types))
	copy(ordered, types)

	rows := make([]uint32, len(ordered))
	for i, t := range ordered {
		rows[i] = s.RowIndexFor(t)
	}

	// Insertion sort: component lists are small (a handful of fields per
	// entity), and this keeps the sort stable and allocation-free.
	for i := 1; i < len(ordered); i++ {
		j := i
		for j > 0 && rows[j-1] > rows[j] {
			rows[j-1], rows[j] = rows[j], rows[j-1]
			ordered[j-1], ordered[j] = ordered[j], ordered[j-1]
			j--
		}
	}

	var mask bitset.Set
	for _, r := range rows {
		mask.Mark(r)
	}
	return ordered, mask
}
