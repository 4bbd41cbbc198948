package loom

import (
	"reflect"

	"github.com/loom-ecs/loom/internal/bitset"
	"github.com/loom-ecs/loom/internal/coltable"
)

// RowVisitor receives one call per live entity in row mode: the
// entity's id, the archetype's bitset (which registry slots are
// present), its components in canonical order, and their values (spec
// 4.7: row mode emits (EntityId, ComponentList) with optional
// components flagged by presence). The core only drives the traversal —
// turning these values into bytes is an external encoder's job.
type RowVisitor interface {
	VisitEntity(id EntityID, present bitset.Set, components []coltable.ElementType, values []reflect.Value) error
}

// ColumnVisitor receives one call per archetype in column mode: its
// bitset, its entity ids, and its columns' raw backing slices (spec
// 4.7: column mode emits (Bitset, EntityIds, Column0, Column1, ...)).
type ColumnVisitor interface {
	VisitArchetype(mask bitset.Set, entityIDs []EntityID, columns []coltable.ElementType, rows []reflect.Value) error
}

// SerializeRows drives v over every live entity, archetype by archetype,
// row by row within each.
func (w *World) SerializeRows(v RowVisitor) error {
	for i := range w.archetypes.asSlice {
		tbl := w.archetypes.asSlice[i].Table()
		cols := tbl.Columns()
		rows := tbl.Rows()
		for r := 0; r < tbl.Length(); r++ {
			values := make([]reflect.Value, len(rows))
			for ci, col := range rows {
				values[ci] = col.Index(r)
			}
			if err := v.VisitEntity(tbl.EntityAt(r), tbl.Mask(), cols, values); err != nil {
				return err
			}
		}
	}
	return nil
}

// SerializeColumns drives v over every archetype.
func (w *World) SerializeColumns(v ColumnVisitor) error {
	for i := range w.archetypes.asSlice {
		tbl := w.archetypes.asSlice[i].Table()
		n := tbl.Length()
		ids := make([]EntityID, n)
		for r := 0; r < n; r++ {
			ids[r] = tbl.EntityAt(r)
		}
		if err := v.VisitArchetype(tbl.Mask(), ids, tbl.Columns(), tbl.Rows()); err != nil {
			return err
		}
	}
	return nil
}

// RowSource supplies row-mode deserialization, one encoded entity per
// call; ok is false once the source is exhausted. Decoding bytes into
// components and values is the external decoder's job — the core only
// consumes the decoded values and places them.
type RowSource interface {
	NextEntity() (components []Component, values []any, ok bool, err error)
}

// DeserializeRows reconstructs entities from src. Each entity's
// destination archetype comes from NewOrExistingArchetype, which reuses
// a matching existing archetype instead of creating a duplicate (spec
// 4.7 source-noted bug fix).
func (w *World) DeserializeRows(src RowSource) error {
	for {
		components, values, ok, err := src.NextEntity()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		entities, err := w.NewEntities(1, components...)
		if err != nil {
			return err
		}
		if err := setRowValues(entities[0], values); err != nil {
			return err
		}
	}
}

// ColumnSource supplies column-mode deserialization, one encoded
// archetype per call; ok is false once exhausted.
type ColumnSource interface {
	NextArchetype() (components []Component, entityCount int, columnValues [][]any, ok bool, err error)
}

// DeserializeColumns reconstructs archetypes from src, reusing an
// existing archetype with a matching bitset rather than duplicating it.
func (w *World) DeserializeColumns(src ColumnSource) error {
	for {
		components, n, columnValues, ok, err := src.NextArchetype()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if n == 0 {
			continue
		}
		if len(columnValues) != len(components) {
			return DeserializeError{Reason: "column count does not match component count"}
		}
		entities, err := w.NewEntities(n, components...)
		if err != nil {
			return err
		}
		for _, vals := range columnValues {
			if len(vals) != n {
				return DeserializeError{Reason: "column length does not match archetype entity count"}
			}
			for r, v := range vals {
				if v == nil {
					continue
				}
				if err := setRowValues(entities[r], []any{v}); err != nil {
					return err
				}
			}
		}
	}
}

// setRowValues writes each non-nil value into the matching column of
// en's current archetype by runtime type, mirroring the value-placement
// pattern Entity.AddComponentWithValue uses.
func setRowValues(en Entity, values []any) error {
	rows := en.Table().Rows()
	row := en.Index()
	for _, v := range values {
		if v == nil {
			continue
		}
		t := reflect.TypeOf(v)
		for _, col := range rows {
			if col.Type().Elem() == t {
				col.Index(row).Set(reflect.ValueOf(v))
				break
			}
		}
	}
	return nil
}
