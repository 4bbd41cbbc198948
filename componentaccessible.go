package loom

import "github.com/loom-ecs/loom/internal/coltable"

// AccessibleComponent extends a bare Component identity with table-backed
// accessors, so the same value both names a component for canonicalization
// purposes (queries, filters) and reads/writes it during iteration.
type AccessibleComponent[T any] struct {
	Component
	coltable.Accessor[T]
}

// GetFromCursor retrieves a component value for the entity the cursor is
// currently positioned on.
func (c AccessibleComponent[T]) GetFromCursor(cursor *Cursor) *T {
	return c.Get(
		cursor.entityIndex-1,
		cursor.currentArchetype.Table(),
	)
}

// GetFromCursorSafe safely retrieves a component value for an optional
// view element, reporting whether the component was present.
func (c AccessibleComponent[T]) GetFromCursorSafe(cursor *Cursor) (bool, *T) {
	if !c.Accessor.Check(cursor.currentArchetype.Table()) {
		return false, nil
	}
	return true, c.GetFromCursor(cursor)
}

// CheckCursor reports whether the component exists in the archetype the
// cursor is currently positioned on.
func (c AccessibleComponent[T]) CheckCursor(cursor *Cursor) bool {
	return c.Accessor.Check(cursor.currentArchetype.Table())
}

// GetFromEntity retrieves a component value for the specified entity via
// the Entry API.
func (c AccessibleComponent[T]) GetFromEntity(entity Entity) *T {
	return c.Get(entity.Index(), entity.Table())
}
