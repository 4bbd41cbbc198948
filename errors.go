package loom

import "fmt"

// LockedWorldError is returned by operations attempted while the world is
// locked by an in-progress query, system, or schedule stage.
type LockedWorldError struct{}

func (e LockedWorldError) Error() string {
	return "loom: world is currently locked by an in-progress iteration"
}

// ComponentExistsError reports that a component is already present on an
// entity. AddComponent and AddComponentWithValue do not return it: the
// first leaves such an entity unchanged, the second overwrites the value
// in place.
type ComponentExistsError struct {
	Component Component
}

func (e ComponentExistsError) Error() string {
	return fmt.Sprintf("loom: component already exists on entity: %T", e.Component)
}

// ComponentNotFoundError reports that Get named a component the entity's
// archetype doesn't have. RemoveComponent of an absent component is a
// no-op and does not return it.
type ComponentNotFoundError struct {
	Component Component
}

func (e ComponentNotFoundError) Error() string {
	return fmt.Sprintf("loom: component does not exist on entity: %T", e.Component)
}

// ShapeMismatchError reports a component list naming something outside
// the registry it was checked against — a view, entity, or filter built
// from a component the registry never saw. This is meant to be raised
// during registry/query/schedule construction, never mid-iteration.
type ShapeMismatchError struct {
	Component Component
}

func (e ShapeMismatchError) Error() string {
	return fmt.Sprintf("loom: component %T is not part of this registry", e.Component)
}

// EntityNotFoundError reports that an entity id's generation no longer
// matches the world's entity table — the slot was recycled since the id
// was issued.
type EntityNotFoundError struct {
	ID EntityID
}

func (e EntityNotFoundError) Error() string {
	return fmt.Sprintf("loom: entity %d is absent or recycled", e.ID)
}

// BorrowConflictError is returned by NewSchedule when a ParSystem borrows
// a component or resource marked Non-Sync; SystemA and SystemB then both
// name that ParSystem. Systems with conflicting borrows do not raise it:
// NewSchedule places them in separate stages.
type BorrowConflictError struct {
	SystemA, SystemB string
	Reason           string
}

func (e BorrowConflictError) Error() string {
	return fmt.Sprintf("loom: borrow conflict between %q and %q: %s", e.SystemA, e.SystemB, e.Reason)
}

// DeserializeError reports malformed input to the serialization bridge:
// an archetype whose column count differs from its component count, or a
// column whose length disagrees with its archetype's entity count.
type DeserializeError struct {
	Reason string
}

func (e DeserializeError) Error() string {
	return fmt.Sprintf("loom: deserialize failed: %s", e.Reason)
}
