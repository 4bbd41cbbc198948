/*
Package loom is an archetype-based entity-component-system data engine.

It stores entities as rows grouped by their exact component set (an
archetype), laying each component out as its own column for
cache-friendly traversal. Entities move between archetypes when their
shape changes; queries select matching archetypes with a single bitmask
comparison and then walk their columns in lockstep.

Core Concepts:

  - Entity: a (index, generation) identifier for one record.
  - Component: a user-defined type stored in a column.
  - Archetype: the set of entities sharing one exact component set.
  - World: the store owning every archetype, the entity table, and resources.
  - Query: a view of required/optional components plus a presence filter.
  - System: a query bundle paired with a run function, packed into
    scheduler stages by borrow compatibility.

Basic Usage:

	type Position struct{ X, Y float64 }
	type Velocity struct{ X, Y float64 }

	position := loom.FactoryNewComponent[Position]()
	velocity := loom.FactoryNewComponent[Velocity]()

	world := loom.NewWorld()
	world.NewEntities(100, position, velocity)

	query := loom.NewQuery().RequireWrite(position).RequireRead(velocity)
	result := world.Query(query)
	for result.Cursor.Next() {
		pos := position.GetFromCursor(result.Cursor)
		vel := velocity.GetFromCursor(result.Cursor)
		pos.X += vel.X
		pos.Y += vel.Y
	}
*/
package loom
