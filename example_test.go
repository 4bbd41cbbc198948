package loom

import "fmt"

// Name is a component for entity identification, reused across this
// file's examples.
type Name struct {
	Value string
}

// Example_basic shows creating entities across a few archetypes and
// running a simple query against them.
func Example_basic() {
	world := NewWorld()

	position := FactoryNewComponent[Position]()
	velocity := FactoryNewComponent[Velocity]()
	name := FactoryNewComponent[Name]()

	world.NewEntities(5, position)
	world.NewEntities(3, position, velocity)

	entities, _ := world.NewEntities(1, position, velocity, name)
	named := entities[0]
	nameComp := name.GetFromEntity(named)
	nameComp.Value = "Player"

	pos := position.GetFromEntity(named)
	vel := velocity.GetFromEntity(named)
	pos.X, pos.Y = 10.0, 20.0
	vel.X, vel.Y = 1.0, 2.0

	matchQuery := NewQuery().RequireRead(position, velocity)
	matchResult := world.Query(matchQuery)
	matchCount := 0
	for matchResult.Cursor.Next() {
		matchCount++
	}
	fmt.Printf("Found %d entities with position and velocity\n", matchCount)

	nameQuery := NewQuery().RequireWrite(position).RequireRead(velocity, name)
	nameResult := world.Query(nameQuery)
	for nameResult.Cursor.Next() {
		pos := position.GetFromCursor(nameResult.Cursor)
		vel := velocity.GetFromCursor(nameResult.Cursor)
		nme := name.GetFromCursor(nameResult.Cursor)

		pos.X += vel.X
		pos.Y += vel.Y

		fmt.Printf("Updated %s to position (%.1f, %.1f)\n", nme.Value, pos.X, pos.Y)
	}

	// Output:
	// Found 4 entities with position and velocity
	// Updated Player to position (11.0, 22.0)
}

// Example_queries shows Has/And/Or/Not filters over several archetypes.
func Example_queries() {
	world := NewWorld()

	position := FactoryNewComponent[Position]()
	velocity := FactoryNewComponent[Velocity]()
	name := FactoryNewComponent[Name]()

	world.NewEntities(3, position)
	world.NewEntities(3, position, velocity)
	world.NewEntities(3, position, name)
	world.NewEntities(3, position, velocity, name)

	andQuery := NewQuery().Where(Has(position, velocity))
	andResult := world.Query(andQuery)
	fmt.Printf("AND query matched %d entities\n", andResult.Cursor.TotalMatched())

	orQuery := NewQuery().Where(Or(Has(velocity), Has(name)))
	orResult := world.Query(orQuery)
	fmt.Printf("OR query matched %d entities\n", orResult.Cursor.TotalMatched())

	notQuery := NewQuery().RequireRead(position).Where(Not(Has(velocity)))
	notResult := world.Query(notQuery)
	fmt.Printf("NOT query matched %d entities\n", notResult.Cursor.TotalMatched())

	// Output:
	// AND query matched 6 entities
	// OR query matched 9 entities
	// NOT query matched 6 entities
}
