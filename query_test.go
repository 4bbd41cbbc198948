package loom

import "testing"

// TestQueryFiltering exercises Has/And/Or/Not against archetype selection.
func TestQueryFiltering(t *testing.T) {
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()
	healthComp := FactoryNewComponent[Health]()

	type entitySetup struct {
		components []Component
		count      int
	}

	tests := []struct {
		name            string
		entitySetups    []entitySetup
		filter          func() Filter
		expectedMatches int
	}{
		{
			name: "And filter matches exact",
			entitySetups: []entitySetup{
				{[]Component{posComp, velComp}, 5},
				{[]Component{posComp}, 10},
				{[]Component{velComp}, 15},
			},
			filter:          func() Filter { return Has(posComp, velComp) },
			expectedMatches: 5,
		},
		{
			name: "Or filter matches either",
			entitySetups: []entitySetup{
				{[]Component{posComp, velComp}, 5},
				{[]Component{posComp}, 10},
				{[]Component{velComp}, 15},
			},
			filter:          func() Filter { return Or(Has(posComp), Has(velComp)) },
			expectedMatches: 30,
		},
		{
			name: "Not filter excludes",
			entitySetups: []entitySetup{
				{[]Component{posComp, velComp}, 5},
				{[]Component{posComp}, 10},
				{[]Component{velComp}, 15},
				{[]Component{healthComp}, 20},
			},
			filter:          func() Filter { return Not(Has(velComp)) },
			expectedMatches: 30, // 10 + 20
		},
		{
			name: "Complex filter",
			entitySetups: []entitySetup{
				{[]Component{posComp, velComp, healthComp}, 5},
				{[]Component{posComp, velComp}, 10},
				{[]Component{posComp, healthComp}, 15},
				{[]Component{velComp, healthComp}, 20},
				{[]Component{posComp}, 25},
				{[]Component{velComp}, 30},
				{[]Component{healthComp}, 35},
			},
			filter: func() Filter {
				return Or(And(Has(posComp), Has(velComp)), And(Has(posComp), Has(healthComp)))
			},
			expectedMatches: 30, // 10 + 15 + 5
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			world := NewWorld()

			for _, setup := range tt.entitySetups {
				if _, err := world.NewEntities(setup.count, setup.components...); err != nil {
					t.Fatalf("Failed to create entities: %v", err)
				}
			}

			query := NewQuery().Where(tt.filter())
			result := world.Query(query)

			matchCount := 0
			for result.Cursor.Next() {
				matchCount++
			}

			if matchCount != tt.expectedMatches {
				t.Errorf("Query matched %d entities, want %d", matchCount, tt.expectedMatches)
			}
		})
	}
}

// TestQueryWithCursor exercises both counting a cursor by hand and via
// TotalMatched, and confirms they agree.
func TestQueryWithCursor(t *testing.T) {
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()
	healthComp := FactoryNewComponent[Health]()

	tests := []struct {
		name          string
		entityTypes   [][]Component
		required      []Component
		expectedCount int
	}{
		{
			name: "Query with position",
			entityTypes: [][]Component{
				{posComp},
				{posComp, velComp},
				{velComp},
			},
			required:      []Component{posComp},
			expectedCount: 20,
		},
		{
			name: "Query with position and velocity",
			entityTypes: [][]Component{
				{posComp},
				{posComp, velComp},
				{velComp},
			},
			required:      []Component{posComp, velComp},
			expectedCount: 10,
		},
		{
			name: "Query with no matches",
			entityTypes: [][]Component{
				{posComp},
				{velComp},
			},
			required:      []Component{healthComp},
			expectedCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			world := NewWorld()

			for _, componentSet := range tt.entityTypes {
				if _, err := world.NewEntities(10, componentSet...); err != nil {
					t.Fatalf("Failed to create entities: %v", err)
				}
			}

			query := NewQuery().RequireRead(tt.required...)

			result1 := world.Query(query)
			count1 := 0
			for result1.Cursor.Next() {
				count1++
			}

			result2 := world.Query(query)
			count2 := result2.Cursor.TotalMatched()

			if count1 != count2 {
				t.Errorf("Cursor counts inconsistent: %d vs %d", count1, count2)
			}
			if count1 != tt.expectedCount {
				t.Errorf("Query matched %d entities, want %d", count1, tt.expectedCount)
			}
		})
	}
}

// TestQueryComponentAccess exercises reading and writing component values
// reached through a compiled query's cursor.
func TestQueryComponentAccess(t *testing.T) {
	world := NewWorld()

	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()

	for i := 0; i < 10; i++ {
		entities, err := world.NewEntities(1, posComp)
		if err != nil {
			t.Fatalf("Failed to create entity: %v", err)
		}
		entity := entities[0]

		pos := posComp.GetFromEntity(entity)
		pos.X, pos.Y = float64(i), float64(i*2)

		vel := Velocity{X: float64(i) * 0.1, Y: float64(i) * 0.2}
		if err := entity.AddComponentWithValue(velComp, vel); err != nil {
			t.Fatalf("Failed to add velocity: %v", err)
		}
	}

	query := NewQuery().RequireWrite(posComp).RequireRead(velComp)

	result := world.Query(query)
	for result.Cursor.Next() {
		pos := posComp.GetFromCursor(result.Cursor)
		vel := velComp.GetFromCursor(result.Cursor)
		pos.X += vel.X
		pos.Y += vel.Y
	}

	result = world.Query(query)
	for result.Cursor.Next() {
		pos := posComp.GetFromCursor(result.Cursor)
		vel := velComp.GetFromCursor(result.Cursor)

		expectedX := pos.X - vel.X
		expectedY := pos.Y - vel.Y
		if !almostEqual(expectedX, vel.X*10, 0.0001) || !almostEqual(expectedY/2, vel.X*10, 0.0001) {
			t.Errorf("Position {%v, %v} with velocity {%v, %v} doesn't match expected pattern",
				pos.X-vel.X, pos.Y-vel.Y, vel.X, vel.Y)
		}
	}
}

// TestQueryOptionalViews exercises optional view elements against
// archetypes that only sometimes carry the optional component.
func TestQueryOptionalViews(t *testing.T) {
	world := NewWorld()
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()

	if _, err := world.NewEntities(4, posComp); err != nil {
		t.Fatalf("Failed to create entities: %v", err)
	}
	if _, err := world.NewEntities(6, posComp, velComp); err != nil {
		t.Fatalf("Failed to create entities: %v", err)
	}

	query := NewQuery().RequireRead(posComp).OptionalRead(velComp)
	result := world.Query(query)

	withVel, withoutVel := 0, 0
	for result.Cursor.Next() {
		if present, _ := velComp.GetFromCursorSafe(result.Cursor); present {
			withVel++
		} else {
			withoutVel++
		}
	}

	if withVel != 6 || withoutVel != 4 {
		t.Errorf("optional view split = (%d, %d), want (6, 4)", withVel, withoutVel)
	}
}

// TestQueryEmptyViewsStillTerminates covers the edge case where a query
// requires no component at all: the cursor must still advance once per
// entity and terminate rather than spin forever.
func TestQueryEmptyViewsStillTerminates(t *testing.T) {
	world := NewWorld()
	posComp := FactoryNewComponent[Position]()

	if _, err := world.NewEntities(7, posComp); err != nil {
		t.Fatalf("Failed to create entities: %v", err)
	}

	query := NewQuery()
	result := world.Query(query)

	count := 0
	for result.Cursor.Next() {
		count++
		if count > 100 {
			t.Fatalf("cursor did not terminate for an empty-view query")
		}
	}
	if count != 7 {
		t.Errorf("empty-view query matched %d entities, want 7", count)
	}
}

func almostEqual(a, b, epsilon float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}
