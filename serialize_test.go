package loom

import (
	"reflect"
	"testing"

	"github.com/loom-ecs/loom/internal/bitset"
	"github.com/loom-ecs/loom/internal/coltable"
)

type recordedEntity struct {
	components []Component
	values     []any
}

// rowRecorder is a RowVisitor that captures every entity it's shown, for
// replay through a RowSource in the same test.
type rowRecorder struct {
	entities []recordedEntity
}

func (r *rowRecorder) VisitEntity(id EntityID, present bitset.Set, components []coltable.ElementType, values []reflect.Value) error {
	comps := make([]Component, len(components))
	vals := make([]any, len(values))
	for i, et := range components {
		comps[i] = et.(Component)
		vals[i] = values[i].Interface()
	}
	r.entities = append(r.entities, recordedEntity{components: comps, values: vals})
	return nil
}

// rowPlayer is a RowSource replaying a rowRecorder's captured entities.
type rowPlayer struct {
	entities []recordedEntity
	pos      int
}

func (p *rowPlayer) NextEntity() (components []Component, values []any, ok bool, err error) {
	if p.pos >= len(p.entities) {
		return nil, nil, false, nil
	}
	e := p.entities[p.pos]
	p.pos++
	return e.components, e.values, true, nil
}

func TestSerializeDeserializeRows(t *testing.T) {
	world := NewWorld()
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()

	entities, err := world.NewEntities(3, posComp, velComp)
	if err != nil {
		t.Fatalf("Failed to create entities: %v", err)
	}
	for i, e := range entities {
		posComp.GetFromEntity(e).X = float64(i)
		velComp.GetFromEntity(e).Y = float64(i) * 10
	}
	if _, err := world.NewEntities(2, posComp); err != nil {
		t.Fatalf("Failed to create entities: %v", err)
	}

	rec := &rowRecorder{}
	if err := world.SerializeRows(rec); err != nil {
		t.Fatalf("SerializeRows failed: %v", err)
	}
	if len(rec.entities) != world.Len() {
		t.Fatalf("recorded %d entities, want %d", len(rec.entities), world.Len())
	}

	world2 := NewWorld()
	if err := world2.DeserializeRows(&rowPlayer{entities: rec.entities}); err != nil {
		t.Fatalf("DeserializeRows failed: %v", err)
	}

	if world2.Len() != world.Len() {
		t.Errorf("world2.Len() = %d, want %d", world2.Len(), world.Len())
	}

	result := world2.Query(NewQuery().RequireRead(posComp, velComp))
	xs := make(map[float64]bool)
	for result.Cursor.Next() {
		pos := posComp.GetFromCursor(result.Cursor)
		vel := velComp.GetFromCursor(result.Cursor)
		xs[pos.X] = true
		if vel.Y != pos.X*10 {
			t.Errorf("vel.Y = %v, want %v", vel.Y, pos.X*10)
		}
	}
	if len(xs) != 3 {
		t.Errorf("found %d distinct position+velocity entities, want 3", len(xs))
	}
}

// columnRecorder is a ColumnVisitor that captures every archetype it's
// shown, for replay through a ColumnSource in the same test.
type columnRecorder struct {
	archetypes []recordedArchetype
}

type recordedArchetype struct {
	components []Component
	count      int
	columns    [][]any
}

func (r *columnRecorder) VisitArchetype(mask bitset.Set, entityIDs []EntityID, columns []coltable.ElementType, rows []reflect.Value) error {
	comps := make([]Component, len(columns))
	for i, et := range columns {
		comps[i] = et.(Component)
	}
	colVals := make([][]any, len(rows))
	for ci, col := range rows {
		vals := make([]any, col.Len())
		for r := 0; r < col.Len(); r++ {
			vals[r] = col.Index(r).Interface()
		}
		colVals[ci] = vals
	}
	r.archetypes = append(r.archetypes, recordedArchetype{components: comps, count: len(entityIDs), columns: colVals})
	return nil
}

type columnPlayer struct {
	archetypes []recordedArchetype
	pos        int
}

func (p *columnPlayer) NextArchetype() (components []Component, entityCount int, columnValues [][]any, ok bool, err error) {
	if p.pos >= len(p.archetypes) {
		return nil, 0, nil, false, nil
	}
	a := p.archetypes[p.pos]
	p.pos++
	return a.components, a.count, a.columns, true, nil
}

func TestSerializeDeserializeColumns(t *testing.T) {
	world := NewWorld()
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()

	entities, err := world.NewEntities(4, posComp, velComp)
	if err != nil {
		t.Fatalf("Failed to create entities: %v", err)
	}
	for i, e := range entities {
		posComp.GetFromEntity(e).X = float64(i + 1)
	}

	rec := &columnRecorder{}
	if err := world.SerializeColumns(rec); err != nil {
		t.Fatalf("SerializeColumns failed: %v", err)
	}

	world2 := NewWorld()
	if err := world2.DeserializeColumns(&columnPlayer{archetypes: rec.archetypes}); err != nil {
		t.Fatalf("DeserializeColumns failed: %v", err)
	}

	if world2.Len() != 4 {
		t.Fatalf("world2.Len() = %d, want 4", world2.Len())
	}

	result := world2.Query(NewQuery().RequireRead(posComp))
	sum := 0.0
	for result.Cursor.Next() {
		sum += posComp.GetFromCursor(result.Cursor).X
	}
	if sum != 10 { // 1+2+3+4
		t.Errorf("sum of positions = %v, want 10", sum)
	}
}

// TestDeserializeReusesMatchingArchetype covers the source-noted bug fix:
// deserializing entities of a shape that already has a live archetype
// must not create a duplicate one.
func TestDeserializeReusesMatchingArchetype(t *testing.T) {
	world := NewWorld()
	posComp := FactoryNewComponent[Position]()

	if _, err := world.NewEntities(2, posComp); err != nil {
		t.Fatalf("Failed to create entities: %v", err)
	}
	before := len(world.Archetypes())

	rec := &rowRecorder{entities: []recordedEntity{
		{components: []Component{posComp}, values: []any{Position{X: 1, Y: 2}}},
	}}

	if err := world.DeserializeRows(&rowPlayer{entities: rec.entities}); err != nil {
		t.Fatalf("DeserializeRows failed: %v", err)
	}

	after := len(world.Archetypes())
	if after != before {
		t.Errorf("archetype count changed from %d to %d; expected reuse of the existing archetype", before, after)
	}
	if world.Len() != 3 {
		t.Errorf("world.Len() = %d, want 3", world.Len())
	}
}
