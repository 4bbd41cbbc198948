package loom

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/TheBitDrifter/bark"
	"github.com/loom-ecs/loom/internal/coltable"
)

// EntityID is the stable (index, generation) pair a caller holds onto
// across ticks. It is only ever resolved against the world's entity
// table at the moment of use — never cached as a row.
type EntityID = coltable.EntryID

var _ Entity = &entity{}

// Entity is a transient handle to one entity's row. It satisfies
// coltable.Entry so the same re-resolution machinery that protects
// internal row lookups also protects every public accessor: Index,
// Recycled and Table are recomputed from the world's entity table on
// every call, never cached across a migration.
type Entity interface {
	coltable.Entry

	AddComponent(Component) error
	AddComponentWithValue(Component, any) error
	RemoveComponent(Component) error

	EnqueueAddComponent(Component) error
	EnqueueAddComponentWithValue(Component, any) error
	EnqueueRemoveComponent(Component) error

	Components() []Component
	ComponentsAsString() string

	Valid() bool
	World() *World
	SetWorld(*World)
}

// entity is the concrete Entity.
type entity struct {
	id         coltable.EntryID
	world      *World
	components []Component
}

func (e *entity) ID() coltable.EntryID { return e.id }

func (e *entity) Index() int { return e.entry().Index() }

func (e *entity) Recycled() int { return e.entry().Recycled() }

func (e *entity) Table() coltable.Table { return e.entry().Table() }

func (e *entity) World() *World { return e.world }

func (e *entity) SetWorld(w *World) { e.world = w }

// entry re-resolves this entity's table entry fresh on every call. This
// is the fix for the historical bug where a migration-triggering add or
// remove left later calls operating against a stale pre-migration row:
// every accessor on entity goes through this method instead of caching
// a row index anywhere on the struct.
func (e *entity) entry() coltable.Entry {
	en, err := e.world.entryIndex.Entry(e.id)
	if err != nil {
		panic(bark.AddTrace(err))
	}
	return en
}

// currentComponents derives this entity's live component set straight
// from the table it is presently sitting in, rather than trusting
// e.components — a second live handle to the same id (obtained via
// World.EntryFor) can migrate the row out from under this handle's
// cache, and every shape-changing operation must compute its
// destination archetype from the row's actual current shape.
func (e *entity) currentComponents(tbl coltable.Table) []Component {
	cols := tbl.Columns()
	comps := make([]Component, 0, len(cols))
	for _, et := range cols {
		if c, ok := et.(Component); ok {
			comps = append(comps, c)
		}
	}
	return comps
}

// AddComponent adds c to the entity, migrating it to a new archetype if
// its shape isn't already a match. If the entity already has c, this is
// a no-op.
func (e *entity) AddComponent(c Component) error {
	if e.world.Locked() {
		return LockedWorldError{}
	}
	originTable := e.Table()
	if originTable.Contains(c) {
		return nil
	}
	comps := append(e.currentComponents(originTable), c)
	e.components = comps
	destArchetype, err := e.world.NewOrExistingArchetype(comps...)
	if err != nil {
		return err
	}
	if err := originTable.TransferEntries(destArchetype.Table(), e.Index()); err != nil {
		return err
	}
	return nil
}

// AddComponentWithValue adds c to the entity, then sets its initial
// value. The migration happens first (per AddComponent), so value is
// written directly into the destination archetype's column. If the
// entity already has c, value overwrites the existing one in place.
func (e *entity) AddComponentWithValue(c Component, value any) error {
	if e.world.Locked() {
		return LockedWorldError{}
	}
	originTable := e.Table()
	destTable := originTable
	if !originTable.Contains(c) {
		comps := append(e.currentComponents(originTable), c)
		e.components = comps
		destArchetype, err := e.world.NewOrExistingArchetype(comps...)
		if err != nil {
			return err
		}
		if err := originTable.TransferEntries(destArchetype.Table(), e.Index()); err != nil {
			return err
		}
		destTable = destArchetype.Table()
	}
	valueType := reflect.TypeOf(value)
	for _, row := range destTable.Rows() {
		if row.Type().Elem() == valueType {
			reflect.Value(row).Index(e.Index()).Set(reflect.ValueOf(value))
			return nil
		}
	}
	return fmt.Errorf("loom: invalid value type %v for component %T", valueType, c)
}

// RemoveComponent removes c from the entity, migrating it to the
// archetype for its remaining component set. No-op if c was absent.
func (e *entity) RemoveComponent(c Component) error {
	if e.world.Locked() {
		return LockedWorldError{}
	}
	originTable := e.Table()
	if !originTable.Contains(c) {
		return nil
	}
	current := e.currentComponents(originTable)
	newComps := make([]Component, 0, len(current))
	for _, comp := range current {
		if comp.ID() != c.ID() {
			newComps = append(newComps, comp)
		}
	}
	e.components = newComps
	destArchetype, err := e.world.NewOrExistingArchetype(newComps...)
	if err != nil {
		return fmt.Errorf("loom: failed to get/create archetype: %w", err)
	}
	if err := originTable.TransferEntries(destArchetype.Table(), e.Index()); err != nil {
		return fmt.Errorf("loom: failed to transfer entity: %w", err)
	}
	return nil
}

// EnqueueAddComponent performs the add immediately if the world isn't
// locked, or queues it for replay once the current iteration ends.
func (e *entity) EnqueueAddComponent(c Component) error {
	if !e.world.Locked() {
		return e.AddComponent(c)
	}
	e.world.Enqueue(addComponentOperation{entity: e, recycled: e.Recycled(), component: c, world: e.world})
	return nil
}

// EnqueueAddComponentWithValue is EnqueueAddComponent with an initial value.
func (e *entity) EnqueueAddComponentWithValue(c Component, val any) error {
	if !e.world.Locked() {
		return e.AddComponentWithValue(c, val)
	}
	e.world.Enqueue(addComponentOperation{entity: e, recycled: e.Recycled(), component: c, value: val, world: e.world})
	return nil
}

// EnqueueRemoveComponent performs the removal immediately if the world
// isn't locked, or queues it for replay once the current iteration ends.
func (e *entity) EnqueueRemoveComponent(c Component) error {
	if !e.world.Locked() {
		return e.RemoveComponent(c)
	}
	e.world.Enqueue(removeComponentOperation{entity: e, recycled: e.Recycled(), component: c, world: e.world})
	return nil
}

// Components returns the component list this handle has recorded: the
// shape it was created with, updated by its own AddComponent,
// AddComponentWithValue and RemoveComponent calls. A migration made
// through another handle to the same id is not reflected here.
func (e *entity) Components() []Component { return e.components }

// ComponentsAsString renders the entity's shape as a sorted, bracketed
// list of type names, handy for debug logging.
func (e *entity) ComponentsAsString() string {
	if len(e.components) == 0 {
		return "[]"
	}
	var names []string
	for _, c := range e.components {
		typeName := c.Type().String()
		typeName = strings.TrimPrefix(typeName, "*")
		parts := strings.Split(typeName, ".")
		name := parts[len(parts)-1]
		name = strings.TrimSuffix(name, "]")
		names = append(names, name)
	}
	sort.Strings(names)
	return "[" + strings.Join(names, ", ") + "]"
}

// Valid reports whether this entity has a non-zero id. It does not by
// itself confirm the slot's generation still matches — use
// World.Contains for that.
func (e entity) Valid() bool { return e.id != 0 }

// Get yields a typed, canonically-ordered view of one of this entity's
// components, restricted to the single entity (Entry.get<V>()). It
// fails if the component is absent from the entity's archetype.
func Get[T any](e Entity, acc AccessibleComponent[T]) (*T, error) {
	if !e.Table().Contains(acc) {
		return nil, ComponentNotFoundError{Component: acc}
	}
	return acc.GetFromEntity(e), nil
}
