package loom

import (
	"fmt"

	"github.com/loom-ecs/loom/internal/bitset"
	"github.com/loom-ecs/loom/internal/coltable"
)

// World is the top-level store: archetypes keyed by their identifier
// bitset, an entity table with its own free-list, and a resource
// container. Nothing about the engine is process-global — every World
// owns its own schema and entity table, so multiple worlds never share
// entity identity.
type World struct {
	locks          bitset.Set
	schema         coltable.Schema
	entryIndex     *coltable.EntryIndex
	archetypes     *archetypeRegistry
	operationQueue operationQueue
	resources      *Resources

	nonSyncComponents map[Component]bool
	nonSyncResources  map[resourceKey]bool
}

// archetypeRegistry tracks every archetype a World has created, keyed by
// its identifier bitset so a shape is never duplicated.
type archetypeRegistry struct {
	nextID  archetypeID
	asSlice []archetype
	byMask  map[bitset.Set]archetypeID
}

// NewWorld builds an empty world with no preloaded resources.
func NewWorld() *World {
	return NewWorldWithResources(NewResources())
}

// NewWorldWithResources builds an empty world seeded with the given
// resource set.
func NewWorldWithResources(resources *Resources) *World {
	return &World{
		schema:     coltable.Factory.NewSchema(),
		entryIndex: coltable.Factory.NewEntryIndex(),
		archetypes: &archetypeRegistry{
			nextID: 1,
			byMask: make(map[bitset.Set]archetypeID, defaultArchetypeMapSize),
		},
		operationQueue:    newOperationQueue(),
		resources:         resources,
		nonSyncComponents: make(map[Component]bool),
		nonSyncResources:  make(map[resourceKey]bool),
	}
}

// MarkNonSync flags components as unsafe to share across threads: the
// scheduler refuses to place them in a ParSystem or alongside any other
// system in a stage.
func (w *World) MarkNonSync(components ...Component) {
	for _, c := range components {
		w.nonSyncComponents[c] = true
	}
}

// MarkResourceNonSync flags resource type T as unsafe to share across
// threads, with the same scheduling restriction as MarkNonSync.
func MarkResourceNonSync[T any](w *World) {
	w.nonSyncResources[resourceKeyFor[T]()] = true
}

// Resources returns the world's resource container.
func (w *World) Resources() *Resources { return w.resources }

// RowIndexFor returns the canonical bit index a component occupies in
// this world's schema, registering it first if this is its first sighting.
func (w *World) RowIndexFor(c Component) uint32 {
	w.schema.Register(c)
	return w.schema.RowIndexFor(c)
}

// Register adds components to the world's schema without creating an
// archetype, useful for pre-warming canonical order before the first
// insert of a shape.
func (w *World) Register(comps ...Component) {
	ets := make([]coltable.ElementType, len(comps))
	for i, c := range comps {
		ets[i] = c
	}
	w.schema.Register(ets...)
}

// maskFor registers and computes the identifier bitset for a component list.
func (w *World) maskFor(components ...Component) bitset.Set {
	var m bitset.Set
	for _, c := range components {
		m.Mark(w.RowIndexFor(c))
	}
	return m
}

// NewOrExistingArchetype returns the archetype exactly matching components,
// creating it lazily on first sighting of that shape.
func (w *World) NewOrExistingArchetype(components ...Component) (Archetype, error) {
	m := w.maskFor(components...)
	if id, ok := w.archetypes.byMask[m]; ok {
		for i := range w.archetypes.asSlice {
			if w.archetypes.asSlice[i].id == id {
				return &w.archetypes.asSlice[i], nil
			}
		}
	}
	created, err := newArchetype(w.schema, w.entryIndex, w.archetypes.nextID, components...)
	if err != nil {
		return nil, err
	}
	w.archetypes.asSlice = append(w.archetypes.asSlice, created)
	w.archetypes.byMask[m] = created.id
	w.archetypes.nextID++
	return &created, nil
}

// NewEntities inserts n new entities sharing the given component set,
// returning an Entity handle for each (spec: world.insert / world.extend).
func (w *World) NewEntities(n int, components ...Component) ([]Entity, error) {
	if w.Locked() {
		return nil, LockedWorldError{}
	}
	arche, err := w.NewOrExistingArchetype(components...)
	if err != nil {
		return nil, err
	}
	entries, err := arche.Table().NewEntries(n)
	if err != nil {
		return nil, err
	}
	entities := make([]Entity, n)
	for i, en := range entries {
		entities[i] = &entity{id: en.ID(), world: w, components: components}
	}
	return entities, nil
}

// EnqueueNewEntities performs NewEntities immediately if the world is
// unlocked, or defers it to replay once the current iteration ends.
func (w *World) EnqueueNewEntities(count int, components ...Component) error {
	if !w.Locked() {
		_, err := w.NewEntities(count, components...)
		return err
	}
	w.operationQueue.Enqueue(newEntityOperation{count: count, components: components})
	return nil
}

// DestroyEntities removes entities from the world, grouping the work by
// table so each archetype is swept once.
func (w *World) DestroyEntities(entities ...Entity) error {
	if w.Locked() {
		return LockedWorldError{}
	}
	byTable := make(map[coltable.Table][]int)
	for _, en := range entities {
		if en == nil {
			continue
		}
		byTable[en.Table()] = append(byTable[en.Table()], int(en.ID()))
	}
	for tbl, ids := range byTable {
		if _, err := tbl.DeleteEntries(ids...); err != nil {
			return fmt.Errorf("loom: failed to delete entries: %w", err)
		}
	}
	return nil
}

// EnqueueDestroyEntities performs DestroyEntities immediately if the
// world is unlocked, or defers it to replay once the current iteration ends.
func (w *World) EnqueueDestroyEntities(entities ...Entity) error {
	if !w.Locked() {
		return w.DestroyEntities(entities...)
	}
	for _, en := range entities {
		w.operationQueue.Enqueue(destroyEntityOperation{entity: en, recycled: en.Recycled()})
	}
	return nil
}

// Contains reports whether id still names a live entity (spec: world.contains).
func (w *World) Contains(id EntityID) bool {
	return w.entryIndex.Valid(id)
}

// Remove destroys the single entity named by id (spec: world.remove).
func (w *World) Remove(id EntityID) error {
	en, err := w.EntryFor(id)
	if err != nil {
		return err
	}
	return w.DestroyEntities(en)
}

// EntryFor resolves id to a live Entity handle, or EntityNotFoundError if
// the slot has been recycled since id was issued (spec: world.entry).
func (w *World) EntryFor(id EntityID) (Entity, error) {
	en, err := w.entryIndex.Entry(id)
	if err != nil {
		return nil, EntityNotFoundError{ID: id}
	}
	comps := make([]Component, 0, len(en.Table().Columns()))
	for _, et := range en.Table().Columns() {
		if c, ok := et.(Component); ok {
			comps = append(comps, c)
		}
	}
	return &entity{id: id, world: w, components: comps}, nil
}

// Clear drops every entity from every archetype, retaining the
// underlying column allocations for reuse (spec: world.clear).
func (w *World) Clear() {
	for i := range w.archetypes.asSlice {
		tbl := w.archetypes.asSlice[i].Table()
		n := tbl.Length()
		if n == 0 {
			continue
		}
		ids := make([]int, n)
		for r := 0; r < n; r++ {
			ids[r] = int(tbl.EntityAt(r))
		}
		tbl.DeleteEntries(ids...)
	}
}

// Len reports the total number of live entities across all archetypes
// (spec: world.len).
func (w *World) Len() int {
	total := 0
	for i := range w.archetypes.asSlice {
		total += w.archetypes.asSlice[i].Table().Length()
	}
	return total
}

// IsEmpty reports whether the world has zero live entities (spec: world.is_empty).
func (w *World) IsEmpty() bool { return w.Len() == 0 }

// Reserve pre-creates the archetype for shape and is a no-op placeholder
// for column pre-allocation (spec: world.reserve); the column growth
// policy here is amortised doubling on demand, so reservation only
// guarantees the archetype itself exists ahead of the first insert.
func (w *World) Reserve(shape []Component, additional int) error {
	_, err := w.NewOrExistingArchetype(shape...)
	return err
}

// ShrinkToFit removes archetypes that are currently empty, so that a
// world which briefly held many transient shapes doesn't keep an
// archetype table alive forever (spec: world.shrink_to_fit).
func (w *World) ShrinkToFit() {
	kept := w.archetypes.asSlice[:0]
	byMask := make(map[bitset.Set]archetypeID, len(w.archetypes.byMask))
	for _, a := range w.archetypes.asSlice {
		if a.Table().Length() == 0 {
			continue
		}
		kept = append(kept, a)
		byMask[a.Table().Mask()] = a.id
	}
	w.archetypes.asSlice = kept
	w.archetypes.byMask = byMask
}

// Locked reports whether the world currently has any outstanding borrow
// lock held by an in-progress query, system, or schedule stage.
func (w *World) Locked() bool { return !w.locks.IsEmpty() }

// AddLock marks bit as held in the world's lock set, which is separate
// from every archetype's component bitset. The engine itself only uses
// the reserved iteration lock bit; see borrowLockBit in cursor.go.
func (w *World) AddLock(bit uint32) { w.locks.Mark(bit) }

// RemoveLock releases bit and, if no locks remain, drains the operation
// queue accumulated while the world was locked.
func (w *World) RemoveLock(bit uint32) {
	w.locks.Unmark(bit)
	if w.locks.IsEmpty() {
		if err := w.operationQueue.ProcessAll(w); err != nil {
			panic(fmt.Errorf("loom: error processing queued operations: %w", err))
		}
	}
}

// Enqueue appends an operation to the world's deferred queue.
func (w *World) Enqueue(op operation) { w.operationQueue.Enqueue(op) }

// Archetypes returns every archetype the world has created, including
// ones currently empty (see ShrinkToFit to reclaim those).
func (w *World) Archetypes() []Archetype {
	out := make([]Archetype, len(w.archetypes.asSlice))
	for i := range w.archetypes.asSlice {
		out[i] = &w.archetypes.asSlice[i]
	}
	return out
}
