package loom

import "github.com/loom-ecs/loom/internal/bitset"

// ViewAccess names whether a view element borrows its component
// immutably or mutably — the four spec view elements (&C, &mut C,
// Option<&C>, Option<&mut C>) collapse to this access kind crossed with
// required/optional.
type ViewAccess int

const (
	ViewRead ViewAccess = iota
	ViewWrite
)

type viewEntry struct {
	component Component
	access    ViewAccess
}

// ResourceAccess names whether a ResourceView reads or writes its resource.
type ResourceAccess int

const (
	ResourceRead ResourceAccess = iota
	ResourceWrite
)

// ResourceViewSpec is one entry of a Query's ResourceViews: a borrow
// request against a single resource type, independent of any component
// bitset.
type ResourceViewSpec struct {
	key    resourceKey
	access ResourceAccess
}

// ReadResource declares an immutable borrow of resource type T.
func ReadResource[T any]() ResourceViewSpec {
	return ResourceViewSpec{key: resourceKeyFor[T](), access: ResourceRead}
}

// WriteResource declares a mutable borrow of resource type T.
func WriteResource[T any]() ResourceViewSpec {
	return ResourceViewSpec{key: resourceKeyFor[T](), access: ResourceWrite}
}

// Query is the (Views, Filter, EntryViews, ResourceViews) bundle: the
// Require*/Optional* methods declare the view's required and optional
// component bitsets along with each element's access mode, Where narrows
// by an arbitrary Filter, EntryAccess names components only reachable
// through the Entry API during iteration, and Resources names resource
// borrows. Compile resolves a Query against a World into a CompiledQuery
// holding its masks and predicate. World.Query, ParQuery, RunSystem and
// RunParSystem compile the Query afresh on every call; the result is not
// cached between calls.
type Query struct {
	required      []viewEntry
	optional      []viewEntry
	filter        Filter
	entryViews    []Component
	resourceViews []ResourceViewSpec
}

// NewQuery starts an empty query bundle; chain Require*/Optional*/Where/
// EntryAccess/Resources to build it up.
func NewQuery() *Query {
	return &Query{filter: NoFilter()}
}

// RequireRead adds components to the required view as immutable borrows
// (spec view element &C).
func (q *Query) RequireRead(components ...Component) *Query {
	for _, c := range components {
		q.required = append(q.required, viewEntry{component: c, access: ViewRead})
	}
	return q
}

// RequireWrite adds components to the required view as mutable borrows
// (spec view element &mut C).
func (q *Query) RequireWrite(components ...Component) *Query {
	for _, c := range components {
		q.required = append(q.required, viewEntry{component: c, access: ViewWrite})
	}
	return q
}

// OptionalRead adds components to the optional view as immutable borrows
// (spec view element Option<&C>).
func (q *Query) OptionalRead(components ...Component) *Query {
	for _, c := range components {
		q.optional = append(q.optional, viewEntry{component: c, access: ViewRead})
	}
	return q
}

// OptionalWrite adds components to the optional view as mutable borrows
// (spec view element Option<&mut C>).
func (q *Query) OptionalWrite(components ...Component) *Query {
	for _, c := range components {
		q.optional = append(q.optional, viewEntry{component: c, access: ViewWrite})
	}
	return q
}

// Where narrows archetype selection by an arbitrary Filter, independent
// of (and in addition to) the required view.
func (q *Query) Where(f Filter) *Query {
	q.filter = f
	return q
}

// EntryAccess names components this query only ever touches through the
// single-entity Entry API, never directly borrowed by the iterator.
func (q *Query) EntryAccess(components ...Component) *Query {
	q.entryViews = append(q.entryViews, components...)
	return q
}

// Resources adds resource borrow requests to the query.
func (q *Query) Resources(specs ...ResourceViewSpec) *Query {
	q.resourceViews = append(q.resourceViews, specs...)
	return q
}

// componentAccess pairs every required/optional component with the
// strongest access mode it was requested under, for borrow-conflict
// bookkeeping in schedule.go.
func (q *Query) componentAccess() map[Component]ViewAccess {
	out := make(map[Component]ViewAccess, len(q.required)+len(q.optional))
	merge := func(entries []viewEntry) {
		for _, e := range entries {
			if out[e.component] == ViewWrite {
				continue
			}
			out[e.component] = e.access
		}
	}
	merge(q.required)
	merge(q.optional)
	return out
}

// CompiledQuery is a Query resolved against one World's schema: every
// component name has become a canonical bit, and the Filter AST has
// become a pure bitset predicate. One compilation serves every archetype
// and row of the call that made it; the result is what Cursor and
// ParallelEach evaluate.
type CompiledQuery struct {
	world         *World
	requiredMask  bitset.Set
	optionalMask  bitset.Set
	borrowMask    bitset.Set // requiredMask | optionalMask; a Cursor locks only borrowLockBit, not these bits
	predicate     predicate
	entryViews    []Component
	resourceViews []ResourceViewSpec
}

// Compile resolves q against w, registering every referenced component
// with w's schema if this is its first sighting.
func (q *Query) Compile(w *World) *CompiledQuery {
	for _, e := range q.required {
		w.Register(e.component)
	}
	for _, e := range q.optional {
		w.Register(e.component)
	}
	w.Register(q.entryViews...)
	w.Register(componentsOf(q.filter)...)

	cq := &CompiledQuery{world: w, entryViews: q.entryViews, resourceViews: q.resourceViews}
	for _, e := range q.required {
		cq.requiredMask.Mark(w.RowIndexFor(e.component))
	}
	for _, e := range q.optional {
		cq.optionalMask.Mark(w.RowIndexFor(e.component))
	}
	cq.borrowMask = cq.requiredMask.Union(cq.optionalMask)
	cq.predicate = compileFilter(q.filter, w.schema)
	return cq
}

// matches reports whether archetype a satisfies both the required view
// and the compiled filter.
func (cq *CompiledQuery) matches(a Archetype) bool {
	m := a.Table().Mask()
	return m.ContainsAll(cq.requiredMask) && cq.predicate.Evaluate(m)
}

// matchingArchetypes returns, in creation order, every archetype in the
// world currently satisfying cq. This is the archetype-selection pass:
// purely bitmask arithmetic, O(archetypes).
func (cq *CompiledQuery) matchingArchetypes() []Archetype {
	all := cq.world.Archetypes()
	out := make([]Archetype, 0, len(all))
	for _, a := range all {
		if cq.matches(a) {
			out = append(out, a)
		}
	}
	return out
}

// QueryResult bundles a Cursor for sequential iteration with an entries
// accessor scoped to the query's EntryViews component set (spec:
// world.query → result bundle with iter + entries).
type QueryResult struct {
	Cursor  *Cursor
	compile *CompiledQuery
}

// Entries returns an Entry handle for the entity the cursor currently
// sits on. Callers should only use it to reach the query's declared
// EntryViews components, though the Entry API itself has no enforced
// scoping.
func (r *QueryResult) Entries() (Entity, error) {
	return r.Cursor.CurrentEntity()
}

// Query runs a one-shot sequential query against the world (spec:
// world.query(Query)).
func (w *World) Query(q *Query) *QueryResult {
	cq := q.Compile(w)
	return &QueryResult{Cursor: newCursor(cq, w), compile: cq}
}

// ParQuery compiles q the same way Query does and returns the same
// sequential Cursor (spec: world.par_query(Query)). Parallel row-range
// dispatch is done by ParallelEach and RunParSystem, not by this Cursor.
func (w *World) ParQuery(q *Query) *QueryResult {
	cq := q.Compile(w)
	return &QueryResult{Cursor: newCursor(cq, w), compile: cq}
}
