package loom

import (
	"github.com/loom-ecs/loom/internal/bitset"
	"github.com/loom-ecs/loom/internal/coltable"
)

type filterOp int

const (
	opNone filterOp = iota
	opHas
	opNot
	opAnd
	opOr
)

// Filter is a boolean predicate over an archetype's component presence:
// Has(C), Not(F), And(F...), Or(F...), or the always-true None. It names
// components the way the rest of the package does, but never borrows
// them — a Filter only ever inspects bitsets, never column data.
type Filter struct {
	op         filterOp
	components []Component
	children   []Filter
}

// Has matches archetypes containing every one of the given components.
func Has(components ...Component) Filter {
	return Filter{op: opHas, components: components}
}

// Not inverts f.
func Not(f Filter) Filter {
	return Filter{op: opNot, children: []Filter{f}}
}

// And matches when every child filter matches.
func And(filters ...Filter) Filter {
	return Filter{op: opAnd, children: filters}
}

// Or matches when any child filter matches.
func Or(filters ...Filter) Filter {
	return Filter{op: opOr, children: filters}
}

// NoFilter always matches; it is the default for a Query that only wants
// to constrain by required view components.
func NoFilter() Filter {
	return Filter{op: opNone}
}

// predicate is a Filter compiled down to pure bitset arithmetic: no
// schema lookups remain, so it can be evaluated once per archetype per
// tick at the cost of a handful of word-sized operations.
type predicate interface {
	Evaluate(mask bitset.Set) bool
}

type hasPredicate struct{ want bitset.Set }

func (p hasPredicate) Evaluate(mask bitset.Set) bool { return mask.ContainsAll(p.want) }

type notPredicate struct{ inner predicate }

func (p notPredicate) Evaluate(mask bitset.Set) bool { return !p.inner.Evaluate(mask) }

type andPredicate struct{ parts []predicate }

func (p andPredicate) Evaluate(mask bitset.Set) bool {
	for _, part := range p.parts {
		if !part.Evaluate(mask) {
			return false
		}
	}
	return true
}

type orPredicate struct{ parts []predicate }

func (p orPredicate) Evaluate(mask bitset.Set) bool {
	for _, part := range p.parts {
		if part.Evaluate(mask) {
			return true
		}
	}
	return false
}

type nonePredicate struct{}

func (nonePredicate) Evaluate(bitset.Set) bool { return true }

// compileFilter turns the Filter AST into a predicate tree, resolving
// every Has() leaf's components into a bitset through schema once. The
// resulting predicate carries no reference back to components or schema.
func compileFilter(f Filter, schema coltable.Schema) predicate {
	switch f.op {
	case opHas:
		var want bitset.Set
		for _, c := range f.components {
			want.Mark(schema.RowIndexFor(c))
		}
		return hasPredicate{want: want}
	case opNot:
		return notPredicate{inner: compileFilter(f.children[0], schema)}
	case opAnd:
		parts := make([]predicate, len(f.children))
		for i, c := range f.children {
			parts[i] = compileFilter(c, schema)
		}
		return andPredicate{parts: parts}
	case opOr:
		parts := make([]predicate, len(f.children))
		for i, c := range f.children {
			parts[i] = compileFilter(c, schema)
		}
		return orPredicate{parts: parts}
	default:
		return nonePredicate{}
	}
}

// componentsOf walks the Filter tree collecting every component it
// references, used to pre-register them with the schema before
// compiling (registration must happen before RowIndexFor is callable).
func componentsOf(f Filter) []Component {
	out := append([]Component{}, f.components...)
	for _, c := range f.children {
		out = append(out, componentsOf(c)...)
	}
	return out
}
