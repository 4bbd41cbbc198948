package loom

import (
	"context"
	"iter"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/loom-ecs/loom/internal/coltable"
)

var _ iCursor = &Cursor{}

// iCursor is the minimal sequential-iteration contract a Cursor satisfies.
type iCursor interface {
	Entities() iter.Seq2[int, coltable.Table]
	Next() bool
}

// Cursor walks the archetypes matching a CompiledQuery, advancing row by
// row within each one. From Initialize until it is exhausted or reset it
// holds the world's reserved iteration lock (borrowLockBit), which makes
// direct entity and component mutations fail or queue meanwhile.
type Cursor struct {
	query            *CompiledQuery
	world            *World
	currentArchetype Archetype
	archetypeIndex   int
	entityIndex      int
	remaining        int

	initialized bool
	matched     []Archetype
}

func newCursor(query *CompiledQuery, world *World) *Cursor {
	return &Cursor{query: query, world: world}
}

// Next advances to the next matching entity, returning false once
// exhausted. Implements the zero-columns edge case automatically: since
// remaining is always the archetype's entity count (not a column
// length), a query with no view components still advances once per
// entity rather than looping forever or never advancing.
func (c *Cursor) Next() bool {
	if c.entityIndex < c.remaining {
		c.entityIndex++
		return true
	}
	return c.advance()
}

func (c *Cursor) advance() bool {
	if !c.initialized {
		c.Initialize()
	}
	for c.archetypeIndex < len(c.matched) {
		c.currentArchetype = c.matched[c.archetypeIndex]
		c.remaining = c.currentArchetype.Table().Length()
		if c.entityIndex < c.remaining {
			c.entityIndex++
			return true
		}
		c.archetypeIndex++
		c.entityIndex = 0
	}
	c.Reset()
	return false
}

// Entities returns a range-over-func sequence of (row, table) pairs over
// every matching entity, archetype by archetype.
func (c *Cursor) Entities() iter.Seq2[int, coltable.Table] {
	return func(yield func(int, coltable.Table) bool) {
		c.Initialize()
		for c.archetypeIndex < len(c.matched) {
			c.currentArchetype = c.matched[c.archetypeIndex]
			tbl := c.currentArchetype.Table()
			c.remaining = tbl.Length()

			for c.entityIndex < c.remaining {
				if !yield(c.entityIndex, tbl) {
					c.Reset()
					return
				}
				c.entityIndex++
			}
			c.entityIndex = 0
			c.archetypeIndex++
		}
		c.Reset()
	}
}

// Initialize selects matching archetypes and takes the world's iteration
// lock. Safe to call more than once; only the first call does work.
func (c *Cursor) Initialize() {
	if c.initialized {
		return
	}
	c.world.AddLock(borrowLockBit)
	c.matched = c.query.matchingArchetypes()
	if len(c.matched) > 0 {
		c.archetypeIndex = 0
		c.currentArchetype = c.matched[0]
		c.remaining = c.currentArchetype.Table().Length()
	}
	c.initialized = true
}

// borrowLockBit is the bit of the world's lock set marking "some query or
// system iteration is in progress". The lock set is separate from every
// archetype's component bitset, so this bit never collides with a
// component's canonical row.
const borrowLockBit = 255

// Reset clears cursor position and releases the world lock.
func (c *Cursor) Reset() {
	c.archetypeIndex = 0
	c.entityIndex = 0
	c.remaining = 0
	c.matched = nil
	c.initialized = false
	c.world.RemoveLock(borrowLockBit)
}

// CurrentEntity resolves the Entity handle at the cursor's current row.
func (c *Cursor) CurrentEntity() (Entity, error) {
	entry, err := c.currentArchetype.Table().Entry(c.entityIndex - 1)
	if err != nil {
		return nil, err
	}
	return c.world.EntryFor(entry.ID())
}

// EntityAtOffset resolves the Entity handle offset rows from the
// current position, within the current archetype.
func (c *Cursor) EntityAtOffset(offset int) (Entity, error) {
	entry, err := c.currentArchetype.Table().Entry(c.entityIndex - 1 + offset)
	if err != nil {
		return nil, err
	}
	return c.world.EntryFor(entry.ID())
}

// EntityIndex returns the 1-based row offset within the current archetype.
func (c *Cursor) EntityIndex() int { return c.entityIndex }

// RemainingInArchetype returns how many rows are left in the current archetype.
func (c *Cursor) RemainingInArchetype() int { return c.remaining - c.entityIndex }

// TotalMatched returns the total entity count across every matching
// archetype, for diagnostics or pre-sizing.
func (c *Cursor) TotalMatched() int {
	if !c.initialized {
		c.Initialize()
	}
	total := 0
	for _, a := range c.matched {
		total += a.Table().Length()
	}
	c.Reset()
	return total
}

// rowRange is a disjoint slice of rows within one archetype, the unit
// the parallel driver dispatches to the pool.
type rowRange struct {
	archetype Archetype
	start, end int // [start, end)
}

// ParallelEach splits every archetype matching q into row ranges and
// runs fn over each range concurrently via an errgroup pool, holding the
// world's iteration lock for the whole dispatch (spec 4.3: "the engine
// exposes a parallel driver that splits each archetype into row ranges
// and dispatches them to a work-stealing pool. Per-archetype borrow is
// held for the pool's duration."). fn must only touch rows in its range;
// row ranges for one archetype never overlap, so concurrent calls never
// alias the same cell.
func (w *World) ParallelEach(q *CompiledQuery, fn func(archetype Archetype, start, end int) error) error {
	w.AddLock(borrowLockBit)
	defer w.RemoveLock(borrowLockBit)

	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}

	var ranges []rowRange
	for _, a := range q.matchingArchetypes() {
		n := a.Table().Length()
		if n == 0 {
			continue
		}
		chunk := (n + workers - 1) / workers
		if chunk < 1 {
			chunk = n
		}
		for start := 0; start < n; start += chunk {
			end := start + chunk
			if end > n {
				end = n
			}
			ranges = append(ranges, rowRange{archetype: a, start: start, end: end})
		}
	}

	g, _ := errgroup.WithContext(context.Background())
	for _, r := range ranges {
		r := r
		g.Go(func() error {
			return fn(r.archetype, r.start, r.end)
		})
	}
	return g.Wait()
}
