package loom

import "golang.org/x/sync/errgroup"

// scheduled is the interface System and ParSystem both satisfy, letting
// the scheduler pack either kind into a stage uniformly.
type scheduled interface {
	Name() string
	borrows(w *World) sysBorrows
	execute(w *World) error
	isParallel() bool
}

// sysBorrows is one system's declared borrow set, computed fresh each
// time a Schedule is built or re-evaluated for promotion.
type sysBorrows struct {
	name       string
	components map[Component]ViewAccess
	entryViews []Component
	resources  map[resourceKey]ResourceAccess
	soleStage  bool // touches a Non-Sync component or resource
}

func (s *System) borrows(w *World) sysBorrows    { return computeBorrows(s.name, s.query, w) }
func (s *System) execute(w *World) error         { return w.RunSystem(s) }
func (s *System) isParallel() bool               { return false }
func (s *ParSystem) borrows(w *World) sysBorrows { return computeBorrows(s.name, s.query, w) }
func (s *ParSystem) execute(w *World) error      { return w.RunParSystem(s) }
func (s *ParSystem) isParallel() bool            { return true }

func computeBorrows(name string, q *Query, w *World) sysBorrows {
	comps := q.componentAccess()
	resources := make(map[resourceKey]ResourceAccess, len(q.resourceViews))
	sole := false
	for c := range comps {
		if w.nonSyncComponents[c] {
			sole = true
		}
	}
	for _, rv := range q.resourceViews {
		if cur, ok := resources[rv.key]; !ok || (cur == ResourceRead && rv.access == ResourceWrite) {
			resources[rv.key] = rv.access
		}
		if w.nonSyncResources[rv.key] {
			sole = true
		}
	}
	return sysBorrows{name: name, components: comps, entryViews: q.entryViews, resources: resources, soleStage: sole}
}

// conflicts reports whether a and b hold incompatible borrows: two
// mutable borrows of the same component, a mutable and any other borrow
// of the same component, the same for resources, or an EntryViews
// component in one conflicting with a mutable borrow of that component
// in the other (spec 4.6).
func conflicts(a, b sysBorrows) (bool, string) {
	for c, accA := range a.components {
		if accB, ok := b.components[c]; ok {
			if accA == ViewWrite || accB == ViewWrite {
				return true, "conflicting component borrow"
			}
		}
	}
	for _, c := range a.entryViews {
		if accB, ok := b.components[c]; ok && accB == ViewWrite {
			return true, "entry view conflicts with mutable component borrow"
		}
	}
	for _, c := range b.entryViews {
		if accA, ok := a.components[c]; ok && accA == ViewWrite {
			return true, "entry view conflicts with mutable component borrow"
		}
	}
	for r, accA := range a.resources {
		if accB, ok := b.resources[r]; ok {
			if accA == ResourceWrite || accB == ResourceWrite {
				return true, "conflicting resource borrow"
			}
		}
	}
	return false, ""
}

// Schedule is an ordered list of stages, each a maximal set of
// borrow-compatible systems.
type Schedule struct {
	stages [][]scheduled
}

// NewSchedule packs systems into stages by the greedy algorithm: each
// system is assigned to the earliest existing stage whose systems are
// all borrow-compatible with it, or else starts a new stage. A system
// touching a Non-Sync component or resource is never packed alongside
// another system, and a ParSystem touching one is rejected outright.
func NewSchedule(w *World, systems ...scheduled) (*Schedule, error) {
	var stages [][]scheduled
	for _, sys := range systems {
		b := sys.borrows(w)
		if sys.isParallel() && b.soleStage {
			return nil, BorrowConflictError{SystemA: sys.Name(), SystemB: sys.Name(), Reason: "Non-Sync component or resource in a ParSystem"}
		}
		placed := false
		for i := range stages {
			if b.soleStage {
				break // sole-stage systems never join an existing stage
			}
			ok := true
			for _, other := range stages[i] {
				if otherB := other.borrows(w); otherB.soleStage {
					ok = false
					break
				}
				if conflict, _ := conflicts(b, other.borrows(w)); conflict {
					ok = false
					break
				}
			}
			if ok {
				stages[i] = append(stages[i], sys)
				placed = true
				break
			}
		}
		if !placed {
			stages = append(stages, []scheduled{sys})
		}
	}
	return &Schedule{stages: stages}, nil
}

// RunSchedule drives sched stage by stage, running every system in a
// stage concurrently (their borrows are, by construction, compatible)
// and moving to the next stage only once the current one completes
// (spec: world.run_schedule(sched)).
//
// Before running stage k, the scheduler performs dynamic promotion: any
// system from a later stage that is borrow-compatible with everything
// currently assigned to stage k is pulled forward into it, unless either
// side touches a Non-Sync component or resource. Because
// stages k-1 and earlier have already finished by this point, any
// borrow chain a promoted system depended on is already satisfied —
// promotion only needs to check compatibility with stage k's own set.
func (w *World) RunSchedule(sched *Schedule) error {
	stages := make([][]scheduled, len(sched.stages))
	for i := range sched.stages {
		stages[i] = append([]scheduled{}, sched.stages[i]...)
	}

	for k := 0; k < len(stages); k++ {
		for j := k + 1; j < len(stages); j++ {
			remaining := stages[j][:0]
			for _, sys := range stages[j] {
				b := sys.borrows(w)
				promote := !b.soleStage
				if promote {
					for _, placed := range stages[k] {
						placedB := placed.borrows(w)
						if placedB.soleStage {
							promote = false
							break
						}
						if conflict, _ := conflicts(b, placedB); conflict {
							promote = false
							break
						}
					}
				}
				if promote {
					stages[k] = append(stages[k], sys)
				} else {
					remaining = append(remaining, sys)
				}
			}
			stages[j] = remaining
		}

		g := new(errgroup.Group)
		for _, sys := range stages[k] {
			sys := sys
			g.Go(func() error { return sys.execute(w) })
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}
