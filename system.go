package loom

// System is a (Views, Filter, EntryViews, ResourceViews) query bundle
// plus a sequential run function receiving the resulting Cursor.
type System struct {
	name  string
	query *Query
	run   func(*Cursor) error
}

// NewSystem names and builds a sequential System.
func NewSystem(name string, query *Query, run func(*Cursor) error) *System {
	return &System{name: name, query: query, run: run}
}

// Name returns the system's declared name, used in borrow-conflict
// diagnostics and schedule ordering.
func (s *System) Name() string { return s.name }

// ParSystem is a System whose run function receives row ranges instead
// of a Cursor, so it can be invoked concurrently across an archetype's
// rows by the parallel driver.
type ParSystem struct {
	name  string
	query *Query
	run   func(archetype Archetype, start, end int) error
}

// NewParSystem names and builds a parallel System.
func NewParSystem(name string, query *Query, run func(archetype Archetype, start, end int) error) *ParSystem {
	return &ParSystem{name: name, query: query, run: run}
}

// Name returns the system's declared name.
func (s *ParSystem) Name() string { return s.name }

// RunSystem compiles sys's query against w and runs it sequentially
// (spec: world.run_system(sys)).
func (w *World) RunSystem(sys *System) error {
	cq := sys.query.Compile(w)
	cursor := newCursor(cq, w)
	cursor.Initialize()
	defer cursor.Reset()
	return sys.run(cursor)
}

// RunParSystem compiles sys's query against w and runs it through the
// parallel row-range driver (spec: world.run_par_system(sys)).
func (w *World) RunParSystem(sys *ParSystem) error {
	cq := sys.query.Compile(w)
	return w.ParallelEach(cq, sys.run)
}
