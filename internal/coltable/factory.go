package coltable

// factory is the single construction entrypoint for schemas and entry
// indices, kept as a package-level value the way the rest of the stack
// exposes its builders.
type factory struct{}

// Factory is the package's factory instance.
var Factory factory

// NewSchema builds an empty canonicalizer.
func (factory) NewSchema() Schema {
	return NewSchema()
}

// NewEntryIndex builds an empty entity table.
func (factory) NewEntryIndex() *EntryIndex {
	return NewEntryIndex()
}
