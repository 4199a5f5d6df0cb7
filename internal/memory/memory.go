// Package memory declares the "memory client" interface: callers such
// as a dialog agent consult it to resolve the column
// types of a previously-recorded table before filtering it, the same way
// internal/schema.Client resolves a device class's function signatures.
// No implementation lives here; callers supply their own (a SQL-backed
// store, an in-memory fixture, ...).
package memory

import "context"

// ArgDoc names one column's type, reusing the same ground-type-name
// strings internal/schema/fixtures parses device argument types from, so
// a single decoder can serve both.
type ArgDoc struct {
	Name string
	Type string
}

// TableSchema is the column list of one remembered table.
type TableSchema struct {
	Table string
	Args  []ArgDoc
}

// Client resolves a memorized table's schema. GetSchema returns (nil,
// nil) when table is not found, mirroring schema.Client's pattern of
// distinguishing "not found" from a transport error.
type Client interface {
	GetSchema(ctx context.Context, table string) (*TableSchema, error)
}
