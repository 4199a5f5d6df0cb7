// Package schema is the retriever that sits between the typechecker and
// a pluggable device catalogue: it wraps a Client, caches
// positive and negative lookups with class-kind-scoped TTLs, and fetches
// the cache misses of each Resolve call in one round trip. A kind already
// being fetched for a concurrent caller is awaited rather than re-sent;
// separate concurrent calls are not merged into one round trip.
// Concrete transports live in subpackages and depend on this interface,
// never the reverse.
package schema

import "context"

// Client is the pluggable catalogue backend.
type Client interface {
	GetDeviceCode(ctx context.Context, kind string) (string, error)
	GetSchemas(ctx context.Context, kinds []string, includeMetadata bool) (string, error)
	GetMixins(ctx context.Context) (map[string]MixinDef, error)
}

// MixinDef describes one reusable class-mixin the catalogue exposes: the
// argument shape a class's config/loader import must supply.
type MixinDef struct {
	Kind     string
	Args     []string
	Types    []string
	Required []bool
	IsInput  []bool
	Facets   []string
}
