// Package config holds package-level tunables shared across the pipeline:
// normalization flags for golden-file tests and the schema retriever's
// cache TTLs.
package config

import "time"

// Version is the current ttcore version.
var Version = "0.1.0"

// IsTestMode normalizes auto-generated type-variable names (t1, t2, ...)
// to "t?" when rendering types, so golden-file tests stay deterministic.
var IsTestMode = false

// Schema cache TTLs: 24h positive, 10min negative. internal/schema applies
// them as fixed constants; tests move Retriever.Now rather than override
// them.
const (
	SchemaCachePositiveTTL = 24 * time.Hour
	SchemaCacheNegativeTTL = 10 * time.Minute
)

// Reserved type-scope key used to unify a Measure's unit across multiple
// TypeVar('') occurrences in one overload signature.
const UnitScopeKey = "_unit"

// DefaultSolverTimeout is a default bound for a single CheckSat
// round-trip. No package in this module applies it: SubprocessClient's
// CheckSat is bounded only by the context its caller passes.
const DefaultSolverTimeout = 30 * time.Second
