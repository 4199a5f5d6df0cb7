package schema

import (
	"sync"
	"time"

	"github.com/thingtalk-lang/ttcore/internal/ast"
	"github.com/thingtalk-lang/ttcore/internal/config"
)

const (
	positiveTTL = config.SchemaCachePositiveTTL
	negativeTTL = config.SchemaCacheNegativeTTL
)

// entry is one cached lookup: present classes carry Def; missing ones
// carry only Negative=true and an expiry that negativeTTL governs
// instead of positiveTTL. Injected entries never expire.
type entry struct {
	Def      *ast.ClassDef
	Negative bool
	Injected bool
	Expires  time.Time
}

func (e entry) expired(now time.Time) bool {
	if e.Injected {
		return false
	}
	return now.After(e.Expires)
}

// Cache holds two independently-TTL'd tables keyed by class kind: full
// definitions (queries + actions + bodies) and type-only signatures.
type Cache struct {
	mu         sync.Mutex
	full       map[string]entry
	signatures map[string]entry
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{full: make(map[string]entry), signatures: make(map[string]entry)}
}

// Inject pins kind's full definition in the cache with no expiry, used
// to seed classes the caller already has authoritative copies of (e.g.
// fixtures.Store in tests).
func (c *Cache) Inject(kind string, def *ast.ClassDef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.full[kind] = entry{Def: def, Injected: true}
	c.signatures[kind] = entry{Def: def, Injected: true}
}

// GetFull returns kind's cached full definition, ok=false when absent or
// expired (a cache miss the retriever must then batch-fetch). When the
// entry is a negative hit, retryAt names when the negative TTL expires.
func (c *Cache) GetFull(kind string, now time.Time) (def *ast.ClassDef, ok bool, negative bool, retryAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return lookup(c.full, kind, now)
}

// GetSignature returns kind's cached type-only signature.
func (c *Cache) GetSignature(kind string, now time.Time) (def *ast.ClassDef, ok bool, negative bool, retryAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return lookup(c.signatures, kind, now)
}

// lookup returns (def, found, negative, retryAt). found is false on both
// a true miss and an expired entry. Callers must hold c.mu.
func lookup(table map[string]entry, kind string, now time.Time) (*ast.ClassDef, bool, bool, time.Time) {
	e, ok := table[kind]
	if !ok || e.expired(now) {
		return nil, false, false, time.Time{}
	}
	if e.Negative {
		return nil, true, true, e.Expires
	}
	return e.Def, true, false, time.Time{}
}

// PutFull records kind's full definition with positiveTTL.
func (c *Cache) PutFull(kind string, def *ast.ClassDef, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.full[kind] = entry{Def: def, Expires: now.Add(positiveTTL)}
}

// PutSignature records kind's type-only signature with positiveTTL.
func (c *Cache) PutSignature(kind string, def *ast.ClassDef, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signatures[kind] = entry{Def: def, Expires: now.Add(positiveTTL)}
}

// PutMissing records that kind does not exist in the catalogue, with
// negativeTTL.
func (c *Cache) PutMissing(kind string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	miss := entry{Negative: true, Expires: now.Add(negativeTTL)}
	c.full[kind] = miss
	c.signatures[kind] = miss
}
