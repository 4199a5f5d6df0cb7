package schema

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/thingtalk-lang/ttcore/internal/ast"
	"github.com/thingtalk-lang/ttcore/internal/diagnostics"
	"github.com/thingtalk-lang/ttcore/internal/token"
	"golang.org/x/sync/errgroup"
)

// Decode turns the wire-format string GetSchemas/GetDeviceCode returns
// into class definitions. Retriever leaves parsing to the caller (the
// pkg/thingtalk facade passes on the ClassDecode its own caller supplies)
// so this package never needs to import a parser.
type Decode func(src string) ([]*ast.ClassDef, error)

// Validate runs the library-mode typecheck pass against newly fetched
// classes before Retriever caches them.
type Validate func(defs []*ast.ClassDef) error

// Retriever fetches the cache misses of one Resolve call in one GetSchemas
// call and caches both outcomes. A kind already in flight for a concurrent
// caller is awaited rather than re-sent; separate concurrent Resolve calls
// are not merged into one GetSchemas call.
type Retriever struct {
	Client   Client
	Cache    *Cache
	Decode   Decode
	Validate Validate
	Now      func() time.Time // overridable for tests; defaults to time.Now

	mu       sync.Mutex
	inflight map[string]*sharedFetch
}

type sharedFetch struct {
	done chan struct{}
	def  *ast.ClassDef
	err  error
}

// NewRetriever returns a Retriever backed by client and cache.
func NewRetriever(client Client, cache *Cache, decode Decode, validate Validate) *Retriever {
	return &Retriever{
		Client:   client,
		Cache:    cache,
		Decode:   decode,
		Validate: validate,
		Now:      time.Now,
		inflight: make(map[string]*sharedFetch),
	}
}

// Resolve returns the full ClassDef for every requested kind, fetching
// whichever are cache misses in a single batched GetSchemas call. Kinds
// that are concurrently being fetched by another caller are not re-sent
// over the wire; this caller simply waits on that fetch's result.
func (r *Retriever) Resolve(ctx context.Context, kinds []string) (map[string]*ast.ClassDef, error) {
	now := r.Now()
	out := make(map[string]*ast.ClassDef, len(kinds))
	var toFetch []string
	waits := make(map[string]*sharedFetch)

	for _, kind := range dedupSorted(kinds) {
		if def, ok, negative, retryAt := r.Cache.GetFull(kind, now); ok {
			if negative {
				return nil, diagnostics.NewPhaseError(diagnostics.PhaseSchema, diagnostics.ErrC001, token.Token{}, kind, diagnostics.RetryDescription(retryAt))
			}
			out[kind] = def
			continue
		}
		r.mu.Lock()
		if sf, busy := r.inflight[kind]; busy {
			waits[kind] = sf
			r.mu.Unlock()
			continue
		}
		sf := &sharedFetch{done: make(chan struct{})}
		r.inflight[kind] = sf
		r.mu.Unlock()
		waits[kind] = sf
		toFetch = append(toFetch, kind)
	}

	if len(toFetch) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return r.fetchBatch(gctx, toFetch, now)
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	for kind, sf := range waits {
		select {
		case <-sf.done:
			if sf.err != nil {
				return nil, sf.err
			}
			out[kind] = sf.def
		case <-ctx.Done():
			return nil, diagnostics.NewPhaseError(diagnostics.PhaseSchema, diagnostics.ErrC002, token.Token{}, kinds)
		}
	}
	return out, nil
}

// fetchBatch issues one GetSchemas call for kinds, decodes and validates
// the result, populates the cache, and wakes every waiter (its own and
// any concurrent caller's) via each kind's sharedFetch channel.
func (r *Retriever) fetchBatch(ctx context.Context, kinds []string, now time.Time) error {
	defer func() {
		r.mu.Lock()
		for _, k := range kinds {
			delete(r.inflight, k)
		}
		r.mu.Unlock()
	}()

	src, err := r.Client.GetSchemas(ctx, kinds, true)
	if err != nil {
		r.fail(kinds, diagnostics.WrapError(diagnostics.PhaseSchema, token.Token{}, err))
		return err
	}
	defs, err := r.Decode(src)
	if err != nil {
		r.fail(kinds, err)
		return err
	}
	if r.Validate != nil {
		if err := r.Validate(defs); err != nil {
			r.fail(kinds, err)
			return err
		}
	}

	byKind := make(map[string]*ast.ClassDef, len(defs))
	for _, d := range defs {
		byKind[d.Name] = d
	}
	for _, kind := range kinds {
		r.mu.Lock()
		sf := r.inflight[kind]
		r.mu.Unlock()
		if sf == nil {
			continue
		}
		if def, ok := byKind[kind]; ok {
			r.Cache.PutFull(kind, def, now)
			r.Cache.PutSignature(kind, def, now)
			sf.def = def
		} else {
			r.Cache.PutMissing(kind, now)
			sf.err = diagnostics.NewPhaseError(diagnostics.PhaseSchema, diagnostics.ErrC001, token.Token{}, kind, diagnostics.RetryDescription(now.Add(negativeTTL)))
		}
		close(sf.done)
	}
	return nil
}

func (r *Retriever) fail(kinds []string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range kinds {
		if sf := r.inflight[k]; sf != nil {
			sf.err = err
			close(sf.done)
		}
	}
}

func dedupSorted(kinds []string) []string {
	seen := make(map[string]bool, len(kinds))
	out := make([]string, 0, len(kinds))
	for _, k := range kinds {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
