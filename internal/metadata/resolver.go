package metadata

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"solana-alerts/internal/domain"
	"solana-alerts/internal/observability"
	"solana-alerts/internal/solana"
	"solana-alerts/internal/storage"
)

// DefaultTimeout bounds each external lookup.
const DefaultTimeout = 10 * time.Second

// Options configures a Resolver.
type Options struct {
	// Sources are tried in order until one succeeds. The first source is used
	// for batched prefetching when it implements BatchSource.
	Sources []Source

	// Store is an optional persistent tier consulted on cache miss before any
	// external lookup. Successful lookups are written back.
	Store storage.TokenMetadataStore

	// Cache is shared process state. A new cache is created when nil.
	Cache *Cache

	Timeout time.Duration
	Logger  *log.Logger
}

// Resolver turns mints into display metadata. It never fails: any lookup
// error degrades to sentinel metadata.
type Resolver struct {
	sources []Source
	store   storage.TokenMetadataStore
	cache   *Cache
	timeout time.Duration
	logger  *log.Logger
	group   singleflight.Group

	mu       sync.Mutex
	inflight map[string]*flight
}

// flight marks an id being loaded by one caller. done closes once the
// outcome is in the cache.
type flight struct {
	done chan struct{}
}

// NewResolver creates a resolver.
func NewResolver(opts Options) *Resolver {
	r := &Resolver{
		sources: opts.Sources,
		store:   opts.Store,
		cache:   opts.Cache,
		timeout: opts.Timeout,
		logger:   opts.Logger,
		inflight: make(map[string]*flight),
	}
	if r.cache == nil {
		r.cache = NewCache()
	}
	if r.timeout <= 0 {
		r.timeout = DefaultTimeout
	}
	if r.logger == nil {
		r.logger = log.Default()
	}
	return r
}

// Cache returns the resolver's cache.
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// Resolve returns metadata for tokenID. At most one external lookup is made
// per unseen id; concurrent misses for the same id share that lookup, whether
// it comes from Resolve or a batched ResolveAll.
func (r *Resolver) Resolve(ctx context.Context, tokenID string) domain.TokenMetadata {
	if m, ok := r.fixed(tokenID); ok {
		return m
	}
	if m, ok := r.cache.Get(tokenID); ok {
		observability.RecordMetadataLookup("hit")
		return m
	}

	v, _, _ := r.group.Do(tokenID, func() (interface{}, error) {
		return r.loadShared(ctx, tokenID), nil
	})
	return v.(domain.TokenMetadata)
}

// loadShared loads tokenID unless another caller already is, in which case
// it waits for that caller's result.
func (r *Resolver) loadShared(ctx context.Context, tokenID string) domain.TokenMetadata {
	for {
		if m, ok := r.cache.Get(tokenID); ok {
			return m
		}
		f, owner := r.claim(tokenID)
		if owner {
			defer r.release(tokenID, f)
			if m, ok := r.cache.Get(tokenID); ok {
				return m
			}
			return r.load(ctx, tokenID, r.sources)
		}
		select {
		case <-f.done:
		case <-ctx.Done():
			observability.RecordMetadataLookup("degraded")
			return Degraded(tokenID)
		}
	}
}

// claim registers the caller as loader of tokenID. When another caller holds
// it, that caller's flight is returned with owner false.
func (r *Resolver) claim(tokenID string) (f *flight, owner bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.inflight[tokenID]; ok {
		return f, false
	}
	f = &flight{done: make(chan struct{})}
	r.inflight[tokenID] = f
	return f, true
}

func (r *Resolver) release(tokenID string, f *flight) {
	r.mu.Lock()
	delete(r.inflight, tokenID)
	r.mu.Unlock()
	close(f.done)
}

// ResolveAll resolves every id, prefetching unseen ids with one batched request
// when the primary source supports it. Ids the batch did not return fall back
// to the remaining sources.
func (r *Resolver) ResolveAll(ctx context.Context, tokenIDs []string) map[string]domain.TokenMetadata {
	out := make(map[string]domain.TokenMetadata, len(tokenIDs))

	var pending []string
	seen := make(map[string]struct{}, len(tokenIDs))
	for _, id := range tokenIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if m, ok := r.fixed(id); ok {
			out[id] = m
			continue
		}
		if m, ok := r.cache.Get(id); ok {
			observability.RecordMetadataLookup("hit")
			out[id] = m
			continue
		}
		if m, ok := r.fromStore(ctx, id); ok {
			out[id] = m
			continue
		}
		pending = append(pending, id)
	}

	if len(pending) == 0 {
		return out
	}

	// Claim pending ids so concurrent callers wait instead of fetching again.
	// Owned ids are released before waiting on anyone else's.
	owned := make(map[string]*flight, len(pending))
	var claimed, waiting []string
	for _, id := range pending {
		f, owner := r.claim(id)
		if !owner {
			waiting = append(waiting, id)
			continue
		}
		if m, ok := r.cache.Get(id); ok {
			r.release(id, f)
			out[id] = m
			continue
		}
		owned[id] = f
		claimed = append(claimed, id)
	}
	releaseOwned := func() {
		for id, f := range owned {
			r.release(id, f)
		}
		owned = nil
	}
	defer func() { releaseOwned() }()

	batch, ok := r.primaryBatch()
	if !ok || len(claimed) < 2 {
		for _, id := range claimed {
			out[id] = r.lookup(ctx, id, r.sources)
		}
	} else {
		fetched := r.fetchBatch(ctx, batch, claimed)
		for _, id := range claimed {
			if m, ok := fetched[id]; ok && m != nil {
				resolved := complete(id, m)
				r.remember(ctx, resolved)
				observability.RecordMetadataLookup("fetched")
				out[id] = resolved
				continue
			}
			out[id] = r.lookup(ctx, id, r.sources[1:])
		}
	}
	releaseOwned()

	for _, id := range waiting {
		out[id] = r.Resolve(ctx, id)
	}
	return out
}

// fixed handles ids that never need a lookup.
func (r *Resolver) fixed(tokenID string) (domain.TokenMetadata, bool) {
	switch tokenID {
	case solana.WrappedSOLMint:
		observability.RecordMetadataLookup("fixed")
		return WrappedSOL(), true
	case "", domain.UnknownToken:
		observability.RecordMetadataLookup("sentinel")
		return Degraded(tokenID), true
	}
	return domain.TokenMetadata{}, false
}

// load serves a cache miss from the store, then the given sources.
func (r *Resolver) load(ctx context.Context, tokenID string, sources []Source) domain.TokenMetadata {
	if m, ok := r.fromStore(ctx, tokenID); ok {
		return m
	}
	return r.lookup(ctx, tokenID, sources)
}

// lookup queries sources in order and caches the outcome. A failure caused by
// the caller's own cancellation is not cached.
func (r *Resolver) lookup(ctx context.Context, tokenID string, sources []Source) domain.TokenMetadata {
	for _, src := range sources {
		m, err := r.fetchOne(ctx, src, tokenID)
		if err == nil && m != nil {
			resolved := complete(tokenID, m)
			r.remember(ctx, resolved)
			observability.RecordMetadataLookup("fetched")
			return resolved
		}
		if err == nil {
			err = ErrNotFound
		}
		r.logger.Printf("metadata lookup %s via %s failed: %v", tokenID, src.Name(), err)
	}

	observability.RecordMetadataLookup("degraded")
	degraded := Degraded(tokenID)
	if ctx.Err() == nil {
		r.cache.Put(degraded)
	}
	return degraded
}

func (r *Resolver) fetchOne(ctx context.Context, src Source, tokenID string) (*domain.TokenMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return src.Fetch(ctx, tokenID)
}

func (r *Resolver) fetchBatch(ctx context.Context, src BatchSource, ids []string) map[string]*domain.TokenMetadata {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	fetched, err := src.FetchBatch(ctx, ids)
	if err != nil {
		r.logger.Printf("metadata batch lookup of %d mints via %s failed: %v", len(ids), src.Name(), err)
		return nil
	}
	return fetched
}

func (r *Resolver) primaryBatch() (BatchSource, bool) {
	if len(r.sources) == 0 {
		return nil, false
	}
	b, ok := r.sources[0].(BatchSource)
	return b, ok
}

// fromStore consults the persistent tier and promotes hits into the cache.
func (r *Resolver) fromStore(ctx context.Context, tokenID string) (domain.TokenMetadata, bool) {
	if r.store == nil {
		return domain.TokenMetadata{}, false
	}

	m, err := r.store.GetByMint(ctx, tokenID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			r.logger.Printf("metadata store read %s: %v", tokenID, err)
		}
		return domain.TokenMetadata{}, false
	}

	observability.RecordMetadataLookup("store")
	resolved := complete(tokenID, m)
	r.cache.Put(resolved)
	return resolved, true
}

// remember caches a successful resolution and persists it when a store is set.
func (r *Resolver) remember(ctx context.Context, m domain.TokenMetadata) {
	if m.FetchedAt.IsZero() {
		m.FetchedAt = time.Now()
	}
	r.cache.Put(m)

	if r.store == nil {
		return
	}
	if err := r.store.Upsert(ctx, &m); err != nil {
		r.logger.Printf("metadata store write %s: %v", m.TokenID, err)
	}
}
