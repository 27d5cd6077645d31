// Package indexcache persists built indices by content key and collapses
// concurrent builds of the same key into one.
//
// Entries are bound to the embedding model that produced them and, when
// configured with WithChunking, to the chunking settings. An entry
// recorded under other settings, or one that fails to decode, is treated
// as absent and overwritten by the next build.
package indexcache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
	"github.com/custodia-labs/pdfqa/internal/index"
	"github.com/custodia-labs/pdfqa/internal/logger"
)

// maxAttempts bounds how often a waiter re-joins after the build it was
// sharing was cancelled by its leader.
const maxAttempts = 3

// BuildFunc produces an index on a cache miss.
type BuildFunc func(ctx context.Context) (*index.Index, error)

// Outcome describes how GetOrBuild satisfied a request.
type Outcome struct {
	// Hit is true when the index came from memory or the blob store.
	Hit bool
	// Shared is true when the result was produced for another caller too.
	Shared bool
	// StoreErr is set when a fresh build could not be persisted.
	// The returned index is still usable.
	StoreErr error
}

// Cache fronts a driven.BlobStore with an in-process memo and single-flight.
type Cache struct {
	store    driven.BlobStore
	model    string
	chunking domain.ChunkingSettings
	group    singleflight.Group

	mu     sync.RWMutex
	loaded map[domain.CacheKey]*index.Index
}

// Option configures a Cache.
type Option func(*Cache)

// WithChunking binds entries to the chunking settings. Without it the
// settings recorded in an entry are not checked.
func WithChunking(s domain.ChunkingSettings) Option {
	return func(c *Cache) {
		c.chunking = s
	}
}

// New creates a cache over store for indices built with the named model.
func New(store driven.BlobStore, model string, opts ...Option) *Cache {
	c := &Cache{
		store:  store,
		model:  model,
		loaded: make(map[domain.CacheKey]*index.Index),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the embedding model entries are bound to.
func (c *Cache) Model() string {
	return c.model
}

// Lookup returns the index stored under key.
// It returns ErrCorruptIndex, ErrModelMismatch or ErrChunkingMismatch
// for unusable entries.
func (c *Cache) Lookup(ctx context.Context, key domain.CacheKey) (*index.Index, bool, error) {
	if idx := c.memo(key); idx != nil {
		return idx, true, nil
	}

	data, ok, err := c.store.Get(ctx, key.String())
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	idx, err := index.Unmarshal(data)
	if err != nil {
		return nil, false, fmt.Errorf("cache entry %s: %w", key, err)
	}
	if idx.Model() != c.model {
		return nil, false, fmt.Errorf("%w: entry %s built with %q, want %q",
			domain.ErrModelMismatch, key, idx.Model(), c.model)
	}
	if c.chunking != (domain.ChunkingSettings{}) && idx.Chunking() != c.chunking {
		got := idx.Chunking()
		return nil, false, fmt.Errorf("%w: entry %s chunked at %d/%d, want %d/%d",
			domain.ErrChunkingMismatch, key, got.Size, got.Overlap, c.chunking.Size, c.chunking.Overlap)
	}

	c.remember(key, idx)
	return idx, true, nil
}

// Store persists idx under key. The index is remembered in memory even
// when persisting fails, so the current process can keep using it.
func (c *Cache) Store(ctx context.Context, key domain.CacheKey, idx *index.Index) error {
	if idx == nil {
		return fmt.Errorf("%w: nil index", domain.ErrInvalidInput)
	}
	c.remember(key, idx)

	data, err := idx.MarshalBinary()
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", domain.ErrCacheStore, key, err)
	}
	if err := c.store.Put(ctx, key.String(), data); err != nil {
		return fmt.Errorf("%w: put %s: %w", domain.ErrCacheStore, key, err)
	}
	return nil
}

// GetOrBuild returns the index for key, building it on a miss.
//
// At most one build runs per key. Concurrent callers wait for it and
// receive the same index. The build runs under the context of the caller
// that started it; if that caller is cancelled, waiters whose own
// context is still live start a fresh build. A failed or cancelled build
// stores nothing.
func (c *Cache) GetOrBuild(ctx context.Context, key domain.CacheKey, build BuildFunc) (*index.Index, Outcome, error) {
	if key.IsZero() {
		return nil, Outcome{}, fmt.Errorf("%w: empty cache key", domain.ErrInvalidInput)
	}
	if idx := c.memo(key); idx != nil {
		return idx, Outcome{Hit: true}, nil
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		ch := c.group.DoChan(key.String(), func() (any, error) {
			return c.resolve(ctx, key, build)
		})

		select {
		case <-ctx.Done():
			return nil, Outcome{}, ctx.Err()
		case res := <-ch:
			if res.Err != nil {
				if isContextErr(res.Err) && ctx.Err() == nil {
					logger.Debug("shared build of %s was cancelled, retrying", key)
					lastErr = res.Err
					continue
				}
				return nil, Outcome{}, res.Err
			}
			r, _ := res.Val.(resolved)
			r.outcome.Shared = res.Shared
			return r.idx, r.outcome, nil
		}
	}
	return nil, Outcome{}, lastErr
}

type resolved struct {
	idx     *index.Index
	outcome Outcome
}

// resolve runs inside the single-flight group.
func (c *Cache) resolve(ctx context.Context, key domain.CacheKey, build BuildFunc) (resolved, error) {
	idx, ok, err := c.Lookup(ctx, key)
	switch {
	case err != nil && isContextErr(err):
		return resolved{}, err
	case err != nil:
		logger.Warn("ignoring cached index: %v", err)
	case ok:
		logger.Debug("index cache hit for %s", key)
		return resolved{idx: idx, outcome: Outcome{Hit: true}}, nil
	}

	logger.Debug("index cache miss for %s, building", key)
	idx, err = build(ctx)
	if err != nil {
		return resolved{}, err
	}
	if err := ctx.Err(); err != nil {
		return resolved{}, err
	}
	if idx == nil {
		return resolved{}, fmt.Errorf("%w: builder returned no index", domain.ErrIndexBuild)
	}

	out := resolved{idx: idx}
	if err := c.Store(ctx, key, idx); err != nil {
		logger.Warn("%v", err)
		out.outcome.StoreErr = err
	}
	return out, nil
}

func (c *Cache) memo(key domain.CacheKey) *index.Index {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded[key]
}

func (c *Cache) remember(key domain.CacheKey, idx *index.Index) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded[key] = idx
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
