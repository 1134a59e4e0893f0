package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/blackrocklabs/playasearch/pkg/config"
	"github.com/blackrocklabs/playasearch/pkg/search"
	"github.com/blackrocklabs/playasearch/pkg/types"
)

// Searcher is the subset of the unified searcher the cache decorates.
type Searcher interface {
	Search(ctx context.Context, query string, k int, opts search.UnifiedOptions) (*types.SearchResponse, error)
}

// CachingSearcher wraps a Searcher with a TTL-bound Badger cache keyed on the
// full query shape. Cache failures never fail a search; they degrade to a
// pass-through call with a warning.
type CachingSearcher struct {
	next   Searcher
	db     *badger.DB
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachingSearcher opens the Badger store at cfg.Path and returns a caching
// decorator around next. An empty path opens an in-memory store.
func NewCachingSearcher(next Searcher, cfg config.CacheConfig, logger *slog.Logger) (*CachingSearcher, error) {
	if next == nil {
		return nil, fmt.Errorf("cache: next searcher is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(cfg.Path).WithLoggingLevel(badger.ERROR)
	if cfg.Path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("cache: opening badger store: %w", err)
	}

	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &CachingSearcher{
		next:   next,
		db:     db,
		ttl:    ttl,
		logger: logger,
	}, nil
}

// Search returns a cached response when one exists for the same query shape,
// otherwise delegates to the wrapped searcher and stores the result.
func (c *CachingSearcher) Search(ctx context.Context, query string, k int, opts search.UnifiedOptions) (*types.SearchResponse, error) {
	key := cacheKey(query, k, opts)

	if resp, ok := c.lookup(key); ok {
		return resp, nil
	}

	resp, err := c.next.Search(ctx, query, k, opts)
	if err != nil {
		return nil, err
	}

	c.store(key, resp)
	return resp, nil
}

func (c *CachingSearcher) lookup(key []byte) (*types.SearchResponse, bool) {
	var payload []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			payload = append([]byte(nil), val...)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("cache lookup failed, falling through", "error", err)
		return nil, false
	}

	var resp types.SearchResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		c.logger.Warn("cache entry corrupt, falling through", "error", err)
		return nil, false
	}
	return &resp, true
}

func (c *CachingSearcher) store(key []byte, resp *types.SearchResponse) {
	payload, err := json.Marshal(resp)
	if err != nil {
		c.logger.Warn("cache encode failed", "error", err)
		return
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(key, payload).WithTTL(c.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		c.logger.Warn("cache store failed", "error", err)
	}
}

// Close closes the underlying Badger store.
func (c *CachingSearcher) Close() error {
	return c.db.Close()
}

func cacheKey(query string, k int, opts search.UnifiedOptions) []byte {
	raw := fmt.Sprintf("%s|%d|%s|%d|%d|%t|%g",
		query, k, opts.Kind, opts.Year, opts.GraphDepth, opts.SkipExpansion, opts.DistanceThreshold)
	sum := sha256.Sum256([]byte(raw))
	return []byte("q:" + hex.EncodeToString(sum[:]))
}

var _ Searcher = (*CachingSearcher)(nil)
