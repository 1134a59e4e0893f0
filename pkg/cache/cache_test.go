package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackrocklabs/playasearch/pkg/config"
	"github.com/blackrocklabs/playasearch/pkg/search"
	"github.com/blackrocklabs/playasearch/pkg/types"
)

type countingSearcher struct {
	calls int
	resp  *types.SearchResponse
	err   error
}

func (c *countingSearcher) Search(ctx context.Context, query string, k int, opts search.UnifiedOptions) (*types.SearchResponse, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.resp, nil
}

func newTestCache(t *testing.T, next Searcher) *CachingSearcher {
	t.Helper()
	c, err := NewCachingSearcher(next, config.CacheConfig{Enabled: true, TTLSeconds: 60}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCacheServesRepeatQuery(t *testing.T) {
	sim := 0.91
	next := &countingSearcher{resp: &types.SearchResponse{
		Results: []*types.SearchResult{
			{Item: &types.Item{ID: "art-temple", Kind: types.KindArt}, Similarity: &sim, CombinedScore: 0.637, Source: types.SourceSeed},
		},
	}}
	c := newTestCache(t, next)
	ctx := context.Background()

	first, err := c.Search(ctx, "temple", 5, search.UnifiedOptions{})
	require.NoError(t, err)
	second, err := c.Search(ctx, "temple", 5, search.UnifiedOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	require.Len(t, second.Results, 1)
	assert.Equal(t, first.Results[0].Item.ID, second.Results[0].Item.ID)
	assert.Equal(t, first.Results[0].CombinedScore, second.Results[0].CombinedScore)
	require.NotNil(t, second.Results[0].Similarity)
	assert.InDelta(t, sim, *second.Results[0].Similarity, 1e-9)
}

func TestCacheKeyIncludesOptions(t *testing.T) {
	next := &countingSearcher{resp: &types.SearchResponse{}}
	c := newTestCache(t, next)
	ctx := context.Background()

	_, err := c.Search(ctx, "temple", 5, search.UnifiedOptions{})
	require.NoError(t, err)
	_, err = c.Search(ctx, "temple", 5, search.UnifiedOptions{Kind: types.KindArt})
	require.NoError(t, err)
	_, err = c.Search(ctx, "temple", 5, search.UnifiedOptions{Year: 2024})
	require.NoError(t, err)
	_, err = c.Search(ctx, "temple", 10, search.UnifiedOptions{})
	require.NoError(t, err)
	_, err = c.Search(ctx, "temple", 5, search.UnifiedOptions{SkipExpansion: true})
	require.NoError(t, err)

	assert.Equal(t, 5, next.calls)
}

func TestCacheDoesNotStoreErrors(t *testing.T) {
	next := &countingSearcher{err: assert.AnError}
	c := newTestCache(t, next)
	ctx := context.Background()

	_, err := c.Search(ctx, "temple", 5, search.UnifiedOptions{})
	require.Error(t, err)
	_, err = c.Search(ctx, "temple", 5, search.UnifiedOptions{})
	require.Error(t, err)

	assert.Equal(t, 2, next.calls)
}

func TestCacheRequiresNext(t *testing.T) {
	_, err := NewCachingSearcher(nil, config.CacheConfig{}, nil)
	require.Error(t, err)
}
