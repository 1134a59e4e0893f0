package itemstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackrocklabs/playasearch/pkg/types"
)

func seedStore(t *testing.T) *MemoryStore {
	t.Helper()
	ctx := context.Background()
	store := NewMemoryStore()

	items := []*types.Item{
		{ID: "camp-oknotok", Kind: types.KindCamp, Name: "OKNOTOK", Year: 2024,
			Location: "7:30 & C", Embedding: []float32{1, 0, 0}},
		{ID: "camp-ashram", Kind: types.KindCamp, Name: "Ashram Galactica", Year: 2024,
			Embedding: []float32{0.9, 0.1, 0}},
		{ID: "art-temple", Kind: types.KindArt, Name: "Temple of the Deep", Year: 2024,
			Description: "a burn of fire and memory", Embedding: []float32{0, 1, 0}},
		{ID: "event-yoga", Kind: types.KindEvent, Name: "Sunrise Yoga", Year: 2023,
			Embedding: []float32{0, 0, 1}},
		{ID: "guide-moop", Kind: types.KindPracticalGuide, Name: "MOOP Guide"},
	}
	for _, item := range items {
		require.NoError(t, store.Upsert(ctx, item))
	}
	return store
}

func TestMemoryStoreGet(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	item, err := store.Get(ctx, "camp-oknotok")
	require.NoError(t, err)
	assert.Equal(t, "OKNOTOK", item.Name)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestMemoryStoreFilter(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	camps, err := store.Filter(ctx, FilterOptions{Kind: types.KindCamp})
	require.NoError(t, err)
	assert.Len(t, camps, 2)
	for _, item := range camps {
		assert.Equal(t, types.KindCamp, item.Kind)
	}

	y2023, err := store.Filter(ctx, FilterOptions{Year: 2023})
	require.NoError(t, err)
	require.Len(t, y2023, 1)
	assert.Equal(t, "event-yoga", y2023[0].ID)

	none, err := store.Filter(ctx, FilterOptions{Kind: types.KindCamp, Year: 1999})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestVectorSearchFiltersBeforeRanking(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	// Unfiltered: art-temple is the nearest neighbor of [0,1,0].
	all, err := store.VectorSearch(ctx, []float32{0, 1, 0}, 10, FilterOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, all)
	assert.Equal(t, "art-temple", all[0].Item.ID)

	// Filtered to camps the ranking must still return camps even though
	// no camp is in the unfiltered top-1.
	camps, err := store.VectorSearch(ctx, []float32{0, 1, 0}, 10, FilterOptions{Kind: types.KindCamp})
	require.NoError(t, err)
	require.NotEmpty(t, camps)
	for _, s := range camps {
		assert.Equal(t, types.KindCamp, s.Item.Kind)
	}
}

func TestVectorSearchOrderingAndLimit(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	results, err := store.VectorSearch(ctx, []float32{1, 0, 0}, 2, FilterOptions{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "camp-oknotok", results[0].Item.ID)
	assert.LessOrEqual(t, results[0].Distance, results[1].Distance)
}

func TestVectorSearchSkipsUnembedded(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	results, err := store.VectorSearch(ctx, []float32{1, 0, 0}, 10, FilterOptions{})
	require.NoError(t, err)
	for _, s := range results {
		assert.NotEqual(t, "guide-moop", s.Item.ID)
	}
}

func TestDimensionMismatchOnWrite(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	err := store.Upsert(ctx, &types.Item{
		ID: "bad", Kind: types.KindCamp, Name: "Bad", Embedding: []float32{1, 2},
	})
	require.Error(t, err)
	assert.True(t, types.IsDimensionMismatch(err))

	var dm *types.DimensionMismatchError
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 3, dm.Want)
	assert.Equal(t, 2, dm.Got)
	assert.Equal(t, []string{"bad"}, dm.ItemIDs)
}

func TestDimensionMismatchOnQuery(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	_, err := store.VectorSearch(ctx, []float32{1, 0}, 5, FilterOptions{})
	require.Error(t, err)
	assert.True(t, types.IsDimensionMismatch(err))
}

func TestKeywordSearch(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	results, err := store.KeywordSearch(ctx, "oknotok", 10, FilterOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "camp-oknotok", results[0].ID)

	// Matches description text too.
	results, err = store.KeywordSearch(ctx, "FIRE", 10, FilterOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "art-temple", results[0].ID)

	// Filter applies to the keyword path as well.
	results, err = store.KeywordSearch(ctx, "fire", 10, FilterOptions{Kind: types.KindCamp})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestUpsertNormalizesEmbedding(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Upsert(ctx, &types.Item{
		ID: "a", Kind: types.KindArt, Name: "A", Embedding: []float32{3, 4, 0},
	}))

	item, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.InDelta(t, 0.6, float64(item.Embedding[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(item.Embedding[1]), 1e-6)
}

func TestEmbeddingStringRoundTrip(t *testing.T) {
	vec := []float32{0.25, -1, 0.5}
	s := embeddingToString(vec)
	assert.Equal(t, "[0.25,-1,0.5]", s)
	assert.Equal(t, vec, parseEmbedding(s))
	assert.Nil(t, parseEmbedding("[]"))
}

func TestPostgresQueryTimeoutBoundsContext(t *testing.T) {
	store := &PostgresStore{timeout: 50 * time.Millisecond}

	ctx, cancel := store.queryContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 25*time.Millisecond)
}

func TestDefaultPostgresConfigQueryTimeout(t *testing.T) {
	assert.Equal(t, DefaultQueryTimeout, DefaultPostgresConfig().QueryTimeout)
}
