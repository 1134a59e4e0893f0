package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackrocklabs/playasearch/pkg/entityindex"
	"github.com/blackrocklabs/playasearch/pkg/graph"
	"github.com/blackrocklabs/playasearch/pkg/itemstore"
	"github.com/blackrocklabs/playasearch/pkg/types"
)

// stubEmbedder returns canned vectors per input text. Unknown texts get a
// nil vector, which exercises the keyword fallback path.
type stubEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vectors[text], nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *stubEmbedder) Dimensions() int { return 3 }
func (s *stubEmbedder) Close() error    { return nil }

// failingGraph errors on every read, standing in for an unreachable
// graph database.
type failingGraph struct{}

func (failingGraph) AddItemEntities(context.Context, string, []types.Entity) error { return nil }
func (failingGraph) Neighbors(context.Context, string, int) ([]graph.Neighbor, error) {
	return nil, types.ErrGraphUnavailable
}
func (failingGraph) EntityNeighborhood(context.Context, string) ([]graph.EntityConnection, error) {
	return nil, types.ErrGraphUnavailable
}
func (failingGraph) ItemsForEntity(context.Context, types.Entity, int) ([]string, error) {
	return nil, types.ErrGraphUnavailable
}
func (failingGraph) BridgeEntities(context.Context, types.EntityType, types.EntityType, int) ([]graph.BridgeEntity, error) {
	return nil, types.ErrGraphUnavailable
}
func (failingGraph) Reset(context.Context) error { return nil }
func (failingGraph) Close(context.Context) error { return nil }

type fixture struct {
	embedder *stubEmbedder
	items    *itemstore.MemoryStore
	index    *entityindex.MemoryIndex
	graph    *graph.MemoryStore
	vector   *VectorSearcher
	unified  *UnifiedSearcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{
		embedder: &stubEmbedder{vectors: map[string][]float32{
			"fire dancing": {1, 0, 0},
			"temple":       {0.9, 0.1, 0},
		}},
		items: itemstore.NewMemoryStore(),
		index: entityindex.NewMemoryIndex(),
		graph: graph.NewMemoryStore(),
	}

	items := []*types.Item{
		{
			ID: "camp-oknotok", Kind: types.KindCamp, Name: "OKNOTOK",
			Year: 2024, Location: "7:30 & C", Embedding: []float32{0, 1, 0},
		},
		{
			ID: "art-temple", Kind: types.KindArt, Name: "Temple of Memory",
			Description: "a burn of fire and memory", Year: 2024,
			Embedding: []float32{0.95, 0.05, 0},
		},
		{
			ID: "event-fire-conclave", Kind: types.KindEvent, Name: "Fire Conclave",
			Description: "performers circle the burn", Year: 2024,
			Embedding: []float32{0, 0, 1},
		},
		{
			ID: "guide-moop", Kind: types.KindPracticalGuide, Name: "Matter Out of Place",
			Description: "pack it in pack it out", Year: 2024,
		},
	}
	for _, item := range items {
		require.NoError(t, f.items.Upsert(ctx, item))
	}

	tagged := map[string][]types.Entity{
		"camp-oknotok":        {{Type: types.EntityLocation, Value: "7:30 & c"}},
		"art-temple":          {{Type: types.EntityTheme, Value: "fire"}, {Type: types.EntityTheme, Value: "memory"}},
		"event-fire-conclave": {{Type: types.EntityTheme, Value: "fire"}},
		"guide-moop":          {{Type: types.EntityTheme, Value: "lnt"}},
	}
	for id, entities := range tagged {
		require.NoError(t, f.index.Add(ctx, id, entities))
		require.NoError(t, f.graph.AddItemEntities(ctx, id, entities))
	}

	f.vector = NewVectorSearcher(f.embedder, f.items, nil)
	f.unified = NewUnifiedSearcher(f.vector, f.items, f.index, f.graph, nil)
	return f
}

func resultIDs(results []*types.SearchResult) []string {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.Item.ID)
	}
	return ids
}

func TestVectorSearchRanksBySimilarity(t *testing.T) {
	f := newFixture(t)

	results, err := f.vector.Search(context.Background(), "fire dancing", 10, Options{})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, "art-temple", results[0].Item.ID)
	require.NotNil(t, results[0].Similarity)
	assert.Greater(t, *results[0].Similarity, 0.9)
}

func TestVectorSearchExcludesBeyondThreshold(t *testing.T) {
	f := newFixture(t)

	// event-fire-conclave is orthogonal to the query vector, distance 1.
	results, err := f.vector.Search(context.Background(), "fire dancing", 10, Options{})
	require.NoError(t, err)
	assert.NotContains(t, resultIDs(results), "event-fire-conclave")
}

func TestVectorSearchKindFilter(t *testing.T) {
	f := newFixture(t)

	results, err := f.vector.Search(context.Background(), "fire dancing", 10, Options{Kind: types.KindCamp})
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, types.KindCamp, r.Item.Kind)
	}
}

func TestVectorSearchKeywordFallback(t *testing.T) {
	f := newFixture(t)

	// No canned vector for this query, so the searcher must fall back to
	// substring matching and find the camp by name.
	results, err := f.vector.Search(context.Background(), "OKNOTOK", 10, Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "camp-oknotok", results[0].Item.ID)
	assert.Nil(t, results[0].Similarity)
}

func TestVectorSearchEmptyQuery(t *testing.T) {
	f := newFixture(t)

	_, err := f.vector.Search(context.Background(), "   ", 10, Options{})
	assert.ErrorIs(t, err, types.ErrEmptyQuery)
}

func TestVectorSearchDimensionMismatchIsFatal(t *testing.T) {
	f := newFixture(t)
	f.embedder.vectors["fire dancing"] = []float32{1, 0, 0, 0}

	_, err := f.vector.Search(context.Background(), "fire dancing", 10, Options{})
	require.Error(t, err)
	assert.True(t, types.IsDimensionMismatch(err))
}

func TestUnifiedSearchGraphExpansion(t *testing.T) {
	f := newFixture(t)

	// The conclave is semantically far from the query but shares theme:fire
	// with the temple, so graph expansion must surface it.
	resp, err := f.unified.Search(context.Background(), "fire dancing", 5, UnifiedOptions{})
	require.NoError(t, err)

	ids := resultIDs(resp.Results)
	assert.Contains(t, ids, "art-temple")
	assert.Contains(t, ids, "event-fire-conclave")
	assert.Equal(t, 1, resp.GraphExpansionCount)

	var expanded *types.SearchResult
	for _, r := range resp.Results {
		if r.Item.ID == "event-fire-conclave" {
			expanded = r
		}
	}
	require.NotNil(t, expanded)
	assert.Equal(t, types.SourceGraphExpansion, expanded.Source)
	assert.Equal(t, types.ExpansionScore, expanded.GraphScore)
	assert.Equal(t, types.ExpansionScore, expanded.CombinedScore)
	assert.Contains(t, expanded.ExpansionReason, "theme:fire")
	assert.Nil(t, expanded.Similarity)

	assert.Equal(t, []types.Entity{{Type: types.EntityTheme, Value: "fire"}}, resp.QueryEntities)
}

func TestUnifiedSearchExpansionNeverDuplicatesSeeds(t *testing.T) {
	f := newFixture(t)

	resp, err := f.unified.Search(context.Background(), "fire dancing", 5, UnifiedOptions{})
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, r := range resp.Results {
		assert.False(t, seen[r.Item.ID], "duplicate item %s", r.Item.ID)
		seen[r.Item.ID] = true
	}
}

func TestUnifiedSearchSkipExpansion(t *testing.T) {
	f := newFixture(t)

	resp, err := f.unified.Search(context.Background(), "fire dancing", 5, UnifiedOptions{SkipExpansion: true})
	require.NoError(t, err)
	assert.Zero(t, resp.GraphExpansionCount)
	assert.NotContains(t, resultIDs(resp.Results), "event-fire-conclave")
}

func TestUnifiedSearchDeterminism(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.unified.Search(ctx, "fire dancing", 5, UnifiedOptions{})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := f.unified.Search(ctx, "fire dancing", 5, UnifiedOptions{})
		require.NoError(t, err)
		assert.Equal(t, resultIDs(first.Results), resultIDs(again.Results))
	}
}

func TestUnifiedSearchScoreBounds(t *testing.T) {
	f := newFixture(t)

	resp, err := f.unified.Search(context.Background(), "fire dancing", 5, UnifiedOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)

	for _, r := range resp.Results {
		sim := r.SimilarityOrZero()
		assert.GreaterOrEqual(t, sim, 0.0)
		assert.LessOrEqual(t, sim, 1.0)
		assert.GreaterOrEqual(t, r.GraphScore, 0.0)
		assert.LessOrEqual(t, r.GraphScore, 1.0)
		if r.Source == types.SourceSeed {
			assert.Equal(t, types.CombineScores(sim, r.GraphScore), r.CombinedScore)
		}
	}
}

func TestUnifiedSearchGraphDegradation(t *testing.T) {
	f := newFixture(t)
	degraded := NewUnifiedSearcher(f.vector, f.items, f.index, failingGraph{}, nil)

	resp, err := degraded.Search(context.Background(), "fire dancing", 5, UnifiedOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.NotEmpty(t, resp.Diagnostics)
	assert.Zero(t, resp.GraphExpansionCount)
	for _, r := range resp.Results {
		assert.Zero(t, r.GraphScore)
		assert.Equal(t, types.CombineScores(r.SimilarityOrZero(), 0), r.CombinedScore)
	}
}

func TestUnifiedSearchNilGraphStore(t *testing.T) {
	f := newFixture(t)
	noGraph := NewUnifiedSearcher(f.vector, f.items, f.index, nil, nil)

	resp, err := noGraph.Search(context.Background(), "fire dancing", 5, UnifiedOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Results)
	assert.NotEmpty(t, resp.Diagnostics)
}

func TestUnifiedSearchEntityOnlyResults(t *testing.T) {
	f := newFixture(t)

	// No embedding and no keyword hit, but theme:lnt matches the query
	// text, so the guide surfaces purely through the graph.
	resp, err := f.unified.Search(context.Background(), "lnt principles", 5, UnifiedOptions{})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "guide-moop", resp.Results[0].Item.ID)
	assert.Equal(t, types.SourceGraphExpansion, resp.Results[0].Source)
}

func TestUnifiedSearchDepthTwoExpandsThroughSharedEntities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A second guide shares activity:recycling with the MOOP guide but
	// carries no lnt tag itself, so only a deeper walk reaches it.
	require.NoError(t, f.items.Upsert(ctx, &types.Item{
		ID: "guide-leave-no-trace", Kind: types.KindPracticalGuide,
		Name: "Leave No Trace", Year: 2024,
	}))
	shared := []types.Entity{{Type: types.EntityActivity, Value: "recycling"}}
	for _, id := range []string{"guide-moop", "guide-leave-no-trace"} {
		require.NoError(t, f.index.Add(ctx, id, shared))
		require.NoError(t, f.graph.AddItemEntities(ctx, id, shared))
	}

	shallow, err := f.unified.Search(ctx, "lnt principles", 5, UnifiedOptions{GraphDepth: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"guide-moop"}, resultIDs(shallow.Results))

	deep, err := f.unified.Search(ctx, "lnt principles", 5, UnifiedOptions{GraphDepth: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"guide-leave-no-trace", "guide-moop"}, resultIDs(deep.Results))
	for _, r := range deep.Results {
		assert.Equal(t, types.SourceGraphExpansion, r.Source)
		assert.Contains(t, r.ExpansionReason, "theme:lnt")
	}
}

func TestUnifiedSearchEmptyResultIsNotError(t *testing.T) {
	f := newFixture(t)

	resp, err := f.unified.Search(context.Background(), "zzz nothing matches", 5, UnifiedOptions{})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.GreaterOrEqual(t, resp.ExecutionTime, time.Duration(0))
}

func TestUnifiedSearchInvalidDepth(t *testing.T) {
	f := newFixture(t)

	_, err := f.unified.Search(context.Background(), "fire dancing", 5, UnifiedOptions{GraphDepth: graph.MaxTraversalDepth + 1})
	assert.Error(t, err)
}

func TestUnifiedSearchGraphScoreRewardsEntityMatch(t *testing.T) {
	f := newFixture(t)

	resp, err := f.unified.Search(context.Background(), "fire dancing", 5, UnifiedOptions{SkipExpansion: true})
	require.NoError(t, err)

	var temple *types.SearchResult
	for _, r := range resp.Results {
		if r.Item.ID == "art-temple" {
			temple = r
		}
	}
	require.NotNil(t, temple)
	assert.Greater(t, temple.GraphScore, 0.0)
}

func TestUnifiedSearchSeedErrorPropagates(t *testing.T) {
	f := newFixture(t)
	f.embedder.err = errors.New("boom")

	// Embedding errors degrade to keyword inside the vector searcher, so
	// the unified search still succeeds.
	resp, err := f.unified.Search(context.Background(), "OKNOTOK", 5, UnifiedOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"camp-oknotok"}, resultIDs(resp.Results))
}
