package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackrocklabs/playasearch/pkg/entityindex"
	"github.com/blackrocklabs/playasearch/pkg/graph"
	"github.com/blackrocklabs/playasearch/pkg/nlp"
	"github.com/blackrocklabs/playasearch/pkg/types"
)

// scriptedClient returns canned completions keyed by item name, which
// appears in every user prompt.
type scriptedClient struct {
	replies map[string]string
	failFor map[string]error
}

func (s *scriptedClient) Chat(ctx context.Context, messages []nlp.Message) (*nlp.Response, error) {
	return s.ChatJSON(ctx, messages)
}

func (s *scriptedClient) ChatJSON(_ context.Context, messages []nlp.Message) (*nlp.Response, error) {
	prompt := messages[len(messages)-1].Content
	for name, err := range s.failFor {
		if strings.Contains(prompt, name) {
			return nil, err
		}
	}
	for name, reply := range s.replies {
		if strings.Contains(prompt, name) {
			return &nlp.Response{Content: reply, Model: "test"}, nil
		}
	}
	return &nlp.Response{Content: `{"entities": []}`, Model: "test"}, nil
}

func (s *scriptedClient) Close() error { return nil }

func TestPipelineBasicEntities(t *testing.T) {
	ctx := context.Background()
	index := entityindex.NewMemoryIndex()
	graphStore := graph.NewMemoryStore()

	client := &scriptedClient{replies: map[string]string{
		"OKNOTOK": `{"entities": [
			{"type": "location", "value": "7:30 & C"},
			{"type": "activity", "value": "Workshops"},
			{"type": "bogus", "value": "dropped"}
		]}`,
	}}

	pipeline := NewPipeline(client, index, graphStore, 2, nil)

	items := []*types.Item{
		{ID: "camp-oknotok", Kind: types.KindCamp, Name: "OKNOTOK", Description: "fire camp"},
	}
	stats, err := pipeline.Run(ctx, items, BasicEntities{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	assert.Zero(t, stats.Failed)
	assert.Equal(t, 2, stats.Entities)

	entities, err := index.EntitiesFor(ctx, "camp-oknotok")
	require.NoError(t, err)
	// Values come back normalized: lowercased and singularized.
	assert.ElementsMatch(t, []types.Entity{
		{Type: types.EntityLocation, Value: "7:30 & c"},
		{Type: types.EntityActivity, Value: "workshop"},
	}, entities)

	ids, err := graphStore.ItemsForEntity(ctx, types.Entity{Type: types.EntityActivity, Value: "workshop"}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"camp-oknotok"}, ids)
}

func TestPipelineRepairsMalformedJSON(t *testing.T) {
	ctx := context.Background()
	index := entityindex.NewMemoryIndex()

	// Trailing comma and unquoted key, the usual model sloppiness.
	client := &scriptedClient{replies: map[string]string{
		"Temple": `{entities: [{"type": "theme", "value": "fire"},]}`,
	}}

	pipeline := NewPipeline(client, index, nil, 1, nil)

	stats, err := pipeline.Run(ctx, []*types.Item{
		{ID: "art-temple", Kind: types.KindArt, Name: "Temple"},
	}, BasicEntities{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Entities)
}

func TestPipelinePoolTags(t *testing.T) {
	ctx := context.Background()
	index := entityindex.NewMemoryIndex()
	graphStore := graph.NewMemoryStore()

	client := &scriptedClient{replies: map[string]string{
		"Temple": `{"entities": [
			{"type": "pool_idea", "value": "member"},
			{"type": "pool_emanation", "value": "member"},
			{"type": "theme", "value": "ignored by this strategy"}
		]}`,
	}}

	pipeline := NewPipeline(client, index, graphStore, 1, nil)

	stats, err := pipeline.Run(ctx, []*types.Item{
		{ID: "art-temple", Kind: types.KindArt, Name: "Temple"},
	}, PoolTags{})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Entities)

	entities, err := index.EntitiesFor(ctx, "art-temple")
	require.NoError(t, err)
	for _, e := range entities {
		assert.True(t, e.Type.IsPool())
	}
}

func TestPipelineCountsFailures(t *testing.T) {
	ctx := context.Background()
	index := entityindex.NewMemoryIndex()

	client := &scriptedClient{
		replies: map[string]string{
			"Good": `{"entities": [{"type": "theme", "value": "fire"}]}`,
		},
		failFor: map[string]error{
			"Bad": errors.New("model unavailable"),
		},
	}

	pipeline := NewPipeline(client, index, nil, 2, nil)

	stats, err := pipeline.Run(ctx, []*types.Item{
		{ID: "item-good", Kind: types.KindArt, Name: "Good"},
		{ID: "item-bad", Kind: types.KindArt, Name: "Bad"},
	}, BasicEntities{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Failed)
}

func TestPipelineProcessesAcrossBatches(t *testing.T) {
	ctx := context.Background()
	index := entityindex.NewMemoryIndex()

	client := &scriptedClient{
		replies: map[string]string{
			"Good": `{"entities": [{"type": "theme", "value": "fire"}]}`,
		},
		failFor: map[string]error{
			"Bad": errors.New("model unavailable"),
		},
	}

	pipeline := NewPipeline(client, index, nil, 4, nil)

	// More items than a single batch holds, with one failure in the
	// second batch so counters are proven to accumulate across batches.
	items := make([]*types.Item, 0, batchSize+50)
	for i := 0; i < batchSize+49; i++ {
		items = append(items, &types.Item{
			ID: fmt.Sprintf("item-%03d", i), Kind: types.KindArt, Name: "Good",
		})
	}
	items = append(items, &types.Item{ID: "item-bad", Kind: types.KindArt, Name: "Bad"})

	stats, err := pipeline.Run(ctx, items, BasicEntities{})
	require.NoError(t, err)
	assert.Equal(t, batchSize+49, stats.Processed)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, batchSize+49, stats.Entities)
}

func TestPipelineEmptyBatch(t *testing.T) {
	pipeline := NewPipeline(&scriptedClient{}, entityindex.NewMemoryIndex(), nil, 1, nil)

	stats, err := pipeline.Run(context.Background(), nil, BasicEntities{})
	require.NoError(t, err)
	assert.Zero(t, stats.Processed)
}

func TestStrategyParseRejectsGarbage(t *testing.T) {
	_, err := BasicEntities{}.Parse("not json at all {{{")
	assert.Error(t, err)
}
