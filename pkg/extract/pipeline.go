package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blackrocklabs/playasearch/pkg/entityindex"
	"github.com/blackrocklabs/playasearch/pkg/graph"
	"github.com/blackrocklabs/playasearch/pkg/nlp"
	"github.com/blackrocklabs/playasearch/pkg/types"
	"github.com/blackrocklabs/playasearch/pkg/utils"
)

// Stats summarizes one pipeline run.
type Stats struct {
	Processed int
	Failed    int
	Entities  int
}

// Pipeline runs an extraction strategy over a batch of items and writes
// the resulting entities to the entity index and the graph. One pipeline
// serves every strategy; per-item extraction is independent, so failures
// are counted and skipped rather than aborting the batch.
type Pipeline struct {
	client  nlp.Client
	index   entityindex.Index
	graph   graph.Store
	logger  *slog.Logger
	workers int
}

// NewPipeline wires an extraction pipeline. The graph store may be nil if
// only the entity index should be populated.
func NewPipeline(client nlp.Client, index entityindex.Index, graphStore graph.Store, workers int, logger *slog.Logger) *Pipeline {
	if workers <= 0 {
		workers = utils.GetSemaphoreLimit()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		client:  client,
		index:   index,
		graph:   graphStore,
		logger:  logger,
		workers: workers,
	}
}

// batchSize bounds how many items are queued on the worker pool at once,
// so index and graph writes land incrementally on large corpora.
const batchSize = 100

// Run extracts entities from every item with the given strategy. Items go
// through in batches; within a batch, model calls fan out on a bounded
// worker pool and index and graph writes happen after each item's
// extraction completes.
func (p *Pipeline) Run(ctx context.Context, items []*types.Item, strategy Strategy) (Stats, error) {
	if len(items) == 0 {
		return Stats{}, nil
	}

	p.logger.Info("starting extraction",
		"strategy", strategy.Name(), "items", len(items), "workers", p.workers)

	pool := utils.NewWorkerPool(p.workers, func(ctx context.Context, item *types.Item) ([]types.Entity, error) {
		return p.extractOne(ctx, item, strategy)
	})

	var stats Stats
	for _, batch := range utils.Batch(items, batchSize) {
		results, errs := pool.ProcessItems(ctx, batch)

		for i, item := range batch {
			if errs[i] != nil {
				stats.Failed++
				p.logger.Warn("extraction failed",
					"strategy", strategy.Name(), "item", item.ID, "error", errs[i])
				continue
			}

			entities := results[i]
			if len(entities) == 0 {
				stats.Processed++
				continue
			}

			if err := p.store(ctx, item.ID, entities); err != nil {
				stats.Failed++
				p.logger.Warn("failed to store entities",
					"strategy", strategy.Name(), "item", item.ID, "error", err)
				continue
			}

			stats.Processed++
			stats.Entities += len(entities)
		}
	}

	p.logger.Info("extraction complete",
		"strategy", strategy.Name(),
		"processed", stats.Processed, "failed", stats.Failed, "entities", stats.Entities)
	return stats, nil
}

func (p *Pipeline) extractOne(ctx context.Context, item *types.Item, strategy Strategy) ([]types.Entity, error) {
	resp, err := p.client.ChatJSON(ctx, strategy.Messages(item))
	if err != nil {
		return nil, fmt.Errorf("extraction call failed: %w", err)
	}
	if resp.Content == "" {
		return nil, nlp.ErrEmptyResponse
	}

	entities, err := strategy.Parse(resp.Content)
	if err != nil {
		return nil, err
	}

	normalized := make([]types.Entity, 0, len(entities))
	for _, e := range entities {
		n := entityindex.NormalizeEntity(e)
		if n.Value == "" {
			continue
		}
		normalized = append(normalized, n)
	}
	return normalized, nil
}

func (p *Pipeline) store(ctx context.Context, itemID string, entities []types.Entity) error {
	if err := p.index.Add(ctx, itemID, entities); err != nil {
		return fmt.Errorf("index write failed: %w", err)
	}
	if p.graph != nil {
		if err := p.graph.AddItemEntities(ctx, itemID, entities); err != nil {
			return fmt.Errorf("graph write failed: %w", err)
		}
	}
	return nil
}
