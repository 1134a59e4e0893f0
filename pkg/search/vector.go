package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/blackrocklabs/playasearch/pkg/embedder"
	"github.com/blackrocklabs/playasearch/pkg/itemstore"
	"github.com/blackrocklabs/playasearch/pkg/types"
)

const (
	// DefaultDistanceThreshold is the cosine distance above which vector
	// matches are dropped. Distance 0.7 corresponds to similarity 0.3.
	DefaultDistanceThreshold = 0.7

	// DefaultK is used when the caller passes a non-positive result count.
	DefaultK = 10
)

// Options narrows a search by item attributes. Zero values mean no
// filtering; a zero DistanceThreshold means DefaultDistanceThreshold.
type Options struct {
	Kind              types.ItemKind
	Year              int
	DistanceThreshold float64
}

func (o Options) threshold() float64 {
	if o.DistanceThreshold <= 0 {
		return DefaultDistanceThreshold
	}
	return o.DistanceThreshold
}

func (o Options) filter() itemstore.FilterOptions {
	return itemstore.FilterOptions{Kind: o.Kind, Year: o.Year}
}

// VectorSearcher ranks items by embedding similarity, falling back to
// keyword matching when no query embedding can be produced.
type VectorSearcher struct {
	embedder embedder.Client
	store    itemstore.Store
	logger   *slog.Logger
}

// NewVectorSearcher wires a searcher over the given embedder and store.
func NewVectorSearcher(client embedder.Client, store itemstore.Store, logger *slog.Logger) *VectorSearcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &VectorSearcher{embedder: client, store: store, logger: logger}
}

// Search returns up to k results ranked by descending similarity. When the
// embedding call fails or yields nothing, it degrades to a case-insensitive
// substring match over searchable text; those results carry no similarity
// score. A dimensionality mismatch between the query vector and stored
// vectors is the one error that is never degraded around.
func (s *VectorSearcher) Search(ctx context.Context, query string, k int, opts Options) ([]*types.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, types.ErrEmptyQuery
	}
	if k <= 0 {
		k = DefaultK
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil || len(vector) == 0 {
		if err != nil {
			s.logger.Warn("embedding unavailable, falling back to keyword search",
				"query", query, "error", err)
		}
		return s.keywordSearch(ctx, query, k, opts)
	}

	scored, err := s.store.VectorSearch(ctx, vector, k, opts.filter())
	if err != nil {
		var mismatch *types.DimensionMismatchError
		if errors.As(err, &mismatch) {
			return nil, err
		}
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	threshold := opts.threshold()
	results := make([]*types.SearchResult, 0, len(scored))
	for _, sc := range scored {
		if sc.Distance > threshold {
			continue
		}
		similarity := 1 - sc.Distance
		if similarity < 0 {
			similarity = 0
		} else if similarity > 1 {
			similarity = 1
		}
		sim := similarity
		results = append(results, &types.SearchResult{
			Item:          sc.Item,
			Similarity:    &sim,
			CombinedScore: types.CombineScores(sim, 0),
			Source:        types.SourceSeed,
		})
	}
	return results, nil
}

// keywordSearch is the degraded path. Results are unranked by similarity
// and carry a nil similarity score.
func (s *VectorSearcher) keywordSearch(ctx context.Context, query string, k int, opts Options) ([]*types.SearchResult, error) {
	items, err := s.store.KeywordSearch(ctx, query, k, opts.filter())
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}

	results := make([]*types.SearchResult, 0, len(items))
	for _, item := range items {
		results = append(results, &types.SearchResult{
			Item:   item,
			Source: types.SourceSeed,
		})
	}
	return results, nil
}
