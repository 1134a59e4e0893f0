package itemstore

import (
	"context"

	"github.com/blackrocklabs/playasearch/pkg/types"
)

// FilterOptions narrows scans and searches by item attributes. Zero values
// mean no filtering on that attribute.
type FilterOptions struct {
	Kind types.ItemKind
	Year int
}

// ScoredItem pairs an item with its cosine distance from the query vector.
type ScoredItem struct {
	Item     *types.Item
	Distance float64
}

// Store is the relational store of searchable items.
//
// VectorSearch applies kind/year filters BEFORE distance ranking. Applying
// a filter as a post-step on a small top-k silently drops matches when an
// approximate index is involved, so implementations must push the filter
// into the candidate selection.
type Store interface {
	// Get returns the item with the given ID, or types.ErrNotFound.
	Get(ctx context.Context, id string) (*types.Item, error)

	// Filter returns all items matching the filter options.
	Filter(ctx context.Context, opts FilterOptions) ([]*types.Item, error)

	// VectorSearch returns up to k items ordered by ascending cosine
	// distance to queryVector, after filtering. Items without embeddings
	// are skipped. A stored vector whose dimensionality differs from the
	// query's yields a *types.DimensionMismatchError.
	VectorSearch(ctx context.Context, queryVector []float32, k int, opts FilterOptions) ([]ScoredItem, error)

	// KeywordSearch returns up to k items whose searchable text contains
	// substr, case-insensitively, after filtering.
	KeywordSearch(ctx context.Context, substr string, k int, opts FilterOptions) ([]*types.Item, error)

	// Upsert inserts or replaces an item. Embeddings are unit-normalized
	// at write time.
	Upsert(ctx context.Context, item *types.Item) error

	// Close releases store resources.
	Close() error
}
