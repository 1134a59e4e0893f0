package itemstore

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/blackrocklabs/playasearch/pkg/types"
)

// MemoryStore is an in-memory Store with exact cosine distance, used in
// tests and embedded setups. Safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]*types.Item
	dims  int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]*types.Item)}
}

// Upsert inserts or replaces an item. The first embedded item fixes the
// store's dimensionality; later writes with a different dimensionality are
// rejected with a *types.DimensionMismatchError.
func (m *MemoryStore) Upsert(ctx context.Context, item *types.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(item.Embedding) > 0 {
		item.NormalizeEmbedding()
		if m.dims == 0 {
			m.dims = len(item.Embedding)
		} else if len(item.Embedding) != m.dims {
			return &types.DimensionMismatchError{
				Want:    m.dims,
				Got:     len(item.Embedding),
				ItemIDs: []string{item.ID},
			}
		}
	}

	m.items[item.ID] = item
	return nil
}

// Get returns the item with the given ID.
func (m *MemoryStore) Get(ctx context.Context, id string) (*types.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return item, nil
}

// Filter returns all items matching the filter options, ordered by ID.
func (m *MemoryStore) Filter(ctx context.Context, opts FilterOptions) ([]*types.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*types.Item
	for _, item := range m.items {
		if matches(item, opts) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// VectorSearch returns up to k items ordered by ascending cosine distance,
// filtering before ranking. Mixed dimensionalities in the candidate set
// are a hard error naming the offending items.
func (m *MemoryStore) VectorSearch(ctx context.Context, queryVector []float32, k int, opts FilterOptions) ([]ScoredItem, error) {
	if len(queryVector) == 0 || k <= 0 {
		return []ScoredItem{}, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var mismatched []string
	scored := make([]ScoredItem, 0, len(m.items))
	for _, item := range m.items {
		if !matches(item, opts) || len(item.Embedding) == 0 {
			continue
		}
		if len(item.Embedding) != len(queryVector) {
			mismatched = append(mismatched, item.ID)
			continue
		}
		scored = append(scored, ScoredItem{
			Item:     item,
			Distance: 1 - cosineSimilarity(queryVector, item.Embedding),
		})
	}

	if len(mismatched) > 0 {
		sort.Strings(mismatched)
		return nil, &types.DimensionMismatchError{
			Want:    len(queryVector),
			Got:     len(m.items[mismatched[0]].Embedding),
			ItemIDs: mismatched,
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Distance != scored[j].Distance {
			return scored[i].Distance < scored[j].Distance
		}
		return scored[i].Item.ID < scored[j].Item.ID
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// KeywordSearch returns up to k items whose searchable text contains
// substr, case-insensitively, ordered by ID.
func (m *MemoryStore) KeywordSearch(ctx context.Context, substr string, k int, opts FilterOptions) ([]*types.Item, error) {
	needle := strings.ToLower(strings.TrimSpace(substr))
	if needle == "" || k <= 0 {
		return []*types.Item{}, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*types.Item
	for _, item := range m.items {
		if !matches(item, opts) {
			continue
		}
		if strings.Contains(strings.ToLower(item.Searchable()), needle) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	return nil
}

func matches(item *types.Item, opts FilterOptions) bool {
	if opts.Kind != "" && item.Kind != opts.Kind {
		return false
	}
	if opts.Year != 0 && item.Year != opts.Year {
		return false
	}
	return true
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var _ Store = (*MemoryStore)(nil)
