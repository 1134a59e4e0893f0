package entityindex

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/blackrocklabs/playasearch/pkg/types"
)

// MemoryIndex is an in-memory Index used in tests and embedded setups.
// Safe for concurrent use.
type MemoryIndex struct {
	mu       sync.RWMutex
	byItem   map[string][]types.Entity
	byEntity map[string]map[string]struct{} // entity key -> item id set
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		byItem:   make(map[string][]types.Entity),
		byEntity: make(map[string]map[string]struct{}),
	}
}

// Add attaches entities to an item, normalizing values first. Duplicate
// (item, entity) pairs are ignored.
func (m *MemoryIndex) Add(ctx context.Context, itemID string, entities []types.Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range entities {
		e = NormalizeEntity(e)
		if e.Value == "" {
			continue
		}
		key := e.Key()
		if _, ok := m.byEntity[key]; !ok {
			m.byEntity[key] = make(map[string]struct{})
		}
		if _, dup := m.byEntity[key][itemID]; dup {
			continue
		}
		m.byEntity[key][itemID] = struct{}{}
		m.byItem[itemID] = append(m.byItem[itemID], e)
	}
	return nil
}

// EntitiesFor returns the entities attached to an item.
func (m *MemoryIndex) EntitiesFor(ctx context.Context, itemID string) ([]types.Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entities := make([]types.Entity, len(m.byItem[itemID]))
	copy(entities, m.byItem[itemID])
	sortEntities(entities)
	return entities, nil
}

// ItemsFor returns the IDs of items carrying the given entity.
func (m *MemoryIndex) ItemsFor(ctx context.Context, entityType types.EntityType, value string) ([]string, error) {
	key := types.Entity{Type: entityType, Value: Normalize(entityType, value)}.Key()

	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.byEntity[key]))
	for id := range m.byEntity[key] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// LookupLike returns entities whose canonical value starts with the given
// prefix, optionally restricted to one type.
func (m *MemoryIndex) LookupLike(ctx context.Context, entityType types.EntityType, valuePrefix string) ([]types.Entity, error) {
	prefix := strings.ToLower(strings.TrimSpace(valuePrefix))

	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []types.Entity
	for _, entities := range m.byItem {
		for _, e := range entities {
			if entityType != "" && e.Type != entityType {
				continue
			}
			if prefix != "" && !strings.HasPrefix(e.Value, prefix) {
				continue
			}
			if _, ok := seen[e.Key()]; ok {
				continue
			}
			seen[e.Key()] = struct{}{}
			out = append(out, e)
		}
	}
	sortEntities(out)
	return out, nil
}

// All returns every distinct entity in the index.
func (m *MemoryIndex) All(ctx context.Context) ([]types.Entity, error) {
	return m.LookupLike(ctx, "", "")
}

// Close implements Index.
func (m *MemoryIndex) Close() error {
	return nil
}

func sortEntities(entities []types.Entity) {
	sort.Slice(entities, func(i, j int) bool {
		if entities[i].Type != entities[j].Type {
			return entities[i].Type < entities[j].Type
		}
		return entities[i].Value < entities[j].Value
	})
}

var _ Index = (*MemoryIndex)(nil)
