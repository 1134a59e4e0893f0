package graph

import (
	"context"
	"sort"
	"sync"

	"github.com/blackrocklabs/playasearch/pkg/types"
)

// MemoryStore is an in-memory Store used in tests and embedded setups.
// Safe for concurrent use.
type MemoryStore struct {
	mu           sync.RWMutex
	itemEntities map[string]map[string]types.Entity // item id -> entity key -> entity
	entityItems  map[string]map[string]struct{}     // entity key -> item id set
	entities     map[string]types.Entity            // entity key -> entity
	coOccurrence map[string]map[string]int          // entity key -> entity key -> weight
}

// NewMemoryStore creates an empty in-memory graph.
func NewMemoryStore() *MemoryStore {
	m := &MemoryStore{}
	m.reset()
	return m
}

func (m *MemoryStore) reset() {
	m.itemEntities = make(map[string]map[string]types.Entity)
	m.entityItems = make(map[string]map[string]struct{})
	m.entities = make(map[string]types.Entity)
	m.coOccurrence = make(map[string]map[string]int)
}

// AddItemEntities records item-entity ownership and increments pairwise
// co-occurrence weights among the given entities.
func (m *MemoryStore) AddItemEntities(ctx context.Context, itemID string, entities []types.Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.itemEntities[itemID]; !ok {
		m.itemEntities[itemID] = make(map[string]types.Entity)
	}

	var fresh []string
	for _, e := range entities {
		key := e.Key()
		if _, dup := m.itemEntities[itemID][key]; dup {
			continue
		}
		m.itemEntities[itemID][key] = e
		m.entities[key] = e
		if _, ok := m.entityItems[key]; !ok {
			m.entityItems[key] = make(map[string]struct{})
		}
		m.entityItems[key][itemID] = struct{}{}
		fresh = append(fresh, key)
	}

	// Co-occurrence grows for every pair now present on this item. A pair
	// of two fresh entities would be visited from both ends, so it only
	// counts from the lexically smaller one.
	freshSet := make(map[string]struct{}, len(fresh))
	for _, key := range fresh {
		freshSet[key] = struct{}{}
	}
	all := make([]string, 0, len(m.itemEntities[itemID]))
	for key := range m.itemEntities[itemID] {
		all = append(all, key)
	}
	for _, a := range fresh {
		for _, b := range all {
			if a == b {
				continue
			}
			if _, bFresh := freshSet[b]; bFresh && b < a {
				continue
			}
			m.incrementCoOccurrence(a, b)
		}
	}
	return nil
}

func (m *MemoryStore) incrementCoOccurrence(a, b string) {
	if _, ok := m.coOccurrence[a]; !ok {
		m.coOccurrence[a] = make(map[string]int)
	}
	if _, ok := m.coOccurrence[b]; !ok {
		m.coOccurrence[b] = make(map[string]int)
	}
	m.coOccurrence[a][b]++
	m.coOccurrence[b][a]++
}

// Neighbors walks the item adjacency (items sharing an entity) breadth
// first up to depth hops.
func (m *MemoryStore) Neighbors(ctx context.Context, itemID string, depth int) ([]Neighbor, error) {
	if err := ValidateDepth(depth); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	visited := map[string]int{itemID: 0}
	frontier := []string{itemID}

	for d := 1; d <= depth; d++ {
		var next []string
		for _, id := range frontier {
			for key := range m.itemEntities[id] {
				for other := range m.entityItems[key] {
					if _, seen := visited[other]; seen {
						continue
					}
					visited[other] = d
					next = append(next, other)
				}
			}
		}
		frontier = next
	}

	neighbors := make([]Neighbor, 0, len(visited)-1)
	for id, d := range visited {
		if id == itemID {
			continue
		}
		neighbors = append(neighbors, Neighbor{ItemID: id, Distance: d})
	}
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Distance != neighbors[j].Distance {
			return neighbors[i].Distance < neighbors[j].Distance
		}
		return neighbors[i].ItemID < neighbors[j].ItemID
	})
	return neighbors, nil
}

// EntityNeighborhood returns each entity of the item with its co-occurring
// entities (strongest first) and the other items connected through it.
func (m *MemoryStore) EntityNeighborhood(ctx context.Context, itemID string) ([]EntityConnection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.itemEntities[itemID]))
	for key := range m.itemEntities[itemID] {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	connections := make([]EntityConnection, 0, len(keys))
	for _, key := range keys {
		conn := EntityConnection{Entity: m.entities[key]}

		type weighted struct {
			key    string
			weight int
		}
		co := make([]weighted, 0, len(m.coOccurrence[key]))
		for other, w := range m.coOccurrence[key] {
			co = append(co, weighted{other, w})
		}
		sort.Slice(co, func(i, j int) bool {
			if co[i].weight != co[j].weight {
				return co[i].weight > co[j].weight
			}
			return co[i].key < co[j].key
		})
		for _, w := range co {
			conn.CoOccurring = append(conn.CoOccurring, m.entities[w.key])
		}

		for other := range m.entityItems[key] {
			if other == itemID {
				continue
			}
			conn.ConnectedItemIDs = append(conn.ConnectedItemIDs, other)
		}
		sort.Strings(conn.ConnectedItemIDs)

		connections = append(connections, conn)
	}
	return connections, nil
}

// ItemsForEntity returns up to limit item IDs carrying the entity.
func (m *MemoryStore) ItemsForEntity(ctx context.Context, entity types.Entity, limit int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.entityItems[entity.Key()]))
	for id := range m.entityItems[entity.Key()] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// BridgeEntities ranks non-pool entities spanning both pools by bridge
// power.
func (m *MemoryStore) BridgeEntities(ctx context.Context, poolA, poolB types.EntityType, k int) ([]BridgeEntity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	candidates := make(map[string]bridgeCandidate)
	adjacency := make(map[string][]string)
	for key, entity := range m.entities {
		if entity.Type.IsPool() {
			continue
		}
		candidates[key] = bridgeCandidate{
			Entity:      entity,
			Occurrences: len(m.entityItems[key]),
			Pools:       m.poolsOf(key),
		}
		for other := range m.coOccurrence[key] {
			if !m.entities[other].Type.IsPool() {
				adjacency[key] = append(adjacency[key], other)
			}
		}
	}

	return rankBridges(candidates, adjacency, poolA, poolB, k), nil
}

// poolsOf returns the pool types the entity appears in, i.e. the pool tags
// present on items carrying it. Caller holds the lock.
func (m *MemoryStore) poolsOf(key string) map[types.EntityType]struct{} {
	pools := make(map[types.EntityType]struct{})
	for itemID := range m.entityItems[key] {
		for _, e := range m.itemEntities[itemID] {
			if e.Type.IsPool() {
				pools[e.Type] = struct{}{}
			}
		}
	}
	return pools
}

// Reset drops the whole projection.
func (m *MemoryStore) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close(ctx context.Context) error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
