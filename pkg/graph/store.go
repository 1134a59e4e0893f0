package graph

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/blackrocklabs/playasearch/pkg/types"
)

// MaxTraversalDepth bounds neighborhood queries so they stay sublinear in
// graph size. Unbounded traversal is disallowed.
const MaxTraversalDepth = 2

// DefaultTraversalDepth is used when callers pass no explicit depth.
const DefaultTraversalDepth = 1

// Neighbor is an item reached by traversal, with its hop distance from
// the origin (1 = shares an entity with the origin).
type Neighbor struct {
	ItemID   string `json:"item_id"`
	Distance int    `json:"distance"`
}

// EntityConnection describes one entity of an item together with its
// co-occurring entities and the other items reachable through it.
type EntityConnection struct {
	Entity           types.Entity   `json:"entity"`
	CoOccurring      []types.Entity `json:"co_occurring,omitempty"`
	ConnectedItemIDs []string       `json:"connected_item_ids,omitempty"`
}

// BridgeEntity is an entity appearing in multiple pools, ranked by bridge
// power.
type BridgeEntity struct {
	Entity                 types.Entity `json:"entity"`
	PoolCount              int          `json:"pool_count"`
	TotalOccurrences       int          `json:"total_occurrences"`
	CrossPoolRelationships int          `json:"cross_pool_relationships"`
	Power                  float64      `json:"power"`
}

// BridgePower scores how strongly an entity bridges thematic pools:
//
//	pool_count × sqrt(total_occurrences) × (cross_pool_relationships + 1)
//
// The three factors keep a single high-frequency but isolated entity from
// outranking a moderately frequent, well-connected one.
func BridgePower(poolCount, totalOccurrences, crossPoolRelationships int) float64 {
	return float64(poolCount) * math.Sqrt(float64(totalOccurrences)) * float64(crossPoolRelationships+1)
}

// Store is the property-graph view of items and entities. It holds one
// node per item, one node per entity, item→entity "has-entity" edges and
// undirected entity↔entity "appears-with" edges weighted by co-occurrence
// count. The graph is a derived projection of the item/entity relationship
// and is rebuildable from scratch.
type Store interface {
	// AddItemEntities records that an item carries the given entities,
	// creating nodes and has-entity edges as needed and incrementing the
	// pairwise appears-with weight among the entities. Weights only ever
	// grow as items reinforce a co-occurrence.
	AddItemEntities(ctx context.Context, itemID string, entities []types.Entity) error

	// Neighbors returns items reachable from itemID within depth hops,
	// where one hop connects items sharing an entity.
	// 1 <= depth <= MaxTraversalDepth.
	Neighbors(ctx context.Context, itemID string, depth int) ([]Neighbor, error)

	// EntityNeighborhood returns, for each entity of the item, its
	// co-occurring entities and the other items connected through it.
	EntityNeighborhood(ctx context.Context, itemID string) ([]EntityConnection, error)

	// ItemsForEntity returns up to limit item IDs carrying the entity.
	ItemsForEntity(ctx context.Context, entity types.Entity, limit int) ([]string, error)

	// BridgeEntities returns the top k non-pool entities whose item sets
	// span both pools, ordered by descending bridge power.
	BridgeEntities(ctx context.Context, poolA, poolB types.EntityType, k int) ([]BridgeEntity, error)

	// Reset drops the whole projection so it can be rebuilt.
	Reset(ctx context.Context) error

	// Close releases graph resources.
	Close(ctx context.Context) error
}

// ValidateDepth rejects traversal depths outside [1, MaxTraversalDepth].
// Depth patterns are only ever formatted from a value that passed this
// check, never from raw input.
func ValidateDepth(depth int) error {
	if depth < 1 || depth > MaxTraversalDepth {
		return fmt.Errorf("traversal depth must be between 1 and %d, got %d", MaxTraversalDepth, depth)
	}
	return nil
}

// SortBridgeEntities orders by descending power, breaking ties by entity
// key for deterministic output.
func SortBridgeEntities(entities []BridgeEntity) {
	sort.Slice(entities, func(i, j int) bool {
		if entities[i].Power != entities[j].Power {
			return entities[i].Power > entities[j].Power
		}
		return entities[i].Entity.Key() < entities[j].Entity.Key()
	})
}
