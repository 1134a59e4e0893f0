package graph

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"

	"github.com/blackrocklabs/playasearch/pkg/types"
)

// Neo4jStore implements Store against a Neo4j database. All queries are
// parameterized; the only value ever formatted into a pattern is the
// traversal depth, and only after ValidateDepth has accepted it.
type Neo4jStore struct {
	client   neo4j.DriverWithContext
	database string
	timeout  time.Duration
}

// NewNeo4jStore connects to Neo4j with basic auth.
func NewNeo4jStore(uri, username, password, database string, timeout time.Duration) (*Neo4jStore, error) {
	client, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if database == "" {
		database = "neo4j"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Neo4jStore{client: client, database: database, timeout: timeout}, nil
}

// CreateIndices creates uniqueness constraints for item and entity nodes.
func (n *Neo4jStore) CreateIndices(ctx context.Context) error {
	statements := []string{
		`CREATE CONSTRAINT item_id IF NOT EXISTS FOR (i:Item) REQUIRE i.id IS UNIQUE`,
		`CREATE CONSTRAINT entity_key IF NOT EXISTS FOR (e:Entity) REQUIRE e.key IS UNIQUE`,
	}

	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	for _, stmt := range statements {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			return fmt.Errorf("failed to create constraint: %w", err)
		}
	}
	return nil
}

// AddItemEntities records item-entity ownership and bumps pairwise
// appears-with weights for newly attached entities.
func (n *Neo4jStore) AddItemEntities(ctx context.Context, itemID string, entities []types.Entity) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		var fresh []string
		for _, e := range entities {
			res, err := tx.Run(ctx, `
				MERGE (i:Item {id: $itemID})
				MERGE (e:Entity {key: $key})
				SET e.type = $type, e.value = $value
				MERGE (i)-[h:HAS_ENTITY]->(e)
				ON CREATE SET h.fresh = true
				ON MATCH SET h.fresh = false
				RETURN h.fresh AS fresh
			`, map[string]any{
				"itemID": itemID,
				"key":    e.Key(),
				"type":   string(e.Type),
				"value":  e.Value,
			})
			if err != nil {
				return nil, err
			}
			record, err := res.Single(ctx)
			if err != nil {
				return nil, err
			}
			if created, _ := record.Get("fresh"); created == true {
				fresh = append(fresh, e.Key())
			}
		}

		if len(fresh) == 0 {
			return nil, nil
		}

		res, err := tx.Run(ctx, `
			MATCH (i:Item {id: $itemID})-[:HAS_ENTITY]->(e:Entity)
			RETURN e.key AS key
		`, map[string]any{"itemID": itemID})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		freshSet := make(map[string]struct{}, len(fresh))
		for _, key := range fresh {
			freshSet[key] = struct{}{}
		}
		var all []string
		for _, record := range records {
			if key, ok := record.Get("key"); ok {
				all = append(all, key.(string))
			}
		}

		for _, a := range fresh {
			for _, b := range all {
				if a == b {
					continue
				}
				// Count each new pair once even when both ends are fresh.
				if _, bFresh := freshSet[b]; bFresh && b < a {
					continue
				}
				if _, err := tx.Run(ctx, `
					MATCH (a:Entity {key: $a}), (b:Entity {key: $b})
					MERGE (a)-[r:APPEARS_WITH]-(b)
					ON CREATE SET r.weight = 1
					ON MATCH SET r.weight = r.weight + 1
				`, map[string]any{"a": a, "b": b}); err != nil {
					return nil, err
				}
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to add entities for item %s: %w", itemID, err)
	}
	return nil
}

// Neighbors returns items within depth hops, one hop being a shared
// entity (two HAS_ENTITY edges).
func (n *Neo4jStore) Neighbors(ctx context.Context, itemID string, depth int) ([]Neighbor, error) {
	if err := ValidateDepth(depth); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		// Item hops translate to HAS_ENTITY path length 2*depth in the
		// bipartite projection. depth was validated above.
		query := fmt.Sprintf(`
			MATCH path = (start:Item {id: $itemID})-[:HAS_ENTITY*2..%d]-(n:Item)
			WHERE n.id <> $itemID
			RETURN n.id AS id, min(length(path)) / 2 AS distance
		`, 2*depth)

		res, err := tx.Run(ctx, query, map[string]any{"itemID": itemID})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: neighbor query failed: %v", types.ErrGraphUnavailable, err)
	}

	records := result.([]*db.Record)
	neighbors := make([]Neighbor, 0, len(records))
	for _, record := range records {
		id, _ := record.Get("id")
		distance, _ := record.Get("distance")
		idStr, ok := id.(string)
		if !ok {
			continue
		}
		dist, ok := distance.(int64)
		if !ok {
			continue
		}
		neighbors = append(neighbors, Neighbor{ItemID: idStr, Distance: int(dist)})
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
// entities and the other items connected through it.
func (n *Neo4jStore) EntityNeighborhood(ctx context.Context, itemID string) ([]EntityConnection, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (i:Item {id: $itemID})-[:HAS_ENTITY]->(e:Entity)
			RETURN e.type AS type, e.value AS value,
			       [(e)-[r:APPEARS_WITH]-(co:Entity) | {type: co.type, value: co.value, weight: r.weight}] AS co,
			       [(e)<-[:HAS_ENTITY]-(other:Item) WHERE other.id <> $itemID | other.id] AS items
			ORDER BY e.key
		`, map[string]any{"itemID": itemID})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: neighborhood query failed: %v", types.ErrGraphUnavailable, err)
	}

	records := result.([]*db.Record)
	connections := make([]EntityConnection, 0, len(records))
	for _, record := range records {
		conn := EntityConnection{Entity: entityFromRecord(record)}

		if raw, ok := record.Get("co"); ok {
			conn.CoOccurring = coOccurringFromValue(raw)
		}
		if raw, ok := record.Get("items"); ok {
			if list, ok := raw.([]any); ok {
				for _, v := range list {
					if id, ok := v.(string); ok {
						conn.ConnectedItemIDs = append(conn.ConnectedItemIDs, id)
					}
				}
			}
		}
		sort.Strings(conn.ConnectedItemIDs)

		connections = append(connections, conn)
	}
	return connections, nil
}

// ItemsForEntity returns up to limit item IDs carrying the entity.
func (n *Neo4jStore) ItemsForEntity(ctx context.Context, entity types.Entity, limit int) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (e:Entity {key: $key})<-[:HAS_ENTITY]-(i:Item)
			RETURN i.id AS id
			ORDER BY id
			LIMIT $limit
		`, map[string]any{"key": entity.Key(), "limit": limit})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: entity item query failed: %v", types.ErrGraphUnavailable, err)
	}

	records := result.([]*db.Record)
	ids := make([]string, 0, len(records))
	for _, record := range records {
		if id, ok := record.Get("id"); ok {
			if s, ok := id.(string); ok {
				ids = append(ids, s)
			}
		}
	}
	return ids, nil
}

// BridgeEntities fetches candidate statistics and ranks them with the
// same scoring as the in-memory store.
func (n *Neo4jStore) BridgeEntities(ctx context.Context, poolA, poolB types.EntityType, k int) ([]BridgeEntity, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (e:Entity)<-[:HAS_ENTITY]-(i:Item)
			WHERE NOT e.type STARTS WITH 'pool_'
			OPTIONAL MATCH (i)-[:HAS_ENTITY]->(p:Entity)
			WHERE p.type STARTS WITH 'pool_'
			RETURN e.key AS key, e.type AS type, e.value AS value,
			       count(DISTINCT i) AS occurrences,
			       collect(DISTINCT p.type) AS pools
		`, nil)
		if err != nil {
			return nil, err
		}
		candidateRecords, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		res, err = tx.Run(ctx, `
			MATCH (a:Entity)-[:APPEARS_WITH]-(b:Entity)
			WHERE NOT a.type STARTS WITH 'pool_' AND NOT b.type STARTS WITH 'pool_'
			RETURN a.key AS a, b.key AS b
		`, nil)
		if err != nil {
			return nil, err
		}
		adjacencyRecords, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		return [2][]*db.Record{candidateRecords, adjacencyRecords}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: bridge query failed: %v", types.ErrGraphUnavailable, err)
	}

	recordSets := result.([2][]*db.Record)

	candidates := make(map[string]bridgeCandidate)
	for _, record := range recordSets[0] {
		key, _ := record.Get("key")
		keyStr, ok := key.(string)
		if !ok {
			continue
		}
		occurrences, _ := record.Get("occurrences")
		occ, _ := occurrences.(int64)

		pools := make(map[types.EntityType]struct{})
		if raw, ok := record.Get("pools"); ok {
			if list, ok := raw.([]any); ok {
				for _, v := range list {
					if s, ok := v.(string); ok {
						pools[types.EntityType(s)] = struct{}{}
					}
				}
			}
		}

		candidates[keyStr] = bridgeCandidate{
			Entity:      entityFromRecord(record),
			Occurrences: int(occ),
			Pools:       pools,
		}
	}

	adjacency := make(map[string][]string)
	for _, record := range recordSets[1] {
		a, _ := record.Get("a")
		b, _ := record.Get("b")
		aStr, aOK := a.(string)
		bStr, bOK := b.(string)
		if aOK && bOK {
			adjacency[aStr] = append(adjacency[aStr], bStr)
		}
	}

	return rankBridges(candidates, adjacency, poolA, poolB, k), nil
}

// Reset drops the whole projection.
func (n *Neo4jStore) Reset(ctx context.Context) error {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	_, err := session.Run(ctx, `MATCH (n) WHERE n:Item OR n:Entity DETACH DELETE n`, nil)
	if err != nil {
		return fmt.Errorf("failed to reset graph: %w", err)
	}
	return nil
}

// Close shuts down the driver.
func (n *Neo4jStore) Close(ctx context.Context) error {
	return n.client.Close(ctx)
}

// VerifyConnectivity checks the connection is usable.
func (n *Neo4jStore) VerifyConnectivity(ctx context.Context) error {
	return n.client.VerifyConnectivity(ctx)
}

func entityFromRecord(record *db.Record) types.Entity {
	var e types.Entity
	if t, ok := record.Get("type"); ok {
		if s, ok := t.(string); ok {
			e.Type = types.EntityType(s)
		}
	}
	if v, ok := record.Get("value"); ok {
		if s, ok := v.(string); ok {
			e.Value = s
		}
	}
	return e
}

// coOccurringFromValue converts the pattern-comprehension maps into
// entities, strongest co-occurrence first.
func coOccurringFromValue(raw any) []types.Entity {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}

	type weighted struct {
		entity types.Entity
		weight int64
	}
	var co []weighted
	for _, v := range list {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		var w weighted
		if t, ok := m["type"].(string); ok {
			w.entity.Type = types.EntityType(t)
		}
		if val, ok := m["value"].(string); ok {
			w.entity.Value = val
		}
		if wt, ok := m["weight"].(int64); ok {
			w.weight = wt
		}
		if w.entity.Value == "" {
			continue
		}
		co = append(co, w)
	}

	sort.Slice(co, func(i, j int) bool {
		if co[i].weight != co[j].weight {
			return co[i].weight > co[j].weight
		}
		return co[i].entity.Key() < co[j].entity.Key()
	})

	entities := make([]types.Entity, 0, len(co))
	for _, w := range co {
		entities = append(entities, w.entity)
	}
	return entities
}

var _ Store = (*Neo4jStore)(nil)
