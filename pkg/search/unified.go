package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/blackrocklabs/playasearch/pkg/entityindex"
	"github.com/blackrocklabs/playasearch/pkg/graph"
	"github.com/blackrocklabs/playasearch/pkg/itemstore"
	"github.com/blackrocklabs/playasearch/pkg/types"
	"github.com/blackrocklabs/playasearch/pkg/utils"
)

const (
	// directMatchBonus rewards a seed entity that is itself a query entity.
	directMatchBonus = 0.5
	// relatedMatchBonus rewards each co-occurring entity that is a query
	// entity, a weaker second-order signal.
	relatedMatchBonus = 0.3
	// densityBonus is added per item connected through a seed entity.
	densityBonus = 0.01

	// minPrefixLen keeps short query tokens from prefix-matching half the
	// entity index.
	minPrefixLen = 3

	// defaultEnrichmentWorkers bounds the per-seed graph fan-out.
	defaultEnrichmentWorkers = 4
)

// prefixTypes are the entity types eligible for prefix matching during
// query entity extraction. The remaining types only match as substrings.
var prefixTypes = []types.EntityType{
	types.EntityLocation, types.EntityActivity, types.EntityTheme,
}

// UnifiedOptions controls one unified search. The zero value searches all
// kinds and years at depth 1 with graph expansion enabled.
type UnifiedOptions struct {
	Kind              types.ItemKind
	Year              int
	GraphDepth        int
	SkipExpansion     bool
	DistanceThreshold float64
}

func (o UnifiedOptions) depth() int {
	if o.GraphDepth <= 0 {
		return graph.DefaultTraversalDepth
	}
	return o.GraphDepth
}

// UnifiedSearcher blends vector similarity with knowledge-graph signals.
// One Search call is read-only against all backing stores, so a single
// searcher is safe for concurrent use.
type UnifiedSearcher struct {
	vector   *VectorSearcher
	items    itemstore.Store
	entities entityindex.Index
	graph    graph.Store
	logger   *slog.Logger
	executor *utils.ConcurrentExecutor
}

// NewUnifiedSearcher wires the hybrid searcher. The graph store may be nil,
// in which case every search runs in the similarity-only degraded mode.
func NewUnifiedSearcher(vector *VectorSearcher, items itemstore.Store, entities entityindex.Index, graphStore graph.Store, logger *slog.Logger) *UnifiedSearcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &UnifiedSearcher{
		vector:   vector,
		items:    items,
		entities: entities,
		graph:    graphStore,
		logger:   logger,
		executor: utils.NewConcurrentExecutor(defaultEnrichmentWorkers),
	}
}

// Search runs the full pipeline: vector seed, query entity extraction,
// graph enrichment, optional graph expansion, then deterministic ranking.
// Graph failures degrade to similarity-only ranking and are reported in
// the response diagnostics; a dimension mismatch is the only hard error
// past input validation.
func (u *UnifiedSearcher) Search(ctx context.Context, query string, k int, opts UnifiedOptions) (*types.SearchResponse, error) {
	start := time.Now()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, types.ErrEmptyQuery
	}
	if k <= 0 {
		k = DefaultK
	}
	if err := graph.ValidateDepth(opts.depth()); err != nil {
		return nil, err
	}

	resp := &types.SearchResponse{}

	// Over-fetch so filtering and ranking have candidates to work with.
	seeds, err := u.vector.Search(ctx, query, 2*k, Options{
		Kind:              opts.Kind,
		Year:              opts.Year,
		DistanceThreshold: opts.DistanceThreshold,
	})
	if err != nil {
		var mismatch *types.DimensionMismatchError
		if errors.As(err, &mismatch) {
			return nil, err
		}
		return nil, fmt.Errorf("seed search failed: %w", err)
	}

	queryEntities, diag := u.extractQueryEntities(ctx, query)
	if diag != "" {
		resp.Diagnostics = append(resp.Diagnostics, diag)
	}
	resp.QueryEntities = queryEntities

	degraded := false
	if u.graph == nil {
		degraded = true
		resp.Diagnostics = append(resp.Diagnostics, "graph store not configured, similarity-only ranking")
	} else if err := u.enrichSeeds(ctx, seeds, queryEntities); err != nil {
		degraded = true
		u.logger.Warn("graph enrichment failed, degrading to similarity ranking",
			"query", query, "error", err)
		resp.Diagnostics = append(resp.Diagnostics, "graph unavailable, similarity-only ranking")
		for _, seed := range seeds {
			seed.GraphScore = 0
			seed.CombinedScore = types.CombineScores(seed.SimilarityOrZero(), 0)
		}
	}

	results := seeds
	if !degraded && !opts.SkipExpansion && len(seeds) < k && len(queryEntities) > 0 {
		expanded, err := u.expandByEntities(ctx, seeds, queryEntities, k-len(seeds), opts)
		if err != nil {
			u.logger.Warn("graph expansion failed, keeping seed results",
				"query", query, "error", err)
			resp.Diagnostics = append(resp.Diagnostics, "graph expansion unavailable")
		} else {
			results = append(results, expanded...)
			resp.GraphExpansionCount = len(expanded)
		}
	}

	sortResults(results)
	if len(results) > k {
		results = results[:k]
	}

	resp.Results = results
	resp.ExecutionTime = time.Since(start)
	return resp, nil
}

// extractQueryEntities matches known entities against the query text:
// canonical values appearing as substrings of the lowercased query, plus
// entities whose value starts with a query token for the prefix-eligible
// types. The result is deduplicated and sorted for determinism.
func (u *UnifiedSearcher) extractQueryEntities(ctx context.Context, query string) ([]types.Entity, string) {
	lowered := strings.ToLower(query)
	seen := make(map[string]types.Entity)

	all, err := u.entities.All(ctx)
	if err != nil {
		return nil, "entity index unavailable, no query entities"
	}
	for _, e := range all {
		if e.Value != "" && strings.Contains(lowered, e.Value) {
			seen[e.Key()] = e
		}
	}

	for _, token := range strings.Fields(lowered) {
		token = entityindex.Normalize("", token)
		if len(token) < minPrefixLen {
			continue
		}
		for _, et := range prefixTypes {
			matches, err := u.entities.LookupLike(ctx, et, token)
			if err != nil {
				continue
			}
			for _, e := range matches {
				seen[e.Key()] = e
			}
		}
	}

	entities := make([]types.Entity, 0, len(seen))
	for _, e := range seen {
		entities = append(entities, e)
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].Key() < entities[j].Key() })
	return entities, ""
}

// enrichSeeds computes a graph score for each seed from its entity
// neighborhood. The fan-out runs on a bounded worker pool; scores are
// attached by index so ordering never depends on completion order.
func (u *UnifiedSearcher) enrichSeeds(ctx context.Context, seeds []*types.SearchResult, queryEntities []types.Entity) error {
	if len(seeds) == 0 {
		return nil
	}

	querySet := make(map[string]struct{}, len(queryEntities))
	for _, e := range queryEntities {
		querySet[e.Key()] = struct{}{}
	}

	scores := make([]float64, len(seeds))

	functions := make([]func() error, len(seeds))
	for i, seed := range seeds {
		i, itemID := i, seed.Item.ID
		functions[i] = func() error {
			connections, err := u.graph.EntityNeighborhood(ctx, itemID)
			if err != nil {
				return err
			}
			scores[i] = graphScore(connections, querySet, len(queryEntities))
			return nil
		}
	}
	for _, err := range u.executor.Execute(ctx, functions...) {
		if err != nil {
			return err
		}
	}

	for i, seed := range seeds {
		seed.GraphScore = scores[i]
		seed.CombinedScore = types.CombineScores(seed.SimilarityOrZero(), scores[i])
	}
	return nil
}

// graphScore folds a seed's entity connections into one [0,1] signal.
// Direct query-entity hits outweigh second-order hits, and a small
// density term lifts well-connected items without letting density alone
// beat a direct match.
func graphScore(connections []graph.EntityConnection, querySet map[string]struct{}, queryCount int) float64 {
	var sum float64
	for _, conn := range connections {
		if _, ok := querySet[conn.Entity.Key()]; ok {
			sum += directMatchBonus
		}
		for _, related := range conn.CoOccurring {
			if _, ok := querySet[related.Key()]; ok {
				sum += relatedMatchBonus
			}
		}
		sum += densityBonus * float64(len(conn.ConnectedItemIDs))
	}

	divisor := queryCount
	if divisor < 1 {
		divisor = 1
	}
	score := sum / float64(divisor)
	if score > 1 {
		score = 1
	}
	return score
}

// expandByEntities pulls items adjacent to query entities that vector
// search missed. Expansion results carry the fixed graph-discovery score
// and name the entity that produced them. Depths beyond 1 continue the
// walk from each directly connected item through shared entities.
func (u *UnifiedSearcher) expandByEntities(ctx context.Context, seeds []*types.SearchResult, queryEntities []types.Entity, budget int, opts UnifiedOptions) ([]*types.SearchResult, error) {
	seen := make(map[string]struct{}, len(seeds))
	for _, seed := range seeds {
		seen[seed.Item.ID] = struct{}{}
	}

	var expanded []*types.SearchResult
	add := func(id string, entity types.Entity) (bool, error) {
		if _, dup := seen[id]; dup {
			return false, nil
		}
		item, err := u.items.Get(ctx, id)
		if err != nil {
			if errors.Is(err, types.ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		if !matchesFilter(item, opts) {
			return false, nil
		}
		seen[id] = struct{}{}
		expanded = append(expanded, &types.SearchResult{
			Item:            item,
			GraphScore:      types.ExpansionScore,
			CombinedScore:   types.ExpansionScore,
			Source:          types.SourceGraphExpansion,
			ExpansionReason: fmt.Sprintf("connected via %s", entity.Key()),
		})
		budget--
		return true, nil
	}

	depth := opts.depth()
	for _, entity := range queryEntities {
		if budget <= 0 {
			break
		}
		ids, err := u.graph.ItemsForEntity(ctx, entity, budget+len(seen))
		if err != nil {
			return nil, err
		}
		var direct []string
		for _, id := range ids {
			if budget <= 0 {
				break
			}
			added, err := add(id, entity)
			if err != nil {
				return nil, err
			}
			if added {
				direct = append(direct, id)
			}
		}
		if depth < 2 {
			continue
		}
		for _, id := range direct {
			if budget <= 0 {
				break
			}
			neighbors, err := u.graph.Neighbors(ctx, id, depth-1)
			if err != nil {
				return nil, err
			}
			for _, n := range neighbors {
				if budget <= 0 {
					break
				}
				if _, err := add(n.ItemID, entity); err != nil {
					return nil, err
				}
			}
		}
	}
	return expanded, nil
}

func matchesFilter(item *types.Item, opts UnifiedOptions) bool {
	if opts.Kind != "" && item.Kind != opts.Kind {
		return false
	}
	if opts.Year != 0 && item.Year != opts.Year {
		return false
	}
	return true
}

// sortResults orders by descending combined score, breaking ties by item
// ID so repeated searches return identical sequences.
func sortResults(results []*types.SearchResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].CombinedScore != results[j].CombinedScore {
			return results[i].CombinedScore > results[j].CombinedScore
		}
		return results[i].Item.ID < results[j].Item.ID
	})
}
