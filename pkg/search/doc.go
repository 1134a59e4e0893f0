// Package search implements the retrieval pipeline: vector similarity
// seeding with keyword fallback, and the unified search that enriches
// seeds with knowledge-graph signals and expands results through entity
// adjacency.
//
// Scoring is deliberately simple and fixed. Similarity contributes 70%
// of the combined score and graph connectivity 30%; items discovered
// purely through the graph carry a flat discovery score. All orderings
// break ties by item ID so a given query over fixed data always returns
// the same sequence.
package search
