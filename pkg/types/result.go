package types

import (
	"math"
	"time"
)

// ResultSource records how an item entered the result set.
type ResultSource string

const (
	// SourceSeed marks items found by vector or keyword search.
	SourceSeed ResultSource = "seed"
	// SourceGraphExpansion marks items pulled in purely through entity
	// adjacency in the graph.
	SourceGraphExpansion ResultSource = "graph_expansion"
)

// Fixed fusion weights. Semantic similarity is the primary signal, graph
// connectivity a secondary booster.
const (
	SimilarityWeight = 0.7
	GraphWeight      = 0.3

	// ExpansionScore is assigned to items found purely by graph adjacency.
	ExpansionScore = 0.8
)

// SearchResult is one ranked entry in a search response. Similarity is nil
// when the result was produced without a vector signal (keyword fallback or
// graph expansion).
type SearchResult struct {
	Item            *Item        `json:"item"`
	Similarity      *float64     `json:"similarity,omitempty"`
	GraphScore      float64      `json:"graph_score"`
	CombinedScore   float64      `json:"combined_score"`
	Source          ResultSource `json:"source"`
	ExpansionReason string       `json:"expansion_reason,omitempty"`
}

// SimilarityOrZero returns the similarity score, treating an unset
// similarity as zero for scoring purposes.
func (r *SearchResult) SimilarityOrZero() float64 {
	if r.Similarity == nil {
		return 0
	}
	return *r.Similarity
}

// CombineScores computes the fused score, rounded to three decimals so
// repeated runs compare equal.
func CombineScores(similarity, graphScore float64) float64 {
	return math.Round((SimilarityWeight*similarity+GraphWeight*graphScore)*1000) / 1000
}

// SearchResponse is the full result of a unified search, including the
// query entities that drove graph matching and execution metadata.
type SearchResponse struct {
	Results             []*SearchResult `json:"results"`
	QueryEntities       []Entity        `json:"query_entities,omitempty"`
	GraphExpansionCount int             `json:"graph_expansion_count"`
	ExecutionTime       time.Duration   `json:"execution_time"`
	// Diagnostics carries degradation notes (e.g. graph store unavailable).
	Diagnostics []string `json:"diagnostics,omitempty"`
}
