// Package types defines the core data model shared across the retrieval
// pipeline: items, extracted entities, pools, search results, and the
// error taxonomy.
//
// Items are typed content records (camps, art, events, ...) with an
// optional dense embedding. Entities are (type, canonical value) pairs
// extracted from item text; seven "pool" entity types form a cross-cutting
// thematic taxonomy on top of the structural ones.
//
// Scoring constants live here so the search and graph packages agree on
// the fusion policy: combined = 0.7*similarity + 0.3*graph, rounded to
// three decimals.
package types
