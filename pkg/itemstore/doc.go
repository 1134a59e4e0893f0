// Package itemstore provides the relational store of searchable items.
//
// Two implementations share one contract: PostgresStore backed by pgvector
// cosine distance, and MemoryStore with exact in-memory distance for tests
// and embedded use. Both filter candidates by kind/year before distance
// ranking and both surface mixed embedding dimensionalities as a hard
// *types.DimensionMismatchError instead of silently skipping rows.
package itemstore
