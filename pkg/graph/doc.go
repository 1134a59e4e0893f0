// Package graph maintains the item-entity knowledge graph used to blend
// structural signals into retrieval. Items link to the entities extracted
// from them, entities link to each other when they appear on the same
// item, and pool tags mark which conceptual pools an item belongs to.
//
// Two implementations are provided: MemoryStore for tests and small
// datasets, and Neo4jStore for persistent deployments. Both rank bridge
// entities with identical scoring so results do not depend on the
// backend.
package graph
