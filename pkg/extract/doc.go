// Package extract runs LLM-backed entity extraction over items. One
// pipeline handles every extraction flavor; strategies supply the prompt
// and response schema. Extracted entities are normalized and written to
// both the entity index and the knowledge graph.
package extract
