// Package playasearch provides hybrid search over Burning Man camps, art
// installations, events and practical guides. It blends vector similarity
// against a pgvector-backed item store with connectivity signals from a
// knowledge graph of extracted entities, and expands result sets through
// entity co-occurrence.
//
// # Basic Usage
//
// Build a client from configuration and search:
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	client, err := playasearch.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close(ctx)
//
//	resp, err := client.Search(ctx, "fire dancing", 10, search.UnifiedOptions{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, r := range resp.Results {
//		fmt.Printf("%s  %.3f\n", r.Item.Name, r.CombinedScore)
//	}
//
// # Scoring
//
// Seed results rank by a 70/30 blend of cosine similarity and graph score.
// Items pulled in by graph expansion carry a flat discovery score and an
// explanation of the entity that connected them. Graph failures degrade to
// similarity-only ranking and are reported in the response diagnostics;
// only an embedding dimensionality mismatch is a hard error.
//
// # Architecture
//
//   - pkg/itemstore: relational item store with pgvector similarity
//   - pkg/entityindex: entity-to-item mapping
//   - pkg/graph: Neo4j and in-memory knowledge graph projections
//   - pkg/search: vector and unified searchers
//   - pkg/extract: LLM-backed entity extraction pipeline
//   - pkg/embedder, pkg/nlp: OpenAI-compatible model clients
//
// In-memory store implementations back every external dependency, so the
// full pipeline runs without Postgres, Neo4j or an API key.
package playasearch
