// Package cache provides a TTL-bound Badger cache that decorates the unified
// searcher. Repeated queries with the same shape are served from disk without
// touching the embedding provider or the graph.
package cache
