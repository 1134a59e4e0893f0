// Package embedder provides text embedding clients for vector
// representations.
//
// The Client interface wraps a hosted embedding model with a fixed output
// dimensionality. Input text is truncated to the model's token budget
// before the call; token counting uses tiktoken with a character-based
// approximation as fallback.
//
// Failure semantics: an empty input embeds to nil without error, and
// provider failures surface as errors that callers convert into
// keyword-only degradation. CircuitBreakerClient adds fail-fast behavior
// for a persistently unavailable provider.
package embedder
