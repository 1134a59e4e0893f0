package embedder

import (
	"context"
	"time"
)

// Client defines the interface for text embedding providers.
//
// Embed returns (nil, nil) for input that is empty after trimming, so that
// callers treat "no vector" as a degradation signal rather than an error.
// Provider failures (rate limit, network) are returned as errors; callers
// are expected to fall back to keyword-only behavior.
type Client interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, preserving input
	// order 1:1. When the provider cannot guarantee order-preserving
	// results it returns an empty slice so callers fall back per-item.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the fixed output dimensionality.
	Dimensions() int

	// Close cleans up any resources.
	Close() error
}

// Config holds embedding client configuration.
type Config struct {
	Model      string        `json:"model"`
	BaseURL    string        `json:"base_url,omitempty"`
	Dimensions int           `json:"dimensions"`
	MaxTokens  int           `json:"max_tokens"`
	Timeout    time.Duration `json:"timeout"`
}

// Defaults for the observed deployment: OpenAI text-embedding-3-small,
// 1536 dimensions, 8191-token input ceiling.
const (
	DefaultModel      = "text-embedding-3-small"
	DefaultDimensions = 1536
	DefaultMaxTokens  = 8191
	DefaultTimeout    = 30 * time.Second
)

func (c *Config) applyDefaults() {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Dimensions <= 0 {
		c.Dimensions = DefaultDimensions
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}
