package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 1536, cfg.Database.Dimensions)
	assert.Equal(t, 10, cfg.Database.QueryTimeoutSeconds)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, "gpt-4o-mini", cfg.NLP.Model)
	assert.InDelta(t, 0.7, cfg.Search.DistanceThreshold, 1e-9)
	assert.Equal(t, 1, cfg.Search.GraphDepth)
	assert.Equal(t, "neo4j", cfg.Graph.Database)
	assert.Positive(t, cfg.Graph.TimeoutSeconds)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DATABASE_URL", "postgres://example:5432/other")
	t.Setenv("NEO4J_URI", "neo4j://example:7687")
	t.Setenv("NEO4J_PASSWORD", "hunter2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.Embedding.APIKey)
	assert.Equal(t, "sk-test", cfg.NLP.APIKey)
	assert.Equal(t, "postgres://example:5432/other", cfg.Database.URL)
	assert.Equal(t, "neo4j://example:7687", cfg.Graph.URI)
	assert.Equal(t, "hunter2", cfg.Graph.Password)
}
