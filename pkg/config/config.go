package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Database configuration (relational store with vector support)
	Database DatabaseConfig `mapstructure:"database"`

	// Graph configuration (Neo4j)
	Graph GraphConfig `mapstructure:"graph"`

	// Embedding configuration
	Embedding EmbeddingConfig `mapstructure:"embedding"`

	// NLP configuration (entity extraction model)
	NLP NLPConfig `mapstructure:"nlp"`

	// Search configuration
	Search SearchConfig `mapstructure:"search"`

	// Cache configuration
	Cache CacheConfig `mapstructure:"cache"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// Alert configuration
	Alert AlertConfig `mapstructure:"alert"`

	// CircuitBreaker configuration
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig holds the relational store configuration
type DatabaseConfig struct {
	URL        string `mapstructure:"url"`
	Dimensions int    `mapstructure:"dimensions"`
	// QueryTimeoutSeconds bounds every item store and entity index query.
	QueryTimeoutSeconds int `mapstructure:"query_timeout_seconds"`
}

// GraphConfig holds the graph store configuration
type GraphConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	// TimeoutSeconds bounds every graph query.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// EmbeddingConfig holds embedding configuration
type EmbeddingConfig struct {
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Dimensions int    `mapstructure:"dimensions"`
	MaxTokens  int    `mapstructure:"max_tokens"`
}

// NLPConfig holds the extraction model configuration
type NLPConfig struct {
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// SearchConfig holds search tuning parameters
type SearchConfig struct {
	DistanceThreshold float64 `mapstructure:"distance_threshold"`
	GraphDepth        int     `mapstructure:"graph_depth"`
}

// CacheConfig holds the query cache configuration
type CacheConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	ParquetPath string `mapstructure:"parquet_path"`
	DbURL       string `mapstructure:"db_url"`
}

// AlertConfig holds configuration for alerting
type AlertConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	SMTPHost string   `mapstructure:"smtp_host"`
	SMTPPort int      `mapstructure:"smtp_port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

// CircuitBreakerConfig holds configuration for circuit breaking
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// Database defaults
	viper.SetDefault("database.url", "postgres://localhost:5432/playasearch?sslmode=disable")
	viper.SetDefault("database.dimensions", 1536)
	viper.SetDefault("database.query_timeout_seconds", 10)

	// Graph defaults
	viper.SetDefault("graph.uri", "neo4j://localhost:7687")
	viper.SetDefault("graph.username", "neo4j")
	viper.SetDefault("graph.database", "neo4j")
	viper.SetDefault("graph.timeout_seconds", 10)

	// Embedding defaults
	viper.SetDefault("embedding.model", "text-embedding-3-small")
	viper.SetDefault("embedding.dimensions", 1536)
	viper.SetDefault("embedding.max_tokens", 8191)

	// NLP defaults
	viper.SetDefault("nlp.model", "gpt-4o-mini")
	viper.SetDefault("nlp.temperature", 0.0)
	viper.SetDefault("nlp.max_tokens", 2048)

	// Search defaults
	viper.SetDefault("search.distance_threshold", 0.7)
	viper.SetDefault("search.graph_depth", 1)

	// Cache defaults
	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.ttl_seconds", 300)

	// Circuit breaker defaults
	viper.SetDefault("circuit_breaker.enabled", true)
	viper.SetDefault("circuit_breaker.max_requests", 1)
	viper.SetDefault("circuit_breaker.interval", 60)
	viper.SetDefault("circuit_breaker.timeout", 30)
	viper.SetDefault("circuit_breaker.ready_to_trip_ratio", 0.6)

	home, err := os.UserHomeDir()
	if err == nil {
		viper.SetDefault("telemetry.parquet_path", fmt.Sprintf("%s/.playasearch/telemetry", home))
		viper.SetDefault("cache.path", fmt.Sprintf("%s/.playasearch/cache", home))
	}
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		if config.Embedding.APIKey == "" {
			config.Embedding.APIKey = apiKey
		}
		if config.NLP.APIKey == "" {
			config.NLP.APIKey = apiKey
		}
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		config.Database.URL = url
	}

	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		config.Graph.URI = uri
	}
	if user := os.Getenv("NEO4J_USER"); user != "" {
		config.Graph.Username = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		config.Graph.Password = pass
	}

	if path := os.Getenv("TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
	if path := os.Getenv("CACHE_PATH"); path != "" {
		config.Cache.Path = path
	}
}
