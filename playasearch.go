package playasearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/blackrocklabs/playasearch/pkg/alert"
	"github.com/blackrocklabs/playasearch/pkg/cache"
	"github.com/blackrocklabs/playasearch/pkg/config"
	"github.com/blackrocklabs/playasearch/pkg/embedder"
	"github.com/blackrocklabs/playasearch/pkg/entityindex"
	"github.com/blackrocklabs/playasearch/pkg/extract"
	"github.com/blackrocklabs/playasearch/pkg/graph"
	"github.com/blackrocklabs/playasearch/pkg/itemstore"
	"github.com/blackrocklabs/playasearch/pkg/nlp"
	"github.com/blackrocklabs/playasearch/pkg/search"
	"github.com/blackrocklabs/playasearch/pkg/telemetry"
	"github.com/blackrocklabs/playasearch/pkg/types"
)

// ErrGraphNotConfigured is returned by graph-only operations when the
// client was built without a graph store.
var ErrGraphNotConfigured = errors.New("graph store not configured")

// ErrNLPNotConfigured is returned by extraction operations when the client
// was built without an extraction model.
var ErrNLPNotConfigured = errors.New("extraction model not configured")

// options collects dependency overrides applied by Option values. Anything
// left nil is built from the configuration.
type options struct {
	logger   *slog.Logger
	embedder embedder.Client
	nlp      nlp.Client
	items    itemstore.Store
	entities entityindex.Index
	graph    graph.Store
	graphSet bool
}

// Option overrides one of the client's constructed dependencies. Used by
// tests and by callers that manage their own stores.
type Option func(*options)

// WithLogger replaces the telemetry-backed logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithEmbedder replaces the embedding provider.
func WithEmbedder(c embedder.Client) Option {
	return func(o *options) { o.embedder = c }
}

// WithNLPClient replaces the extraction model client.
func WithNLPClient(c nlp.Client) Option {
	return func(o *options) { o.nlp = c }
}

// WithItemStore replaces the item store.
func WithItemStore(s itemstore.Store) Option {
	return func(o *options) { o.items = s }
}

// WithEntityIndex replaces the entity index.
func WithEntityIndex(ix entityindex.Index) Option {
	return func(o *options) { o.entities = ix }
}

// WithGraphStore replaces the graph store. Passing nil explicitly disables
// graph features; searches then run similarity-only.
func WithGraphStore(g graph.Store) Option {
	return func(o *options) {
		o.graph = g
		o.graphSet = true
	}
}

// Client is the top-level entry point. It wires the embedding provider,
// item store, entity index and graph store into the unified searcher and
// the extraction pipeline, per the loaded configuration.
type Client struct {
	cfg    *config.Config
	logger *slog.Logger

	embedder embedder.Client
	nlp      nlp.Client
	items    itemstore.Store
	entities entityindex.Index
	graph    graph.Store

	vector    *search.VectorSearcher
	unified   *search.UnifiedSearcher
	cache     *cache.CachingSearcher
	searcher  cache.Searcher
	extractor *extract.Pipeline
}

// New builds a client from cfg, constructing every dependency that no
// Option overrides. A nil cfg loads configuration from file and
// environment.
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("loading configuration: %w", err)
		}
		cfg = loaded
	}

	logger := o.logger
	if logger == nil {
		l, err := telemetry.NewLogger(cfg.Log, cfg.Telemetry)
		if err != nil {
			return nil, fmt.Errorf("building logger: %w", err)
		}
		logger = l
	}

	c := &Client{cfg: cfg, logger: logger}

	if err := c.buildStores(&o); err != nil {
		return nil, err
	}
	c.buildEmbedder(&o)
	if err := c.buildNLP(&o); err != nil {
		return nil, err
	}

	c.vector = search.NewVectorSearcher(c.embedder, c.items, logger)
	c.unified = search.NewUnifiedSearcher(c.vector, c.items, c.entities, c.graph, logger)
	c.searcher = c.unified

	if cfg.Cache.Enabled {
		cached, err := cache.NewCachingSearcher(c.unified, cfg.Cache, logger)
		if err != nil {
			return nil, fmt.Errorf("building query cache: %w", err)
		}
		c.cache = cached
		c.searcher = cached
	}

	if c.nlp != nil {
		c.extractor = extract.NewPipeline(c.nlp, c.entities, c.graph, 0, logger)
	}

	return c, nil
}

func (c *Client) buildStores(o *options) error {
	c.items = o.items
	c.entities = o.entities

	if c.items == nil {
		if c.cfg.Database.URL != "" {
			storeCfg := itemstore.DefaultPostgresConfig()
			queryTimeout := time.Duration(c.cfg.Database.QueryTimeoutSeconds) * time.Second
			if queryTimeout > 0 {
				storeCfg.QueryTimeout = queryTimeout
			}
			store, err := itemstore.NewPostgresStore(c.cfg.Database.URL, c.cfg.Database.Dimensions, storeCfg)
			if err != nil {
				return fmt.Errorf("connecting to item store: %w", err)
			}
			c.items = store
			if c.entities == nil {
				c.entities = entityindex.NewPostgresIndex(store.DB(), queryTimeout)
			}
		} else {
			c.items = itemstore.NewMemoryStore()
		}
	}
	if c.entities == nil {
		c.entities = entityindex.NewMemoryIndex()
	}

	if o.graphSet {
		c.graph = o.graph
		return nil
	}
	if c.cfg.Graph.URI == "" {
		return nil
	}
	timeout := time.Duration(c.cfg.Graph.TimeoutSeconds) * time.Second
	g, err := graph.NewNeo4jStore(c.cfg.Graph.URI, c.cfg.Graph.Username, c.cfg.Graph.Password, c.cfg.Graph.Database, timeout)
	if err != nil {
		return fmt.Errorf("connecting to graph store: %w", err)
	}
	c.graph = g
	return nil
}

func (c *Client) buildEmbedder(o *options) {
	if o.embedder != nil {
		c.embedder = o.embedder
		return
	}
	client := embedder.NewOpenAIEmbedder(c.cfg.Embedding.APIKey, embedder.Config{
		Model:      c.cfg.Embedding.Model,
		BaseURL:    c.cfg.Embedding.BaseURL,
		Dimensions: c.cfg.Embedding.Dimensions,
		MaxTokens:  c.cfg.Embedding.MaxTokens,
	}, c.logger)
	if !c.cfg.CircuitBreaker.Enabled {
		c.embedder = client
		return
	}
	c.embedder = embedder.NewCircuitBreakerClient(client, embedderBreakerConfig(c.cfg.CircuitBreaker), c.logger)
}

func (c *Client) buildNLP(o *options) error {
	if o.nlp != nil {
		c.nlp = o.nlp
		return nil
	}
	if c.cfg.NLP.APIKey == "" && c.cfg.NLP.BaseURL == "" {
		// No extraction model. Search still works; extraction errors out.
		return nil
	}

	temperature := c.cfg.NLP.Temperature
	maxTokens := c.cfg.NLP.MaxTokens
	base, err := nlp.NewOpenAIClient(c.cfg.NLP.APIKey, nlp.Config{
		Model:       c.cfg.NLP.Model,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		BaseURL:     c.cfg.NLP.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("building extraction client: %w", err)
	}

	var client nlp.Client = nlp.NewRetryClient(base, nil, c.logger)
	if c.cfg.CircuitBreaker.Enabled {
		alerter := c.alerter()
		client = nlp.NewCircuitBreakerClient(client, c.cfg.CircuitBreaker, alerter, "extraction", c.logger)
	}
	c.nlp = client
	return nil
}

func (c *Client) alerter() alert.Alerter {
	if c.cfg.Alert.Enabled {
		return alert.NewEmailAlerter(c.cfg.Alert)
	}
	return &alert.NoOpAlerter{}
}

func embedderBreakerConfig(cfg config.CircuitBreakerConfig) embedder.CircuitBreakerConfig {
	out := embedder.DefaultCircuitBreakerConfig()
	if cfg.MaxRequests > 0 {
		out.MaxRequests = cfg.MaxRequests
	}
	if cfg.Interval > 0 {
		out.Interval = time.Duration(cfg.Interval) * time.Second
	}
	if cfg.Timeout > 0 {
		out.Timeout = time.Duration(cfg.Timeout) * time.Second
	}
	if cfg.ReadyToTripRatio > 0 {
		out.ReadyToTripRatio = cfg.ReadyToTripRatio
	}
	return out
}

// Initialize creates the backing schemas: the items table and pgvector
// extension, the entity index tables, and the graph constraints. Safe to
// call repeatedly.
func (c *Client) Initialize(ctx context.Context) error {
	type initializer interface {
		Initialize(ctx context.Context) error
	}
	if init, ok := c.items.(initializer); ok {
		if err := init.Initialize(ctx); err != nil {
			return fmt.Errorf("initializing item store: %w", err)
		}
	}
	if init, ok := c.entities.(initializer); ok {
		if err := init.Initialize(ctx); err != nil {
			return fmt.Errorf("initializing entity index: %w", err)
		}
	}
	type indexCreator interface {
		CreateIndices(ctx context.Context) error
	}
	if c.graph != nil {
		if creator, ok := c.graph.(indexCreator); ok {
			if err := creator.CreateIndices(ctx); err != nil {
				return fmt.Errorf("initializing graph store: %w", err)
			}
		}
	}
	return nil
}

// Search runs the unified hybrid search: vector similarity blended with
// graph connectivity, plus graph expansion of entity-connected items.
// Zero-valued tuning options take the configured defaults. Results come
// from the query cache when one is configured.
func (c *Client) Search(ctx context.Context, query string, k int, opts search.UnifiedOptions) (*types.SearchResponse, error) {
	if opts.DistanceThreshold == 0 {
		opts.DistanceThreshold = c.cfg.Search.DistanceThreshold
	}
	if opts.GraphDepth == 0 {
		opts.GraphDepth = c.cfg.Search.GraphDepth
	}
	return c.searcher.Search(ctx, query, k, opts)
}

// VectorSearch runs similarity-only search with no graph signals. A zero
// distance threshold takes the configured default.
func (c *Client) VectorSearch(ctx context.Context, query string, k int, opts search.Options) ([]*types.SearchResult, error) {
	if opts.DistanceThreshold == 0 {
		opts.DistanceThreshold = c.cfg.Search.DistanceThreshold
	}
	return c.vector.Search(ctx, query, k, opts)
}

// BridgeEntities returns the top k entities connecting two thematic pools,
// ordered by descending bridge power.
func (c *Client) BridgeEntities(ctx context.Context, poolA, poolB types.EntityType, k int) ([]graph.BridgeEntity, error) {
	if c.graph == nil {
		return nil, ErrGraphNotConfigured
	}
	return c.graph.BridgeEntities(ctx, poolA, poolB, k)
}

// UpsertItem validates and stores an item. When the item carries no
// embedding and an embedding provider is configured, one is generated from
// the item's searchable text first; provider failures leave the item
// keyword-searchable only.
func (c *Client) UpsertItem(ctx context.Context, item *types.Item) error {
	if item == nil {
		return fmt.Errorf("item is required")
	}
	if err := item.Validate(); err != nil {
		return err
	}

	if len(item.Embedding) == 0 && c.embedder != nil {
		text := strings.TrimSpace(item.Searchable())
		if text != "" {
			vec, err := c.embedder.Embed(ctx, text)
			if err != nil {
				c.logger.Warn("embedding failed, storing item without vector",
					"item_id", item.ID, "error", err)
			} else {
				item.Embedding = vec
			}
		}
	}

	return c.items.Upsert(ctx, item)
}

// ExtractEntities runs the extraction pipeline over the given items with
// the given strategy, writing results to the entity index and the graph.
func (c *Client) ExtractEntities(ctx context.Context, items []*types.Item, strategy extract.Strategy) (extract.Stats, error) {
	if c.extractor == nil {
		return extract.Stats{}, ErrNLPNotConfigured
	}
	return c.extractor.Run(ctx, items, strategy)
}

// ResetGraph drops the graph projection so it can be rebuilt from the
// entity index.
func (c *Client) ResetGraph(ctx context.Context) error {
	if c.graph == nil {
		return ErrGraphNotConfigured
	}
	return c.graph.Reset(ctx)
}

// Items exposes the item store for bulk loading.
func (c *Client) Items() itemstore.Store {
	return c.items
}

// Entities exposes the entity index.
func (c *Client) Entities() entityindex.Index {
	return c.entities
}

// Graph exposes the graph store, nil when not configured.
func (c *Client) Graph() graph.Store {
	return c.graph
}

// Close releases every resource the client owns.
func (c *Client) Close(ctx context.Context) error {
	var errs []error
	if c.cache != nil {
		errs = append(errs, c.cache.Close())
	}
	if c.nlp != nil {
		errs = append(errs, c.nlp.Close())
	}
	if c.embedder != nil {
		errs = append(errs, c.embedder.Close())
	}
	if c.graph != nil {
		errs = append(errs, c.graph.Close(ctx))
	}
	errs = append(errs, c.entities.Close(), c.items.Close())
	return errors.Join(errs...)
}
