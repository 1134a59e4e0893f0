package embedder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sashabaranov/go-openai"
)

// tokenEncoding is the tokenizer used for input truncation. All current
// OpenAI embedding models share cl100k_base.
const tokenEncoding = "cl100k_base"

// charsPerTokenApprox is the character budget per token used when the
// tokenizer cannot be initialized.
const charsPerTokenApprox = 4

// OpenAIEmbedder implements Client for OpenAI and OpenAI-compatible
// embedding endpoints.
type OpenAIEmbedder struct {
	client   *openai.Client
	config   Config
	encoding *tiktoken.Tiktoken
	logger   *slog.Logger
}

// NewOpenAIEmbedder creates an embedding client. A custom BaseURL in the
// config routes requests to an OpenAI-compatible service.
func NewOpenAIEmbedder(apiKey string, config Config, logger *slog.Logger) *OpenAIEmbedder {
	config.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	var client *openai.Client
	if config.BaseURL != "" {
		clientConfig := openai.DefaultConfig(apiKey)
		clientConfig.BaseURL = config.BaseURL
		client = openai.NewClientWithConfig(clientConfig)
	} else {
		client = openai.NewClient(apiKey)
	}

	encoding, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		// Fall back to character-based truncation.
		logger.Warn("tokenizer init failed, using character approximation",
			"encoding", tokenEncoding, "error", err)
		encoding = nil
	}

	return &OpenAIEmbedder{
		client:   client,
		config:   config,
		encoding: encoding,
		logger:   logger,
	}
}

// Embed generates an embedding for a single text. Empty input yields
// (nil, nil): no vector signal, not an error.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, nil
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts. The OpenAI API
// returns one vector per input with an index; results are reordered by
// index so output order matches input order. If the response count does
// not match the input count, an empty slice is returned so callers fall
// back per-item.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	truncated := make([]string, len(texts))
	for i, t := range texts {
		truncated[i] = e.truncate(t)
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: truncated,
		Model: openai.EmbeddingModel(e.config.Model),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}

	if len(resp.Data) != len(texts) {
		e.logger.Warn("embedding count mismatch, discarding batch",
			"want", len(texts), "got", len(resp.Data))
		return [][]float32{}, nil
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return [][]float32{}, nil
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// truncate trims text to the model's token budget, counting tokens when
// the tokenizer is available and approximating by characters otherwise.
func (e *OpenAIEmbedder) truncate(text string) string {
	if e.encoding == nil {
		limit := e.config.MaxTokens * charsPerTokenApprox
		if len(text) <= limit {
			return text
		}
		return text[:limit]
	}

	tokens := e.encoding.Encode(text, nil, nil)
	if len(tokens) <= e.config.MaxTokens {
		return text
	}
	return e.encoding.Decode(tokens[:e.config.MaxTokens])
}

// Dimensions returns the configured embedding dimensionality.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.config.Dimensions
}

// Close cleans up any resources.
func (e *OpenAIEmbedder) Close() error {
	return nil
}

var _ Client = (*OpenAIEmbedder)(nil)
