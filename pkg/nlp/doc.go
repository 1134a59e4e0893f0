// Package nlp provides the language model client used for entity
// extraction.
//
// The Client interface covers plain chat and JSON-constrained chat
// against OpenAI or any OpenAI-compatible API (Ollama, vLLM, etc.).
//
// # Client Wrappers
//
// Two wrappers add fault tolerance:
//   - RetryClient: automatic retry with exponential backoff
//   - CircuitBreakerClient: stops calling a provider that keeps failing
//
// # Usage
//
//	client, err := nlp.NewOpenAIClient(apiKey, config)
//	retryClient := nlp.NewRetryClient(client, nlp.DefaultRetryConfig(), logger)
//	response, err := retryClient.ChatJSON(ctx, messages)
//
// Rate limit errors support errors.Is() for type checking.
package nlp
