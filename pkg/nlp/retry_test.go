package nlp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient is a mock LLM client for testing
type mockClient struct {
	callCount     int
	failUntilCall int
	errorToReturn error
}

func (m *mockClient) Chat(ctx context.Context, messages []Message) (*Response, error) {
	m.callCount++
	if m.callCount <= m.failUntilCall {
		return nil, m.errorToReturn
	}
	return &Response{Content: "success"}, nil
}

func (m *mockClient) ChatJSON(ctx context.Context, messages []Message) (*Response, error) {
	m.callCount++
	if m.callCount <= m.failUntilCall {
		return nil, m.errorToReturn
	}
	return &Response{Content: `{"status": "success"}`}, nil
}

func (m *mockClient) Close() error {
	return nil
}

func fastRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        3,
		InitialDelay:      time.Millisecond,
		MaxDelay:          10 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func TestRetryClientSuccessOnFirstAttempt(t *testing.T) {
	mock := &mockClient{}
	retryClient := NewRetryClient(mock, fastRetryConfig(), nil)

	resp, err := retryClient.Chat(context.Background(), []Message{{Role: RoleUser, Content: "test"}})
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Content)
	assert.Equal(t, 1, mock.callCount)
}

func TestRetryClientSuccessAfterRetries(t *testing.T) {
	mock := &mockClient{
		failUntilCall: 2,
		errorToReturn: errors.New("500 internal server error"),
	}
	retryClient := NewRetryClient(mock, fastRetryConfig(), nil)

	resp, err := retryClient.Chat(context.Background(), []Message{{Role: RoleUser, Content: "test"}})
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Content)
	assert.Equal(t, 3, mock.callCount)
}

func TestRetryClientNonRetryableError(t *testing.T) {
	mock := &mockClient{
		failUntilCall: 10,
		errorToReturn: errors.New("invalid api key"),
	}
	retryClient := NewRetryClient(mock, fastRetryConfig(), nil)

	_, err := retryClient.Chat(context.Background(), []Message{{Role: RoleUser, Content: "test"}})
	require.Error(t, err)
	assert.Equal(t, 1, mock.callCount)
}

func TestRetryClientExhaustsRetries(t *testing.T) {
	mock := &mockClient{
		failUntilCall: 10,
		errorToReturn: NewRateLimitError(),
	}
	retryClient := NewRetryClient(mock, fastRetryConfig(), nil)

	_, err := retryClient.Chat(context.Background(), []Message{{Role: RoleUser, Content: "test"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 retries")
	assert.Equal(t, 4, mock.callCount)
}

func TestRetryClientContextCancelled(t *testing.T) {
	mock := &mockClient{
		failUntilCall: 10,
		errorToReturn: errors.New("503 service unavailable"),
	}
	retryClient := NewRetryClient(mock, &RetryConfig{
		MaxRetries:        3,
		InitialDelay:      time.Second,
		MaxDelay:          time.Second,
		BackoffMultiplier: 2.0,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := retryClient.Chat(ctx, []Message{{Role: RoleUser, Content: "test"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context cancelled")
}

func TestRetryClientJSONPath(t *testing.T) {
	mock := &mockClient{
		failUntilCall: 1,
		errorToReturn: errors.New("connection reset"),
	}
	retryClient := NewRetryClient(mock, fastRetryConfig(), nil)

	resp, err := retryClient.ChatJSON(context.Background(), []Message{{Role: RoleUser, Content: "test"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status": "success"}`, resp.Content)
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"rate limit type", NewRateLimitError(), true},
		{"rate limit sentinel", ErrRateLimit, true},
		{"server error", errors.New("502 bad gateway"), true},
		{"timeout", errors.New("request timeout"), true},
		{"auth failure", errors.New("401 unauthorized"), false},
		{"bad request", errors.New("400 bad request"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, isRetryableError(tt.err))
		})
	}
}
