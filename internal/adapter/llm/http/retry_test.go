package http_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmhttp "github.com/bkyoung/pr-summarizer/internal/adapter/llm/http"
)

func testRetryConfig() llmhttp.RetryConfig {
	return llmhttp.RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	config := llmhttp.DefaultRetryConfig()

	assert.Equal(t, 3, config.MaxRetries)
	assert.Equal(t, 1*time.Second, config.InitialBackoff)
	assert.Equal(t, 30*time.Second, config.MaxBackoff)
	assert.Equal(t, 2.0, config.Multiplier)
}

func TestExponentialBackoff(t *testing.T) {
	config := llmhttp.RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
	}

	tests := []struct {
		name    string
		attempt int
		minWait time.Duration
		maxWait time.Duration
	}{
		{"attempt 0", 0, 750 * time.Millisecond, 1250 * time.Millisecond}, // 1s ± 25%
		{"attempt 1", 1, 1500 * time.Millisecond, 2500 * time.Millisecond},
		{"attempt 2", 2, 3 * time.Second, 5 * time.Second},
		{"attempt 6", 6, 22500 * time.Millisecond, 30 * time.Second}, // capped at 30s
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Run multiple times to exercise jitter
			for i := 0; i < 10; i++ {
				backoff := llmhttp.ExponentialBackoff(tt.attempt, config)
				assert.GreaterOrEqual(t, backoff, tt.minWait, "backoff too short")
				assert.LessOrEqual(t, backoff, tt.maxWait, "backoff too long")
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limit should retry", llmhttp.NewRateLimitError("openai", "too many requests"), true},
		{"service unavailable should retry", llmhttp.NewServiceUnavailableError("anthropic", "overloaded"), true},
		{"timeout should retry", llmhttp.NewTimeoutError("gemini", "timed out"), true},
		{"authentication should not retry", llmhttp.NewAuthenticationError("openai", "invalid key"), false},
		{"invalid request should not retry", llmhttp.NewInvalidRequestError("openai", "bad request"), false},
		{"model not found should not retry", llmhttp.NewModelNotFoundError("gemini", "model not found"), false},
		{"content filtered should not retry", llmhttp.NewContentFilteredError("gemini", "blocked"), false},
		{"generic error should not retry", errors.New("generic error"), false},
		{"nil error should not retry", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, llmhttp.ShouldRetry(tt.err))
		})
	}
}

func TestRetryWithBackoff_SucceedsAfterRetries(t *testing.T) {
	attempts := 0
	operation := func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return llmhttp.NewRateLimitError("openai", "slow down")
		}
		return nil
	}

	err := llmhttp.RetryWithBackoff(context.Background(), operation, testRetryConfig())
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoff_NonRetryableFailsImmediately(t *testing.T) {
	attempts := 0
	operation := func(ctx context.Context) error {
		attempts++
		return llmhttp.NewAuthenticationError("openai", "bad key")
	}

	err := llmhttp.RetryWithBackoff(context.Background(), operation, testRetryConfig())
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithBackoff_ExhaustsRetries(t *testing.T) {
	attempts := 0
	wantErr := llmhttp.NewServiceUnavailableError("anthropic", "down")
	operation := func(ctx context.Context) error {
		attempts++
		return wantErr
	}

	err := llmhttp.RetryWithBackoff(context.Background(), operation, testRetryConfig())
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 4, attempts, "initial attempt plus MaxRetries")
}

func TestRetryWithBackoff_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	operation := func(ctx context.Context) error {
		attempts++
		cancel()
		return llmhttp.NewRateLimitError("openai", "slow down")
	}

	err := llmhttp.RetryWithBackoff(ctx, operation, testRetryConfig())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts, "no retry after cancellation")
}

func TestRetryWithBackoff_CancelledBeforeFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := llmhttp.RetryWithBackoff(ctx, func(ctx context.Context) error {
		attempts++
		return nil
	}, testRetryConfig())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, attempts)
}
