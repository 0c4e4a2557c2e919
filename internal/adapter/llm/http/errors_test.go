package http_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	llmhttp "github.com/bkyoung/pr-summarizer/internal/adapter/llm/http"
)

func TestError_Error(t *testing.T) {
	err := &llmhttp.Error{
		Type:       llmhttp.ErrTypeAuthentication,
		Message:    "invalid API key",
		StatusCode: 401,
		Provider:   "openai",
	}

	expected := "openai: authentication error: invalid API key (status: 401)"
	assert.Equal(t, expected, err.Error())
}

func TestError_Is(t *testing.T) {
	err1 := &llmhttp.Error{Type: llmhttp.ErrTypeRateLimit, Message: "rate limited"}
	err2 := &llmhttp.Error{Type: llmhttp.ErrTypeRateLimit, Message: "different message"}
	err3 := &llmhttp.Error{Type: llmhttp.ErrTypeAuthentication, Message: "auth failed"}

	// Same type should match
	assert.True(t, errors.Is(err1, err2))

	// Different type should not match
	assert.False(t, errors.Is(err1, err3))
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *llmhttp.Error
		wantType   llmhttp.ErrorType
		wantStatus int
		retryable  bool
	}{
		{"authentication", llmhttp.NewAuthenticationError("openai", "m"), llmhttp.ErrTypeAuthentication, 401, false},
		{"rate limit", llmhttp.NewRateLimitError("anthropic", "m"), llmhttp.ErrTypeRateLimit, 429, true},
		{"service unavailable", llmhttp.NewServiceUnavailableError("gemini", "m"), llmhttp.ErrTypeServiceUnavailable, 503, true},
		{"invalid request", llmhttp.NewInvalidRequestError("openai", "m"), llmhttp.ErrTypeInvalidRequest, 400, false},
		{"timeout", llmhttp.NewTimeoutError("openai", "m"), llmhttp.ErrTypeTimeout, 0, true},
		{"model not found", llmhttp.NewModelNotFoundError("gemini", "m"), llmhttp.ErrTypeModelNotFound, 404, false},
		{"content filtered", llmhttp.NewContentFilteredError("gemini", "m"), llmhttp.ErrTypeContentFiltered, 400, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
			assert.Equal(t, tt.retryable, tt.err.IsRetryable())
		})
	}
}

func TestErrorTypeString(t *testing.T) {
	assert.Equal(t, "rate limit exceeded", llmhttp.ErrTypeRateLimit.String())
	assert.Equal(t, "model not found", llmhttp.ErrTypeModelNotFound.String())
	assert.Equal(t, "unknown error", llmhttp.ErrTypeUnknown.String())
}
