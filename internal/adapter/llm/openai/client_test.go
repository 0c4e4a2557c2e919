package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmhttp "github.com/bkyoung/pr-summarizer/internal/adapter/llm/http"
	"github.com/bkyoung/pr-summarizer/internal/adapter/llm/openai"
)

func TestCompleteSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))

		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o", req.Model)
		assert.Equal(t, 0.2, req.Temperature)
		assert.Equal(t, 150, req.MaxTokens)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "summarize this", req.Messages[1].Content)

		resp := openai.ChatCompletionResponse{
			ID:    "chatcmpl-123",
			Model: "gpt-4o",
			Choices: []openai.Choice{
				{Message: openai.Message{Role: "assistant", Content: "A concise summary."}, FinishReason: "stop"},
			},
			Usage: openai.Usage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client := openai.NewHTTPClient("test-api-key")
	client.SetBaseURL(server.URL)

	resp, err := client.Complete(context.Background(), openai.Request{
		Model:       "gpt-4o",
		Prompt:      "summarize this",
		MaxTokens:   150,
		Temperature: 0.2,
	})
	require.NoError(t, err)

	assert.Equal(t, "A concise summary.", resp.Text)
	assert.Equal(t, "gpt-4o", resp.Model)
	assert.Equal(t, 100, resp.TokensIn)
	assert.Equal(t, 20, resp.TokensOut)
	assert.Equal(t, "stop", resp.FinishReason)
}

func TestCompleteReasoningModelUsesCompletionTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 150, req.MaxCompletionTokens)
		assert.Zero(t, req.MaxTokens)
		assert.Zero(t, req.Temperature)

		resp := openai.ChatCompletionResponse{
			Model:   "o3-mini",
			Choices: []openai.Choice{{Message: openai.Message{Content: "ok"}, FinishReason: "stop"}},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client := openai.NewHTTPClient("key")
	client.SetBaseURL(server.URL)

	_, err := client.Complete(context.Background(), openai.Request{
		Model: "o3-mini", Prompt: "p", MaxTokens: 150, Temperature: 0.2,
	})
	require.NoError(t, err)
}

func TestCompleteErrorMapping(t *testing.T) {
	tests := []struct {
		status    int
		wantType  llmhttp.ErrorType
		retryable bool
	}{
		{http.StatusUnauthorized, llmhttp.ErrTypeAuthentication, false},
		{http.StatusTooManyRequests, llmhttp.ErrTypeRateLimit, true},
		{http.StatusNotFound, llmhttp.ErrTypeModelNotFound, false},
		{http.StatusBadRequest, llmhttp.ErrTypeInvalidRequest, false},
		{http.StatusServiceUnavailable, llmhttp.ErrTypeServiceUnavailable, true},
	}

	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			_, _ = w.Write([]byte(`{"error": {"message": "nope"}}`))
		}))

		client := openai.NewHTTPClient("key")
		client.SetBaseURL(server.URL)

		_, err := client.Complete(context.Background(), openai.Request{Model: "gpt-4o", Prompt: "p"})
		server.Close()

		var typed *llmhttp.Error
		require.ErrorAs(t, err, &typed, "status %d", tt.status)
		assert.Equal(t, tt.wantType, typed.Type, "status %d", tt.status)
		assert.Equal(t, tt.retryable, typed.Retryable, "status %d", tt.status)
		assert.Equal(t, "nope", typed.Message)
	}
}

func TestCompleteNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(openai.ChatCompletionResponse{Model: "gpt-4o"}))
	}))
	defer server.Close()

	client := openai.NewHTTPClient("key")
	client.SetBaseURL(server.URL)

	_, err := client.Complete(context.Background(), openai.Request{Model: "gpt-4o", Prompt: "p"})
	var typed *llmhttp.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, llmhttp.ErrTypeInvalidRequest, typed.Type)
}

func TestHealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := openai.NewHTTPClient("key")
	client.SetBaseURL(server.URL)
	assert.NoError(t, client.Healthy(context.Background()))
}
