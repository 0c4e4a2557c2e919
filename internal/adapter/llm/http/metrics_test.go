package http_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	llmhttp "github.com/bkyoung/pr-summarizer/internal/adapter/llm/http"
)

func TestNewDefaultMetrics(t *testing.T) {
	metrics := llmhttp.NewDefaultMetrics()

	stats := metrics.GetStats()
	assert.Equal(t, 0, stats.TotalRequests)
	assert.Equal(t, 0, stats.TotalTokensIn)
	assert.Equal(t, 0, stats.TotalTokensOut)
	assert.Equal(t, 0.0, stats.TotalCost)
	assert.Equal(t, time.Duration(0), stats.TotalDuration)
	assert.Equal(t, 0, stats.ErrorCount)
	assert.NotNil(t, stats.ByProvider)
	assert.Empty(t, stats.ByProvider)
}

func TestDefaultMetrics_RecordRequest(t *testing.T) {
	metrics := llmhttp.NewDefaultMetrics()

	metrics.RecordRequest("openai", "gpt-4o")
	metrics.RecordRequest("openai", "gpt-4o")
	metrics.RecordRequest("anthropic", "claude-3-5-sonnet-20241022")

	stats := metrics.GetStats()
	assert.Equal(t, 3, stats.TotalRequests)
	assert.Equal(t, 2, stats.ByProvider["openai"].Requests)
	assert.Equal(t, 1, stats.ByProvider["anthropic"].Requests)
}

func TestDefaultMetrics_RecordTokensAndDuration(t *testing.T) {
	metrics := llmhttp.NewDefaultMetrics()

	metrics.RecordTokens("openai", "gpt-4o", 100, 50)
	metrics.RecordTokens("openai", "gpt-4o", 200, 100)
	metrics.RecordDuration("openai", "gpt-4o", 2*time.Second)
	metrics.RecordDuration("gemini", "gemini-1.5-flash", time.Second)

	stats := metrics.GetStats()
	assert.Equal(t, 300, stats.TotalTokensIn)
	assert.Equal(t, 150, stats.TotalTokensOut)
	assert.Equal(t, 3*time.Second, stats.TotalDuration)
	assert.Equal(t, 300, stats.ByProvider["openai"].TokensIn)
	assert.Equal(t, time.Second, stats.ByProvider["gemini"].Duration)
}

func TestDefaultMetrics_RecordCostAndErrors(t *testing.T) {
	metrics := llmhttp.NewDefaultMetrics()

	metrics.RecordCost("openai", "gpt-4o", 0.0125)
	metrics.RecordCost("openai", "gpt-4o", 0.0075)
	metrics.RecordError("openai", "gpt-4o", llmhttp.ErrTypeRateLimit)

	stats := metrics.GetStats()
	assert.InDelta(t, 0.02, stats.TotalCost, 1e-9)
	assert.Equal(t, 1, stats.ErrorCount)
	assert.Equal(t, 1, stats.ByProvider["openai"].Errors)
}

func TestDefaultMetrics_GetStatsReturnsCopy(t *testing.T) {
	metrics := llmhttp.NewDefaultMetrics()
	metrics.RecordRequest("openai", "gpt-4o")

	stats := metrics.GetStats()
	stats.ByProvider["openai"] = llmhttp.ProviderStats{Requests: 99}

	assert.Equal(t, 1, metrics.GetStats().ByProvider["openai"].Requests,
		"mutating the snapshot must not affect the tracker")
}
