package http_test

import (
	"bytes"
	"context"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	llmhttp "github.com/bkyoung/pr-summarizer/internal/adapter/llm/http"
)

// captureLog redirects the standard logger for the duration of fn.
func captureLog(fn func()) string {
	var buf bytes.Buffer
	original := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(original)
	fn()
	return buf.String()
}

func TestRedactAPIKey(t *testing.T) {
	logger := llmhttp.NewDefaultLogger(llmhttp.LogLevelInfo, llmhttp.LogFormatHuman, true)

	assert.Equal(t, "[REDACTED-3456]", logger.RedactAPIKey("sk-123456"))
	assert.Equal(t, "[REDACTED]", logger.RedactAPIKey("key"))

	logger.SetRedaction(false)
	assert.Equal(t, "sk-123456", logger.RedactAPIKey("sk-123456"))
}

func TestLogRequestRespectsLevel(t *testing.T) {
	req := llmhttp.RequestLog{
		Provider: "openai", Model: "gpt-4o", Timestamp: time.Now(),
		PromptChars: 120, APIKey: "sk-123456",
	}

	infoLogger := llmhttp.NewDefaultLogger(llmhttp.LogLevelInfo, llmhttp.LogFormatHuman, true)
	out := captureLog(func() { infoLogger.LogRequest(context.Background(), req) })
	assert.Empty(t, out, "requests log at debug only")

	debugLogger := llmhttp.NewDefaultLogger(llmhttp.LogLevelDebug, llmhttp.LogFormatHuman, true)
	out = captureLog(func() { debugLogger.LogRequest(context.Background(), req) })
	assert.Contains(t, out, "openai/gpt-4o")
	assert.Contains(t, out, "[REDACTED-3456]")
	assert.NotContains(t, out, "sk-123456")
}

func TestLogResponseFormats(t *testing.T) {
	resp := llmhttp.ResponseLog{
		Provider: "anthropic", Model: "claude-3-5-sonnet-20241022",
		Timestamp: time.Now(), Duration: 2 * time.Second,
		TokensIn: 100, TokensOut: 50, FinishReason: "end_turn",
	}

	human := llmhttp.NewDefaultLogger(llmhttp.LogLevelInfo, llmhttp.LogFormatHuman, true)
	out := captureLog(func() { human.LogResponse(context.Background(), resp) })
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "tokens=100/50")

	jsonLogger := llmhttp.NewDefaultLogger(llmhttp.LogLevelInfo, llmhttp.LogFormatJSON, true)
	out = captureLog(func() { jsonLogger.LogResponse(context.Background(), resp) })
	assert.Contains(t, out, `"type":"response"`)
	assert.Contains(t, out, `"tokens_in":100`)
}

func TestLogErrorIncludesRetryability(t *testing.T) {
	logger := llmhttp.NewDefaultLogger(llmhttp.LogLevelError, llmhttp.LogFormatHuman, true)

	out := captureLog(func() {
		logger.LogError(context.Background(), llmhttp.ErrorLog{
			Provider: "openai", Model: "gpt-4o", Timestamp: time.Now(),
			Error:     llmhttp.NewRateLimitError("openai", "too many requests"),
			Retryable: true,
		})
	})
	assert.Contains(t, out, "[ERROR]")
	assert.Contains(t, out, "retryable")
}

func TestLogWarningAlwaysEmits(t *testing.T) {
	logger := llmhttp.NewDefaultLogger(llmhttp.LogLevelError, llmhttp.LogFormatHuman, true)

	out := captureLog(func() {
		logger.LogWarning(context.Background(), "feedback store unavailable", map[string]interface{}{
			"error": "disk full",
		})
	})
	assert.Contains(t, out, "[WARN]")
	assert.Contains(t, out, "feedback store unavailable")
}
