package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	llmhttp "github.com/bkyoung/pr-summarizer/internal/adapter/llm/http"
)

const (
	defaultBaseURL          = "https://api.anthropic.com"
	defaultTimeout          = 60 * time.Second
	defaultAnthropicVersion = "2023-06-01"
)

// HTTPClient is a single-attempt HTTP client for the Anthropic API.
type HTTPClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a new Anthropic HTTP client.
func NewHTTPClient(apiKey string) *HTTPClient {
	return &HTTPClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: defaultTimeout},
	}
}

// SetBaseURL sets a custom base URL (for testing).
func (c *HTTPClient) SetBaseURL(url string) {
	c.baseURL = url
}

// SetTimeout sets the HTTP timeout.
func (c *HTTPClient) SetTimeout(timeout time.Duration) {
	c.client.Timeout = timeout
}

// Complete makes one request to the Messages API.
func (c *HTTPClient) Complete(ctx context.Context, req Request) (Response, error) {
	reqBody := MessagesRequest{
		Model: req.Model,
		Messages: []Message{
			{Role: "user", Content: req.Prompt},
		},
		System:    "You are a pull request summarization assistant. Write clear prose for the requested audience.",
		MaxTokens: req.MaxTokens,
	}
	if req.Temperature > 0 {
		reqBody.Temperature = req.Temperature
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return Response{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/v1/messages"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return Response{}, fmt.Errorf("failed to create request: %w", err)
	}

	// Anthropic uses x-api-key instead of Authorization.
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", defaultAnthropicVersion)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return Response{}, llmhttp.NewTimeoutError("anthropic", "request timed out")
		}
		return Response{}, llmhttp.NewTimeoutError("anthropic", err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Response{}, mapErrorResponse(resp.StatusCode, body)
	}

	var msgResp MessagesResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		return Response{}, fmt.Errorf("failed to parse response: %w", err)
	}

	var text string
	for _, block := range msgResp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return Response{}, llmhttp.NewInvalidRequestError("anthropic", "no text content in response")
	}

	return Response{
		Text:         text,
		Model:        msgResp.Model,
		TokensIn:     msgResp.Usage.InputTokens,
		TokensOut:    msgResp.Usage.OutputTokens,
		FinishReason: msgResp.StopReason,
	}, nil
}

// Healthy reports whether the client is usable. The Messages API has no
// cheap unauthenticated probe, so this only verifies configuration.
func (c *HTTPClient) Healthy(ctx context.Context) error {
	if c.apiKey == "" {
		return llmhttp.NewAuthenticationError("anthropic", "api key not configured")
	}
	return nil
}

// mapErrorResponse converts HTTP error responses to typed errors.
func mapErrorResponse(statusCode int, body []byte) error {
	message := fmt.Sprintf("HTTP %d", statusCode)

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	} else if len(body) > 0 && len(body) < 200 {
		message = string(body)
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return llmhttp.NewAuthenticationError("anthropic", message)
	case http.StatusTooManyRequests:
		return llmhttp.NewRateLimitError("anthropic", message)
	case http.StatusNotFound:
		return llmhttp.NewModelNotFoundError("anthropic", message)
	case http.StatusBadRequest:
		return llmhttp.NewInvalidRequestError("anthropic", message)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, 529:
		return llmhttp.NewServiceUnavailableError("anthropic", message)
	default:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeUnknown,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Provider:   "anthropic",
		}
	}
}
