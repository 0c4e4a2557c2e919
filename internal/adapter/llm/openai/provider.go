package openai

import (
	"context"
	"fmt"
	"time"

	llmadapter "github.com/bkyoung/pr-summarizer/internal/adapter/llm"
	llmhttp "github.com/bkyoung/pr-summarizer/internal/adapter/llm/http"
)

const providerName = "openai"

// Client abstracts the OpenAI HTTP client behaviour we need.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Healthy(ctx context.Context) error
}

// Request is the outbound payload for a single completion attempt.
type Request struct {
	Model       string
	Prompt      string
	MaxTokens   int
	Temperature float64
	Seed        *uint64
}

// Response captures one completion result.
type Response struct {
	Text         string
	Model        string
	TokensIn     int
	TokensOut    int
	FinishReason string
}

// Provider implements the llm.Provider port for OpenAI. Retry with
// exponential backoff wraps every Generate call.
type Provider struct {
	model   string
	client  Client
	retry   llmhttp.RetryConfig
	logger  llmhttp.Logger
	metrics llmhttp.Metrics
}

// NewProvider constructs a Provider for the supplied model.
func NewProvider(model string, client Client, retry llmhttp.RetryConfig) *Provider {
	return &Provider{
		model:  model,
		client: client,
		retry:  retry,
	}
}

// WithObservability attaches an optional logger and metrics tracker.
func (p *Provider) WithObservability(logger llmhttp.Logger, metrics llmhttp.Metrics) *Provider {
	p.logger = logger
	p.metrics = metrics
	return p
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return providerName }

// SupportsStreaming reports streaming capability.
func (p *Provider) SupportsStreaming() bool { return true }

// Generate sends the prompt to OpenAI and translates the response.
func (p *Provider) Generate(ctx context.Context, req llmadapter.GenerationRequest) (llmadapter.GenerationResult, error) {
	if p.client == nil {
		return llmadapter.GenerationResult{}, fmt.Errorf("openai client missing")
	}

	if p.metrics != nil {
		p.metrics.RecordRequest(providerName, p.model)
	}
	if p.logger != nil {
		p.logger.LogRequest(ctx, llmhttp.RequestLog{
			Provider:    providerName,
			Model:       p.model,
			Timestamp:   time.Now(),
			PromptChars: len(req.Prompt),
		})
	}

	start := time.Now()
	var resp Response
	err := llmhttp.RetryWithBackoff(ctx, func(ctx context.Context) error {
		var callErr error
		resp, callErr = p.client.Complete(ctx, Request{
			Model:       p.model,
			Prompt:      req.Prompt,
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
			Seed:        req.Seed,
		})
		return callErr
	}, p.retry)
	elapsed := time.Since(start)

	if err != nil {
		if p.metrics != nil {
			p.metrics.RecordError(providerName, p.model, llmhttp.ErrTypeUnknown)
		}
		if p.logger != nil {
			p.logger.LogError(ctx, llmhttp.ErrorLog{
				Provider:  providerName,
				Model:     p.model,
				Timestamp: time.Now(),
				Duration:  elapsed,
				Error:     err,
				Retryable: llmhttp.ShouldRetry(err),
			})
		}
		return llmadapter.GenerationResult{}, err
	}

	if p.metrics != nil {
		p.metrics.RecordDuration(providerName, p.model, elapsed)
		p.metrics.RecordTokens(providerName, p.model, resp.TokensIn, resp.TokensOut)
	}
	if p.logger != nil {
		p.logger.LogResponse(ctx, llmhttp.ResponseLog{
			Provider:     providerName,
			Model:        p.model,
			Timestamp:    time.Now(),
			Duration:     elapsed,
			TokensIn:     resp.TokensIn,
			TokensOut:    resp.TokensOut,
			FinishReason: resp.FinishReason,
		})
	}

	return llmadapter.GenerationResult{
		Content:      resp.Text,
		Model:        resp.Model,
		TokensIn:     resp.TokensIn,
		TokensOut:    resp.TokensOut,
		ResponseTime: elapsed,
		FinishReason: resp.FinishReason,
	}, nil
}

// HealthCheck probes the API. Diagnostics only, never used for routing.
func (p *Provider) HealthCheck(ctx context.Context) llmadapter.HealthStatus {
	if p.client == nil {
		return llmadapter.HealthStatus{Healthy: false, Provider: providerName, Detail: "client missing"}
	}
	if err := p.client.Healthy(ctx); err != nil {
		return llmadapter.HealthStatus{Healthy: false, Provider: providerName, Detail: err.Error()}
	}
	return llmadapter.HealthStatus{Healthy: true, Provider: providerName}
}
