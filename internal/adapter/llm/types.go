// Package llm defines the provider abstraction over text-generation
// backends and shared request/response types.
package llm

import (
	"context"
	"time"
)

// GenerationRequest is the uniform payload sent to any provider.
type GenerationRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature float64

	// Seed enables deterministic generation on providers that support it.
	Seed *uint64
}

// GenerationResult is the standardized response from any provider.
type GenerationResult struct {
	Content      string
	Model        string
	TokensIn     int
	TokensOut    int
	ResponseTime time.Duration
	FinishReason string
	Metadata     map[string]string
}

// TokensUsed returns the total token count for the call.
func (r GenerationResult) TokensUsed() int {
	return r.TokensIn + r.TokensOut
}

// HealthStatus reports the outcome of a provider health probe. Used for
// diagnostics only, never for routing.
type HealthStatus struct {
	Healthy  bool
	Provider string
	Detail   string
}

// Provider is the uniform contract over heterogeneous text-generation
// backends. Implementations fail by returning an error the caller treats
// uniformly as "generation failed"; no typed sub-errors cross this boundary.
type Provider interface {
	Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error)
	Name() string
	SupportsStreaming() bool
	HealthCheck(ctx context.Context) HealthStatus
}
