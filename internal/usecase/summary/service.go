package summary

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	llmadapter "github.com/bkyoung/pr-summarizer/internal/adapter/llm"
	llmhttp "github.com/bkyoung/pr-summarizer/internal/adapter/llm/http"
	"github.com/bkyoung/pr-summarizer/internal/determinism"
	"github.com/bkyoung/pr-summarizer/internal/domain"
)

// Temperature used for all summary generations. Kept low for repeatability.
const generationTemperature = 0.2

// streamChunkSize caps the bytes per emitted stream chunk. Chunks are cut
// on rune boundaries, so a chunk may be slightly shorter.
const streamChunkSize = 80

// StreamChunk is one unit of streaming output: a slice of one persona's
// summary text. Chunks for a persona arrive in order; personas arrive in
// assembly order.
type StreamChunk struct {
	Persona domain.Persona
	Text    string
	Final   bool
}

// CacheStatus describes the cache portion of a health report.
type CacheStatus struct {
	Enabled    bool
	Entries    int
	TTLSeconds int
}

// HealthReport is the aggregate health of the service and its providers.
type HealthReport struct {
	Healthy   bool
	Providers []llmadapter.HealthStatus
	Cache     CacheStatus
}

// ServiceDeps carries everything the summary service needs. Providers maps
// provider name to adapter; every name in the cost table that can be
// selected must be present.
type ServiceDeps struct {
	Providers map[string]llmadapter.Provider
	Builder   *PromptBuilder
	Validator *Validator
	Cache     *Cache
	Optimizer *CostOptimizer
	Feedback  *Integrator
	Store     FeedbackStore
	Logger    llmhttp.Logger
	Metrics   llmhttp.Metrics

	// FixedProvider pins provider selection when cost optimization is off.
	FixedProvider string
	CacheEnabled  bool
	CostOptimized bool
	AgentContext  string
}

// Service orchestrates summary generation: cache lookup, provider
// selection, concurrent per-persona generation, validation, assembly, and
// usage recording. It always returns a complete AISummaries; per-persona
// failures surface as zero-confidence entries, never as errors.
type Service struct {
	deps ServiceDeps
}

// NewService validates dependencies and constructs the service.
// Configuration problems are fatal here rather than at generation time.
func NewService(deps ServiceDeps) (*Service, error) {
	if len(deps.Providers) == 0 {
		return nil, errors.New("at least one provider is required")
	}
	if deps.Builder == nil {
		return nil, errors.New("prompt builder is required")
	}
	if deps.Validator == nil {
		return nil, errors.New("validator is required")
	}
	if deps.CacheEnabled && deps.Cache == nil {
		return nil, errors.New("cache enabled but no cache supplied")
	}
	if deps.CostOptimized && deps.Optimizer == nil {
		return nil, errors.New("cost optimization enabled but no optimizer supplied")
	}
	if !deps.CostOptimized {
		if deps.FixedProvider == "" {
			return nil, errors.New("fixed provider is required when cost optimization is off")
		}
		if _, ok := deps.Providers[deps.FixedProvider]; !ok {
			return nil, fmt.Errorf("fixed provider %q is not configured", deps.FixedProvider)
		}
	}
	// Store and Feedback are optional; without them feedback features are
	// disabled but generation works.
	return &Service{deps: deps}, nil
}

type personaResult struct {
	persona domain.Persona
	summary domain.PersonaSummary
	tokens  int
}

// GenerateSummaries produces one summary per persona for the given change
// set. The returned AISummaries always contains all four personas.
func (s *Service) GenerateSummaries(ctx context.Context, changes domain.CodeChanges, repo domain.RepoContext, pr domain.PRMetadata) (domain.AISummaries, error) {
	start := time.Now()
	key := Fingerprint(changes, repo)

	if s.deps.CacheEnabled {
		if cached, ok := s.deps.Cache.Get(key); ok {
			cached.Cached = true
			s.logInfo(ctx, "cache hit", map[string]interface{}{"key": key})
			return cached, nil
		}
	}

	providerName := s.selectProvider(changes, repo, pr)
	provider := s.deps.Providers[providerName]
	seed := determinism.SeedFromKey(key)

	results := s.generateAll(ctx, provider, providerName, changes, repo, pr, seed)

	summaries := s.assemble(results, providerName)
	summaries.GeneratedAt = time.Now()
	summaries.GenerationTimeMs = time.Since(start).Milliseconds()

	if s.deps.CacheEnabled {
		s.deps.Cache.Set(key, summaries)
	}

	return summaries, nil
}

// GenerateSummariesStreaming generates all personas, then emits each
// persona's text as ordered chunks in assembly order. The channel is closed
// when all chunks have been sent or the context is cancelled.
func (s *Service) GenerateSummariesStreaming(ctx context.Context, changes domain.CodeChanges, repo domain.RepoContext, pr domain.PRMetadata) (<-chan StreamChunk, error) {
	summaries, err := s.GenerateSummaries(ctx, changes, repo, pr)
	if err != nil {
		return nil, err
	}

	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		for _, persona := range domain.Personas() {
			ps := summaries.ForPersona(persona)
			text := ps.Text
			for len(text) > 0 {
				chunk := text
				if len(chunk) > streamChunkSize {
					cut := streamChunkSize
					// Back up to a rune boundary so no chunk splits a
					// multi-byte character.
					for cut > 0 && !utf8.RuneStart(text[cut]) {
						cut--
					}
					chunk = text[:cut]
				}
				text = text[len(chunk):]
				select {
				case out <- StreamChunk{Persona: persona, Text: chunk, Final: len(text) == 0}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// AddFeedback records one piece of human feedback on a generated summary.
func (s *Service) AddFeedback(ctx context.Context, prURL string, persona domain.Persona, summaryText, feedbackType, value string) error {
	if s.deps.Store == nil {
		return errors.New("feedback store not configured")
	}
	if !domain.ValidPersona(persona) {
		return fmt.Errorf("unknown persona %q", persona)
	}
	switch feedbackType {
	case domain.FeedbackTypeRating, domain.FeedbackTypeCorrection, domain.FeedbackTypeComment:
	default:
		return fmt.Errorf("unknown feedback type %q", feedbackType)
	}

	return s.deps.Store.Append(ctx, domain.FeedbackEntry{
		PRURL:       prURL,
		Persona:     persona,
		SummaryText: summaryText,
		Type:        feedbackType,
		Value:       value,
		CreatedAt:   time.Now(),
	})
}

// CostReport aggregates recorded usage over a trailing window of days.
func (s *Service) CostReport(days int) (UsageReport, error) {
	if s.deps.Optimizer == nil {
		return UsageReport{}, errors.New("cost optimizer not configured")
	}
	return s.deps.Optimizer.Report(days), nil
}

// FeedbackStats returns per-persona feedback aggregates.
func (s *Service) FeedbackStats(ctx context.Context) (map[domain.Persona]domain.FeedbackStats, error) {
	if s.deps.Feedback == nil {
		return nil, errors.New("feedback integrator not configured")
	}
	return s.deps.Feedback.AllStats(ctx)
}

// HealthCheck probes every configured provider and reports cache state.
func (s *Service) HealthCheck(ctx context.Context) HealthReport {
	report := HealthReport{Healthy: true}

	for _, name := range sortedProviderNames(s.deps.Providers) {
		status := s.deps.Providers[name].HealthCheck(ctx)
		if !status.Healthy {
			report.Healthy = false
		}
		report.Providers = append(report.Providers, status)
	}

	report.Cache.Enabled = s.deps.CacheEnabled
	if s.deps.CacheEnabled {
		report.Cache.Entries = s.deps.Cache.Len()
		report.Cache.TTLSeconds = int(s.deps.Cache.TTL().Seconds())
	}
	return report
}

// selectProvider picks the provider for this request. With cost
// optimization off, the fixed provider is used unconditionally.
func (s *Service) selectProvider(changes domain.CodeChanges, repo domain.RepoContext, pr domain.PRMetadata) string {
	if !s.deps.CostOptimized {
		return s.deps.FixedProvider
	}

	// The developer prompt is the longest; size the estimate on it.
	prompt, err := s.deps.Builder.Build(PromptInput{
		Persona:      domain.PersonaDeveloper,
		Changes:      changes,
		Repo:         repo,
		PR:           pr,
		AgentContext: s.deps.AgentContext,
	})
	if err != nil {
		return s.fallbackProvider()
	}

	estimate := s.deps.Optimizer.SelectProvider(prompt.Text, prompt.MaxTokens, false, false)
	if _, ok := s.deps.Providers[estimate.Provider]; !ok {
		return s.fallbackProvider()
	}
	return estimate.Provider
}

func (s *Service) fallbackProvider() string {
	if s.deps.FixedProvider != "" {
		if _, ok := s.deps.Providers[s.deps.FixedProvider]; ok {
			return s.deps.FixedProvider
		}
	}
	return sortedProviderNames(s.deps.Providers)[0]
}

// generateAll fans out one generation task per persona and joins them. Every
// persona gets a result; failures become zero-confidence summaries.
func (s *Service) generateAll(ctx context.Context, provider llmadapter.Provider, providerName string, changes domain.CodeChanges, repo domain.RepoContext, pr domain.PRMetadata, seed uint64) map[domain.Persona]personaResult {
	personas := domain.Personas()

	var wg sync.WaitGroup
	resultsChan := make(chan personaResult, len(personas))

	for _, persona := range personas {
		wg.Add(1)
		go func(persona domain.Persona) {
			defer func() {
				if r := recover(); r != nil {
					resultsChan <- failedResult(persona, fmt.Errorf("generation panicked: %v", r))
				}
				wg.Done()
			}()
			resultsChan <- s.generateOne(ctx, provider, providerName, persona, changes, repo, pr, seed)
		}(persona)
	}

	wg.Wait()
	close(resultsChan)

	results := make(map[domain.Persona]personaResult, len(personas))
	for r := range resultsChan {
		results[r.persona] = r
	}
	return results
}

// generateOne builds the prompt, calls the provider, and validates the
// output for a single persona.
func (s *Service) generateOne(ctx context.Context, provider llmadapter.Provider, providerName string, persona domain.Persona, changes domain.CodeChanges, repo domain.RepoContext, pr domain.PRMetadata, seed uint64) personaResult {
	input := PromptInput{
		Persona:      persona,
		Changes:      changes,
		Repo:         repo,
		PR:           pr,
		AgentContext: s.deps.AgentContext,
	}

	if s.deps.Feedback != nil {
		adjust, err := s.deps.Feedback.ShouldAdjustPrompt(ctx, persona)
		if err != nil {
			s.logWarning(ctx, "feedback lookup failed", map[string]interface{}{
				"persona": string(persona),
				"error":   err.Error(),
			})
		} else if adjust {
			adjustments, err := s.deps.Feedback.PromptAdjustments(ctx, persona)
			if err == nil {
				input.Adjustments = &adjustments
			}
		}
	}

	prompt, err := s.deps.Builder.Build(input)
	if err != nil {
		return failedResult(persona, fmt.Errorf("prompt build failed: %w", err))
	}

	result, err := provider.Generate(ctx, llmadapter.GenerationRequest{
		Prompt:      prompt.Text,
		MaxTokens:   prompt.MaxTokens,
		Temperature: generationTemperature,
		Seed:        &seed,
	})
	if err != nil {
		return failedResult(persona, fmt.Errorf("provider %s failed: %w", providerName, err))
	}

	// Providers that omit usage numbers get a tokenizer-based estimate.
	if result.TokensIn == 0 {
		result.TokensIn = llmadapter.EstimateTokens(prompt.Text)
	}
	if result.TokensOut == 0 {
		result.TokensOut = llmadapter.EstimateTokens(result.Content)
	}

	valid, issues := s.deps.Validator.Validate(result.Content, persona, &changes)
	if !valid {
		s.logWarning(ctx, "summary validation issues", map[string]interface{}{
			"persona": string(persona),
			"issues":  issues,
		})
	}

	if s.deps.CostOptimized && s.deps.Optimizer != nil {
		s.deps.Optimizer.RecordUsage(providerName, result.TokensIn, result.TokensOut, string(persona), pr.URL)
	}
	// Providers track their own request/token/duration metrics; cost is
	// priced here because only the optimizer carries the cost table.
	if s.deps.Metrics != nil && s.deps.Optimizer != nil {
		if estimate, ok := s.deps.Optimizer.Estimate(providerName, result.TokensIn, result.TokensOut); ok {
			s.deps.Metrics.RecordCost(providerName, result.Model, estimate.CostUSD)
		}
	}

	return personaResult{
		persona: persona,
		summary: domain.PersonaSummary{
			Persona:    persona,
			Text:       result.Content,
			Confidence: Confidence(len(issues)),
		},
		tokens: result.TokensUsed(),
	}
}

// assemble builds the final AISummaries in fixed persona order.
func (s *Service) assemble(results map[domain.Persona]personaResult, providerName string) domain.AISummaries {
	var summaries domain.AISummaries
	summaries.ModelUsed = providerName

	for _, persona := range domain.Personas() {
		r, ok := results[persona]
		if !ok {
			r = failedResult(persona, errors.New("generation produced no result"))
		}
		summaries.SetPersona(persona, r.summary)
		summaries.TotalTokens += r.tokens
	}
	return summaries
}

func failedResult(persona domain.Persona, err error) personaResult {
	return personaResult{
		persona: persona,
		summary: domain.PersonaSummary{
			Persona:    persona,
			Text:       fmt.Sprintf("Summary generation failed for %s audience: %v", persona, err),
			Confidence: 0.0,
		},
	}
}

func sortedProviderNames(providers map[string]llmadapter.Provider) []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Service) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if s.deps.Logger != nil {
		s.deps.Logger.LogInfo(ctx, msg, fields)
		return
	}
	log.Printf("%s: %v", msg, fields)
}

func (s *Service) logWarning(ctx context.Context, msg string, fields map[string]interface{}) {
	if s.deps.Logger != nil {
		s.deps.Logger.LogWarning(ctx, msg, fields)
		return
	}
	log.Printf("warning: %s: %v", msg, fields)
}
