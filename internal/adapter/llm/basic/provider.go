// Package basic provides a no-network fallback provider that fabricates a
// templated summary from the statistics embedded in the prompt. It is used
// when no real provider is configured, and in tests.
package basic

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	llmadapter "github.com/bkyoung/pr-summarizer/internal/adapter/llm"
)

const providerName = "basic"

var (
	filesRe     = regexp.MustCompile(`Files changed:\s*(\d+)`)
	additionsRe = regexp.MustCompile(`Lines added:\s*(\d+)`)
	deletionsRe = regexp.MustCompile(`Lines removed:\s*(\d+)`)
	audienceRe  = regexp.MustCompile(`Audience:\s*(\w+)`)
	titleRe     = regexp.MustCompile(`Title:\s*(.+)`)
)

// Provider implements the llm.Provider port without any network call.
type Provider struct {
	model string
}

// NewProvider constructs a basic Provider.
func NewProvider(model string) *Provider {
	if model == "" {
		model = "template-v1"
	}
	return &Provider{model: model}
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return providerName }

// SupportsStreaming reports streaming capability.
func (p *Provider) SupportsStreaming() bool { return false }

// Generate fabricates a summary from the counts found in the prompt.
func (p *Provider) Generate(ctx context.Context, req llmadapter.GenerationRequest) (llmadapter.GenerationResult, error) {
	if err := ctx.Err(); err != nil {
		return llmadapter.GenerationResult{}, err
	}

	start := time.Now()

	files := firstMatch(filesRe, req.Prompt, "several")
	additions := firstMatch(additionsRe, req.Prompt, "some")
	deletions := firstMatch(deletionsRe, req.Prompt, "some")
	audience := firstMatch(audienceRe, req.Prompt, "developer")
	title := strings.TrimSpace(firstMatch(titleRe, req.Prompt, "this change"))

	var text string
	switch audience {
	case "executive":
		text = fmt.Sprintf("This change (%s) touches %s files. It is a routine engineering update with no direct business impact expected.", title, files)
	case "product":
		text = fmt.Sprintf("The change %q modifies %s files with %s lines added and %s removed. Functionality should be verified against the affected areas before release.", title, files, additions, deletions)
	default:
		text = fmt.Sprintf("The change %q modifies %s files, adding %s lines and removing %s. Review the per-file diff for details; this summary was produced from change statistics without model assistance. Affected areas should be covered by existing tests. No semantic analysis of the diff was performed.", title, files, additions, deletions)
	}

	return llmadapter.GenerationResult{
		Content:      text,
		Model:        p.model,
		TokensIn:     len(req.Prompt) / 4,
		TokensOut:    len(text) / 4,
		ResponseTime: time.Since(start),
		FinishReason: "stop",
		Metadata:     map[string]string{"templated": "true"},
	}, nil
}

// HealthCheck always succeeds; there is nothing to probe.
func (p *Provider) HealthCheck(ctx context.Context) llmadapter.HealthStatus {
	return llmadapter.HealthStatus{Healthy: true, Provider: providerName, Detail: "templated fallback"}
}

func firstMatch(re *regexp.Regexp, s, fallback string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return fallback
	}
	return m[1]
}
