// Package markdown renders generated summaries into Markdown files.
package markdown

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bkyoung/pr-summarizer/internal/domain"
)

type clock func() string

// Artifact encapsulates the Markdown rendering inputs.
type Artifact struct {
	OutputDir  string
	Repository string
	PR         domain.PRMetadata
	Summaries  domain.AISummaries
}

// Writer renders persona summaries into Markdown files.
type Writer struct {
	now clock
}

// NewWriter constructs a Markdown writer with a timestamp supplier.
func NewWriter(now clock) *Writer {
	return &Writer{now: now}
}

// Write persists a Markdown artifact to disk and returns the file path.
func (w *Writer) Write(ctx context.Context, artifact Artifact) (string, error) {
	if err := os.MkdirAll(artifact.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	filename := fmt.Sprintf("%s_summary_%s.md", sanitise(artifact.Repository), w.now())
	path := filepath.Join(artifact.OutputDir, filename)

	content := buildContent(artifact)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write markdown: %w", err)
	}

	return path, nil
}

func buildContent(artifact Artifact) string {
	var builder strings.Builder
	caser := cases.Title(language.English)

	builder.WriteString("# PR Summary Report\n\n")
	if artifact.PR.Title != "" {
		builder.WriteString(fmt.Sprintf("- PR: %s\n", artifact.PR.Title))
	}
	if artifact.PR.URL != "" {
		builder.WriteString(fmt.Sprintf("- URL: %s\n", artifact.PR.URL))
	}
	builder.WriteString(fmt.Sprintf("- Model: %s\n", artifact.Summaries.ModelUsed))
	builder.WriteString(fmt.Sprintf("- Cached: %t\n", artifact.Summaries.Cached))
	builder.WriteString(fmt.Sprintf("- Tokens: %d\n", artifact.Summaries.TotalTokens))
	builder.WriteString(fmt.Sprintf("- Generated in: %dms\n\n", artifact.Summaries.GenerationTimeMs))

	for _, ps := range artifact.Summaries.All() {
		builder.WriteString(fmt.Sprintf("## %s Summary\n\n", caser.String(string(ps.Persona))))
		builder.WriteString(ps.Text)
		builder.WriteString("\n\n")
		builder.WriteString(fmt.Sprintf("_Confidence: %.2f_\n\n", ps.Confidence))
	}

	return builder.String()
}

func sanitise(value string) string {
	replacer := strings.NewReplacer("/", "-", " ", "-", ":", "-")
	cleaned := replacer.Replace(strings.TrimSpace(value))
	if cleaned == "" {
		return "unknown"
	}
	return cleaned
}
