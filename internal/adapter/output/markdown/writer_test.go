package markdown

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/pr-summarizer/internal/domain"
)

func sampleSummaries() domain.AISummaries {
	s := domain.AISummaries{ModelUsed: "openai", TotalTokens: 321, GenerationTimeMs: 42}
	for _, persona := range domain.Personas() {
		s.SetPersona(persona, domain.PersonaSummary{
			Persona:    persona,
			Text:       "Text for " + string(persona) + ".",
			Confidence: 0.85,
		})
	}
	return s
}

func TestWriteRendersAllPersonas(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter(func() string { return "20260823T120000" })

	path, err := writer.Write(context.Background(), Artifact{
		OutputDir:  dir,
		Repository: "acme/payments",
		PR:         domain.PRMetadata{Title: "Add retries", URL: "https://example.com/pr/1"},
		Summaries:  sampleSummaries(),
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "acme-payments_summary_20260823T120000.md"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(content)
	assert.Contains(t, text, "# PR Summary Report")
	assert.Contains(t, text, "- PR: Add retries")
	assert.Contains(t, text, "- Model: openai")
	assert.Contains(t, text, "## Executive Summary")
	assert.Contains(t, text, "## Product Summary")
	assert.Contains(t, text, "## Developer Summary")
	assert.Contains(t, text, "## Reviewer Summary")
	assert.Contains(t, text, "_Confidence: 0.85_")
}

func TestSanitise(t *testing.T) {
	assert.Equal(t, "a-b-c", sanitise("a/b c"))
	assert.Equal(t, "unknown", sanitise("  "))
}
