// Package json persists generated summaries as JSON files.
package json

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bkyoung/pr-summarizer/internal/domain"
)

// Artifact encapsulates the JSON rendering inputs.
type Artifact struct {
	OutputDir  string
	Repository string
	PR         domain.PRMetadata
	Summaries  domain.AISummaries
}

// document is the serialized shape: personas keyed by name so consumers do
// not depend on Go field names.
type document struct {
	PR        prHeader                  `json:"pr"`
	Model     string                    `json:"model"`
	Cached    bool                      `json:"cached"`
	Tokens    int                       `json:"totalTokens"`
	TimeMs    int64                     `json:"generationTimeMs"`
	Summaries map[string]personaSummary `json:"summaries"`
}

type prHeader struct {
	URL   string `json:"url,omitempty"`
	Title string `json:"title,omitempty"`
}

type personaSummary struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Writer implements the JSON output port.
type Writer struct {
	now func() string
}

// NewWriter creates a new JSON writer.
func NewWriter(now func() string) *Writer {
	return &Writer{now: now}
}

// Write persists summaries to disk as a JSON file and returns the path.
func (w *Writer) Write(ctx context.Context, artifact Artifact) (string, error) {
	if err := os.MkdirAll(artifact.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filePath := filepath.Join(artifact.OutputDir,
		fmt.Sprintf("%s_summary_%s.json", sanitise(artifact.Repository), w.now()))

	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create json file: %w", err)
	}
	defer file.Close()

	doc := document{
		PR:        prHeader{URL: artifact.PR.URL, Title: artifact.PR.Title},
		Model:     artifact.Summaries.ModelUsed,
		Cached:    artifact.Summaries.Cached,
		Tokens:    artifact.Summaries.TotalTokens,
		TimeMs:    artifact.Summaries.GenerationTimeMs,
		Summaries: make(map[string]personaSummary, 4),
	}
	for _, ps := range artifact.Summaries.All() {
		doc.Summaries[string(ps.Persona)] = personaSummary{Text: ps.Text, Confidence: ps.Confidence}
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(doc); err != nil {
		return "", fmt.Errorf("failed to encode summaries to json: %w", err)
	}

	return filePath, nil
}

func sanitise(value string) string {
	replacer := strings.NewReplacer("/", "-", " ", "-", ":", "-")
	cleaned := replacer.Replace(strings.TrimSpace(value))
	if cleaned == "" {
		return "unknown"
	}
	return cleaned
}
