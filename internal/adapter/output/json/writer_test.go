package json

import (
	"context"
	gojson "encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/pr-summarizer/internal/domain"
)

func TestWriteEncodesAllPersonas(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter(func() string { return "20260823T120000" })

	summaries := domain.AISummaries{ModelUsed: "gemini", TotalTokens: 99}
	for _, persona := range domain.Personas() {
		summaries.SetPersona(persona, domain.PersonaSummary{
			Persona: persona, Text: "text " + string(persona), Confidence: 0.75,
		})
	}

	path, err := writer.Write(context.Background(), Artifact{
		OutputDir:  dir,
		Repository: "acme/payments",
		PR:         domain.PRMetadata{URL: "https://example.com/pr/2", Title: "Fix rounding"},
		Summaries:  summaries,
	})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, gojson.Unmarshal(raw, &doc))

	assert.Equal(t, "gemini", doc["model"])
	assert.Equal(t, false, doc["cached"])

	personas, ok := doc["summaries"].(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, personas, 4)

	executive, ok := personas["executive"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "text executive", executive["text"])
	assert.Equal(t, 0.75, executive["confidence"])
}
