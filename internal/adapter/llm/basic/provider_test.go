package basic_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmadapter "github.com/bkyoung/pr-summarizer/internal/adapter/llm"
	"github.com/bkyoung/pr-summarizer/internal/adapter/llm/basic"
)

const statPrompt = `Audience: executive
Title: Add retry handling
Change magnitude: medium
Files changed: 3
Lines added: 105
Lines removed: 12
`

func TestGenerateUsesPromptStatistics(t *testing.T) {
	provider := basic.NewProvider("")

	result, err := provider.Generate(context.Background(), llmadapter.GenerationRequest{Prompt: statPrompt})
	require.NoError(t, err)

	assert.Contains(t, result.Content, "Add retry handling")
	assert.Contains(t, result.Content, "3 files")
	assert.Equal(t, "template-v1", result.Model)
	assert.Equal(t, "stop", result.FinishReason)
	assert.Positive(t, result.TokensIn)
	assert.Positive(t, result.TokensOut)
}

func TestGenerateVariesByAudience(t *testing.T) {
	provider := basic.NewProvider("")

	exec, err := provider.Generate(context.Background(), llmadapter.GenerationRequest{Prompt: statPrompt})
	require.NoError(t, err)
	assert.Contains(t, exec.Content, "business impact")

	devPrompt := "Audience: developer\nTitle: Add retry handling\nFiles changed: 3\nLines added: 105\nLines removed: 12\n"
	dev, err := provider.Generate(context.Background(), llmadapter.GenerationRequest{Prompt: devPrompt})
	require.NoError(t, err)
	assert.Contains(t, dev.Content, "105 lines")
	assert.NotEqual(t, exec.Content, dev.Content)
}

func TestGenerateFallsBackWhenStatsMissing(t *testing.T) {
	provider := basic.NewProvider("")

	result, err := provider.Generate(context.Background(), llmadapter.GenerationRequest{Prompt: "no statistics here"})
	require.NoError(t, err)
	assert.Contains(t, result.Content, "several files")
}

func TestGenerateHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := basic.NewProvider("").Generate(ctx, llmadapter.GenerationRequest{Prompt: statPrompt})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProviderIdentity(t *testing.T) {
	provider := basic.NewProvider("")
	assert.Equal(t, "basic", provider.Name())
	assert.False(t, provider.SupportsStreaming())
	assert.True(t, provider.HealthCheck(context.Background()).Healthy)
}
