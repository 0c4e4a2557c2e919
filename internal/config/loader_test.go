package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(LoaderOptions{ConfigPaths: []string{t.TempDir()}})
	require.NoError(t, err)

	assert.Equal(t, "basic", cfg.Generation.Provider)
	assert.Equal(t, 3, cfg.HTTP.MaxRetries)
	assert.Equal(t, "1s", cfg.HTTP.InitialBackoff)
	assert.Equal(t, 2.0, cfg.HTTP.BackoffMultiplier)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 86400, cfg.Cache.TTLSeconds)
	assert.True(t, cfg.Cost.OptimizeEnabled)
	assert.Equal(t, 0.5, cfg.Cost.QualityThreshold)
	assert.Equal(t, "markdown", cfg.Output.Format)
	assert.True(t, cfg.Store.Enabled)
	assert.Equal(t, "human", cfg.Observability.Logging.Format)

	assert.False(t, cfg.Providers["openai"].Enabled)
	assert.True(t, cfg.Providers["basic"].Enabled)
	assert.Equal(t, []string{"basic"}, cfg.EnabledProviders())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
generation:
  provider: openai
cache:
  enabled: false
  ttlSeconds: 600
cost:
  dailyBudgetUSD: 2.5
providers:
  openai:
    enabled: true
    model: gpt-4o-mini
    apiKey: sk-test
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prsum.yaml"), []byte(content), 0o644))

	cfg, err := Load(LoaderOptions{ConfigPaths: []string{dir}})
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Generation.Provider)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 600, cfg.Cache.TTLSeconds)
	assert.Equal(t, 2.5, cfg.Cost.DailyBudgetUSD)
	assert.True(t, cfg.Providers["openai"].Enabled)
	assert.Equal(t, "gpt-4o-mini", cfg.Providers["openai"].Model)
	assert.Equal(t, "sk-test", cfg.Providers["openai"].APIKey)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prsum.yaml"), []byte("generation: [unclosed"), 0o644))

	_, err := Load(LoaderOptions{ConfigPaths: []string{dir}})
	assert.Error(t, err)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("PRSUM_TEST_KEY", "sk-from-env")

	dir := t.TempDir()
	content := `
providers:
  anthropic:
    enabled: true
    apiKey: ${PRSUM_TEST_KEY}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prsum.yaml"), []byte(content), 0o644))

	cfg, err := Load(LoaderOptions{ConfigPaths: []string{dir}})
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.Providers["anthropic"].APIKey)
}

func TestExpandEnvVarsKeepsUnknown(t *testing.T) {
	assert.Equal(t, "${DOES_NOT_EXIST_XYZ}", expandEnvString("${DOES_NOT_EXIST_XYZ}"))
	assert.Equal(t, "", expandEnvString(""))
}

func TestProviderHTTPOverrides(t *testing.T) {
	dir := t.TempDir()
	content := `
providers:
  gemini:
    enabled: true
    timeout: 120s
    maxRetries: 5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prsum.yaml"), []byte(content), 0o644))

	cfg, err := Load(LoaderOptions{ConfigPaths: []string{dir}})
	require.NoError(t, err)

	gemini := cfg.Providers["gemini"]
	require.NotNil(t, gemini.Timeout)
	assert.Equal(t, "120s", *gemini.Timeout)
	require.NotNil(t, gemini.MaxRetries)
	assert.Equal(t, 5, *gemini.MaxRetries)
}
