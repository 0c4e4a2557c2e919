package config_test

import (
	"testing"

	"github.com/bkyoung/pr-summarizer/internal/config"
)

func TestMergePrioritizesLaterConfigs(t *testing.T) {
	base := config.Config{
		Output: config.OutputConfig{Directory: "default"},
	}
	file := config.Config{
		Output: config.OutputConfig{Directory: "file"},
	}
	final := config.Config{
		Output: config.OutputConfig{Directory: "env"},
	}

	merged := config.Merge(base, file, final)

	if merged.Output.Directory != "env" {
		t.Fatalf("expected env directory to win, got %s", merged.Output.Directory)
	}
}

func TestMergeKeepsBaseWhenOverlayEmpty(t *testing.T) {
	base := config.Config{
		Generation: config.GenerationConfig{Provider: "anthropic"},
		Cache:      config.CacheConfig{Enabled: true, TTLSeconds: 3600},
	}

	merged := config.Merge(base, config.Config{})

	if merged.Generation.Provider != "anthropic" {
		t.Fatalf("expected base provider to survive, got %s", merged.Generation.Provider)
	}
	if !merged.Cache.Enabled || merged.Cache.TTLSeconds != 3600 {
		t.Fatalf("expected base cache config to survive, got %+v", merged.Cache)
	}
}

func TestMergeCombinesProviderMaps(t *testing.T) {
	base := config.Config{
		Providers: map[string]config.ProviderConfig{
			"openai": {Enabled: true, Model: "gpt-4o"},
			"basic":  {Enabled: true},
		},
	}
	overlay := config.Config{
		Providers: map[string]config.ProviderConfig{
			"openai": {Enabled: true, Model: "gpt-4o-mini"},
		},
	}

	merged := config.Merge(base, overlay)

	if merged.Providers["openai"].Model != "gpt-4o-mini" {
		t.Fatalf("expected overlay model to win, got %s", merged.Providers["openai"].Model)
	}
	if !merged.Providers["basic"].Enabled {
		t.Fatal("expected base-only provider to survive the merge")
	}
}

func TestMergeObservabilitySections(t *testing.T) {
	base := config.Config{
		Observability: config.ObservabilityConfig{
			Logging: config.LoggingConfig{Enabled: true, Level: "info", Format: "human", RedactAPIKeys: true},
			Metrics: config.MetricsConfig{Enabled: true},
		},
	}
	overlay := config.Config{
		Observability: config.ObservabilityConfig{
			Logging: config.LoggingConfig{Enabled: true, Level: "debug", Format: "json"},
		},
	}

	merged := config.Merge(base, overlay)

	if merged.Observability.Logging.Level != "debug" {
		t.Fatalf("expected overlay logging to win, got %s", merged.Observability.Logging.Level)
	}
	if !merged.Observability.Metrics.Enabled {
		t.Fatal("expected base metrics config to survive when overlay omits it")
	}
}

func TestEnabledProviders(t *testing.T) {
	cfg := config.Config{
		Providers: map[string]config.ProviderConfig{
			"openai":    {Enabled: true},
			"anthropic": {Enabled: false},
			"basic":     {Enabled: true},
		},
	}

	names := cfg.EnabledProviders()
	if len(names) != 2 {
		t.Fatalf("expected 2 enabled providers, got %d: %v", len(names), names)
	}
	seen := map[string]bool{}
	for _, name := range names {
		seen[name] = true
	}
	if !seen["openai"] || !seen["basic"] {
		t.Fatalf("expected openai and basic enabled, got %v", names)
	}
}
