package config

// Config represents the full application configuration.
type Config struct {
	Providers     map[string]ProviderConfig `yaml:"providers"`
	Generation    GenerationConfig          `yaml:"generation"`
	HTTP          HTTPConfig                `yaml:"http"`
	Cache         CacheConfig               `yaml:"cache"`
	Cost          CostConfig                `yaml:"cost"`
	Git           GitConfig                 `yaml:"git"`
	Output        OutputConfig              `yaml:"output"`
	Store         StoreConfig               `yaml:"store"`
	Observability ObservabilityConfig       `yaml:"observability"`
}

// ProviderConfig configures a single LLM provider.
type ProviderConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"apiKey"`
	BaseURL string `yaml:"baseUrl"`

	// HTTP overrides (optional, global HTTP config applies if unset)
	Timeout        *string `yaml:"timeout,omitempty"`
	MaxRetries     *int    `yaml:"maxRetries,omitempty"`
	InitialBackoff *string `yaml:"initialBackoff,omitempty"`
	MaxBackoff     *string `yaml:"maxBackoff,omitempty"`
}

// GenerationConfig selects the provider used when cost optimization is off
// and carries the opaque agent context block.
type GenerationConfig struct {
	Provider     string `yaml:"provider"`
	AgentContext string `yaml:"agentContext"`
}

// HTTPConfig holds global HTTP client and retry settings.
type HTTPConfig struct {
	Timeout           string  `yaml:"timeout"`
	MaxRetries        int     `yaml:"maxRetries"`
	InitialBackoff    string  `yaml:"initialBackoff"`
	MaxBackoff        string  `yaml:"maxBackoff"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`
}

// CacheConfig configures the in-memory summary cache.
type CacheConfig struct {
	Enabled    bool `yaml:"enabled"`
	TTLSeconds int  `yaml:"ttlSeconds"`
}

// CostConfig configures cost-aware provider selection.
type CostConfig struct {
	OptimizeEnabled  bool    `yaml:"optimizeEnabled"`
	QualityThreshold float64 `yaml:"qualityThreshold"`
	DailyBudgetUSD   float64 `yaml:"dailyBudgetUSD"`
}

// GitConfig locates the repository used for local diff extraction.
type GitConfig struct {
	RepositoryDir string `yaml:"repositoryDir"`
}

// OutputConfig configures where rendered summaries are written.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Format    string `yaml:"format"` // markdown, json
}

// StoreConfig configures the feedback persistence layer.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ObservabilityConfig configures logging and metrics.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures request/response logging.
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Level         string `yaml:"level"`  // debug, info, error
	Format        string `yaml:"format"` // json, human
	RedactAPIKeys bool   `yaml:"redactAPIKeys"`
}

// MetricsConfig configures performance and cost metrics tracking.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Merge combines multiple configuration instances, prioritising the latter ones.
func Merge(configs ...Config) Config {
	result := Config{}
	for _, cfg := range configs {
		result = merge(result, cfg)
	}
	return result
}

func merge(base, overlay Config) Config {
	result := base

	result.Generation = chooseGeneration(base.Generation, overlay.Generation)
	result.HTTP = chooseHTTP(base.HTTP, overlay.HTTP)
	result.Cache = chooseCache(base.Cache, overlay.Cache)
	result.Cost = chooseCost(base.Cost, overlay.Cost)
	result.Git = chooseGit(base.Git, overlay.Git)
	result.Output = chooseOutput(base.Output, overlay.Output)
	result.Store = chooseStore(base.Store, overlay.Store)
	result.Observability = chooseObservability(base.Observability, overlay.Observability)
	result.Providers = mergeProviders(base.Providers, overlay.Providers)

	return result
}

func mergeProviders(base, overlay map[string]ProviderConfig) map[string]ProviderConfig {
	if len(base) == 0 && len(overlay) == 0 {
		return nil
	}
	result := make(map[string]ProviderConfig, len(base)+len(overlay))
	for key, value := range base {
		result[key] = value
	}
	for key, value := range overlay {
		result[key] = value
	}
	return result
}

func chooseGeneration(base, overlay GenerationConfig) GenerationConfig {
	result := base
	if overlay.Provider != "" {
		result.Provider = overlay.Provider
	}
	if overlay.AgentContext != "" {
		result.AgentContext = overlay.AgentContext
	}
	return result
}

func chooseHTTP(base, overlay HTTPConfig) HTTPConfig {
	if overlay.Timeout != "" || overlay.MaxRetries != 0 || overlay.InitialBackoff != "" || overlay.MaxBackoff != "" || overlay.BackoffMultiplier != 0 {
		return overlay
	}
	return base
}

func chooseCache(base, overlay CacheConfig) CacheConfig {
	if overlay.Enabled || overlay.TTLSeconds != 0 {
		return overlay
	}
	return base
}

func chooseCost(base, overlay CostConfig) CostConfig {
	if overlay.OptimizeEnabled || overlay.QualityThreshold != 0 || overlay.DailyBudgetUSD != 0 {
		return overlay
	}
	return base
}

func chooseGit(base, overlay GitConfig) GitConfig {
	if overlay.RepositoryDir != "" {
		return overlay
	}
	return base
}

func chooseOutput(base, overlay OutputConfig) OutputConfig {
	if overlay.Directory != "" || overlay.Format != "" {
		return overlay
	}
	return base
}

func chooseStore(base, overlay StoreConfig) StoreConfig {
	if overlay.Enabled || overlay.Path != "" {
		return overlay
	}
	return base
}

func chooseObservability(base, overlay ObservabilityConfig) ObservabilityConfig {
	result := base

	if overlay.Logging.Enabled || overlay.Logging.Level != "" || overlay.Logging.Format != "" {
		result.Logging = overlay.Logging
	}
	if overlay.Metrics.Enabled {
		result.Metrics = overlay.Metrics
	}

	return result
}

// EnabledProviders returns the names of enabled providers, in no particular
// order.
func (c Config) EnabledProviders() []string {
	var names []string
	for name, provider := range c.Providers {
		if provider.Enabled {
			names = append(names, name)
		}
	}
	return names
}
