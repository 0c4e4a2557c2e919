package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bkyoung/pr-summarizer/internal/adapter/cli"
	"github.com/bkyoung/pr-summarizer/internal/adapter/gitsource"
	llmadapter "github.com/bkyoung/pr-summarizer/internal/adapter/llm"
	"github.com/bkyoung/pr-summarizer/internal/adapter/llm/anthropic"
	"github.com/bkyoung/pr-summarizer/internal/adapter/llm/basic"
	"github.com/bkyoung/pr-summarizer/internal/adapter/llm/gemini"
	llmhttp "github.com/bkyoung/pr-summarizer/internal/adapter/llm/http"
	"github.com/bkyoung/pr-summarizer/internal/adapter/llm/openai"
	jsonwriter "github.com/bkyoung/pr-summarizer/internal/adapter/output/json"
	"github.com/bkyoung/pr-summarizer/internal/adapter/output/markdown"
	"github.com/bkyoung/pr-summarizer/internal/adapter/store/sqlite"
	"github.com/bkyoung/pr-summarizer/internal/config"
	"github.com/bkyoung/pr-summarizer/internal/domain"
	"github.com/bkyoung/pr-summarizer/internal/usecase/summary"
	"github.com/bkyoung/pr-summarizer/internal/version"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return
		}
		log.Println(err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "prsum",
		EnvPrefix:   "PRSUM",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	obs := buildObservability(cfg.Observability)
	providers := buildProviders(cfg.Providers, cfg.HTTP, obs)

	var cache *summary.Cache
	if cfg.Cache.Enabled {
		cache = summary.NewCache(time.Duration(cfg.Cache.TTLSeconds) * time.Second)
	}

	var optimizer *summary.CostOptimizer
	if cfg.Cost.OptimizeEnabled {
		optimizer = summary.NewCostOptimizer(cfg.Cost.QualityThreshold, cfg.Cost.DailyBudgetUSD)
	}

	var feedbackStore summary.FeedbackStore
	var integrator *summary.Integrator
	if cfg.Store.Enabled {
		storeDir := filepath.Dir(cfg.Store.Path)
		if err := os.MkdirAll(storeDir, 0o755); err != nil {
			log.Printf("warning: failed to create store directory: %v", err)
		} else {
			sqliteStore, err := sqlite.NewStore(cfg.Store.Path)
			if err != nil {
				log.Printf("warning: failed to initialize feedback store: %v", err)
			} else {
				feedbackStore = sqliteStore
				integrator = summary.NewIntegrator(sqliteStore)
				defer feedbackStore.Close()
			}
		}
	}

	service, err := summary.NewService(summary.ServiceDeps{
		Providers:     providers,
		Builder:       summary.NewPromptBuilder(),
		Validator:     summary.NewValidator(),
		Cache:         cache,
		Optimizer:     optimizer,
		Feedback:      integrator,
		Store:         feedbackStore,
		Logger:        obs.logger,
		Metrics:       obs.metrics,
		FixedProvider: cfg.Generation.Provider,
		CacheEnabled:  cfg.Cache.Enabled,
		CostOptimized: cfg.Cost.OptimizeEnabled,
		AgentContext:  cfg.Generation.AgentContext,
	})
	if err != nil {
		return fmt.Errorf("service construction failed: %w", err)
	}

	repoDir := cfg.Git.RepositoryDir
	if repoDir == "" {
		repoDir = "."
	}

	var cacheController cli.CacheController
	if cache != nil {
		cacheController = cache
	}

	root := cli.NewRootCommand(cli.Dependencies{
		Summarizer:  service,
		Source:      gitsource.NewSource(repoDir),
		Writer:      buildWriter(cfg.Output),
		Cache:       cacheController,
		DefaultRepo: repositoryName(repoDir),
		Version:     version.Value(),
	})

	return root.ExecuteContext(ctx)
}

// observabilityComponents holds shared observability instances.
type observabilityComponents struct {
	logger  llmhttp.Logger
	metrics llmhttp.Metrics
}

func buildObservability(cfg config.ObservabilityConfig) observabilityComponents {
	var obs observabilityComponents

	if cfg.Logging.Enabled {
		logLevel := llmhttp.LogLevelInfo
		switch cfg.Logging.Level {
		case "debug":
			logLevel = llmhttp.LogLevelDebug
		case "error":
			logLevel = llmhttp.LogLevelError
		}

		logFormat := llmhttp.LogFormatHuman
		if cfg.Logging.Format == "json" {
			logFormat = llmhttp.LogFormatJSON
		}

		obs.logger = llmhttp.NewDefaultLogger(logLevel, logFormat, cfg.Logging.RedactAPIKeys)
	}

	if cfg.Metrics.Enabled {
		obs.metrics = llmhttp.NewDefaultMetrics()
	}

	return obs
}

func buildProviders(providersConfig map[string]config.ProviderConfig, httpConfig config.HTTPConfig, obs observabilityComponents) map[string]llmadapter.Provider {
	providers := make(map[string]llmadapter.Provider)

	if cfg, ok := providersConfig["openai"]; ok && cfg.Enabled {
		if cfg.APIKey == "" {
			log.Println("OpenAI: no API key provided, skipping provider")
		} else {
			client := openai.NewHTTPClient(cfg.APIKey)
			applyClientOverrides(cfg, httpConfig, client.SetBaseURL, client.SetTimeout)
			providers["openai"] = openai.NewProvider(
				defaultModel(cfg.Model, "gpt-4o"), client, retryConfigFor(cfg, httpConfig),
			).WithObservability(obs.logger, obs.metrics)
		}
	}

	if cfg, ok := providersConfig["anthropic"]; ok && cfg.Enabled {
		if cfg.APIKey == "" {
			log.Println("Anthropic: no API key provided, skipping provider")
		} else {
			client := anthropic.NewHTTPClient(cfg.APIKey)
			applyClientOverrides(cfg, httpConfig, client.SetBaseURL, client.SetTimeout)
			providers["anthropic"] = anthropic.NewProvider(
				defaultModel(cfg.Model, "claude-3-5-sonnet-20241022"), client, retryConfigFor(cfg, httpConfig),
			).WithObservability(obs.logger, obs.metrics)
		}
	}

	if cfg, ok := providersConfig["gemini"]; ok && cfg.Enabled {
		if cfg.APIKey == "" {
			log.Println("Gemini: no API key provided, skipping provider")
		} else {
			client := gemini.NewHTTPClient(cfg.APIKey)
			applyClientOverrides(cfg, httpConfig, client.SetBaseURL, client.SetTimeout)
			providers["gemini"] = gemini.NewProvider(
				defaultModel(cfg.Model, "gemini-1.5-flash"), client, retryConfigFor(cfg, httpConfig),
			).WithObservability(obs.logger, obs.metrics)
		}
	}

	// The templated fallback is always available so the service can run
	// without any credentials.
	if cfg, ok := providersConfig["basic"]; !ok || cfg.Enabled {
		providers["basic"] = basic.NewProvider("")
	}

	return providers
}

// applyClientOverrides applies base URL and timeout settings, preferring
// per-provider values over the global HTTP config.
func applyClientOverrides(cfg config.ProviderConfig, httpConfig config.HTTPConfig, setBaseURL func(string), setTimeout func(time.Duration)) {
	if cfg.BaseURL != "" {
		setBaseURL(cfg.BaseURL)
	}
	timeout := httpConfig.Timeout
	if cfg.Timeout != nil {
		timeout = *cfg.Timeout
	}
	if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
		setTimeout(d)
	}
}

// retryConfigFor resolves the retry settings for a provider, applying
// per-provider overrides on top of the global HTTP config.
func retryConfigFor(cfg config.ProviderConfig, httpConfig config.HTTPConfig) llmhttp.RetryConfig {
	retry := llmhttp.DefaultRetryConfig()

	if httpConfig.MaxRetries > 0 {
		retry.MaxRetries = httpConfig.MaxRetries
	}
	if d, err := time.ParseDuration(httpConfig.InitialBackoff); err == nil && d > 0 {
		retry.InitialBackoff = d
	}
	if d, err := time.ParseDuration(httpConfig.MaxBackoff); err == nil && d > 0 {
		retry.MaxBackoff = d
	}
	if httpConfig.BackoffMultiplier > 0 {
		retry.Multiplier = httpConfig.BackoffMultiplier
	}

	if cfg.MaxRetries != nil {
		retry.MaxRetries = *cfg.MaxRetries
	}
	if cfg.InitialBackoff != nil {
		if d, err := time.ParseDuration(*cfg.InitialBackoff); err == nil && d > 0 {
			retry.InitialBackoff = d
		}
	}
	if cfg.MaxBackoff != nil {
		if d, err := time.ParseDuration(*cfg.MaxBackoff); err == nil && d > 0 {
			retry.MaxBackoff = d
		}
	}

	return retry
}

func defaultModel(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}

// markdownBridge adapts the markdown writer to the CLI output port.
type markdownBridge struct {
	writer    *markdown.Writer
	outputDir string
}

func (b markdownBridge) Write(ctx context.Context, summaries domain.AISummaries, pr domain.PRMetadata, repository string) (string, error) {
	return b.writer.Write(ctx, markdown.Artifact{
		OutputDir:  b.outputDir,
		Repository: repository,
		PR:         pr,
		Summaries:  summaries,
	})
}

// jsonBridge adapts the JSON writer to the CLI output port.
type jsonBridge struct {
	writer    *jsonwriter.Writer
	outputDir string
}

func (b jsonBridge) Write(ctx context.Context, summaries domain.AISummaries, pr domain.PRMetadata, repository string) (string, error) {
	return b.writer.Write(ctx, jsonwriter.Artifact{
		OutputDir:  b.outputDir,
		Repository: repository,
		PR:         pr,
		Summaries:  summaries,
	})
}

func buildWriter(cfg config.OutputConfig) cli.SummaryWriter {
	if cfg.Directory == "" {
		return nil
	}
	nowFunc := func() string {
		return time.Now().UTC().Format("20060102T150405Z")
	}
	if cfg.Format == "json" {
		return jsonBridge{writer: jsonwriter.NewWriter(nowFunc), outputDir: cfg.Directory}
	}
	return markdownBridge{writer: markdown.NewWriter(nowFunc), outputDir: cfg.Directory}
}

func repositoryName(repoDir string) string {
	abs, err := filepath.Abs(repoDir)
	if err != nil {
		return "unknown"
	}
	return filepath.Base(abs)
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "prsum"))
	}
	return paths
}
