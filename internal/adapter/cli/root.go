// Package cli wires the summary service into a Cobra command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/bkyoung/pr-summarizer/internal/domain"
	"github.com/bkyoung/pr-summarizer/internal/usecase/summary"
)

// ErrVersionRequested indicates the user requested the CLI version and no
// further work should be done.
var ErrVersionRequested = errors.New("version requested")

// Summarizer defines the service surface the CLI drives.
type Summarizer interface {
	GenerateSummaries(ctx context.Context, changes domain.CodeChanges, repo domain.RepoContext, pr domain.PRMetadata) (domain.AISummaries, error)
	GenerateSummariesStreaming(ctx context.Context, changes domain.CodeChanges, repo domain.RepoContext, pr domain.PRMetadata) (<-chan summary.StreamChunk, error)
	AddFeedback(ctx context.Context, prURL string, persona domain.Persona, summaryText, feedbackType, value string) error
	CostReport(days int) (summary.UsageReport, error)
	FeedbackStats(ctx context.Context) (map[domain.Persona]domain.FeedbackStats, error)
	HealthCheck(ctx context.Context) summary.HealthReport
}

// ChangeSource extracts a change set from the local repository.
type ChangeSource interface {
	Changes(ctx context.Context, baseRef, headRef string) (domain.CodeChanges, error)
	CurrentBranch(ctx context.Context) (string, error)
}

// SummaryWriter persists rendered summaries to disk.
type SummaryWriter interface {
	Write(ctx context.Context, summaries domain.AISummaries, pr domain.PRMetadata, repository string) (string, error)
}

// CacheController exposes the cache maintenance surface.
type CacheController interface {
	Clear()
	CleanupExpired() int
	Len() int
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Summarizer  Summarizer
	Source      ChangeSource
	Writer      SummaryWriter
	Cache       CacheController
	Args        Arguments
	DefaultRepo string
	DefaultBase string
	Version     string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "prsum",
		Short: "Audience-tailored PR summaries from interchangeable LLM providers",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.AddCommand(summarizeCommand(deps))
	root.AddCommand(feedbackCommand(deps.Summarizer))
	root.AddCommand(reportCommand(deps.Summarizer))
	root.AddCommand(healthCommand(deps.Summarizer))
	root.AddCommand(cacheCommand(deps.Cache))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func summarizeCommand(deps Dependencies) *cobra.Command {
	var baseRef string
	var headRef string
	var repository string
	var repoType string
	var language string
	var prURL string
	var prTitle string
	var prDescription string
	var stream bool

	cmd := &cobra.Command{
		Use:   "summarize [head]",
		Short: "Generate persona summaries for a change set",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				headRef = args[0]
			}
			ctx := cmd.Context()

			if headRef == "" {
				resolved, err := deps.Source.CurrentBranch(ctx)
				if err != nil {
					return fmt.Errorf("detect head branch: %w", err)
				}
				headRef = resolved
			}

			changes, err := deps.Source.Changes(ctx, baseRef, headRef)
			if err != nil {
				return fmt.Errorf("extract changes: %w", err)
			}

			repo := domain.RepoContext{
				Name:            repository,
				Type:            repoType,
				PrimaryLanguage: language,
			}
			pr := domain.PRMetadata{
				URL:         prURL,
				Title:       prTitle,
				Description: prDescription,
				BaseBranch:  baseRef,
				HeadBranch:  headRef,
			}
			if pr.Title == "" {
				pr.Title = fmt.Sprintf("%s into %s", headRef, baseRef)
			}

			if stream && summary.IsInteractive() {
				chunks, err := deps.Summarizer.GenerateSummariesStreaming(ctx, changes, repo, pr)
				if err != nil {
					return err
				}
				var current domain.Persona
				for chunk := range chunks {
					if chunk.Persona != current {
						current = chunk.Persona
						fmt.Fprintf(cmd.OutOrStdout(), "\n== %s ==\n", current)
					}
					fmt.Fprint(cmd.OutOrStdout(), chunk.Text)
				}
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			}

			summaries, err := deps.Summarizer.GenerateSummaries(ctx, changes, repo, pr)
			if err != nil {
				return err
			}

			if deps.Writer != nil {
				path, err := deps.Writer.Write(ctx, summaries, pr, repository)
				if err != nil {
					return fmt.Errorf("write output: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Summary written to %s\n", path)
				return nil
			}

			for _, ps := range summaries.All() {
				fmt.Fprintf(cmd.OutOrStdout(), "\n== %s (confidence %.2f) ==\n%s\n", ps.Persona, ps.Confidence, ps.Text)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&baseRef, "base", defaultString(deps.DefaultBase, "main"), "Base reference to diff against")
	cmd.Flags().StringVar(&headRef, "head", "", "Head reference (defaults to the current branch)")
	cmd.Flags().StringVar(&repository, "repo", deps.DefaultRepo, "Repository name for context and output")
	cmd.Flags().StringVar(&repoType, "repo-type", "application", "Repository type (library, service, application)")
	cmd.Flags().StringVar(&language, "language", "", "Primary language of the repository")
	cmd.Flags().StringVar(&prURL, "pr-url", "", "Pull request URL for usage attribution")
	cmd.Flags().StringVar(&prTitle, "title", "", "Pull request title")
	cmd.Flags().StringVar(&prDescription, "description", "", "Pull request description")
	cmd.Flags().BoolVar(&stream, "stream", false, "Stream summaries to the terminal as they complete")

	return cmd
}

func feedbackCommand(summarizer Summarizer) *cobra.Command {
	var prURL string
	var persona string
	var summaryText string
	var feedbackType string
	var value string

	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Record feedback on a generated summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			if value == "" {
				return fmt.Errorf("--value is required")
			}
			err := summarizer.AddFeedback(cmd.Context(), prURL, domain.Persona(persona), summaryText, feedbackType, value)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Feedback recorded")
			return nil
		},
	}

	cmd.Flags().StringVar(&prURL, "pr-url", "", "Pull request URL the summary belongs to")
	cmd.Flags().StringVar(&persona, "persona", "", "Persona the feedback applies to")
	cmd.Flags().StringVar(&summaryText, "summary", "", "The summary text being rated or corrected")
	cmd.Flags().StringVar(&feedbackType, "type", "rating", "Feedback type: rating, correction, or comment")
	cmd.Flags().StringVar(&value, "value", "", "Rating (1-5), corrected text, or comment")
	_ = cmd.MarkFlagRequired("persona")

	return cmd
}

func reportCommand(summarizer Summarizer) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show usage cost and feedback statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			report, err := summarizer.CostReport(days)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Usage over %d day(s): %d generation(s), $%.4f\n", report.Days, report.TotalCalls, report.TotalCost)
			for _, name := range sortedBucketKeys(report.ByProvider) {
				bucket := report.ByProvider[name]
				fmt.Fprintf(out, "  provider %-10s %4d call(s)  $%.4f\n", name, bucket.Count, bucket.CostUSD)
			}
			for _, name := range sortedBucketKeys(report.ByPersona) {
				bucket := report.ByPersona[name]
				fmt.Fprintf(out, "  persona  %-10s %4d call(s)  $%.4f\n", name, bucket.Count, bucket.CostUSD)
			}

			stats, err := summarizer.FeedbackStats(cmd.Context())
			if err != nil {
				// Feedback may be disabled; the cost report already printed.
				fmt.Fprintf(cmd.ErrOrStderr(), "feedback stats unavailable: %v\n", err)
				return nil
			}
			fmt.Fprintln(out, "Feedback:")
			for _, persona := range domain.Personas() {
				s := stats[persona]
				fmt.Fprintf(out, "  %-10s total=%d avg=%.1f +%d/-%d corrections=%d\n",
					persona, s.TotalFeedback, s.AverageRating, s.PositiveCount, s.NegativeCount, s.CorrectionCount)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "Trailing window in days")
	return cmd
}

func healthCommand(summarizer Summarizer) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe provider and cache health",
		RunE: func(cmd *cobra.Command, args []string) error {
			report := summarizer.HealthCheck(cmd.Context())
			out := cmd.OutOrStdout()

			for _, status := range report.Providers {
				state := "ok"
				if !status.Healthy {
					state = "unhealthy"
				}
				if status.Detail != "" {
					fmt.Fprintf(out, "%-10s %s (%s)\n", status.Provider, state, status.Detail)
				} else {
					fmt.Fprintf(out, "%-10s %s\n", status.Provider, state)
				}
			}
			if report.Cache.Enabled {
				fmt.Fprintf(out, "cache      enabled, %d entries, ttl %ds\n", report.Cache.Entries, report.Cache.TTLSeconds)
			} else {
				fmt.Fprintln(out, "cache      disabled")
			}

			if !report.Healthy {
				return fmt.Errorf("one or more providers are unhealthy")
			}
			return nil
		},
	}
}

func cacheCommand(cache CacheController) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the summary cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show cache entry count",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cache == nil {
				return fmt.Errorf("cache is disabled")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d entries\n", cache.Len())
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove all cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cache == nil {
				return fmt.Errorf("cache is disabled")
			}
			cache.Clear()
			fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "cleanup",
		Short: "Remove expired cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cache == nil {
				return fmt.Errorf("cache is disabled")
			}
			removed := cache.CleanupExpired()
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired entrie(s)\n", removed)
			return nil
		},
	})

	return cmd
}

func defaultString(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func sortedBucketKeys(buckets map[string]summary.UsageBucket) []string {
	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
