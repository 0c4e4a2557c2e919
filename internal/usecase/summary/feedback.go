package summary

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bkyoung/pr-summarizer/internal/domain"
)

// FeedbackStore persists feedback entries and serves them back for
// aggregation. Implementations must make each append atomic; readers may
// run concurrently with writers.
type FeedbackStore interface {
	Append(ctx context.Context, entry domain.FeedbackEntry) error
	ByPersona(ctx context.Context, persona domain.Persona) ([]domain.FeedbackEntry, error)
	All(ctx context.Context) ([]domain.FeedbackEntry, error)
	Close() error
}

// Thresholds that trigger feedback-driven prompt adjustment.
const (
	adjustRatingThreshold     = 3.5
	adjustCorrectionThreshold = 5
	recentCorrectionWindow    = 5
	lowRatingMax              = 2
	phraseMinShare            = 0.30
	maxAvoidPatterns          = 5
)

// Keyword lists used to classify free-text comment entries.
var (
	positiveKeywords = []string{"good", "great", "helpful", "accurate", "clear"}
	negativeKeywords = []string{"wrong", "bad", "unhelpful", "confusing", "incorrect", "verbose"}
)

// PromptAdjustments are feedback-derived hints folded into a persona's
// prompt before generation.
type PromptAdjustments struct {
	AddExamples      bool
	EmphasizeClarity bool
	AdjustLength     string // "shorter", "longer", or ""
	AvoidPatterns    []string
}

// Render flattens the adjustments into prompt-ready instruction lines.
func (a PromptAdjustments) Render(persona domain.Persona) string {
	var lines []string
	if a.AddExamples {
		lines = append(lines, "- Include a concrete example of the kind of change being made.")
	}
	if a.EmphasizeClarity {
		lines = append(lines, "- Prior summaries for this audience were rated unclear; prefer plain, direct phrasing.")
	}
	switch a.AdjustLength {
	case "shorter":
		lines = append(lines, "- Keep it tighter than usual; past summaries ran long.")
	case "longer":
		lines = append(lines, "- Past summaries were too thin; add one more sentence of substance.")
	}
	for _, pattern := range a.AvoidPatterns {
		lines = append(lines, fmt.Sprintf("- Avoid the phrase %q.", pattern))
	}
	return strings.Join(lines, "\n")
}

// Integrator turns stored feedback into per-persona stats and prompt
// adjustments.
type Integrator struct {
	store FeedbackStore
}

// NewIntegrator builds an Integrator over the given store.
func NewIntegrator(store FeedbackStore) *Integrator {
	return &Integrator{store: store}
}

// Stats aggregates all feedback for one persona. Ratings >= 4 count as
// positive and <= 2 as negative; comments are classified by keyword.
func (in *Integrator) Stats(ctx context.Context, persona domain.Persona) (domain.FeedbackStats, error) {
	entries, err := in.store.ByPersona(ctx, persona)
	if err != nil {
		return domain.FeedbackStats{}, fmt.Errorf("loading feedback for %s: %w", persona, err)
	}
	return aggregateStats(entries), nil
}

// AllStats aggregates feedback for every persona, including personas with
// no feedback yet.
func (in *Integrator) AllStats(ctx context.Context) (map[domain.Persona]domain.FeedbackStats, error) {
	entries, err := in.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading feedback: %w", err)
	}

	byPersona := make(map[domain.Persona][]domain.FeedbackEntry)
	for _, entry := range entries {
		byPersona[entry.Persona] = append(byPersona[entry.Persona], entry)
	}

	stats := make(map[domain.Persona]domain.FeedbackStats, len(domain.Personas()))
	for _, persona := range domain.Personas() {
		stats[persona] = aggregateStats(byPersona[persona])
	}
	return stats, nil
}

// ShouldAdjustPrompt reports whether accumulated feedback for a persona
// warrants adjusting its prompt: average rating below 3.5, more than 5
// corrections, or negatives outnumbering positives.
func (in *Integrator) ShouldAdjustPrompt(ctx context.Context, persona domain.Persona) (bool, error) {
	stats, err := in.Stats(ctx, persona)
	if err != nil {
		return false, err
	}
	if stats.TotalFeedback == 0 {
		return false, nil
	}
	if stats.AverageRating > 0 && stats.AverageRating < adjustRatingThreshold {
		return true, nil
	}
	if stats.CorrectionCount > adjustCorrectionThreshold {
		return true, nil
	}
	return stats.NegativeCount > stats.PositiveCount, nil
}

// PromptAdjustments derives adjustment hints for a persona from its recent
// corrections and from phrases common across low-rated summaries.
func (in *Integrator) PromptAdjustments(ctx context.Context, persona domain.Persona) (PromptAdjustments, error) {
	entries, err := in.store.ByPersona(ctx, persona)
	if err != nil {
		return PromptAdjustments{}, fmt.Errorf("loading feedback for %s: %w", persona, err)
	}

	var adjustments PromptAdjustments

	corrections := lastCorrections(entries, recentCorrectionWindow)
	if len(corrections) > 0 {
		adjustments.AddExamples = true
		adjustments.AdjustLength = lengthDelta(corrections)
	}

	lowRated := lowRatedSummaries(entries)
	if len(lowRated) > 0 {
		adjustments.EmphasizeClarity = true
		adjustments.AvoidPatterns = commonPhrases(lowRated, phraseMinShare, maxAvoidPatterns)
	}

	return adjustments, nil
}

func aggregateStats(entries []domain.FeedbackEntry) domain.FeedbackStats {
	var stats domain.FeedbackStats
	var ratingSum, ratingCount int

	for _, entry := range entries {
		stats.TotalFeedback++
		switch entry.Type {
		case domain.FeedbackTypeRating:
			rating, ok := entry.Rating()
			if !ok {
				continue
			}
			ratingSum += rating
			ratingCount++
			if rating >= 4 {
				stats.PositiveCount++
			} else if rating <= lowRatingMax {
				stats.NegativeCount++
			}
		case domain.FeedbackTypeCorrection:
			stats.CorrectionCount++
		case domain.FeedbackTypeComment:
			switch classifyComment(entry.Value) {
			case 1:
				stats.PositiveCount++
			case -1:
				stats.NegativeCount++
			}
		}
	}

	if ratingCount > 0 {
		stats.AverageRating = float64(ratingSum) / float64(ratingCount)
	}
	return stats
}

// classifyComment returns 1 for positive, -1 for negative, 0 for neutral.
// Negative keywords win ties; a complaint wrapped in politeness is still a
// complaint.
func classifyComment(text string) int {
	lower := strings.ToLower(text)
	for _, kw := range negativeKeywords {
		if strings.Contains(lower, kw) {
			return -1
		}
	}
	for _, kw := range positiveKeywords {
		if strings.Contains(lower, kw) {
			return 1
		}
	}
	return 0
}

// lastCorrections returns up to limit correction entries, newest first.
func lastCorrections(entries []domain.FeedbackEntry, limit int) []domain.FeedbackEntry {
	var corrections []domain.FeedbackEntry
	for _, entry := range entries {
		if entry.Type == domain.FeedbackTypeCorrection {
			corrections = append(corrections, entry)
		}
	}
	sort.Slice(corrections, func(i, j int) bool {
		return corrections[i].CreatedAt.After(corrections[j].CreatedAt)
	})
	if len(corrections) > limit {
		corrections = corrections[:limit]
	}
	return corrections
}

// lengthDelta compares corrected text lengths against the summaries they
// replaced. A consistent direction across the window yields an adjustment.
func lengthDelta(corrections []domain.FeedbackEntry) string {
	shorter, longer := 0, 0
	for _, c := range corrections {
		original := len(strings.Fields(c.SummaryText))
		corrected := len(strings.Fields(c.Value))
		if original == 0 || corrected == 0 {
			continue
		}
		switch {
		case corrected < original:
			shorter++
		case corrected > original:
			longer++
		}
	}
	switch {
	case shorter > longer:
		return "shorter"
	case longer > shorter:
		return "longer"
	default:
		return ""
	}
}

// lowRatedSummaries returns the summary texts of entries rated at or below
// the low-rating cutoff.
func lowRatedSummaries(entries []domain.FeedbackEntry) []string {
	var texts []string
	for _, entry := range entries {
		rating, ok := entry.Rating()
		if ok && rating <= lowRatingMax && entry.SummaryText != "" {
			texts = append(texts, entry.SummaryText)
		}
	}
	return texts
}

// commonPhrases extracts trigram phrases that occur in at least minShare of
// the given texts, returning the top limit by frequency.
func commonPhrases(texts []string, minShare float64, limit int) []string {
	const n = 3

	counts := make(map[string]int)
	for _, text := range texts {
		words := strings.Fields(strings.ToLower(text))
		seen := make(map[string]struct{})
		for i := 0; i+n <= len(words); i++ {
			phrase := strings.Join(words[i:i+n], " ")
			if _, dup := seen[phrase]; dup {
				continue
			}
			seen[phrase] = struct{}{}
			counts[phrase]++
		}
	}

	minCount := int(minShare*float64(len(texts)) + 0.999)
	if minCount < 2 {
		minCount = 2
	}

	var phrases []string
	for phrase, count := range counts {
		if count >= minCount {
			phrases = append(phrases, phrase)
		}
	}
	sort.Slice(phrases, func(i, j int) bool {
		if counts[phrases[i]] != counts[phrases[j]] {
			return counts[phrases[i]] > counts[phrases[j]]
		}
		return phrases[i] < phrases[j]
	})
	if len(phrases) > limit {
		phrases = phrases[:limit]
	}
	return phrases
}
