package summary

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bkyoung/pr-summarizer/internal/domain"
)

// Confidence scoring applied after validation. Issues lower confidence but
// never block the summary from being returned.
const (
	confidenceBase    = 0.95
	confidencePenalty = 0.10
	confidenceFloor   = 0.50
)

// wordBounds is the acceptable word-count range per persona, derived from
// each persona's sentence-count target.
type wordBounds struct {
	min int
	max int
}

var personaWordBounds = map[domain.Persona]wordBounds{
	domain.PersonaExecutive: {min: 10, max: 80},
	domain.PersonaProduct:   {min: 20, max: 160},
	domain.PersonaDeveloper: {min: 30, max: 300},
	domain.PersonaReviewer:  {min: 30, max: 300},
}

var (
	placeholderRe = regexp.MustCompile(`\[[^\]]*\]|\{\{[^}]*\}\}|\bTODO\b|\bFIXME\b|\bXXX\b`)
	unresolvedRe  = regexp.MustCompile(`\{[a-zA-Z_][a-zA-Z0-9_]*\}`)
	wordRe        = regexp.MustCompile(`[A-Za-z0-9_./-]+`)

	// Code-shaped tokens that have no place in an executive summary.
	codeJargonRe = regexp.MustCompile(`\b\w+\(\)|\b\w+\.\w+\.(go|py|js|ts|java|rb|rs)\b|[a-z]+_[a-z]+_[a-z]+|/[a-z][\w-]*/[\w-]+`)

	// Technical call patterns expected in developer-facing text.
	technicalRe = regexp.MustCompile(`(?i)\b(function|method|module|package|class|struct|interface|refactor|implement|test|config|dependency|endpoint|handler|query|schema|api|directory|file)\b`)

	// Business vocabulary expected in executive-facing text.
	businessRe = regexp.MustCompile(`(?i)\b(business|customer|user|risk|impact|revenue|release|feature|improvement|update|maintenance|compliance|performance|reliability|engineering)\b`)

	filePathRe = regexp.MustCompile(`\b[\w./-]+\.(go|py|js|ts|jsx|tsx|java|rb|rs|c|h|cpp|md|ya?ml|json|toml|sql|sh|proto)\b`)
)

// Validator performs post-hoc quality checks on generated summary text.
type Validator struct{}

// NewValidator constructs a Validator.
func NewValidator() *Validator { return &Validator{} }

// Validate checks summary text against persona expectations. It returns
// whether the text passed cleanly and the list of issues found. When
// codeContext is non-nil, file paths mentioned in the summary are checked
// against the diff.
func (v *Validator) Validate(text string, persona domain.Persona, codeContext *domain.CodeChanges) (bool, []string) {
	var issues []string

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false, []string{"summary is empty"}
	}

	words := wordRe.FindAllString(trimmed, -1)
	if bounds, ok := personaWordBounds[persona]; ok {
		if len(words) < bounds.min {
			issues = append(issues, fmt.Sprintf("too short: %d words, expected at least %d", len(words), bounds.min))
		}
		if len(words) > bounds.max {
			issues = append(issues, fmt.Sprintf("too long: %d words, expected at most %d", len(words), bounds.max))
		}
	}

	if placeholderRe.MatchString(trimmed) || unresolvedRe.MatchString(trimmed) {
		issues = append(issues, "contains placeholder or unresolved template markers")
	}

	if repeated := firstImmediateRepeat(words); repeated != "" {
		issues = append(issues, fmt.Sprintf("immediate word repetition: %q", repeated))
	}

	switch persona {
	case domain.PersonaExecutive:
		if codeJargonRe.MatchString(trimmed) {
			issues = append(issues, "executive summary contains code-level jargon")
		}
		if !businessRe.MatchString(trimmed) {
			issues = append(issues, "executive summary lacks business framing")
		}
	case domain.PersonaDeveloper, domain.PersonaReviewer:
		if !technicalRe.MatchString(trimmed) {
			issues = append(issues, "technical summary lacks technical vocabulary")
		}
	}

	if codeContext != nil {
		known := make(map[string]struct{}, len(codeContext.Files))
		for _, f := range codeContext.Files {
			known[f.Path] = struct{}{}
		}
		for _, mention := range filePathRe.FindAllString(trimmed, -1) {
			if !pathInDiff(mention, known) {
				issues = append(issues, fmt.Sprintf("mentions file not in diff: %s", mention))
			}
		}
	}

	return len(issues) == 0, issues
}

// Confidence converts an issue count into a confidence score.
func Confidence(issueCount int) float64 {
	score := confidenceBase - confidencePenalty*float64(issueCount)
	if score < confidenceFloor {
		return confidenceFloor
	}
	return score
}

// firstImmediateRepeat returns the first word that appears twice in a row,
// case-insensitively, or "" if none does.
func firstImmediateRepeat(words []string) string {
	for i := 1; i < len(words); i++ {
		if strings.EqualFold(words[i], words[i-1]) {
			return words[i]
		}
	}
	return ""
}

// pathInDiff reports whether a mentioned path matches a changed file, either
// exactly or as a suffix (summaries often drop leading directories).
func pathInDiff(mention string, known map[string]struct{}) bool {
	if _, ok := known[mention]; ok {
		return true
	}
	for path := range known {
		if strings.HasSuffix(path, "/"+mention) || strings.HasSuffix(mention, "/"+path) {
			return true
		}
	}
	return false
}
