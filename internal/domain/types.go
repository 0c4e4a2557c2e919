package domain

import (
	"strconv"
	"strings"
	"time"
)

const (
	FileStatusAdded    = "added"
	FileStatusModified = "modified"
	FileStatusRemoved  = "removed"
	FileStatusRenamed  = "renamed"
)

// Persona identifies one of the four fixed summary audiences.
type Persona string

const (
	PersonaExecutive Persona = "executive"
	PersonaProduct   Persona = "product"
	PersonaDeveloper Persona = "developer"
	PersonaReviewer  Persona = "reviewer"
)

// Personas returns all personas in assembly order. Summaries are always
// assembled in this order regardless of generation completion order.
func Personas() []Persona {
	return []Persona{PersonaExecutive, PersonaProduct, PersonaDeveloper, PersonaReviewer}
}

// ValidPersona reports whether p is one of the four known personas.
func ValidPersona(p Persona) bool {
	switch p {
	case PersonaExecutive, PersonaProduct, PersonaDeveloper, PersonaReviewer:
		return true
	}
	return false
}

// FileDelta captures the change for a single file.
type FileDelta struct {
	Path      string
	Status    string
	Additions int
	Deletions int
	Patch     string
}

// CodeChanges is the ordered set of file deltas for a change, with
// aggregate counters. It is a read-only input to the summary subsystem.
type CodeChanges struct {
	Files          []FileDelta
	TotalAdditions int
	TotalDeletions int
	ChangedFiles   int
}

// TotalLines returns the total changed line count (additions + deletions).
func (c CodeChanges) TotalLines() int {
	return c.TotalAdditions + c.TotalDeletions
}

// ModulePattern groups related paths under a named module.
type ModulePattern struct {
	Paths []string
}

// RepoContext describes the repository the change belongs to.
type RepoContext struct {
	Name            string
	Type            string
	Description     string
	PrimaryLanguage string
	ModulePatterns  map[string]ModulePattern
	Structure       map[string]string
}

// PRMetadata carries the pull-request header fields.
type PRMetadata struct {
	URL         string
	Title       string
	Description string
	BaseBranch  string
	HeadBranch  string
}

// PersonaSummary is the generated text for one persona. Confidence is in
// [0, 1]; a failed generation is represented as a summary with confidence 0
// and an error-describing text, never by omission.
type PersonaSummary struct {
	Persona    Persona
	Text       string
	Confidence float64
}

// AISummaries is the subsystem's primary output: exactly one PersonaSummary
// per persona plus generation metadata.
type AISummaries struct {
	Executive PersonaSummary
	Product   PersonaSummary
	Developer PersonaSummary
	Reviewer  PersonaSummary

	ModelUsed        string
	GeneratedAt      time.Time
	Cached           bool
	TotalTokens      int
	GenerationTimeMs int64
}

// ForPersona returns the summary for the given persona.
func (s AISummaries) ForPersona(p Persona) PersonaSummary {
	switch p {
	case PersonaExecutive:
		return s.Executive
	case PersonaProduct:
		return s.Product
	case PersonaDeveloper:
		return s.Developer
	case PersonaReviewer:
		return s.Reviewer
	}
	return PersonaSummary{}
}

// SetPersona stores the summary under the given persona's slot.
func (s *AISummaries) SetPersona(p Persona, ps PersonaSummary) {
	switch p {
	case PersonaExecutive:
		s.Executive = ps
	case PersonaProduct:
		s.Product = ps
	case PersonaDeveloper:
		s.Developer = ps
	case PersonaReviewer:
		s.Reviewer = ps
	}
}

// All returns the four persona summaries in assembly order.
func (s AISummaries) All() []PersonaSummary {
	return []PersonaSummary{s.Executive, s.Product, s.Developer, s.Reviewer}
}

const (
	FeedbackTypeRating     = "rating"
	FeedbackTypeCorrection = "correction"
	FeedbackTypeComment    = "comment"
)

// FeedbackEntry is one piece of human feedback on a generated summary.
// Entries are append-only and persisted by the feedback store.
type FeedbackEntry struct {
	ID          int64
	PRURL       string
	Persona     Persona
	SummaryText string
	Type        string
	Value       string
	ModelUsed   string
	CreatedAt   time.Time
}

// Rating parses a rating entry's value. ok is false for non-rating entries
// and unparseable values.
func (e FeedbackEntry) Rating() (rating int, ok bool) {
	if e.Type != FeedbackTypeRating {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(e.Value))
	if err != nil || n < 1 || n > 5 {
		return 0, false
	}
	return n, true
}

// FeedbackStats is the per-persona aggregate the feedback store computes.
type FeedbackStats struct {
	TotalFeedback   int
	AverageRating   float64
	PositiveCount   int
	NegativeCount   int
	CorrectionCount int
}
