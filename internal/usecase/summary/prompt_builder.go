package summary

import (
	"bytes"
	"fmt"
	"path"
	"sort"
	"strings"
	"text/template"

	"github.com/bkyoung/pr-summarizer/internal/domain"
)

// Prompt is a rendered persona prompt plus its output token budget.
type Prompt struct {
	Text      string
	MaxTokens int
}

// PromptInput carries everything the builder needs for one persona prompt.
// AgentContext is an opaque caller-supplied block prepended verbatim behind
// a marker line. Adjustments, when present, are feedback-derived notes.
type PromptInput struct {
	Persona      domain.Persona
	Changes      domain.CodeChanges
	Repo         domain.RepoContext
	PR           domain.PRMetadata
	AgentContext string
	Adjustments  *PromptAdjustments
}

// PromptBuilder renders persona prompts. Rendering is pure: the same input
// always produces the same prompt text, which keeps cache hits meaningful.
type PromptBuilder struct {
	templates map[domain.Persona]*template.Template
}

// NewPromptBuilder parses the persona templates. Parse errors indicate a
// programming mistake in the template constants and so panic.
func NewPromptBuilder() *PromptBuilder {
	parsed := make(map[domain.Persona]*template.Template, len(personaTemplates))
	for persona, cfg := range personaTemplates {
		parsed[persona] = template.Must(template.New(cfg.TemplateID).Parse(cfg.Text))
	}
	return &PromptBuilder{templates: parsed}
}

type promptData struct {
	Audience           string
	Guidance           string
	Title              string
	Description        string
	BaseBranch         string
	HeadBranch         string
	RepoName           string
	RepoType           string
	PrimaryLanguage    string
	Magnitude          string
	FilesChanged       int
	LinesAdded         int
	LinesRemoved       int
	FileTypeHistogram  string
	TopDirectories     string
	DirectoryBreakdown string
	LargestFiles       string
	AdjustmentNotes    string
}

// Build renders the prompt for the given persona.
func (b *PromptBuilder) Build(input PromptInput) (Prompt, error) {
	tmpl, ok := b.templates[input.Persona]
	if !ok {
		return Prompt{}, fmt.Errorf("no template for persona %q", input.Persona)
	}
	cfg := personaTemplates[input.Persona]

	data := promptData{
		Audience:        string(input.Persona),
		Guidance:        cfg.Guidance,
		Title:           strings.TrimSpace(input.PR.Title),
		Description:     strings.TrimSpace(input.PR.Description),
		BaseBranch:      input.PR.BaseBranch,
		HeadBranch:      input.PR.HeadBranch,
		RepoName:        input.Repo.Name,
		RepoType:        input.Repo.Type,
		PrimaryLanguage: input.Repo.PrimaryLanguage,
		Magnitude:       changeMagnitude(input.Changes.TotalLines()),
		FilesChanged:    input.Changes.ChangedFiles,
		LinesAdded:      input.Changes.TotalAdditions,
		LinesRemoved:    input.Changes.TotalDeletions,
	}
	if data.Title == "" {
		data.Title = "untitled change"
	}
	if data.RepoName == "" {
		data.RepoName = "unknown"
	}
	if data.RepoType == "" {
		data.RepoType = "unknown"
	}

	switch input.Persona {
	case domain.PersonaProduct:
		data.FileTypeHistogram = fileTypeHistogram(input.Changes)
		data.TopDirectories = topDirectories(input.Changes)
	case domain.PersonaDeveloper:
		data.FileTypeHistogram = fileTypeHistogram(input.Changes)
		data.TopDirectories = topDirectories(input.Changes)
		data.DirectoryBreakdown = directoryBreakdown(input.Changes)
	case domain.PersonaReviewer:
		data.FileTypeHistogram = fileTypeHistogram(input.Changes)
		data.TopDirectories = topDirectories(input.Changes)
		data.DirectoryBreakdown = directoryBreakdown(input.Changes)
		data.LargestFiles = largestFiles(input.Changes, 5)
	}

	if input.Adjustments != nil {
		data.AdjustmentNotes = input.Adjustments.Render(input.Persona)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return Prompt{}, fmt.Errorf("rendering %s prompt: %w", input.Persona, err)
	}

	text := buf.String()
	if ctx := strings.TrimSpace(input.AgentContext); ctx != "" {
		text = AgentContextMarker + "\n" + ctx + "\n" + AgentContextMarker + "\n\n" + text
	}

	return Prompt{Text: text, MaxTokens: cfg.MaxTokens}, nil
}

// fileTypeHistogram renders extension counts like "go:12, md:2, yaml:1",
// sorted by count descending then name.
func fileTypeHistogram(changes domain.CodeChanges) string {
	counts := make(map[string]int)
	for _, f := range changes.Files {
		ext := strings.TrimPrefix(strings.ToLower(path.Ext(f.Path)), ".")
		if ext == "" {
			ext = "other"
		}
		counts[ext]++
	}
	if len(counts) == 0 {
		return "none"
	}

	type pair struct {
		ext   string
		count int
	}
	pairs := make([]pair, 0, len(counts))
	for ext, count := range counts {
		pairs = append(pairs, pair{ext, count})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count != pairs[j].count {
			return pairs[i].count > pairs[j].count
		}
		return pairs[i].ext < pairs[j].ext
	})

	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = fmt.Sprintf("%s:%d", p.ext, p.count)
	}
	return strings.Join(parts, ", ")
}

// topDirectories lists the touched top-level directories, sorted.
func topDirectories(changes domain.CodeChanges) string {
	set := make(map[string]struct{})
	for _, f := range changes.Files {
		set[topLevelDir(f.Path)] = struct{}{}
	}
	if len(set) == 0 {
		return "none"
	}
	return strings.Join(sortedKeys(set), ", ")
}

// directoryBreakdown renders per-top-level-directory churn, one line each,
// sorted by total lines descending then name.
func directoryBreakdown(changes domain.CodeChanges) string {
	type churn struct {
		files     int
		additions int
		deletions int
	}
	byDir := make(map[string]*churn)
	for _, f := range changes.Files {
		dir := topLevelDir(f.Path)
		c, ok := byDir[dir]
		if !ok {
			c = &churn{}
			byDir[dir] = c
		}
		c.files++
		c.additions += f.Additions
		c.deletions += f.Deletions
	}
	if len(byDir) == 0 {
		return "none"
	}

	dirs := make([]string, 0, len(byDir))
	for dir := range byDir {
		dirs = append(dirs, dir)
	}
	sort.Slice(dirs, func(i, j int) bool {
		a, b := byDir[dirs[i]], byDir[dirs[j]]
		totalA, totalB := a.additions+a.deletions, b.additions+b.deletions
		if totalA != totalB {
			return totalA > totalB
		}
		return dirs[i] < dirs[j]
	})

	lines := make([]string, len(dirs))
	for i, dir := range dirs {
		c := byDir[dir]
		lines[i] = fmt.Sprintf("  %s: %d files, +%d/-%d", dir, c.files, c.additions, c.deletions)
	}
	return strings.Join(lines, "\n")
}

// largestFiles lists the top files by combined additions and deletions.
func largestFiles(changes domain.CodeChanges, limit int) string {
	files := make([]domain.FileDelta, len(changes.Files))
	copy(files, changes.Files)
	sort.Slice(files, func(i, j int) bool {
		totalI := files[i].Additions + files[i].Deletions
		totalJ := files[j].Additions + files[j].Deletions
		if totalI != totalJ {
			return totalI > totalJ
		}
		return files[i].Path < files[j].Path
	})
	if len(files) > limit {
		files = files[:limit]
	}
	if len(files) == 0 {
		return "none"
	}

	lines := make([]string, len(files))
	for i, f := range files {
		lines[i] = fmt.Sprintf("  %s (+%d/-%d, %s)", f.Path, f.Additions, f.Deletions, f.Status)
	}
	return strings.Join(lines, "\n")
}
