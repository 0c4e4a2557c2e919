package summary

import "github.com/bkyoung/pr-summarizer/internal/domain"

// AgentContextMarker separates an optional caller-supplied context block
// from the rendered persona template. The block is opaque to the builder.
const AgentContextMarker = "----- agent context -----"

// PersonaTemplate is the per-persona prompt configuration. Templates are
// static; rendering is a pure function of the inputs, which the cache
// fingerprint depends on.
type PersonaTemplate struct {
	TemplateID string
	MaxTokens  int
	Guidance   string
	Text       string
}

// MaxTokensFor returns the output token budget for a persona.
func MaxTokensFor(persona domain.Persona) int {
	return personaTemplates[persona].MaxTokens
}

var personaTemplates = map[domain.Persona]PersonaTemplate{
	domain.PersonaExecutive: {
		TemplateID: "executive-v1",
		MaxTokens:  150,
		Guidance:   "Write 1-2 sentences for a non-technical executive. Focus on business impact and risk. No file names, no jargon.",
		Text:       executiveTemplate,
	},
	domain.PersonaProduct: {
		TemplateID: "product-v1",
		MaxTokens:  300,
		Guidance:   "Write 2-4 sentences for a product manager. Focus on user-facing effects and which product areas changed. Light technical detail only.",
		Text:       productTemplate,
	},
	domain.PersonaDeveloper: {
		TemplateID: "developer-v1",
		MaxTokens:  500,
		Guidance:   "Write 4-6 sentences for a developer. Name the modules and directories touched, describe the shape of the change, and call out anything needing follow-up.",
		Text:       developerTemplate,
	},
	domain.PersonaReviewer: {
		TemplateID: "reviewer-v1",
		MaxTokens:  500,
		Guidance:   "Write 4-6 sentences for a code reviewer. Point at the riskiest files, suggest where to start reading, and flag missing tests or config changes.",
		Text:       reviewerTemplate,
	},
}

const promptHeader = `{{if .AdjustmentNotes}}Reviewer feedback on past summaries (apply these):
{{.AdjustmentNotes}}

{{end}}Audience: {{.Audience}}
{{.Guidance}}

Repository: {{.RepoName}} ({{.RepoType}}{{if .PrimaryLanguage}}, {{.PrimaryLanguage}}{{end}})
Title: {{.Title}}
{{if .Description}}Description: {{.Description}}
{{end}}Branches: {{.HeadBranch}} -> {{.BaseBranch}}
Change magnitude: {{.Magnitude}}
Files changed: {{.FilesChanged}}
Lines added: {{.LinesAdded}}
Lines removed: {{.LinesRemoved}}
`

const executiveTemplate = promptHeader + `
Summarize this change for an executive audience in 1-2 sentences.`

const productTemplate = promptHeader + `File types: {{.FileTypeHistogram}}
Areas touched: {{.TopDirectories}}

Summarize this change for a product audience in 2-4 sentences.`

const developerTemplate = promptHeader + `File types: {{.FileTypeHistogram}}
Areas touched: {{.TopDirectories}}

Per-directory breakdown:
{{.DirectoryBreakdown}}

Summarize this change for a developer audience in 4-6 sentences.`

const reviewerTemplate = promptHeader + `File types: {{.FileTypeHistogram}}
Areas touched: {{.TopDirectories}}

Per-directory breakdown:
{{.DirectoryBreakdown}}

Largest files by churn:
{{.LargestFiles}}

Summarize this change for a code reviewer in 4-6 sentences, highlighting where review attention is most needed.`
