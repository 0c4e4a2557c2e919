package summary

import (
	"sort"
	"sync"
	"time"
)

// ProviderCost is the static pricing and capability profile for a provider.
// Prices are USD per 1000 tokens.
type ProviderCost struct {
	InputPer1K       float64
	OutputPer1K      float64
	Quality          float64 // [0,1]
	Speed            float64 // [0,1]
	MaxContextTokens int
	Streaming        bool
}

// defaultCostTable mirrors published list prices at time of writing.
// Pricing drift is acceptable here; relative ordering is what selection uses.
var defaultCostTable = map[string]ProviderCost{
	"openai":    {InputPer1K: 0.0025, OutputPer1K: 0.01, Quality: 0.90, Speed: 0.75, MaxContextTokens: 128000, Streaming: true},
	"anthropic": {InputPer1K: 0.003, OutputPer1K: 0.015, Quality: 0.95, Speed: 0.70, MaxContextTokens: 200000, Streaming: true},
	"gemini":    {InputPer1K: 0.00125, OutputPer1K: 0.005, Quality: 0.85, Speed: 0.85, MaxContextTokens: 1000000, Streaming: false},
	"basic":     {InputPer1K: 0, OutputPer1K: 0, Quality: 0.20, Speed: 1.0, MaxContextTokens: 1 << 20, Streaming: false},
}

// CostEstimate is the projected cost of one generation on one provider.
type CostEstimate struct {
	Provider     string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	Quality      float64
	Speed        float64
}

// UsageRecord is one recorded generation for reporting.
type UsageRecord struct {
	Provider     string
	Persona      string
	PRURL        string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	Timestamp    time.Time
}

// UsageReport aggregates recorded usage over a trailing window.
type UsageReport struct {
	Days       int
	TotalCost  float64
	TotalCalls int
	ByProvider map[string]UsageBucket
	ByPersona  map[string]UsageBucket
}

// UsageBucket is a cost/count pair for one aggregation key.
type UsageBucket struct {
	Count   int
	CostUSD float64
}

// CostOptimizer picks the cheapest acceptable provider for a generation and
// tracks spend against a per-calendar-day budget. Budget exhaustion never
// blocks generation; it only narrows the candidate set.
type CostOptimizer struct {
	mu               sync.Mutex
	table            map[string]ProviderCost
	qualityThreshold float64
	dailyBudgetUSD   float64
	spendByDay       map[string]float64
	records          []UsageRecord
	now              func() time.Time
}

// NewCostOptimizer builds an optimizer over the default cost table. A
// non-positive budget disables budget filtering.
func NewCostOptimizer(qualityThreshold, dailyBudgetUSD float64) *CostOptimizer {
	table := make(map[string]ProviderCost, len(defaultCostTable))
	for name, cost := range defaultCostTable {
		table[name] = cost
	}
	return &CostOptimizer{
		table:            table,
		qualityThreshold: qualityThreshold,
		dailyBudgetUSD:   dailyBudgetUSD,
		spendByDay:       make(map[string]float64),
		now:              time.Now,
	}
}

// SetClock overrides the optimizer's time source (for testing).
func (o *CostOptimizer) SetClock(now func() time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.now = now
}

// Providers returns the names of all providers in the cost table, sorted.
func (o *CostOptimizer) Providers() []string {
	names := make([]string, 0, len(o.table))
	for name := range o.table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EstimateTokens approximates token counts from text length: roughly one
// token per four characters, with a 20% upward adjustment on the expected
// output to leave headroom.
func EstimateTokens(inputText string, expectedOutputTokens int) (inputTokens, outputTokens int) {
	inputTokens = len(inputText) / 4
	outputTokens = expectedOutputTokens + expectedOutputTokens/5
	return inputTokens, outputTokens
}

// Estimate computes the projected cost of a generation on one provider.
func (o *CostOptimizer) Estimate(provider string, inputTokens, outputTokens int) (CostEstimate, bool) {
	cost, ok := o.table[provider]
	if !ok {
		return CostEstimate{}, false
	}
	return CostEstimate{
		Provider:     provider,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CostUSD:      float64(inputTokens)/1000*cost.InputPer1K + float64(outputTokens)/1000*cost.OutputPer1K,
		Quality:      cost.Quality,
		Speed:        cost.Speed,
	}, true
}

// SelectProvider picks a provider for the given generation. Candidates below
// the quality threshold, over the daily budget, or lacking a required
// capability are discarded; if nothing survives, the cheapest provider is
// returned regardless of constraints.
func (o *CostOptimizer) SelectProvider(inputText string, expectedOutputTokens int, requireStreaming, requireSpeed bool) CostEstimate {
	inputTokens, outputTokens := EstimateTokens(inputText, expectedOutputTokens)

	o.mu.Lock()
	spentToday := o.spendByDay[o.dayKey(o.now())]
	o.mu.Unlock()

	var all, survivors []CostEstimate
	for name, cost := range o.table {
		estimate, _ := o.Estimate(name, inputTokens, outputTokens)
		all = append(all, estimate)

		if cost.Quality < o.qualityThreshold {
			continue
		}
		if requireStreaming && !cost.Streaming {
			continue
		}
		if inputTokens+outputTokens > cost.MaxContextTokens {
			continue
		}
		if o.dailyBudgetUSD > 0 && spentToday+estimate.CostUSD > o.dailyBudgetUSD {
			continue
		}
		survivors = append(survivors, estimate)
	}

	if len(survivors) == 0 {
		// Never hard-fail purely on cost.
		sort.Slice(all, func(i, j int) bool {
			if all[i].CostUSD != all[j].CostUSD {
				return all[i].CostUSD < all[j].CostUSD
			}
			return all[i].Provider < all[j].Provider
		})
		return all[0]
	}

	sort.Slice(survivors, func(i, j int) bool {
		a, b := survivors[i], survivors[j]
		switch {
		case requireSpeed:
			if a.Speed != b.Speed {
				return a.Speed > b.Speed
			}
		case requireStreaming:
			if a.Speed*a.Quality != b.Speed*b.Quality {
				return a.Speed*a.Quality > b.Speed*b.Quality
			}
		default:
			ratioA, ratioB := a.CostUSD/a.Quality, b.CostUSD/b.Quality
			if ratioA != ratioB {
				return ratioA < ratioB
			}
		}
		if a.CostUSD != b.CostUSD {
			return a.CostUSD < b.CostUSD
		}
		return a.Provider < b.Provider
	})
	return survivors[0]
}

// RecordUsage appends a usage record and adds its cost to today's spend.
func (o *CostOptimizer) RecordUsage(provider string, inputTokens, outputTokens int, persona, prURL string) {
	estimate, ok := o.Estimate(provider, inputTokens, outputTokens)
	if !ok {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.now()
	o.spendByDay[o.dayKey(now)] += estimate.CostUSD
	o.records = append(o.records, UsageRecord{
		Provider:     provider,
		Persona:      persona,
		PRURL:        prURL,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CostUSD:      estimate.CostUSD,
		Timestamp:    now,
	})
}

// SpendToday returns the cumulative recorded spend for the current calendar day.
func (o *CostOptimizer) SpendToday() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.spendByDay[o.dayKey(o.now())]
}

// Report aggregates usage over the trailing window of whole days, including
// today. days <= 0 is treated as 1.
func (o *CostOptimizer) Report(days int) UsageReport {
	if days <= 0 {
		days = 1
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	cutoff := o.now().AddDate(0, 0, -(days - 1))
	cutoff = time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, cutoff.Location())

	report := UsageReport{
		Days:       days,
		ByProvider: make(map[string]UsageBucket),
		ByPersona:  make(map[string]UsageBucket),
	}
	for _, record := range o.records {
		if record.Timestamp.Before(cutoff) {
			continue
		}
		report.TotalCalls++
		report.TotalCost += record.CostUSD

		provider := report.ByProvider[record.Provider]
		provider.Count++
		provider.CostUSD += record.CostUSD
		report.ByProvider[record.Provider] = provider

		persona := report.ByPersona[record.Persona]
		persona.Count++
		persona.CostUSD += record.CostUSD
		report.ByPersona[record.Persona] = persona
	}
	return report
}

// dayKey buckets a timestamp into its local calendar day. The ledger resets
// at local midnight.
func (o *CostOptimizer) dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
