package summary

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/bkyoung/pr-summarizer/internal/domain"
)

// Change magnitude buckets by total changed lines.
const (
	MagnitudeSmall  = "small"
	MagnitudeMedium = "medium"
	MagnitudeLarge  = "large"
)

// patternRule matches a changed filename to a category. Rules are ordered;
// the first matching rule per file wins.
type patternRule struct {
	category string
	match    func(path string) bool
}

var patternRules = []patternRule{
	{"unit-test", func(p string) bool {
		base := strings.ToLower(p)
		return strings.HasSuffix(base, "_test.go") ||
			strings.Contains(base, "/test_") || strings.HasPrefix(base, "test_") ||
			strings.Contains(base, ".spec.") || strings.Contains(base, ".test.") ||
			strings.Contains(base, "/tests/")
	}},
	{"bid-adapter", func(p string) bool {
		base := strings.ToLower(p)
		return strings.Contains(base, "bidadapter") || strings.Contains(base, "bid_adapter") ||
			strings.Contains(base, "/adapters/") || strings.Contains(base, "bidder")
	}},
	{"docs", func(p string) bool {
		base := strings.ToLower(p)
		return strings.HasSuffix(base, ".md") || strings.HasSuffix(base, ".rst") ||
			strings.Contains(base, "/docs/")
	}},
	{"ci", func(p string) bool {
		base := strings.ToLower(p)
		return strings.HasPrefix(base, ".github/") || strings.HasSuffix(base, ".yml") ||
			strings.HasSuffix(base, ".yaml") || strings.Contains(base, "jenkinsfile") ||
			strings.Contains(base, "dockerfile")
	}},
	{"config", func(p string) bool {
		base := strings.ToLower(p)
		return strings.HasSuffix(base, ".json") || strings.HasSuffix(base, ".toml") ||
			strings.HasSuffix(base, ".ini") || strings.HasSuffix(base, ".cfg") ||
			strings.Contains(base, "config")
	}},
	{"source", func(p string) bool { return true }},
}

// classifyFile returns the pattern category for a changed file path.
func classifyFile(path string) string {
	for _, rule := range patternRules {
		if rule.match(path) {
			return rule.category
		}
	}
	return "source"
}

// changeMagnitude buckets the total changed line count.
func changeMagnitude(totalLines int) string {
	switch {
	case totalLines < 50:
		return MagnitudeSmall
	case totalLines < 500:
		return MagnitudeMedium
	default:
		return MagnitudeLarge
	}
}

// Fingerprint derives the deterministic cache key for a change set. The key
// is built from change magnitude, file pattern categories, and touched
// top-level directories rather than the raw diff text, so textually
// different but structurally similar changes share a key.
func Fingerprint(changes domain.CodeChanges, repo domain.RepoContext) string {
	magnitude := changeMagnitude(changes.TotalLines())

	patternSet := make(map[string]struct{})
	dirSet := make(map[string]struct{})
	for _, file := range changes.Files {
		patternSet[classifyFile(file.Path)] = struct{}{}
		dirSet[topLevelDir(file.Path)] = struct{}{}
	}

	patterns := sortedKeys(patternSet)

	// Cap directories at 3 so wide changes still collide usefully.
	dirs := sortedKeys(dirSet)
	if len(dirs) > 3 {
		dirs = dirs[:3]
	}

	payload := fmt.Sprintf("%s|%s|%s|%s|%s",
		repo.Name,
		repo.Type,
		magnitude,
		strings.Join(patterns, ","),
		strings.Join(dirs, ","),
	)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

func topLevelDir(path string) string {
	clean := strings.TrimPrefix(path, "./")
	if idx := strings.Index(clean, "/"); idx > 0 {
		return clean[:idx]
	}
	return "."
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
