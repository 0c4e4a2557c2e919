// Package gitsource extracts change sets from a local git repository. It is
// the boundary adapter that turns two refs into the CodeChanges value the
// summary service consumes.
package gitsource

import (
	"context"
	"fmt"
	"strings"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	formatdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/bkyoung/pr-summarizer/internal/domain"
)

// Source reads diffs from a repository directory, backed by go-git.
type Source struct {
	repoDir string
}

// NewSource constructs a Source for the provided repository directory.
func NewSource(repoDir string) *Source {
	return &Source{repoDir: repoDir}
}

// Changes computes the change set between two refs.
func (s *Source) Changes(ctx context.Context, baseRef, headRef string) (domain.CodeChanges, error) {
	repo, err := goGit.PlainOpenWithOptions(s.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return domain.CodeChanges{}, fmt.Errorf("open repo: %w", err)
	}

	baseCommit, err := resolveCommit(repo, baseRef)
	if err != nil {
		return domain.CodeChanges{}, fmt.Errorf("resolve base ref: %w", err)
	}
	headCommit, err := resolveCommit(repo, headRef)
	if err != nil {
		return domain.CodeChanges{}, fmt.Errorf("resolve head ref: %w", err)
	}

	patch, err := baseCommit.PatchContext(ctx, headCommit)
	if err != nil {
		return domain.CodeChanges{}, fmt.Errorf("compute patch: %w", err)
	}

	var changes domain.CodeChanges
	for _, fp := range patch.FilePatches() {
		path, status := pathAndStatus(fp)
		additions, deletions := countChunkLines(fp)

		changes.Files = append(changes.Files, domain.FileDelta{
			Path:      path,
			Status:    status,
			Additions: additions,
			Deletions: deletions,
			Patch:     encodeChunks(fp),
		})
		changes.TotalAdditions += additions
		changes.TotalDeletions += deletions
	}
	changes.ChangedFiles = len(changes.Files)

	return changes, nil
}

// CurrentBranch returns the name of the checked-out branch.
func (s *Source) CurrentBranch(ctx context.Context) (string, error) {
	repo, err := goGit.PlainOpenWithOptions(s.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("open repo: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	name := head.Name()
	if name.IsBranch() {
		return name.Short(), nil
	}
	return "", fmt.Errorf("detached HEAD")
}

func resolveCommit(repo *goGit.Repository, ref string) (*object.Commit, error) {
	candidates := []string{
		ref,
		fmt.Sprintf("refs/heads/%s", ref),
		fmt.Sprintf("refs/remotes/origin/%s", ref),
	}

	var lastErr error
	for _, candidate := range candidates {
		hash, err := repo.ResolveRevision(plumbing.Revision(candidate))
		if err != nil {
			lastErr = err
			continue
		}
		return repo.CommitObject(*hash)
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("unable to resolve ref %s", ref)
}

func pathAndStatus(fp formatdiff.FilePatch) (string, string) {
	from, to := fp.Files()

	switch {
	case from == nil && to != nil:
		return to.Path(), domain.FileStatusAdded
	case from != nil && to == nil:
		return from.Path(), domain.FileStatusRemoved
	case from != nil && to != nil:
		if from.Path() != to.Path() {
			return to.Path(), domain.FileStatusRenamed
		}
		return to.Path(), domain.FileStatusModified
	default:
		return "", domain.FileStatusModified
	}
}

func countChunkLines(fp formatdiff.FilePatch) (additions, deletions int) {
	for _, chunk := range fp.Chunks() {
		lines := strings.Count(chunk.Content(), "\n")
		if !strings.HasSuffix(chunk.Content(), "\n") && chunk.Content() != "" {
			lines++
		}
		switch chunk.Type() {
		case formatdiff.Add:
			additions += lines
		case formatdiff.Delete:
			deletions += lines
		}
	}
	return additions, deletions
}

// encodeChunks flattens the per-chunk content into a unified-diff-like body.
// Binary patches have no chunks and yield an empty string.
func encodeChunks(fp formatdiff.FilePatch) string {
	var builder strings.Builder
	for _, chunk := range fp.Chunks() {
		var prefix string
		switch chunk.Type() {
		case formatdiff.Add:
			prefix = "+"
		case formatdiff.Delete:
			prefix = "-"
		default:
			prefix = " "
		}
		for _, line := range strings.Split(strings.TrimRight(chunk.Content(), "\n"), "\n") {
			builder.WriteString(prefix)
			builder.WriteString(line)
			builder.WriteString("\n")
		}
	}
	return builder.String()
}
