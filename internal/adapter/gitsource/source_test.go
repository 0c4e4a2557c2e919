package gitsource_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/pr-summarizer/internal/adapter/gitsource"
	"github.com/bkyoung/pr-summarizer/internal/domain"
)

func TestChangesBetweenBranches(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()

	repo, err := goGit.PlainInit(tmp, false)
	require.NoError(t, err)
	worktree, err := repo.Worktree()
	require.NoError(t, err)

	writeFile(t, tmp, "main.go", "package main\n\nfunc main() {\n\tprintln(\"hello\")\n}\n")
	_, err = worktree.Add("main.go")
	require.NoError(t, err)
	_, err = worktree.Commit("initial", &goGit.CommitOptions{Author: defaultSignature()})
	require.NoError(t, err)

	require.NoError(t, checkoutBranch(worktree, "feature"))

	writeFile(t, tmp, "main.go", "package main\n\nfunc main() {\n\tprintln(\"feature\")\n}\n")
	writeFile(t, tmp, "extra.go", "package main\n\nfunc extra() {}\n")
	_, err = worktree.Add("main.go")
	require.NoError(t, err)
	_, err = worktree.Add("extra.go")
	require.NoError(t, err)
	_, err = worktree.Commit("feature change", &goGit.CommitOptions{Author: defaultSignature()})
	require.NoError(t, err)

	source := gitsource.NewSource(tmp)
	changes, err := source.Changes(ctx, "master", "feature")
	require.NoError(t, err)

	require.Equal(t, 2, changes.ChangedFiles)
	require.Len(t, changes.Files, 2)

	byPath := make(map[string]domain.FileDelta)
	for _, f := range changes.Files {
		byPath[f.Path] = f
	}

	modified := byPath["main.go"]
	assert.Equal(t, domain.FileStatusModified, modified.Status)
	assert.Positive(t, modified.Additions)
	assert.Positive(t, modified.Deletions)
	assert.Contains(t, modified.Patch, "feature")

	added := byPath["extra.go"]
	assert.Equal(t, domain.FileStatusAdded, added.Status)
	assert.Positive(t, added.Additions)
	assert.Zero(t, added.Deletions)

	assert.Equal(t, changes.TotalAdditions, modified.Additions+added.Additions)
	assert.Equal(t, changes.TotalDeletions, modified.Deletions+added.Deletions)
}

func TestChangesUnknownRef(t *testing.T) {
	tmp := t.TempDir()

	repo, err := goGit.PlainInit(tmp, false)
	require.NoError(t, err)
	worktree, err := repo.Worktree()
	require.NoError(t, err)

	writeFile(t, tmp, "main.go", "package main\n")
	_, err = worktree.Add("main.go")
	require.NoError(t, err)
	_, err = worktree.Commit("initial", &goGit.CommitOptions{Author: defaultSignature()})
	require.NoError(t, err)

	source := gitsource.NewSource(tmp)
	_, err = source.Changes(context.Background(), "master", "no-such-branch")
	assert.Error(t, err)
}

func TestCurrentBranch(t *testing.T) {
	tmp := t.TempDir()

	repo, err := goGit.PlainInit(tmp, false)
	require.NoError(t, err)
	worktree, err := repo.Worktree()
	require.NoError(t, err)

	writeFile(t, tmp, "main.go", "package main\n")
	_, err = worktree.Add("main.go")
	require.NoError(t, err)
	_, err = worktree.Commit("initial", &goGit.CommitOptions{Author: defaultSignature()})
	require.NoError(t, err)

	require.NoError(t, checkoutBranch(worktree, "feature"))

	source := gitsource.NewSource(tmp)
	branch, err := source.CurrentBranch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "feature", branch)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func defaultSignature() *object.Signature {
	return &object.Signature{
		Name:  "Test",
		Email: "test@example.com",
		When:  time.Unix(0, 0),
	}
}

func checkoutBranch(worktree *goGit.Worktree, branch string) error {
	return worktree.Checkout(&goGit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
		Create: true,
	})
}
