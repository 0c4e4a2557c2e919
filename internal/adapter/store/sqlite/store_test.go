package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/pr-summarizer/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAppendAndReadBack(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := domain.FeedbackEntry{
		PRURL:       "https://example.com/repo/pull/7",
		Persona:     domain.PersonaDeveloper,
		SummaryText: "original summary",
		Type:        domain.FeedbackTypeRating,
		Value:       "4",
		ModelUsed:   "openai",
		CreatedAt:   time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Append(ctx, entry))

	entries, err := store.ByPersona(ctx, domain.PersonaDeveloper)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.NotZero(t, got.ID)
	assert.Equal(t, entry.PRURL, got.PRURL)
	assert.Equal(t, entry.Persona, got.Persona)
	assert.Equal(t, entry.SummaryText, got.SummaryText)
	assert.Equal(t, entry.Type, got.Type)
	assert.Equal(t, entry.Value, got.Value)
	assert.Equal(t, entry.ModelUsed, got.ModelUsed)
	assert.Equal(t, entry.CreatedAt.Unix(), got.CreatedAt.Unix())
}

func TestByPersonaFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, persona := range domain.Personas() {
		require.NoError(t, store.Append(ctx, domain.FeedbackEntry{
			PRURL: "pr", Persona: persona, Type: domain.FeedbackTypeComment, Value: "helpful",
		}))
	}

	entries, err := store.ByPersona(ctx, domain.PersonaExecutive)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.PersonaExecutive, entries[0].Persona)

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestAllOrderedByTime(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(ctx, domain.FeedbackEntry{
		PRURL: "pr", Persona: domain.PersonaProduct, Type: domain.FeedbackTypeComment,
		Value: "second", CreatedAt: base.Add(time.Hour),
	}))
	require.NoError(t, store.Append(ctx, domain.FeedbackEntry{
		PRURL: "pr", Persona: domain.PersonaProduct, Type: domain.FeedbackTypeComment,
		Value: "first", CreatedAt: base,
	}))

	all, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "first", all[0].Value)
	assert.Equal(t, "second", all[1].Value)
}

func TestAppendRejectsUnknownType(t *testing.T) {
	store := newTestStore(t)
	err := store.Append(context.Background(), domain.FeedbackEntry{
		PRURL: "pr", Persona: domain.PersonaProduct, Type: "applause", Value: "x",
	})
	assert.Error(t, err, "schema CHECK constraint rejects unknown types")
}

func TestAppendDefaultsCreatedAt(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, domain.FeedbackEntry{
		PRURL: "pr", Persona: domain.PersonaProduct, Type: domain.FeedbackTypeComment, Value: "ok",
	}))

	all, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.WithinDuration(t, time.Now(), all[0].CreatedAt, time.Minute)
}
