// Package sqlite persists feedback entries in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bkyoung/pr-summarizer/internal/domain"
)

// Store implements the summary.FeedbackStore port using SQLite. Appends run
// in implicit transactions, so each write is atomic.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if necessary) a feedback database at the given
// path. Use ":memory:" for an in-memory database in tests.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

func (s *Store) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		pr_url TEXT NOT NULL,
		persona TEXT NOT NULL,
		summary_text TEXT,
		type TEXT NOT NULL CHECK(type IN ('rating', 'correction', 'comment')),
		value TEXT NOT NULL,
		model_used TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_feedback_persona ON feedback(persona);
	CREATE INDEX IF NOT EXISTS idx_feedback_pr_url ON feedback(pr_url);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append inserts one feedback entry.
func (s *Store) Append(ctx context.Context, entry domain.FeedbackEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback (pr_url, persona, summary_text, type, value, model_used, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.PRURL, string(entry.Persona), entry.SummaryText, entry.Type,
		entry.Value, entry.ModelUsed, createdAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

// ByPersona returns all entries for one persona, oldest first.
func (s *Store) ByPersona(ctx context.Context, persona domain.Persona) ([]domain.FeedbackEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pr_url, persona, summary_text, type, value, model_used, created_at
		FROM feedback WHERE persona = ? ORDER BY created_at ASC, id ASC`,
		string(persona),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// All returns every entry, oldest first.
func (s *Store) All(ctx context.Context) ([]domain.FeedbackEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pr_url, persona, summary_text, type, value, model_used, created_at
		FROM feedback ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func scanEntries(rows *sql.Rows) ([]domain.FeedbackEntry, error) {
	var entries []domain.FeedbackEntry
	for rows.Next() {
		var (
			entry     domain.FeedbackEntry
			persona   string
			createdAt int64
		)
		if err := rows.Scan(&entry.ID, &entry.PRURL, &persona, &entry.SummaryText,
			&entry.Type, &entry.Value, &entry.ModelUsed, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback row: %w", err)
		}
		entry.Persona = domain.Persona(persona)
		entry.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback rows: %w", err)
	}
	return entries, nil
}
