// Package qna persists the question/answer history shown on the admin
// dashboard.
package qna

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one answered question.
type Entry struct {
	ID        uuid.UUID
	Question  string
	Answer    string
	CreatedAt time.Time
}

// Store manages qna rows. Safe for concurrent use.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a qna Store.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Add records an answered question.
func (s *Store) Add(ctx context.Context, question, answer string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO qna (question, answer) VALUES ($1, $2)`,
		question, answer,
	)
	if err != nil {
		return fmt.Errorf("inserting qna entry: %w", err)
	}
	return nil
}

// List returns entries newest-first, bounded by limit.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, question, answer, created_at
		 FROM qna ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing qna entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Question, &e.Answer, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning qna entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating qna entries: %w", err)
	}
	return entries, nil
}
