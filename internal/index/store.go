// Package index implements the vector index over PostgreSQL + pgvector.
//
// The index holds one row per embedded chunk, tagged with its source
// category. The category is the unit of replacement: re-ingesting a source
// swaps out every row of that category in one operation.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/askfolio/askfolio/internal/source"
)

// Record is one chunk ready for indexing.
type Record struct {
	Chunk  string
	Vector []float32
}

// Match is one ranked retrieval result.
type Match struct {
	Chunk      string
	Category   source.Category
	Similarity float64
}

// Store manages embedding rows. Safe for concurrent use by multiple
// goroutines.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates an index Store.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Replace deletes every row tagged with category, then inserts records.
// An empty records slice is valid and leaves the category with zero rows
// (used when a source URL is removed from the profile).
//
// Both statements run in one transaction, so a reader never observes the
// window between delete and insert, and a crash mid-replace cannot leave the
// category empty. After commit, the rows for the category correspond exactly
// to the chunks of the most recent ingestion: no stale leftovers, no
// duplicates.
func (s *Store) Replace(ctx context.Context, category source.Category, records []Record) error {
	if !category.Valid() {
		return fmt.Errorf("invalid category: %q", category)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning replace transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.logger.Debug("replace rollback", "error", rbErr)
		}
	}()

	if _, err := tx.Exec(ctx,
		`DELETE FROM embeddings WHERE source = $1`, category,
	); err != nil {
		return fmt.Errorf("deleting %s embeddings: %w", category, err)
	}

	if len(records) > 0 {
		batch := &pgx.Batch{}
		for _, r := range records {
			batch.Queue(
				`INSERT INTO embeddings (chunk, embedding, source) VALUES ($1, $2, $3)`,
				r.Chunk, pgvector.NewVector(r.Vector), category,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting %d %s embeddings: %w", len(records), category, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing replace: %w", err)
	}

	s.logger.Debug("replaced category embeddings", "category", category, "rows", len(records))
	return nil
}

// Query returns up to k chunks whose cosine similarity to vec is strictly
// above threshold, ordered by descending similarity, across all categories.
//
// The explicit ::float8 cast on the threshold is required: pgx sends Go
// float64 as an untyped parameter, and PostgreSQL would otherwise infer
// integer for round values, silently truncating 0.2 to 0.
func (s *Store) Query(ctx context.Context, vec []float32, k int, threshold float64) ([]Match, error) {
	if k <= 0 {
		return []Match{}, nil
	}

	qv := pgvector.NewVector(vec)
	rows, err := s.pool.Query(ctx,
		`SELECT chunk, source, 1 - (embedding <=> $1) AS similarity
		 FROM embeddings
		 WHERE 1 - (embedding <=> $1) > $2::float8
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		qv, threshold, k,
	)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.Chunk, &m.Category, &m.Similarity); err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating matches: %w", err)
	}
	return matches, nil
}

// Count returns the number of rows tagged with category.
func (s *Store) Count(ctx context.Context, category source.Category) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM embeddings WHERE source = $1`, category,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting %s embeddings: %w", category, err)
	}
	return count, nil
}
