// Package ingest drives content into the vector index: fetch or accept raw
// text, chunk it, embed each chunk, and atomically replace the category's
// rows. The profile-diff service on top decides which categories need work
// after a profile update.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/askfolio/askfolio/internal/embed"
	"github.com/askfolio/askfolio/internal/index"
	"github.com/askfolio/askfolio/internal/scrape"
	"github.com/askfolio/askfolio/internal/source"
	"github.com/askfolio/askfolio/internal/text"
)

// Pipeline runs the per-category ingestion steps. Safe for concurrent use;
// distinct categories can ingest in parallel because replacement is scoped
// to one category.
type Pipeline struct {
	scraper   *scrape.Scraper
	embedder  *embed.Service
	index     *index.Store
	logger    *slog.Logger
	chunkSize int
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithChunkSize overrides the chunk width used when splitting raw text.
func WithChunkSize(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.chunkSize = n
		}
	}
}

// NewPipeline creates a Pipeline.
func NewPipeline(scraper *scrape.Scraper, embedder *embed.Service, idx *index.Store, logger *slog.Logger, opts ...PipelineOption) (*Pipeline, error) {
	if scraper == nil {
		return nil, fmt.Errorf("scraper is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if idx == nil {
		return nil, fmt.Errorf("index store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pipeline{
		scraper:   scraper,
		embedder:  embedder,
		index:     idx,
		logger:    logger,
		chunkSize: text.DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// IngestText chunks raw text, embeds every chunk, and replaces the
// category's index rows with the results. Empty input is a no-op that keeps
// the category's existing rows; dropping a category is an explicit act via
// Clear. Chunks whose embedding fails are dropped, not fatal; the category
// ends up holding exactly the chunks that embedded successfully. Returns the
// number of rows indexed.
func (p *Pipeline) IngestText(ctx context.Context, category source.Category, raw string) (int, error) {
	chunks := text.Chunk(text.Normalize(raw), p.chunkSize)
	if len(chunks) == 0 {
		p.logger.Warn("no text to index, keeping existing rows", "category", category)
		return 0, nil
	}

	embedded := p.embedder.EmbedBatch(ctx, chunks)
	records := make([]index.Record, 0, len(embedded))
	for _, e := range embedded {
		records = append(records, index.Record{Chunk: e.Chunk, Vector: e.Vector})
	}

	if err := p.index.Replace(ctx, category, records); err != nil {
		return 0, fmt.Errorf("replacing %s index: %w", category, err)
	}

	p.logger.Info("ingested category",
		"category", category, "chunks", len(chunks), "indexed", len(records))
	return len(records), nil
}

// IngestURL fetches the reference and indexes whatever text came back.
// Fetching is best-effort; an unreachable source yields no text, and the
// category keeps the rows from its last successful ingestion. Returns the
// fetched raw text so callers can persist it alongside the index; an empty
// return means nothing was fetched and nothing changed.
func (p *Pipeline) IngestURL(ctx context.Context, category source.Category, rawURL string) (string, int, error) {
	raw := p.scraper.Fetch(ctx, rawURL, category)
	n, err := p.IngestText(ctx, category, raw)
	if err != nil {
		return "", 0, err
	}
	return raw, n, nil
}

// Clear removes every index row for the category.
func (p *Pipeline) Clear(ctx context.Context, category source.Category) error {
	if err := p.index.Replace(ctx, category, nil); err != nil {
		return fmt.Errorf("clearing %s index: %w", category, err)
	}
	p.logger.Info("cleared category", "category", category)
	return nil
}
