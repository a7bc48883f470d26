// Package retrieve assembles the context string for answering a question:
// embed the question, pull the closest chunks from the index, and prepend
// identity material when the question is about the person rather than the
// work.
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/askfolio/askfolio/internal/embed"
	"github.com/askfolio/askfolio/internal/index"
	"github.com/askfolio/askfolio/internal/profile"
	"github.com/askfolio/askfolio/internal/text"
)

const (
	// ContextMaxChars caps the assembled context handed to the model.
	ContextMaxChars = 2000

	// DefaultTopK is the number of chunks retrieved per question.
	DefaultTopK = 5

	// DefaultThreshold is the minimum cosine similarity for a chunk to
	// count as relevant.
	DefaultThreshold = 0.2

	// summaryMaxChars caps each identity block prepended for personal
	// questions, leaving room for retrieved chunks.
	summaryMaxChars = 1000
)

// bioKeywords mark a question as personal. Matching is case-insensitive
// substring; "Tell me about yourself" and "who are you?" both hit.
var bioKeywords = []string{
	"yourself",
	"who are you",
	"your background",
	"about you",
	"introduction",
}

// Assembler builds retrieval context. Safe for concurrent use.
type Assembler struct {
	embedder  *embed.Service
	index     *index.Store
	profiles  *profile.Store
	logger    *slog.Logger
	topK      int
	threshold float64
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithTopK overrides the number of chunks retrieved per question.
func WithTopK(k int) Option {
	return func(a *Assembler) {
		if k > 0 {
			a.topK = k
		}
	}
}

// WithThreshold overrides the similarity score retrieved chunks must exceed.
func WithThreshold(t float64) Option {
	return func(a *Assembler) { a.threshold = t }
}

// New creates an Assembler.
func New(embedder *embed.Service, idx *index.Store, profiles *profile.Store, logger *slog.Logger, opts ...Option) (*Assembler, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if idx == nil {
		return nil, fmt.Errorf("index store is required")
	}
	if profiles == nil {
		return nil, fmt.Errorf("profile store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &Assembler{
		embedder:  embedder,
		index:     idx,
		profiles:  profiles,
		logger:    logger,
		topK:      DefaultTopK,
		threshold: DefaultThreshold,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Context returns the assembled context for the question, bounded by
// ContextMaxChars. Retrieval is best-effort: embedding or index failures are
// logged and the remaining parts still assemble, down to an empty string.
// The model answers from whatever context exists.
func (a *Assembler) Context(ctx context.Context, question string) string {
	var parts []string

	if isPersonal(question) {
		parts = append(parts, a.identityBlocks(ctx)...)
	}

	for _, m := range a.matches(ctx, question) {
		parts = append(parts, m.Chunk)
	}

	return text.Truncate(strings.Join(parts, "\n"), ContextMaxChars)
}

// matches embeds the question and queries the index, absorbing failures.
func (a *Assembler) matches(ctx context.Context, question string) []index.Match {
	vec, err := a.embedder.Embed(ctx, question)
	if err != nil {
		a.logger.Warn("question embedding failed, answering without retrieval", "error", err)
		return nil
	}

	found, err := a.index.Query(ctx, vec, a.topK, a.threshold)
	if err != nil {
		a.logger.Warn("index query failed, answering without retrieval", "error", err)
		return nil
	}
	return found
}

// identityBlocks returns labeled profile material for personal questions.
// Each block is independently optional.
func (a *Assembler) identityBlocks(ctx context.Context) []string {
	p, err := a.profiles.Get(ctx)
	if err != nil {
		if !errors.Is(err, profile.ErrNotFound) {
			a.logger.Warn("profile load failed during retrieval", "error", err)
		}
		return nil
	}

	var blocks []string
	if p.Bio != "" {
		blocks = append(blocks, "BIO: "+p.Bio)
	}
	if p.ScrapedResume != "" {
		blocks = append(blocks, "RESUME SUMMARY: "+text.Truncate(p.ScrapedResume, summaryMaxChars))
	}
	if p.ScrapedPortfolio != "" {
		blocks = append(blocks, "PORTFOLIO HIGHLIGHTS: "+text.Truncate(p.ScrapedPortfolio, summaryMaxChars))
	}
	return blocks
}

// isPersonal reports whether the question asks about the person themself.
func isPersonal(question string) bool {
	q := strings.ToLower(question)
	for _, kw := range bioKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}
