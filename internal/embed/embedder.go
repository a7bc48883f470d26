// Package embed wraps the process-wide embedding model behind an explicit,
// concurrency-safe handle.
//
// Construction of the underlying model client is expensive, so a Service
// builds it lazily on first use, exactly once, behind a sync.Once guard.
// Callers receive the *Service handle through dependency injection; there is
// no package-level model state.
package embed

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"google.golang.org/genai"

	"github.com/askfolio/askfolio/internal/text"
)

const (
	// MaxInputChars bounds the text handed to the model per call.
	// Longer input is truncated, bounding latency and memory.
	MaxInputChars = 2000

	// VectorDimension is the fixed output dimensionality requested from the
	// model. Matches the vector(384) column in db/migrations.
	VectorDimension int32 = 384
)

// ChunkEmbedding pairs a chunk of source text with its embedding vector.
type ChunkEmbedding struct {
	Chunk  string
	Vector []float32
}

// InitFunc constructs the underlying embedder. Called at most once per
// Service, on the first Embed call.
type InitFunc func() (ai.Embedder, error)

// Service computes L2-normalized embeddings over a single shared model
// instance. Safe for concurrent use; the model itself is read-only after
// initialization.
type Service struct {
	logger *slog.Logger

	once     sync.Once
	initFn   InitFunc
	embedder ai.Embedder
	initErr  error
}

// NewService creates a Service that builds its embedder lazily via initFn.
func NewService(initFn InitFunc, logger *slog.Logger) (*Service, error) {
	if initFn == nil {
		return nil, fmt.Errorf("init function is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, initFn: initFn}, nil
}

// NewServiceWithEmbedder creates a Service around an already-constructed
// embedder. Used by tests and by callers that manage model lifetime
// themselves.
func NewServiceWithEmbedder(embedder ai.Embedder, logger *slog.Logger) (*Service, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	return NewService(func() (ai.Embedder, error) { return embedder, nil }, logger)
}

// instance returns the shared embedder, constructing it on first call.
func (s *Service) instance() (ai.Embedder, error) {
	s.once.Do(func() {
		s.embedder, s.initErr = s.initFn()
		if s.initErr == nil {
			s.logger.Debug("embedding model initialized", "dimension", VectorDimension)
		}
	})
	if s.initErr != nil {
		return nil, fmt.Errorf("initializing embedding model: %w", s.initErr)
	}
	return s.embedder, nil
}

// Embed computes the normalized embedding vector for one text.
// Input beyond MaxInputChars is truncated before encoding.
func (s *Service) Embed(ctx context.Context, input string) ([]float32, error) {
	embedder, err := s.instance()
	if err != nil {
		return nil, err
	}

	dim := VectorDimension
	resp, err := embedder.Embed(ctx, &ai.EmbedRequest{
		Input:   []*ai.Document{ai.DocumentFromText(text.Truncate(input, MaxInputChars), nil)},
		Options: &genai.EmbedContentConfig{OutputDimensionality: &dim},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding text: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}

	vec := resp.Embeddings[0].Embedding
	l2Normalize(vec)
	return vec, nil
}

// EmbedBatch embeds chunks one at a time over the shared model instance.
// A failure on one chunk is logged and that chunk is dropped; the relative
// order of the surviving pairs is preserved. Partial success is expected and
// never escalated to a batch-level failure.
func (s *Service) EmbedBatch(ctx context.Context, chunks []string) []ChunkEmbedding {
	results := make([]ChunkEmbedding, 0, len(chunks))
	for i, chunk := range chunks {
		vec, err := s.Embed(ctx, chunk)
		if err != nil {
			s.logger.Warn("skipping chunk after embedding failure",
				"chunk_index", i, "chunk_length", len(chunk), "error", err)
			continue
		}
		results = append(results, ChunkEmbedding{Chunk: chunk, Vector: vec})
	}
	return results
}

// l2Normalize scales vec to unit length in place. A zero vector is left
// untouched rather than divided by zero.
func l2Normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
}
