package testutil

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"

	"github.com/askfolio/askfolio/internal/embed"
)

// FakeEmbedder is a deterministic ai.Embedder for tests. Identical input
// always produces the identical vector, so a query for a stored chunk's
// exact text ranks that chunk first. Different inputs produce effectively
// uncorrelated vectors.
type FakeEmbedder struct {
	// FailSubstring, when non-empty, makes Embed fail for any input
	// containing it. Used to exercise partial-batch behavior.
	FailSubstring string
}

func (f *FakeEmbedder) Name() string { return "testutil/fake-embedder" }

func (f *FakeEmbedder) Register(_ api.Registry) {}

func (f *FakeEmbedder) Embed(_ context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	resp := &ai.EmbedResponse{}
	for _, doc := range req.Input {
		text := documentText(doc)
		if f.FailSubstring != "" && strings.Contains(text, f.FailSubstring) {
			return nil, fmt.Errorf("fake embedder: refusing input containing %q", f.FailSubstring)
		}
		resp.Embeddings = append(resp.Embeddings, &ai.Embedding{
			Embedding: deterministicVector(text),
		})
	}
	return resp, nil
}

// documentText concatenates the document's text parts.
func documentText(doc *ai.Document) string {
	var b strings.Builder
	for _, part := range doc.Content {
		b.WriteString(part.Text)
	}
	return b.String()
}

// deterministicVector derives a pseudo-random vector from the text via a
// seeded linear congruential generator.
func deterministicVector(text string) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	state := h.Sum64()

	vec := make([]float32, embed.VectorDimension)
	for i := range vec {
		state = state*6364136223846793005 + 1442695040888963407
		// Map the top bits onto [-1, 1).
		vec[i] = float32(int32(state>>32)) / float32(1<<31)
	}
	return vec
}
