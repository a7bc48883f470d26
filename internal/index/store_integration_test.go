//go:build integration

package index_test

import (
	"context"
	"testing"

	"github.com/askfolio/askfolio/internal/embed"
	"github.com/askfolio/askfolio/internal/index"
	"github.com/askfolio/askfolio/internal/source"
	"github.com/askfolio/askfolio/internal/testutil"
)

// embedText runs the fake embedder through the embedding service so test
// vectors match what production code would store.
func embedText(t *testing.T, svc *embed.Service, input string) []float32 {
	t.Helper()
	vec, err := svc.Embed(context.Background(), input)
	if err != nil {
		t.Fatalf("Embed(%q): %v", input, err)
	}
	return vec
}

func setupStore(t *testing.T) (*index.Store, *embed.Service, func()) {
	t.Helper()

	tdb, cleanup := testutil.SetupTestDB(t)

	store, err := index.NewStore(tdb.Pool, testutil.DiscardLogger())
	if err != nil {
		cleanup()
		t.Fatalf("NewStore: %v", err)
	}
	svc, err := embed.NewServiceWithEmbedder(&testutil.FakeEmbedder{}, testutil.DiscardLogger())
	if err != nil {
		cleanup()
		t.Fatalf("NewServiceWithEmbedder: %v", err)
	}
	return store, svc, cleanup
}

func TestReplaceAndQuery(t *testing.T) {
	store, svc, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()

	records := []index.Record{
		{Chunk: "I build Go services", Vector: embedText(t, svc, "I build Go services")},
		{Chunk: "I paint landscapes", Vector: embedText(t, svc, "I paint landscapes")},
	}
	if err := store.Replace(ctx, source.CategoryBio, records); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	// Querying with a stored chunk's own vector must rank that chunk first
	// with similarity ~1.
	matches, err := store.Query(ctx, records[0].Vector, 5, 0.2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("no matches returned")
	}
	if matches[0].Chunk != "I build Go services" {
		t.Errorf("top match = %q", matches[0].Chunk)
	}
	if matches[0].Similarity < 0.99 {
		t.Errorf("top similarity = %f, want ~1", matches[0].Similarity)
	}
	if matches[0].Category != source.CategoryBio {
		t.Errorf("top category = %q", matches[0].Category)
	}
}

func TestReplaceSwapsRows(t *testing.T) {
	store, svc, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()

	first := []index.Record{{Chunk: "old content", Vector: embedText(t, svc, "old content")}}
	if err := store.Replace(ctx, source.CategoryGitHub, first); err != nil {
		t.Fatalf("first Replace: %v", err)
	}

	second := []index.Record{
		{Chunk: "new content a", Vector: embedText(t, svc, "new content a")},
		{Chunk: "new content b", Vector: embedText(t, svc, "new content b")},
	}
	if err := store.Replace(ctx, source.CategoryGitHub, second); err != nil {
		t.Fatalf("second Replace: %v", err)
	}

	count, err := store.Count(ctx, source.CategoryGitHub)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2 (old rows must be gone)", count)
	}

	matches, err := store.Query(ctx, first[0].Vector, 5, 0.99)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	for _, m := range matches {
		if m.Chunk == "old content" {
			t.Error("replaced chunk still present")
		}
	}
}

func TestReplaceEmptyClearsCategory(t *testing.T) {
	store, svc, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()

	records := []index.Record{{Chunk: "anything", Vector: embedText(t, svc, "anything")}}
	if err := store.Replace(ctx, source.CategoryPortfolio, records); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if err := store.Replace(ctx, source.CategoryPortfolio, nil); err != nil {
		t.Fatalf("clearing Replace: %v", err)
	}

	count, err := store.Count(ctx, source.CategoryPortfolio)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}

func TestReplaceIsolatesCategories(t *testing.T) {
	store, svc, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()

	github := []index.Record{{Chunk: "github chunk", Vector: embedText(t, svc, "github chunk")}}
	bio := []index.Record{{Chunk: "bio chunk", Vector: embedText(t, svc, "bio chunk")}}

	if err := store.Replace(ctx, source.CategoryGitHub, github); err != nil {
		t.Fatalf("Replace github: %v", err)
	}
	if err := store.Replace(ctx, source.CategoryBio, bio); err != nil {
		t.Fatalf("Replace bio: %v", err)
	}

	// Replacing github again must not touch bio rows.
	if err := store.Replace(ctx, source.CategoryGitHub, nil); err != nil {
		t.Fatalf("clearing github: %v", err)
	}

	count, err := store.Count(ctx, source.CategoryBio)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Errorf("bio count = %d, want 1", count)
	}
}

func TestReplaceRejectsUnknownCategory(t *testing.T) {
	store, _, cleanup := setupStore(t)
	defer cleanup()

	if err := store.Replace(context.Background(), source.Category("twitter"), nil); err == nil {
		t.Error("expected error for unknown category")
	}
}

// A fractional threshold must actually filter: with the default 0.2 the
// unrelated chunk stays out even though a zero threshold would admit it.
func TestQueryThresholdFilters(t *testing.T) {
	store, svc, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()

	records := []index.Record{
		{Chunk: "target", Vector: embedText(t, svc, "target")},
		{Chunk: "unrelated", Vector: embedText(t, svc, "unrelated")},
	}
	if err := store.Replace(ctx, source.CategoryBio, records); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	matches, err := store.Query(ctx, records[0].Vector, 5, 0.2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	for _, m := range matches {
		if m.Similarity < 0.2 {
			t.Errorf("match %q has similarity %f below threshold", m.Chunk, m.Similarity)
		}
	}
}

func TestQueryZeroK(t *testing.T) {
	store, svc, cleanup := setupStore(t)
	defer cleanup()

	matches, err := store.Query(context.Background(), embedText(t, svc, "anything"), 0, 0.2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("got %d matches, want 0", len(matches))
	}
}

func TestQueryThresholdIsExclusive(t *testing.T) {
	store, _, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()

	// Basis vectors give exact similarities: 1 against themselves, 0
	// against each other, with no floating-point slack.
	axis := func(i int) []float32 {
		vec := make([]float32, embed.VectorDimension)
		vec[i] = 1
		return vec
	}
	records := []index.Record{
		{Chunk: "identical", Vector: axis(0)},
		{Chunk: "orthogonal", Vector: axis(1)},
	}
	if err := store.Replace(ctx, source.CategoryBio, records); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	// A chunk scoring exactly at the threshold must be excluded.
	matches, err := store.Query(ctx, axis(0), 5, 1.0)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("matches at threshold 1.0 = %d, want 0", len(matches))
	}

	matches, err = store.Query(ctx, axis(0), 5, 0.0)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(matches) != 1 || matches[0].Chunk != "identical" {
		t.Errorf("matches at threshold 0 = %+v, want only the identical chunk", matches)
	}
}
