//go:build integration

package answer_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"google.golang.org/genai"

	"github.com/askfolio/askfolio/internal/answer"
	"github.com/askfolio/askfolio/internal/embed"
	"github.com/askfolio/askfolio/internal/index"
	"github.com/askfolio/askfolio/internal/profile"
	"github.com/askfolio/askfolio/internal/qna"
	"github.com/askfolio/askfolio/internal/retrieve"
	"github.com/askfolio/askfolio/internal/source"
	"github.com/askfolio/askfolio/internal/testutil"
)

// scriptedGenerator replays a fixed reply or error and counts calls.
type scriptedGenerator struct {
	reply string
	err   error
	calls int
}

func (g *scriptedGenerator) Generate(ctx context.Context, opts ...ai.GenerateOption) (*ai.ModelResponse, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &ai.ModelResponse{
		Message: &ai.Message{
			Role:    ai.RoleModel,
			Content: []*ai.Part{ai.NewTextPart(g.reply)},
		},
	}, nil
}

type fixture struct {
	service   *answer.Service
	generator *scriptedGenerator
	embedder  *embed.Service
	index     *index.Store
	history   *qna.Store
}

func setupFixture(t *testing.T, gen *scriptedGenerator) (*fixture, func()) {
	t.Helper()

	tdb, cleanup := testutil.SetupTestDB(t)
	logger := testutil.DiscardLogger()

	fail := func(stage string, err error) {
		cleanup()
		t.Fatalf("%s: %v", stage, err)
	}

	profiles, err := profile.NewStore(tdb.Pool, logger)
	if err != nil {
		fail("profile.NewStore", err)
	}
	idx, err := index.NewStore(tdb.Pool, logger)
	if err != nil {
		fail("index.NewStore", err)
	}
	embedder, err := embed.NewServiceWithEmbedder(&testutil.FakeEmbedder{}, logger)
	if err != nil {
		fail("embed.NewServiceWithEmbedder", err)
	}
	assembler, err := retrieve.New(embedder, idx, profiles, logger)
	if err != nil {
		fail("retrieve.New", err)
	}
	history, err := qna.NewStore(tdb.Pool, logger)
	if err != nil {
		fail("qna.NewStore", err)
	}
	service, err := answer.New(gen, assembler, history, logger)
	if err != nil {
		fail("answer.New", err)
	}

	return &fixture{service: service, generator: gen, embedder: embedder, index: idx, history: history}, cleanup
}

func TestAskAnswersFromRetrievedContext(t *testing.T) {
	gen := &scriptedGenerator{reply: "My main project is a legal search engine."}
	f, cleanup := setupFixture(t, gen)
	defer cleanup()
	ctx := context.Background()

	chunk := "I built a search engine for legal documents in Go."
	vec, err := f.embedder.Embed(ctx, chunk)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	err = f.index.Replace(ctx, source.CategoryPortfolio, []index.Record{{Chunk: chunk, Vector: vec}})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}

	res, err := f.service.Ask(ctx, chunk)
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if res.Answer != gen.reply {
		t.Errorf("Answer = %q, want %q", res.Answer, gen.reply)
	}
	if gen.calls != 1 {
		t.Errorf("generator calls = %d, want 1", gen.calls)
	}

	// The exchange lands in history.
	entries, err := f.history.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Answer != gen.reply {
		t.Errorf("history = %+v, want the answered exchange", entries)
	}
}

func TestAskEmptyQuestion(t *testing.T) {
	f, cleanup := setupFixture(t, &scriptedGenerator{reply: "unused"})
	defer cleanup()

	if _, err := f.service.Ask(context.Background(), "   "); !errors.Is(err, answer.ErrEmptyQuestion) {
		t.Errorf("Ask = %v, want ErrEmptyQuestion", err)
	}
}

func TestAskModelFailureReturnsApology(t *testing.T) {
	gen := &scriptedGenerator{err: genai.APIError{Code: 429}}
	f, cleanup := setupFixture(t, gen)
	defer cleanup()

	res, err := f.service.Ask(context.Background(), "what do you do?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !strings.Contains(res.Answer, "at capacity") {
		t.Errorf("Answer = %q, want a capacity apology", res.Answer)
	}

	// Apologies are recorded too; the admin should see failed exchanges.
	entries, err := f.history.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("history length = %d, want 1", len(entries))
	}
}

func TestAskEmptyModelReply(t *testing.T) {
	f, cleanup := setupFixture(t, &scriptedGenerator{reply: "   "})
	defer cleanup()

	res, err := f.service.Ask(context.Background(), "what do you do?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !strings.Contains(res.Answer, "having trouble") {
		t.Errorf("Answer = %q, want the generic apology", res.Answer)
	}
}
