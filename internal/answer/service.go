// Package answer turns a visitor's question into a first-person reply from
// the profile owner's perspective, grounded in retrieved context.
//
// Answering never fails toward the visitor: model errors are translated into
// friendly apologies keyed to the failure class, and the reply is recorded in
// the Q&A history either way.
package answer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"google.golang.org/genai"

	"github.com/askfolio/askfolio/internal/qna"
	"github.com/askfolio/askfolio/internal/retrieve"
)

const (
	// DefaultModel is the chat model used when none is configured.
	DefaultModel = "googleai/gemini-2.5-flash"

	// maxAnswerTokens caps reply length. Answers are meant to be short and
	// conversational, not essays.
	maxAnswerTokens = 150

	answerTemperature = 0.7
)

// Canned replies for model failures, keyed by failure class.
const (
	apologyAuth = "Sorry, the AI assistant is temporarily unavailable due to " +
		"an API key issue. Please contact the administrator."
	apologyCapacity = "The AI assistant is currently at capacity. " +
		"Please try again in a moment."
	apologyGeneric = "I'm having trouble processing your question right now. " +
		"Please try again."
)

// ErrEmptyQuestion rejects questions with no content.
var ErrEmptyQuestion = errors.New("empty question")

// Generator produces a model response. Satisfied by a closure over
// genkit.Generate in production and by mocks in tests.
type Generator interface {
	Generate(ctx context.Context, opts ...ai.GenerateOption) (*ai.ModelResponse, error)
}

// genkitGenerator adapts a genkit instance to the Generator interface.
type genkitGenerator struct {
	g *genkit.Genkit
}

func (gg genkitGenerator) Generate(ctx context.Context, opts ...ai.GenerateOption) (*ai.ModelResponse, error) {
	return genkit.Generate(ctx, gg.g, opts...)
}

// NewGenerator wraps a genkit instance as a Generator.
func NewGenerator(g *genkit.Genkit) Generator {
	return genkitGenerator{g: g}
}

// Result is one answered question.
type Result struct {
	Question string
	Answer   string
}

// Service answers questions. Safe for concurrent use.
type Service struct {
	generator Generator
	assembler *retrieve.Assembler
	history   *qna.Store
	logger    *slog.Logger
	model     string
}

// Option configures a Service.
type Option func(*Service)

// WithModel overrides the chat model name.
func WithModel(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.model = name
		}
	}
}

// New creates an answering Service.
func New(generator Generator, assembler *retrieve.Assembler, history *qna.Store, logger *slog.Logger, opts ...Option) (*Service, error) {
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if assembler == nil {
		return nil, fmt.Errorf("assembler is required")
	}
	if history == nil {
		return nil, fmt.Errorf("history store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		generator: generator,
		assembler: assembler,
		history:   history,
		logger:    logger,
		model:     DefaultModel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Ask answers the question from retrieved context. The only error a caller
// sees is ErrEmptyQuestion; once a question is accepted, every downstream
// failure resolves to an apology answer instead of an error.
func (s *Service) Ask(ctx context.Context, question string) (Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Result{}, ErrEmptyQuestion
	}

	retrieved := s.assembler.Context(ctx, question)
	reply := s.generate(ctx, question, retrieved)

	if err := s.history.Add(ctx, question, reply); err != nil {
		// History is an audit trail, not part of the answer contract.
		s.logger.Warn("recording qna entry failed", "error", err)
	}

	return Result{Question: question, Answer: reply}, nil
}

// generate calls the model and maps failures to apologies.
func (s *Service) generate(ctx context.Context, question, retrieved string) string {
	temp := float32(answerTemperature)
	resp, err := s.generator.Generate(ctx,
		ai.WithModelName(s.model),
		ai.WithPrompt(buildPrompt(question, retrieved)),
		ai.WithConfig(&genai.GenerateContentConfig{
			MaxOutputTokens: maxAnswerTokens,
			Temperature:     &temp,
		}),
	)
	if err != nil {
		s.logger.Error("model generation failed", "model", s.model, "error", err)
		return apologyFor(err)
	}

	reply := strings.TrimSpace(resp.Text())
	if reply == "" {
		return apologyGeneric
	}
	return reply
}

// buildPrompt produces the persona prompt. With context the model answers
// from it in first person; without, it declines gracefully instead of
// hallucinating a background.
func buildPrompt(question, retrieved string) string {
	if retrieved == "" {
		return fmt.Sprintf(`Q: %s

No data available. Say: "I don't have that information yet. Please ask about my professional background, skills, or experience!"`, question)
	}

	return fmt.Sprintf(`You are my personal AI assistant representing me. Answer in first person using "my/I/me".

DATA:
%s

Q: %s

RULES:
- If question is about my skills, education, experience, projects, background → Answer from DATA
- If question is unrelated (weather, sports, general knowledge, etc.) → Say: "That's outside my scope. Ask me about my professional background, skills, or experience!"
- Keep answers 1-3 sentences, smart and catchy
- Use "my" not "your" (e.g., "My skills include..." not "Your skills...")
- Add examples when helpful`, retrieved, question)
}

// apologyFor classifies a model error into a visitor-facing apology.
// Credential problems and quota exhaustion get distinct messages so the
// visitor knows whether retrying can help.
func apologyFor(err error) string {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 401, 403:
			return apologyAuth
		case 429:
			return apologyCapacity
		}
	}
	return apologyGeneric
}
