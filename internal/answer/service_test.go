package answer

import (
	"fmt"
	"strings"
	"testing"

	"google.golang.org/genai"
)

func TestApologyFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unauthorized", genai.APIError{Code: 401}, apologyAuth},
		{"forbidden", genai.APIError{Code: 403}, apologyAuth},
		{"rate limited", genai.APIError{Code: 429}, apologyCapacity},
		{"server error", genai.APIError{Code: 500}, apologyGeneric},
		{"wrapped api error", fmt.Errorf("generating: %w", genai.APIError{Code: 429}), apologyCapacity},
		{"plain error", fmt.Errorf("connection refused"), apologyGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := apologyFor(tt.err); got != tt.want {
				t.Errorf("apologyFor(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestBuildPromptWithContext(t *testing.T) {
	got := buildPrompt("what do you work on?", "I build search engines.")

	for _, want := range []string{
		"first person",
		"DATA:\nI build search engines.",
		"Q: what do you work on?",
		"1-3 sentences",
		"That's outside my scope.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q:\n%s", want, got)
		}
	}
}

func TestBuildPromptWithoutContext(t *testing.T) {
	got := buildPrompt("what do you work on?", "")

	if !strings.Contains(got, "I don't have that information yet.") {
		t.Errorf("empty-context prompt missing decline instruction:\n%s", got)
	}
	if !strings.Contains(got, "Q: what do you work on?") {
		t.Errorf("empty-context prompt missing question:\n%s", got)
	}
	if strings.Contains(got, "DATA:") {
		t.Errorf("empty-context prompt should not carry a DATA block:\n%s", got)
	}
}

func TestWithModel(t *testing.T) {
	s := &Service{model: DefaultModel}
	WithModel("googleai/gemini-2.5-pro")(s)
	if s.model != "googleai/gemini-2.5-pro" {
		t.Errorf("model = %q", s.model)
	}

	// Empty names keep the existing model.
	WithModel("")(s)
	if s.model != "googleai/gemini-2.5-pro" {
		t.Errorf("model = %q after empty override", s.model)
	}
}
