package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/askfolio/askfolio/internal/source"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// failRender is a RenderFunc standing in for an unavailable browser.
func failRender(context.Context, string) (string, error) {
	return "", fmt.Errorf("no browser available")
}

func TestFetchEmptyURL(t *testing.T) {
	s := New(discardLogger(), WithRenderFunc(failRender))
	if got := s.Fetch(context.Background(), "", source.CategoryPortfolio); got != "" {
		t.Errorf("Fetch(\"\") = %q, want empty", got)
	}
}

func TestFetchLinkedInSkipped(t *testing.T) {
	rendered := false
	s := New(discardLogger(), WithRenderFunc(func(context.Context, string) (string, error) {
		rendered = true
		return "<html></html>", nil
	}))

	tests := []struct {
		name     string
		url      string
		category source.Category
	}{
		{"by category", "https://example.com/in/someone", source.CategoryLinkedIn},
		{"by host", "https://www.linkedin.com/in/someone", source.CategoryPortfolio},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Fetch(context.Background(), tt.url, tt.category)
			if got != "" {
				t.Errorf("Fetch = %q, want empty", got)
			}
			if rendered {
				t.Error("render should never run for linkedin")
			}
		})
	}
}

func TestFetchWebsiteUsesRenderedSnapshot(t *testing.T) {
	content := strings.Repeat("I build distributed systems and write about them. ", 8)
	snapshot := fmt.Sprintf(`<html><head><title>My Portfolio</title></head>
<body><article><h1>About</h1><p>%s</p></article>
<script>var SECRET = 1;</script></body></html>`, content)

	s := New(discardLogger(), WithRenderFunc(func(_ context.Context, pageURL string) (string, error) {
		return snapshot, nil
	}))

	got := s.Fetch(context.Background(), "https://example.com", source.CategoryPortfolio)
	if !strings.Contains(got, "distributed systems") {
		t.Errorf("output missing page content: %q", got)
	}
	if strings.Contains(got, "SECRET") {
		t.Errorf("script content leaked into output: %q", got)
	}
}

// A page whose main-content extraction comes back nearly empty should still
// yield the page's visible text.
func TestFetchWebsiteShortArticleFallsBackToBodyText(t *testing.T) {
	snapshot := `<html><body><nav>Home Projects</nav><p>tiny</p>
<script>var SECRET = 1;</script></body></html>`

	s := New(discardLogger(), WithRenderFunc(func(context.Context, string) (string, error) {
		return snapshot, nil
	}))

	got := s.Fetch(context.Background(), "https://example.com", source.CategoryPortfolio)
	if !strings.Contains(got, "tiny") {
		t.Errorf("output missing body text: %q", got)
	}
	if strings.Contains(got, "SECRET") {
		t.Errorf("script content leaked into output: %q", got)
	}
}

func TestFetchWebsiteStaticFallback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><h1>Static Site</h1><script>var SECRET = 1;</script></body></html>`)
	}))
	defer ts.Close()

	s := New(discardLogger(), WithRenderFunc(failRender))

	got := s.Fetch(context.Background(), ts.URL, source.CategoryPortfolio)
	if !strings.Contains(got, "Static Site") {
		t.Errorf("output missing static text: %q", got)
	}
	if strings.Contains(got, "SECRET") {
		t.Errorf("script content leaked into output: %q", got)
	}
}

func TestFetchWebsiteAllTiersFail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	s := New(discardLogger(), WithRenderFunc(failRender))

	if got := s.Fetch(context.Background(), ts.URL, source.CategoryPortfolio); got != "" {
		t.Errorf("Fetch = %q, want empty after all tiers failed", got)
	}
}

func TestFetchWebsiteCapsPageText(t *testing.T) {
	huge := strings.Repeat("word ", 10000)
	s := New(discardLogger(), WithRenderFunc(func(context.Context, string) (string, error) {
		return "<html><body><p>" + huge + "</p></body></html>", nil
	}))

	got := s.Fetch(context.Background(), "https://example.com", source.CategoryPortfolio)
	if n := len([]rune(got)); n > pageMaxChars {
		t.Errorf("output has %d runes, cap is %d", n, pageMaxChars)
	}
}

func TestHostOf(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"https://github.com/ada", "github.com"},
		{"http://www.linkedin.com/in/x", "www.linkedin.com"},
		{"github.com/ada", "github.com"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := hostOf(tt.input); got != tt.want {
			t.Errorf("hostOf(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
