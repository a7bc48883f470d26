// Package scrape turns source references into best-effort plain text.
//
// Fetch never returns an error: remote pages are unreliable, client-rendered,
// rate-limited, or outright hostile, and ingestion must degrade instead of
// aborting. Every failure is absorbed, logged, and answered by the next
// strategy tier; the terminal outcome is an empty string.
//
// Strategy dispatch:
//   - linkedin: permanently disabled, returns ""
//   - github (by category or host): static HTML scrape of the profile and
//     repositories pages plus README lookups; top-level failure falls back to
//     the generic web strategy on the same URL
//   - everything else: rendered extraction (headless browser + readability),
//     then a plain-GET static fallback, then ""
package scrape

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/askfolio/askfolio/internal/source"
)

const (
	// userAgent is a standard desktop UA; some hosts serve bot-hostile
	// responses to anything else.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// pageMaxChars caps the text taken from any single page.
	pageMaxChars = 20000

	// readmeMaxChars caps the text taken from one repository README.
	readmeMaxChars = 3000

	// maxReadmeRepos bounds how many repositories get a README lookup.
	maxReadmeRepos = 5

	// minArticleChars is the readability acceptance bar: an extracted
	// article shorter than this falls back to full-page visible text.
	minArticleChars = 50

	// navTimeout bounds headless-browser navigation.
	navTimeout = 20 * time.Second

	// idleGrace is the tolerated wait for client-side hydration after the
	// DOM is ready. Expiry is not an error.
	idleGrace = 2 * time.Second

	// staticTimeout bounds the plain-GET fallback.
	staticTimeout = 5 * time.Second
)

// RenderFunc renders a page in a headless browser and returns the final HTML
// snapshot. Injectable so tests can run without a browser.
type RenderFunc func(ctx context.Context, pageURL string) (string, error)

// Scraper fetches best-effort text for source references.
type Scraper struct {
	client  *http.Client
	render  RenderFunc
	limiter *rate.Limiter
	logger  *slog.Logger

	// Overridable in tests to point at a local server.
	githubBase string
	rawBase    string
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithHTTPClient replaces the HTTP client used by the static tier and the
// README lookups.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Scraper) { s.client = c }
}

// WithRenderFunc replaces the headless-browser renderer.
func WithRenderFunc(r RenderFunc) Option {
	return func(s *Scraper) { s.render = r }
}

// WithGitHubBase points the GitHub strategy at alternate hosts.
func WithGitHubBase(profileBase, rawBase string) Option {
	return func(s *Scraper) {
		s.githubBase = strings.TrimSuffix(profileBase, "/")
		s.rawBase = strings.TrimSuffix(rawBase, "/")
	}
}

// New creates a Scraper. The README limiter keeps raw-content lookups polite:
// they burst five at a time, one per repository.
func New(logger *slog.Logger, opts ...Option) *Scraper {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Scraper{
		client:     &http.Client{Timeout: staticTimeout},
		render:     renderPage,
		limiter:    rate.NewLimiter(rate.Every(200*time.Millisecond), maxReadmeRepos),
		logger:     logger,
		githubBase: "https://github.com",
		rawBase:    "https://raw.githubusercontent.com",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch returns best-effort plain text for the reference, normalized and
// bounded. It returns "" on any unrecoverable failure and never an error.
func (s *Scraper) Fetch(ctx context.Context, rawURL string, category source.Category) string {
	if rawURL == "" {
		return ""
	}

	host := hostOf(rawURL)

	if category == source.CategoryLinkedIn || strings.Contains(host, "linkedin.com") {
		s.logger.Info("linkedin scraping disabled, skipping", "url", rawURL)
		return ""
	}

	if category == source.CategoryGitHub || strings.Contains(host, "github.com") {
		out, err := s.fetchGitHub(ctx, rawURL)
		if err == nil {
			return out
		}
		// A blocked or reshaped profile page should not cost us the source
		// entirely; the generic strategy still sees whatever GitHub serves.
		s.logger.Warn("github scrape failed, falling back to generic strategy",
			"url", rawURL, "error", err)
	}

	return s.fetchWebsite(ctx, rawURL)
}

// hostOf extracts the hostname, tolerating scheme-less references.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if u.Host == "" {
		// "github.com/user" parses as a path; retry with a scheme.
		if u2, err2 := url.Parse("https://" + rawURL); err2 == nil {
			return u2.Hostname()
		}
		return ""
	}
	return u.Hostname()
}
