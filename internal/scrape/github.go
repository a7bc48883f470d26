package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gocolly/colly/v2"

	"github.com/askfolio/askfolio/internal/text"
)

// fetchGitHub scrapes a GitHub profile as static HTML: the profile page, the
// repositories listing, and a bounded set of READMEs, concatenated into one
// labeled block. Returns an error only when the profile itself could not be
// fetched or parsed; README failures are silently skipped.
func (s *Scraper) fetchGitHub(ctx context.Context, rawURL string) (string, error) {
	username, err := githubUsername(rawURL)
	if err != nil {
		return "", err
	}

	var (
		name, handle, bio string
		pinned            []string
		repos             []string
	)

	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.IgnoreRobotsTxt(),
	)
	c.SetRequestTimeout(staticTimeout * 2)
	if s.client.Transport != nil {
		c.WithTransport(s.client.Transport)
	}

	c.OnHTML(".p-name", func(e *colly.HTMLElement) {
		if name == "" {
			name = strings.TrimSpace(e.Text)
		}
	})
	c.OnHTML(".p-nickname", func(e *colly.HTMLElement) {
		if handle == "" {
			handle = strings.TrimSpace(e.Text)
		}
	})
	c.OnHTML(".p-note", func(e *colly.HTMLElement) {
		if bio == "" {
			bio = strings.TrimSpace(e.Text)
		}
	})
	c.OnHTML(".pinned-item-list-item", func(e *colly.HTMLElement) {
		pinned = append(pinned, fmt.Sprintf("Pinned Repo: %s | %s",
			strings.TrimSpace(e.ChildText("span.repo")),
			strings.TrimSpace(e.ChildText(".pinned-item-desc"))))
	})
	c.OnHTML(".source", func(e *colly.HTMLElement) {
		if repo := strings.TrimSpace(e.DOM.Find("a").First().Text()); repo != "" {
			repos = append(repos, repo)
		}
	})

	if err := c.Visit(fmt.Sprintf("%s/%s", s.githubBase, username)); err != nil {
		return "", fmt.Errorf("fetching profile page: %w", err)
	}
	if err := c.Visit(fmt.Sprintf("%s/%s?tab=repositories", s.githubBase, username)); err != nil {
		return "", fmt.Errorf("fetching repositories page: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "GitHub Profile:\nName: %s\nUsername: %s\nBio: %s\n", name, handle, bio)

	if len(pinned) > 0 {
		b.WriteString("\nPinned Repositories:\n")
		b.WriteString(strings.Join(pinned, "\n"))
	}

	fmt.Fprintf(&b, "\nAll Repositories:\n%s\n", strings.Join(repos, ", "))

	for i, repo := range repos {
		if i >= maxReadmeRepos {
			break
		}
		readme := s.fetchReadme(ctx, username, repo)
		if readme != "" {
			fmt.Fprintf(&b, "\nREADME of %s:\n%s", repo, readme)
		}
	}

	return text.Normalize(b.String()), nil
}

// fetchReadme tries the two conventional raw-content locations (main branch,
// then master) and returns the first hit, truncated. A miss is not an error.
func (s *Scraper) fetchReadme(ctx context.Context, username, repo string) string {
	for _, branch := range []string{"main", "master"} {
		if err := s.limiter.Wait(ctx); err != nil {
			return ""
		}

		rawURL := fmt.Sprintf("%s/%s/%s/%s/README.md", s.rawBase, username, repo, branch)
		body, err := s.get(ctx, rawURL)
		if err != nil {
			s.logger.Debug("readme lookup miss", "url", rawURL, "error", err)
			continue
		}
		return text.Truncate(body, readmeMaxChars)
	}
	return ""
}

// get performs a single GET with the standard user agent.
func (s *Scraper) get(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// githubUsername extracts the username from a profile URL: the first
// non-empty path segment after the host.
func githubUsername(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing github url: %w", err)
	}
	if u.Host == "" {
		if u, err = url.Parse("https://" + rawURL); err != nil {
			return "", fmt.Errorf("parsing github url: %w", err)
		}
	}

	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			return seg, nil
		}
	}
	return "", fmt.Errorf("no username in github url %q", rawURL)
}
