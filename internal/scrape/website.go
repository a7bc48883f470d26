package scrape

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/askfolio/askfolio/internal/text"
)

// fetchWebsite runs the generic web strategy: rendered extraction first, the
// static GET tier when rendering itself fails, and "" as the absolute
// fallback.
func (s *Scraper) fetchWebsite(ctx context.Context, rawURL string) string {
	snapshot, err := s.render(ctx, rawURL)
	if err == nil {
		out := renderedText(snapshot, rawURL)
		return text.Truncate(text.Normalize(out), pageMaxChars)
	}
	s.logger.Warn("rendered extraction failed, trying static fallback",
		"url", rawURL, "error", err)

	out, err := s.fetchStatic(ctx, rawURL)
	if err != nil {
		s.logger.Warn("static fallback failed, giving up", "url", rawURL, "error", err)
		return ""
	}
	return out
}

// renderedText extracts the main content from a rendered HTML snapshot.
// Readability output shorter than minArticleChars is rejected in favor of
// the full page's visible text: sparse portfolios often defeat main-content
// heuristics while still carrying usable text in headers and footers.
func renderedText(snapshot, rawURL string) string {
	pageURL, _ := url.Parse(rawURL)

	article, err := readability.FromReader(strings.NewReader(snapshot), pageURL)
	if err == nil && len(article.TextContent) > minArticleChars {
		return fmt.Sprintf("Title: %s Excerpt: %s Content: %s",
			article.Title, article.Excerpt, article.TextContent)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snapshot))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()
	return doc.Find("body").Text()
}

// fetchStatic is the no-JS tier: a plain GET with a short timeout, scripts,
// styles, images, and video stripped, and the remaining visible text taken.
func (s *Scraper) fetchStatic(ctx context.Context, rawURL string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, staticTimeout)
	defer cancel()

	body, err := s.get(reqCtx, rawURL)
	if err != nil {
		return "", err
	}

	visible, err := visibleText(body)
	if err != nil {
		return "", fmt.Errorf("parsing page: %w", err)
	}
	return text.Truncate(text.Normalize(visible), pageMaxChars), nil
}

// skippedElements are removed wholesale when collecting visible text.
var skippedElements = map[string]bool{
	"script": true,
	"style":  true,
	"img":    true,
	"video":  true,
}

// visibleText parses HTML and collects the text content of every node
// outside the skipped elements.
func visibleText(page string) (string, error) {
	root, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	return b.String(), nil
}
