package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/askfolio/askfolio/internal/extract"
	"github.com/askfolio/askfolio/internal/profile"
	"github.com/askfolio/askfolio/internal/source"
)

// ErrSourceDisabled rejects operations on a category that can never be
// ingested.
var ErrSourceDisabled = errors.New("source category is disabled")

// ErrNoSource indicates the category has nothing to ingest: no URL
// configured, or no document uploaded yet.
var ErrNoSource = errors.New("no source configured for category")

// ErrNoContent indicates a source yielded no extractable text.
var ErrNoContent = errors.New("no text content extracted from source")

// Service applies profile changes to the index. It diffs the stored profile
// against the update and re-ingests only the categories whose source
// actually changed.
type Service struct {
	pipeline  *Pipeline
	profiles  *profile.Store
	extractor *extract.Extractor
	logger    *slog.Logger
}

// NewService creates an ingestion Service.
func NewService(pipeline *Pipeline, profiles *profile.Store, extractor *extract.Extractor, logger *slog.Logger) (*Service, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("pipeline is required")
	}
	if profiles == nil {
		return nil, fmt.Errorf("profile store is required")
	}
	if extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{pipeline: pipeline, profiles: profiles, extractor: extractor, logger: logger}, nil
}

// task is one category's pending index update.
type task struct {
	category source.Category
	// fetchURL is set for categories ingested by fetching a reference.
	fetchURL string
	// rawText is set for categories ingested from text already in hand.
	rawText string
	// clear drops the category's rows and its stored raw text.
	clear bool
}

// ApplyProfile persists the updated profile and re-ingests every category
// whose source changed. Unchanged categories are left alone, so a bio edit
// does not trigger a GitHub scrape. Categories run concurrently; the first
// indexing error cancels the rest. Returns the profile as stored, including
// raw text captured by any fetches.
func (s *Service) ApplyProfile(ctx context.Context, updated *profile.Profile) (*profile.Profile, error) {
	old, err := s.profiles.Get(ctx)
	if errors.Is(err, profile.ErrNotFound) {
		old = &profile.Profile{}
	} else if err != nil {
		return nil, fmt.Errorf("loading current profile: %w", err)
	}

	// Uploaded-resume state survives URL edits; the update only carries the
	// fields the admin can type.
	updated.ScrapedGitHub = old.ScrapedGitHub
	updated.ScrapedPortfolio = old.ScrapedPortfolio
	updated.ScrapedResume = old.ScrapedResume

	if err := s.profiles.Save(ctx, updated); err != nil {
		return nil, fmt.Errorf("saving profile: %w", err)
	}

	var tasks []task
	for _, cat := range []source.Category{source.CategoryGitHub, source.CategoryPortfolio} {
		oldURL, newURL := old.URLFor(cat), updated.URLFor(cat)
		switch {
		case oldURL != "" && newURL == "":
			tasks = append(tasks, task{category: cat, clear: true})
		case newURL != "" && (newURL != oldURL || old.ScrapedFor(cat) == ""):
			tasks = append(tasks, task{category: cat, fetchURL: newURL})
		}
	}

	if updated.Bio != old.Bio {
		if updated.Bio == "" {
			tasks = append(tasks, task{category: source.CategoryBio, clear: true})
		} else {
			tasks = append(tasks, task{category: source.CategoryBio, rawText: updated.Bio})
		}
	}

	if updated.LinkedInURL != old.LinkedInURL && updated.LinkedInURL != "" {
		s.logger.Info("linkedin url stored but never ingested", "url", updated.LinkedInURL)
	}

	if err := s.run(ctx, tasks); err != nil {
		return nil, err
	}

	// Re-read so the caller sees the raw text the tasks persisted.
	return s.profiles.Get(ctx)
}

// run executes index updates for independent categories in parallel.
func (s *Service) run(ctx context.Context, tasks []task) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		g.Go(func() error {
			return s.execute(ctx, t)
		})
	}
	return g.Wait()
}

// execute performs one category's update and records the captured raw text.
func (s *Service) execute(ctx context.Context, t task) error {
	switch {
	case t.clear:
		if err := s.pipeline.Clear(ctx, t.category); err != nil {
			return err
		}
		return s.setScraped(ctx, t.category, "")

	case t.fetchURL != "":
		raw, _, err := s.pipeline.IngestURL(ctx, t.category, t.fetchURL)
		if err != nil {
			return err
		}
		if raw == "" {
			// A transient outage must not erase the last successful
			// ingestion; the index and the stored raw text stay as they are.
			s.logger.Warn("fetch returned no content, keeping previous ingestion",
				"category", t.category, "url", t.fetchURL)
			return nil
		}
		return s.setScraped(ctx, t.category, raw)

	default:
		_, err := s.pipeline.IngestText(ctx, t.category, t.rawText)
		return err
	}
}

// setScraped persists raw text for categories that keep a copy of it.
// The bio category reads straight from the profile field, so it has no
// scraped column to update.
func (s *Service) setScraped(ctx context.Context, category source.Category, raw string) error {
	switch category {
	case source.CategoryGitHub, source.CategoryPortfolio, source.CategoryResume:
		if err := s.profiles.SetScraped(ctx, category, raw); err != nil {
			return fmt.Errorf("recording %s raw text: %w", category, err)
		}
	}
	return nil
}

// Rescrape re-runs ingestion for one category on demand, regardless of
// whether its source changed. For fetched categories an explicit rawURL
// overrides the stored profile URL without rewriting it; bio and resume
// re-index their stored text and ignore rawURL. LinkedIn is rejected
// outright; a category with neither an override nor a configured source
// returns ErrNoSource. Unlike profile saves, a fetch that yields nothing is
// reported as ErrNoContent so the caller knows the index was left untouched.
func (s *Service) Rescrape(ctx context.Context, category source.Category, rawURL string) error {
	if !category.Valid() {
		return fmt.Errorf("invalid category: %q", category)
	}
	if category == source.CategoryLinkedIn {
		return ErrSourceDisabled
	}

	p, err := s.profiles.Get(ctx)
	if err != nil {
		return fmt.Errorf("loading profile: %w", err)
	}

	switch category {
	case source.CategoryGitHub, source.CategoryPortfolio:
		if rawURL == "" {
			rawURL = p.URLFor(category)
		}
		if rawURL == "" {
			return fmt.Errorf("%w: %s", ErrNoSource, category)
		}
		raw, _, err := s.pipeline.IngestURL(ctx, category, rawURL)
		if err != nil {
			return err
		}
		if raw == "" {
			return fmt.Errorf("%w: %s", ErrNoContent, category)
		}
		return s.setScraped(ctx, category, raw)

	case source.CategoryBio:
		if p.Bio == "" {
			return fmt.Errorf("%w: %s", ErrNoSource, category)
		}
		return s.execute(ctx, task{category: category, rawText: p.Bio})

	case source.CategoryResume:
		// Uploads cannot be re-fetched; re-index the stored extraction.
		if p.ScrapedResume == "" {
			return fmt.Errorf("%w: %s", ErrNoSource, category)
		}
		return s.execute(ctx, task{category: category, rawText: p.ScrapedResume})
	}
	return nil
}

// IngestResume extracts text from an uploaded document and indexes it under
// the resume category. The extracted text is persisted so later rescrapes
// and retrieval summaries can reuse it without the original file.
func (s *Service) IngestResume(ctx context.Context, data []byte, mediaType string) error {
	raw, err := s.extractor.Text(data, mediaType)
	if err != nil {
		return fmt.Errorf("extracting resume text: %w", err)
	}
	if raw == "" {
		return ErrNoContent
	}

	if _, err := s.pipeline.IngestText(ctx, source.CategoryResume, raw); err != nil {
		return err
	}
	return s.setScraped(ctx, source.CategoryResume, raw)
}
