// Package profile stores the owner's singleton profile row: source URLs,
// the free-text bio, uploaded-asset URLs, and the raw scraped text per
// source category.
//
// There is exactly one profile with a fixed identity. It is created lazily
// on the first write; every later write is an update.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/askfolio/askfolio/internal/source"
)

// ID is the fixed identity of the singleton profile row.
var ID = uuid.Nil

// ErrNotFound indicates no profile row exists yet.
var ErrNotFound = errors.New("profile not found")

// Profile is the owner's profile. Empty string means unset; the scraped
// fields hold the raw extracted text of the most recent successful
// ingestion for their category.
type Profile struct {
	ID           uuid.UUID
	GitHubURL    string
	LinkedInURL  string
	PortfolioURL string
	Bio          string
	ResumeURL    string
	PhotoURL     string

	ScrapedGitHub    string
	ScrapedPortfolio string
	ScrapedResume    string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ScrapedFor returns the stored raw text for a fetchable category.
func (p *Profile) ScrapedFor(category source.Category) string {
	switch category {
	case source.CategoryGitHub:
		return p.ScrapedGitHub
	case source.CategoryPortfolio:
		return p.ScrapedPortfolio
	case source.CategoryResume:
		return p.ScrapedResume
	default:
		return ""
	}
}

// URLFor returns the stored source URL for a category.
func (p *Profile) URLFor(category source.Category) string {
	switch category {
	case source.CategoryGitHub:
		return p.GitHubURL
	case source.CategoryPortfolio:
		return p.PortfolioURL
	case source.CategoryLinkedIn:
		return p.LinkedInURL
	default:
		return ""
	}
}

const profileCols = `id, github_url, linkedin_url, portfolio_url, bio,
	resume_url, photo_url,
	scraped_github, scraped_portfolio, scraped_resume,
	created_at, updated_at`

// Store manages the profile row. Safe for concurrent use.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a profile Store.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Get returns the singleton profile, or ErrNotFound before the first write.
func (s *Store) Get(ctx context.Context) (*Profile, error) {
	p := &Profile{}
	err := s.pool.QueryRow(ctx,
		`SELECT `+profileCols+` FROM profile WHERE id = $1`, ID,
	).Scan(
		&p.ID, &p.GitHubURL, &p.LinkedInURL, &p.PortfolioURL, &p.Bio,
		&p.ResumeURL, &p.PhotoURL,
		&p.ScrapedGitHub, &p.ScrapedPortfolio, &p.ScrapedResume,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	return p, nil
}

// Save writes the profile, creating the fixed-identity row on first write.
func (s *Store) Save(ctx context.Context, p *Profile) error {
	if p == nil {
		return fmt.Errorf("profile is required")
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO profile (id, github_url, linkedin_url, portfolio_url, bio,
			resume_url, photo_url, scraped_github, scraped_portfolio, scraped_resume)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET
			github_url = EXCLUDED.github_url,
			linkedin_url = EXCLUDED.linkedin_url,
			portfolio_url = EXCLUDED.portfolio_url,
			bio = EXCLUDED.bio,
			resume_url = EXCLUDED.resume_url,
			photo_url = EXCLUDED.photo_url,
			scraped_github = EXCLUDED.scraped_github,
			scraped_portfolio = EXCLUDED.scraped_portfolio,
			scraped_resume = EXCLUDED.scraped_resume,
			updated_at = now()`,
		ID, p.GitHubURL, p.LinkedInURL, p.PortfolioURL, p.Bio,
		p.ResumeURL, p.PhotoURL, p.ScrapedGitHub, p.ScrapedPortfolio, p.ScrapedResume,
	)
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}

	s.logger.Debug("profile saved")
	return nil
}

// SetScraped updates one scraped_<category> attribute in place. The empty
// string clears it (source removed).
func (s *Store) SetScraped(ctx context.Context, category source.Category, raw string) error {
	var column string
	switch category {
	case source.CategoryGitHub:
		column = "scraped_github"
	case source.CategoryPortfolio:
		column = "scraped_portfolio"
	case source.CategoryResume:
		column = "scraped_resume"
	default:
		return fmt.Errorf("category %q has no scraped attribute", category)
	}

	// column comes from the closed switch above, never from input.
	tag, err := s.pool.Exec(ctx,
		`UPDATE profile SET `+column+` = $1, updated_at = now() WHERE id = $2`,
		raw, ID,
	)
	if err != nil {
		return fmt.Errorf("updating %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
