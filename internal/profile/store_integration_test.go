//go:build integration

package profile_test

import (
	"context"
	"errors"
	"testing"

	"github.com/askfolio/askfolio/internal/profile"
	"github.com/askfolio/askfolio/internal/source"
	"github.com/askfolio/askfolio/internal/testutil"
)

func setupStore(t *testing.T) (*profile.Store, func()) {
	t.Helper()

	tdb, cleanup := testutil.SetupTestDB(t)
	store, err := profile.NewStore(tdb.Pool, testutil.DiscardLogger())
	if err != nil {
		cleanup()
		t.Fatalf("NewStore: %v", err)
	}
	return store, cleanup
}

func TestGetBeforeFirstSave(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	if _, err := store.Get(context.Background()); !errors.Is(err, profile.ErrNotFound) {
		t.Errorf("Get on empty table = %v, want ErrNotFound", err)
	}
}

func TestSaveAndGet(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()

	in := &profile.Profile{
		ID:           profile.ID,
		GitHubURL:    "https://github.com/ada",
		PortfolioURL: "https://ada.dev",
		Bio:          "First programmer.",
	}
	if err := store.Save(ctx, in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.GitHubURL != in.GitHubURL || got.PortfolioURL != in.PortfolioURL || got.Bio != in.Bio {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps not populated")
	}

	// Saving again updates the same row rather than inserting another.
	in.Bio = "Updated bio."
	if err := store.Save(ctx, in); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	got, err = store.Get(ctx)
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if got.Bio != "Updated bio." {
		t.Errorf("bio = %q, want updated value", got.Bio)
	}
}

func TestSetScraped(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.Save(ctx, &profile.Profile{ID: profile.ID}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := store.SetScraped(ctx, source.CategoryGitHub, "scraped text"); err != nil {
		t.Fatalf("SetScraped: %v", err)
	}

	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ScrapedGitHub != "scraped text" {
		t.Errorf("ScrapedGitHub = %q", got.ScrapedGitHub)
	}
	if got.ScrapedPortfolio != "" || got.ScrapedResume != "" {
		t.Error("other scraped columns should be untouched")
	}

	// Clearing writes the empty string back.
	if err := store.SetScraped(ctx, source.CategoryGitHub, ""); err != nil {
		t.Fatalf("clearing SetScraped: %v", err)
	}
	got, err = store.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ScrapedGitHub != "" {
		t.Errorf("ScrapedGitHub = %q, want empty", got.ScrapedGitHub)
	}
}

func TestSetScrapedInvalidCategory(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.SetScraped(ctx, source.CategoryBio, "text"); err == nil {
		t.Error("bio has no scraped column, expected error")
	}
	if err := store.SetScraped(ctx, source.CategoryLinkedIn, "text"); err == nil {
		t.Error("linkedin has no scraped column, expected error")
	}
}

func TestSetScrapedWithoutProfileRow(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	err := store.SetScraped(context.Background(), source.CategoryGitHub, "text")
	if !errors.Is(err, profile.ErrNotFound) {
		t.Errorf("SetScraped on empty table = %v, want ErrNotFound", err)
	}
}
