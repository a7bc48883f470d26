package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/askfolio/askfolio/internal/app"
	"github.com/askfolio/askfolio/internal/config"
	"github.com/askfolio/askfolio/internal/ingest"
	"github.com/askfolio/askfolio/internal/source"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [category...]",
	Short: "Re-ingest profile sources into the vector index",
	Long: `Re-ingest the given source categories (github, portfolio, bio, resume)
from the stored profile. With no arguments, every category that has a
configured source is re-ingested.`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

// runIngest re-indexes sources under an exclusive file lock, so a cron job
// and a manual run cannot replace the same category concurrently.
func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	lock := flock.New(filepath.Join(os.TempDir(), "askfolio-ingest.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring ingest lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another ingest run is in progress")
	}
	defer func() { _ = lock.Unlock() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.Setup(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() { _ = a.Close() }()

	categories, err := resolveCategories(args)
	if err != nil {
		return err
	}

	var failed int
	for _, cat := range categories {
		switch err := a.Ingester.Rescrape(ctx, cat, ""); {
		case errors.Is(err, ingest.ErrNoSource):
			a.Logger.Info("skipping category without a source", "category", cat)
		case errors.Is(err, ingest.ErrNoContent):
			a.Logger.Warn("source yielded no content, keeping previous ingestion", "category", cat)
		case err != nil:
			a.Logger.Error("ingestion failed", "category", cat, "error", err)
			failed++
		default:
			fmt.Printf("ingested %s\n", cat)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d categories failed", failed, len(categories))
	}
	return nil
}

// resolveCategories parses the argument list, defaulting to every category
// that can be ingested.
func resolveCategories(args []string) ([]source.Category, error) {
	if len(args) == 0 {
		var all []source.Category
		for _, cat := range source.All() {
			if cat != source.CategoryLinkedIn {
				all = append(all, cat)
			}
		}
		return all, nil
	}

	var categories []source.Category
	for _, arg := range args {
		cat, err := source.Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("unknown category %q", arg)
		}
		if cat == source.CategoryLinkedIn {
			return nil, fmt.Errorf("linkedin ingestion is disabled")
		}
		categories = append(categories, cat)
	}
	return categories, nil
}
