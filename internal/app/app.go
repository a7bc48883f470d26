// Package app wires configuration, storage, models, and services into a
// runnable application.
package app

import (
	"log/slog"

	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/askfolio/askfolio/internal/answer"
	"github.com/askfolio/askfolio/internal/api"
	"github.com/askfolio/askfolio/internal/config"
	"github.com/askfolio/askfolio/internal/embed"
	"github.com/askfolio/askfolio/internal/index"
	"github.com/askfolio/askfolio/internal/ingest"
	"github.com/askfolio/askfolio/internal/profile"
	"github.com/askfolio/askfolio/internal/qna"
	"github.com/askfolio/askfolio/internal/retrieve"
	"github.com/askfolio/askfolio/internal/scrape"
)

// App holds every initialized component. Construct with Setup; release with
// Close.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	DBPool *pgxpool.Pool
	Genkit *genkit.Genkit

	Embedder  *embed.Service
	Profiles  *profile.Store
	Index     *index.Store
	History   *qna.Store
	Scraper   *scrape.Scraper
	Pipeline  *ingest.Pipeline
	Ingester  *ingest.Service
	Assembler *retrieve.Assembler
	Answers   *answer.Service
	Server    *api.Server

	dbCleanup func()
}

// Close releases application resources. Safe to call on a partially
// initialized App.
func (a *App) Close() error {
	if a.dbCleanup != nil {
		a.dbCleanup()
		a.dbCleanup = nil
	}
	return nil
}
