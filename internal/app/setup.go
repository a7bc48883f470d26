package app

import (
	"context"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/askfolio/askfolio/db"
	"github.com/askfolio/askfolio/internal/answer"
	"github.com/askfolio/askfolio/internal/api"
	"github.com/askfolio/askfolio/internal/config"
	"github.com/askfolio/askfolio/internal/embed"
	"github.com/askfolio/askfolio/internal/extract"
	"github.com/askfolio/askfolio/internal/index"
	"github.com/askfolio/askfolio/internal/ingest"
	"github.com/askfolio/askfolio/internal/log"
	"github.com/askfolio/askfolio/internal/profile"
	"github.com/askfolio/askfolio/internal/qna"
	"github.com/askfolio/askfolio/internal/retrieve"
	"github.com/askfolio/askfolio/internal/scrape"
)

// Setup creates and initializes the application. On failure, everything
// already initialized is released before the error returns.
func Setup(ctx context.Context, cfg *config.Config) (_ *App, retErr error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := log.New(log.Config{Level: level, JSON: cfg.LogJSON})

	a := &App{Config: cfg, Logger: logger}
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	pool, dbCleanup, err := provideDBPool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.DBPool = pool
	a.dbCleanup = dbCleanup

	g, err := provideGenkit(ctx)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	a.Embedder, err = embed.NewService(func() (ai.Embedder, error) {
		embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
		if embedder == nil {
			return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
		}
		return embedder, nil
	}, logger)
	if err != nil {
		return nil, err
	}

	a.Profiles, err = profile.NewStore(pool, logger)
	if err != nil {
		return nil, err
	}
	a.Index, err = index.NewStore(pool, logger)
	if err != nil {
		return nil, err
	}
	a.History, err = qna.NewStore(pool, logger)
	if err != nil {
		return nil, err
	}

	a.Scraper = scrape.New(logger)

	a.Pipeline, err = ingest.NewPipeline(a.Scraper, a.Embedder, a.Index, logger,
		ingest.WithChunkSize(cfg.ChunkSize))
	if err != nil {
		return nil, err
	}
	a.Ingester, err = ingest.NewService(a.Pipeline, a.Profiles, extract.New(logger), logger)
	if err != nil {
		return nil, err
	}

	a.Assembler, err = retrieve.New(a.Embedder, a.Index, a.Profiles, logger,
		retrieve.WithTopK(cfg.RetrievalTopK),
		retrieve.WithThreshold(cfg.SimilarityThreshold))
	if err != nil {
		return nil, err
	}

	a.Answers, err = answer.New(answer.NewGenerator(g), a.Assembler, a.History, logger,
		answer.WithModel(cfg.ModelName))
	if err != nil {
		return nil, err
	}

	a.Server, err = api.NewServer(api.ServerConfig{
		Logger:   logger,
		Profiles: a.Profiles,
		Answers:  a.Answers,
		Ingester: a.Ingester,
		History:  a.History,
		Pool:     pool,
	})
	if err != nil {
		return nil, err
	}

	return a, nil
}

// provideDBPool runs migrations and creates the PostgreSQL connection pool.
func provideDBPool(ctx context.Context, cfg *config.Config, logger log.Logger) (*pgxpool.Pool, func(), error) {
	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, pool.Close, nil
}

// provideGenkit initializes Genkit with the Google AI plugin. The plugin
// reads GEMINI_API_KEY from the environment.
func provideGenkit(ctx context.Context) (*genkit.Genkit, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, fmt.Errorf("failed to initialize genkit")
	}
	return g, nil
}
