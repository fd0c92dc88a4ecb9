package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"BlogScraper/internal/api"
	"BlogScraper/internal/config"
	"BlogScraper/internal/domain"
	"BlogScraper/internal/infrastructure/fetcher"
	"BlogScraper/internal/infrastructure/storage"
	"BlogScraper/internal/logging"
	"BlogScraper/internal/ports"
	"BlogScraper/internal/scanner"
	"BlogScraper/internal/usecase"
)

// Application wires configs to use cases and owns the store handle.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	repository ports.ArticleRepository
	pipeline   *usecase.Pipeline
}

// New connects to the store and builds the ingestion pipeline. It fails fast
// with domain.ErrStoreUnavailable when the store cannot be reached.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	direction, err := scanner.ParseDirection(cfg.Scraper.Direction)
	if err != nil {
		return nil, err
	}

	repo, err := storage.Open(ctx, storage.Options{
		URI:            cfg.Store.URI,
		Database:       cfg.Store.Database,
		Collection:     cfg.Store.Collection,
		ConnectTimeout: cfg.Store.ConnectTimeout,
	})
	if err != nil {
		return nil, err
	}
	baseLogger.Info("store connected", "database", cfg.Store.Database, "collection", cfg.Store.Collection)

	return newWithRepository(cfg, baseLogger, repo, direction), nil
}

func newWithRepository(cfg config.Config, baseLogger *slog.Logger, repo ports.ArticleRepository, direction scanner.Direction) *Application {
	pageFetcher := fetcher.New(nil, cfg.Scraper.UserAgent, cfg.Scraper.Timeout, baseLogger.With("component", "fetcher"))
	collector := scanner.NewCollector(pageFetcher, cfg.Scraper.BaseURL, direction, baseLogger.With("component", "collector"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Collector:  collector,
		Fetcher:    pageFetcher,
		Repository: repo,
		Source:     cfg.Scraper.Source,
		Logger:     baseLogger.With("component", "pipeline"),
	})

	return &Application{
		cfg:        cfg,
		logger:     baseLogger,
		repository: repo,
		pipeline:   pipeline,
	}
}

// Handler builds the HTTP API.
func (a *Application) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	server := api.NewServer(a.repository, a.pipeline, api.Options{
		TargetCount:    a.cfg.Scraper.TargetCount,
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
		Logger:         a.logger.With("component", "api"),
	})
	return server.Router()
}

// Serve runs the HTTP API until ctx is cancelled, then shuts down gracefully.
func (a *Application) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:    a.cfg.Server.Addr,
		Handler: a.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	a.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// Scrape runs one ingestion batch; a non-positive count uses the configured target.
func (a *Application) Scrape(ctx context.Context, count int) (domain.IngestResult, error) {
	if count <= 0 {
		count = a.cfg.Scraper.TargetCount
	}
	return a.pipeline.IngestOldest(ctx, count)
}

// Close releases the store handle.
func (a *Application) Close(ctx context.Context) error {
	if a.repository == nil {
		return nil
	}
	return a.repository.Close(ctx)
}
