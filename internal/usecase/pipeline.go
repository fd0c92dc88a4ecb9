package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"BlogScraper/internal/domain"
	"BlogScraper/internal/infrastructure/parser"
	"BlogScraper/internal/ports"
)

// PipelineDeps wires all driven adapters into the ingestion pipeline.
type PipelineDeps struct {
	Collector  ports.ReferenceCollector
	Fetcher    ports.PageFetcher
	Repository ports.ArticleRepository
	Source     string
	Logger     *slog.Logger
	Now        func() time.Time
}

// Pipeline turns the oldest listed articles into stored records.
type Pipeline struct {
	collector  ports.ReferenceCollector
	fetcher    ports.PageFetcher
	repository ports.ArticleRepository
	source     string
	logger     *slog.Logger
	now        func() time.Time
}

var _ ports.Ingester = (*Pipeline)(nil)

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	source := deps.Source
	if source == "" {
		source = domain.DefaultSource
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		collector:  deps.Collector,
		fetcher:    deps.Fetcher,
		repository: deps.Repository,
		source:     source,
		logger:     logger,
		now:        now,
	}
}

// IngestOldest collects up to targetCount of the oldest articles and stores
// the ones not seen before. Each article is handled on its own: a failed
// fetch, parse or insert is logged and counted, and the batch moves on.
// Only a failure to collect references aborts the run.
func (p *Pipeline) IngestOldest(ctx context.Context, targetCount int) (domain.IngestResult, error) {
	result := domain.IngestResult{Requested: targetCount}

	refs, err := p.collector.CollectOldest(ctx, targetCount)
	if err != nil {
		return result, fmt.Errorf("collect oldest articles: %w", err)
	}
	result.Collected = len(refs)

	for _, ref := range refs {
		err := p.ingestOne(ctx, ref)
		switch {
		case errors.Is(err, domain.ErrDuplicateURL):
			result.Duplicates++
			p.logger.Debug("article already stored", "url", ref.URL, "title", ref.Title)
		case err != nil:
			result.Failed++
			p.logger.Warn("skip article", "url", ref.URL, "title", ref.Title, "error", err)
		default:
			result.Inserted++
		}
	}

	p.logger.Info("ingestion finished",
		"requested", result.Requested,
		"collected", result.Collected,
		"inserted", result.Inserted,
		"duplicates", result.Duplicates,
		"failed", result.Failed,
	)
	return result, nil
}

func (p *Pipeline) ingestOne(ctx context.Context, ref domain.ArticleReference) error {
	doc, err := p.fetcher.Fetch(ctx, ref.URL)
	if err != nil {
		return fmt.Errorf("fetch article: %w", err)
	}

	article, hasContent, err := parser.ParseArticle(doc, ref.URL)
	if err != nil {
		return err
	}
	if !hasContent {
		p.logger.Debug("content container not found", "url", ref.URL)
	}

	article.Source = p.source
	article.Status = domain.StatusOriginal
	article.SourceType = domain.SourceTypeScraped
	article.References = []string{}
	article.CreatedAt = p.now().UTC()

	_, err = p.repository.FindByURL(ctx, article.URL)
	switch {
	case err == nil:
		return domain.ErrDuplicateURL
	case !errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("dedup lookup: %w", err)
	}

	// A concurrent run may insert the same url between the lookup and here;
	// the store's unique index turns that into ErrDuplicateURL.
	id, err := p.repository.Insert(ctx, &article)
	if err != nil {
		return fmt.Errorf("insert article: %w", err)
	}

	p.logger.Info("article stored", "id", id, "url", article.URL, "title", article.Title)
	return nil
}
