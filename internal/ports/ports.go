package ports

import (
	"context"

	"github.com/PuerkitoBio/goquery"

	"BlogScraper/internal/domain"
)

// PageFetcher downloads and parses a single HTML page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// ReferenceCollector walks the blog listing for the oldest article links.
type ReferenceCollector interface {
	CollectOldest(ctx context.Context, targetCount int) ([]domain.ArticleReference, error)
}

// ArticleRepository persists article records. Lookups of absent records
// return domain.ErrNotFound; url collisions return domain.ErrDuplicateURL.
type ArticleRepository interface {
	Insert(ctx context.Context, article *domain.Article) (string, error)
	FindByURL(ctx context.Context, url string) (domain.Article, error)
	Get(ctx context.Context, id string) (domain.Article, error)
	List(ctx context.Context) ([]domain.Article, error)
	Update(ctx context.Context, id string, article domain.Article) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Ingester runs one scrape-and-store batch.
type Ingester interface {
	IngestOldest(ctx context.Context, targetCount int) (domain.IngestResult, error)
}
