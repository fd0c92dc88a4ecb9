package usecase

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BlogScraper/internal/domain"
	"BlogScraper/internal/infrastructure/storage"
	"BlogScraper/internal/logging"
)

type stubCollector struct {
	refs []domain.ArticleReference
	err  error
}

func (s stubCollector) CollectOldest(_ context.Context, targetCount int) ([]domain.ArticleReference, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.refs) > targetCount {
		return s.refs[:targetCount], nil
	}
	return s.refs, nil
}

type stubFetcher struct {
	pages    map[string]string
	failures map[string]error
	calls    []string
}

func (s *stubFetcher) Fetch(_ context.Context, url string) (*goquery.Document, error) {
	s.calls = append(s.calls, url)
	if err, ok := s.failures[url]; ok {
		return nil, err
	}
	html, ok := s.pages[url]
	if !ok {
		return nil, fmt.Errorf("%w: get %s returned 404 Not Found", domain.ErrNetwork, url)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func articlePage(title string) string {
	return fmt.Sprintf(`<h1>%s</h1>
	<ul class="entry-meta"><li><a class="ct-meta-element-author">Author of %s</a></li></ul>
	<time datetime="2019-01-01T00:00:00+00:00">Jan 1</time>
	<div class="elementor-widget-theme-post-content"><p>Body of %s.</p></div>`, title, title, title)
}

func fiveArticleSite() (stubCollector, *stubFetcher) {
	var refs []domain.ArticleReference
	pages := map[string]string{}
	for i := 1; i <= 5; i++ {
		url := fmt.Sprintf("https://beyondchats.com/blogs/post-%d/", i)
		refs = append(refs, domain.ArticleReference{Title: fmt.Sprintf("Post %d", i), URL: url})
		pages[url] = articlePage(fmt.Sprintf("Post %d", i))
	}
	return stubCollector{refs: refs}, &stubFetcher{pages: pages, failures: map[string]error{}}
}

func newTestRepository(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(context.Background(), filepath.Join(t.TempDir(), "pipeline.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close(context.Background()) })
	return repo
}

var fixedNow = func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) }

func TestIngestOldestStoresRecords(t *testing.T) {
	collector, fetcher := fiveArticleSite()
	repo := newTestRepository(t)

	p := NewPipeline(PipelineDeps{Collector: collector, Fetcher: fetcher, Repository: repo, Now: fixedNow})
	result, err := p.IngestOldest(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, domain.IngestResult{Requested: 5, Collected: 5, Inserted: 5}, result)

	stored, err := repo.FindByURL(context.Background(), "https://beyondchats.com/blogs/post-3/")
	require.NoError(t, err)
	assert.Equal(t, "Post 3", stored.Title)
	assert.Equal(t, "Body of Post 3.", stored.Content)
	require.NotNil(t, stored.Author)
	assert.Equal(t, "Author of Post 3", *stored.Author)
	require.NotNil(t, stored.PublishedDate)
	assert.Equal(t, "2019-01-01T00:00:00+00:00", *stored.PublishedDate)
	assert.Equal(t, domain.DefaultSource, stored.Source)
	assert.Equal(t, domain.StatusOriginal, stored.Status)
	assert.Equal(t, domain.SourceTypeScraped, stored.SourceType)
	assert.True(t, fixedNow().Equal(stored.CreatedAt))
}

func TestIngestOldestIsIdempotent(t *testing.T) {
	collector, fetcher := fiveArticleSite()
	repo := newTestRepository(t)
	p := NewPipeline(PipelineDeps{Collector: collector, Fetcher: fetcher, Repository: repo, Now: fixedNow})

	first, err := p.IngestOldest(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 5, first.Inserted)

	second, err := p.IngestOldest(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 5, second.Duplicates)

	all, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 5)

	urls := map[string]int{}
	for _, a := range all {
		urls[a.URL]++
	}
	for url, n := range urls {
		assert.Equal(t, 1, n, "url %s stored more than once", url)
	}
}

func TestIngestOldestSurvivesItemFailures(t *testing.T) {
	collector, fetcher := fiveArticleSite()
	fetcher.failures["https://beyondchats.com/blogs/post-3/"] = fmt.Errorf("%w: connection refused", domain.ErrNetwork)
	repo := newTestRepository(t)

	p := NewPipeline(PipelineDeps{Collector: collector, Fetcher: fetcher, Repository: repo, Now: fixedNow})
	result, err := p.IngestOldest(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Inserted)
	assert.Equal(t, 1, result.Failed)
	assert.Len(t, fetcher.calls, 5, "every reference is attempted")

	_, err = repo.FindByURL(context.Background(), "https://beyondchats.com/blogs/post-5/")
	assert.NoError(t, err)
}

func TestIngestOldestLogsListingTitleOnSkip(t *testing.T) {
	collector, fetcher := fiveArticleSite()
	fetcher.failures["https://beyondchats.com/blogs/post-3/"] = fmt.Errorf("%w: connection refused", domain.ErrNetwork)

	var buf bytes.Buffer
	p := NewPipeline(PipelineDeps{
		Collector:  collector,
		Fetcher:    fetcher,
		Repository: newTestRepository(t),
		Logger:     logging.NewWithWriter(&buf, "info", "json"),
		Now:        fixedNow,
	})
	_, err := p.IngestOldest(context.Background(), 5)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"msg":"skip article"`)
	assert.Contains(t, buf.String(), `"url":"https://beyondchats.com/blogs/post-3/","title":"Post 3"`)
}

func TestIngestOldestSkipsUnparsableArticle(t *testing.T) {
	collector, fetcher := fiveArticleSite()
	fetcher.pages["https://beyondchats.com/blogs/post-1/"] = `<p>no heading</p>`
	repo := newTestRepository(t)

	p := NewPipeline(PipelineDeps{Collector: collector, Fetcher: fetcher, Repository: repo, Now: fixedNow})
	result, err := p.IngestOldest(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Inserted)
	assert.Equal(t, 1, result.Failed)
}

func TestIngestOldestCollectorFailure(t *testing.T) {
	_, fetcher := fiveArticleSite()
	collector := stubCollector{err: fmt.Errorf("%w: no pagination", domain.ErrParse)}

	p := NewPipeline(PipelineDeps{Collector: collector, Fetcher: fetcher, Repository: newTestRepository(t)})
	_, err := p.IngestOldest(context.Background(), 5)
	assert.ErrorIs(t, err, domain.ErrParse)
	assert.Empty(t, fetcher.calls)
}

// racingRepository hides a concurrent insert from the dedup lookup.
type racingRepository struct {
	*storage.SQLiteRepository
}

func (r racingRepository) FindByURL(context.Context, string) (domain.Article, error) {
	return domain.Article{}, domain.ErrNotFound
}

func TestIngestOldestCountsUniqueViolationAsDuplicate(t *testing.T) {
	collector, fetcher := fiveArticleSite()
	repo := newTestRepository(t)

	existing := domain.Article{
		Title:      "Already here",
		URL:        "https://beyondchats.com/blogs/post-2/",
		Status:     domain.StatusOriginal,
		SourceType: domain.SourceTypeManual,
	}
	_, err := repo.Insert(context.Background(), &existing)
	require.NoError(t, err)

	p := NewPipeline(PipelineDeps{Collector: collector, Fetcher: fetcher, Repository: racingRepository{repo}, Now: fixedNow})
	result, err := p.IngestOldest(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Inserted)
	assert.Equal(t, 1, result.Duplicates)
	assert.Zero(t, result.Failed)
}

func TestIngestOldestHonoursTarget(t *testing.T) {
	collector, fetcher := fiveArticleSite()
	p := NewPipeline(PipelineDeps{Collector: collector, Fetcher: fetcher, Repository: newTestRepository(t)})

	result, err := p.IngestOldest(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Collected)
	assert.Equal(t, 2, result.Inserted)
}
