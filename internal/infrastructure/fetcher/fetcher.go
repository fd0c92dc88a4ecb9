package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"BlogScraper/internal/domain"
	"BlogScraper/internal/ports"
)

const (
	// DefaultTimeout bounds a single page download.
	DefaultTimeout = 15 * time.Second
	// DefaultUserAgent identifies as a desktop browser; the blog rejects bare clients.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// HTTPFetcher retrieves pages over HTTP and hands back a goquery document.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	logger    *slog.Logger
}

var _ ports.PageFetcher = (*HTTPFetcher)(nil)

// New builds a fetcher. The timeout bounds every Fetch, including on an
// injected client.
func New(client *http.Client, userAgent string, timeout time.Duration, logger *slog.Logger) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPFetcher{client: client, userAgent: userAgent, timeout: timeout, logger: logger}
}

// Fetch issues a GET for pageURL. Transport failures and non-2xx answers wrap
// domain.ErrNetwork; an unreadable body wraps domain.ErrParse.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request for %s: %v", domain.ErrNetwork, pageURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	started := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", domain.ErrNetwork, pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: get %s returned %s", domain.ErrNetwork, pageURL, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrParse, pageURL, err)
	}

	f.debug("page fetched", "url", pageURL, "status", resp.StatusCode, "elapsed", time.Since(started))
	return doc, nil
}

func (f *HTTPFetcher) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
