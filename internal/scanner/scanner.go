package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"BlogScraper/internal/domain"
	"BlogScraper/internal/infrastructure/parser"
	"BlogScraper/internal/ports"
)

// Direction names which end of the pagination holds the oldest posts.
type Direction string

const (
	// DirectionBackward starts at the highest page number and walks toward
	// page 1, reversing each page. This is right for listings ordered
	// newest first, which is how the blog is laid out today.
	DirectionBackward Direction = "backward"
	// DirectionForward starts at page 1 and walks toward the last page,
	// keeping document order. Use it for listings ordered oldest first.
	DirectionForward Direction = "forward"
)

// ParseDirection accepts the configured walk direction; empty means backward.
func ParseDirection(raw string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(raw))) {
	case "", DirectionBackward:
		return DirectionBackward, nil
	case DirectionForward:
		return DirectionForward, nil
	default:
		return "", fmt.Errorf("unknown walk direction %q", raw)
	}
}

// Collector finds the oldest article links on a paginated blog listing.
type Collector struct {
	fetcher   ports.PageFetcher
	root      string
	direction Direction
	logger    *slog.Logger
}

var _ ports.ReferenceCollector = (*Collector)(nil)

// NewCollector wires a fetcher to the listing root URL.
func NewCollector(fetcher ports.PageFetcher, root string, direction Direction, logger *slog.Logger) *Collector {
	if direction == "" {
		direction = DirectionBackward
	}
	return &Collector{
		fetcher:   fetcher,
		root:      root,
		direction: direction,
		logger:    logger,
	}
}

// CollectOldest returns up to targetCount distinct article references, oldest
// page first. The walk stops at the quota or when pages run out; a short
// result is not an error. Only a failure to read the listing root is
// returned, a failing later page is logged and skipped.
func (c *Collector) CollectOldest(ctx context.Context, targetCount int) ([]domain.ArticleReference, error) {
	if targetCount <= 0 {
		return nil, nil
	}

	rootDoc, err := c.fetcher.Fetch(ctx, c.root)
	if err != nil {
		return nil, fmt.Errorf("fetch listing root: %w", err)
	}

	numbers, err := parser.ExtractPageNumbers(rootDoc)
	if err != nil {
		return nil, fmt.Errorf("listing root %s: %w", c.root, err)
	}
	lastPage := parser.LastPage(numbers)

	page, step, reverse := lastPage, -1, true
	if c.direction == DirectionForward {
		page, step, reverse = 1, 1, false
	}

	c.debug("walk listing", "root", c.root, "last_page", lastPage, "direction", c.direction, "target", targetCount)

	collected := make([]domain.ArticleReference, 0, targetCount)
	seen := map[string]struct{}{}

	for len(collected) < targetCount && page > 0 && page <= lastPage {
		refs, err := c.pageLinks(ctx, page, rootDoc)
		if err != nil {
			c.warn("skip listing page", "page", page, "error", err)
			page += step
			continue
		}

		if reverse {
			for i, j := 0, len(refs)-1; i < j; i, j = i+1, j-1 {
				refs[i], refs[j] = refs[j], refs[i]
			}
		}

		for _, ref := range refs {
			if _, ok := seen[ref.URL]; ok {
				continue
			}
			seen[ref.URL] = struct{}{}
			collected = append(collected, ref)
			if len(collected) == targetCount {
				break
			}
		}

		c.debug("listing page scanned", "page", page, "links", len(refs), "collected", len(collected))
		page += step
	}

	return collected, nil
}

// pageLinks reads one listing page. Page 1 is the root, which is already in hand.
func (c *Collector) pageLinks(ctx context.Context, page int, rootDoc *goquery.Document) ([]domain.ArticleReference, error) {
	pageURL, err := parser.PageURL(c.root, page)
	if err != nil {
		return nil, err
	}

	doc := rootDoc
	if page != 1 {
		doc, err = c.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			return nil, err
		}
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url %s: %w", pageURL, err)
	}

	return parser.ExtractArticleLinks(doc, base), nil
}

func (c *Collector) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Collector) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
