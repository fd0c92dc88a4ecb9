package parser

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"BlogScraper/internal/domain"
)

const (
	paginationSelector = ".page-numbers"
	cardSelector       = "article.entry-card"
	cardTitleSelector  = ".entry-title a"
)

// ExtractPageNumbers returns the distinct numeric pagination labels in
// ascending order. Labels like "Next" or an ellipsis are ignored. A page
// without any pagination element is reported as domain.ErrParse so callers
// can tell a changed layout apart from a single-page listing.
func ExtractPageNumbers(doc *goquery.Document) ([]int, error) {
	links := doc.Find(paginationSelector)
	if links.Length() == 0 {
		return nil, fmt.Errorf("%w: no pagination elements (%s)", domain.ErrParse, paginationSelector)
	}

	seen := map[int]struct{}{}
	numbers := make([]int, 0, links.Length())
	links.Each(func(_ int, s *goquery.Selection) {
		n, err := strconv.Atoi(strings.TrimSpace(s.Text()))
		if err != nil || n <= 0 {
			return
		}
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		numbers = append(numbers, n)
	})

	sort.Ints(numbers)
	return numbers, nil
}

// LastPage picks the highest page number. Numbering may skip values, so the
// count of labels is meaningless.
func LastPage(numbers []int) int {
	last := 1
	for _, n := range numbers {
		if n > last {
			last = n
		}
	}
	return last
}

// ExtractArticleLinks lists article cards in document order. Cards without a
// title link are skipped; relative links are resolved against base.
func ExtractArticleLinks(doc *goquery.Document, base *url.URL) []domain.ArticleReference {
	var refs []domain.ArticleReference

	doc.Find(cardSelector).Each(func(_ int, card *goquery.Selection) {
		link := card.Find(cardTitleSelector).First()
		if link.Length() == 0 {
			return
		}

		href, _ := link.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}

		if base != nil {
			if parsed, err := base.Parse(href); err == nil {
				href = parsed.String()
			}
		}

		refs = append(refs, domain.ArticleReference{
			Title: strings.Join(strings.Fields(link.Text()), " "),
			URL:   href,
		})
	})

	return refs
}

// PageURL builds the listing URL for page n. Page 1 is the listing root,
// later pages follow the WordPress "page/N/" convention.
func PageURL(root string, n int) (string, error) {
	parsed, err := url.Parse(root)
	if err != nil {
		return "", fmt.Errorf("invalid listing url %s: %w", root, err)
	}
	if n <= 1 {
		return parsed.String(), nil
	}

	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}
	parsed.Path += fmt.Sprintf("page/%d/", n)
	return parsed.String(), nil
}
