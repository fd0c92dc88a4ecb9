package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"BlogScraper/internal/domain"
)

const (
	titleSelector     = "h1"
	authorSelector    = ".entry-meta .ct-meta-element-author"
	timeSelector      = "time[datetime]"
	contentSelector   = ".elementor-widget-theme-post-content"
	paragraphSelector = "p"
)

// ParseArticle fills the store independent fields of an Article from its
// page. A missing title is a domain.ErrParse; every other field degrades to
// its zero value. The second return reports whether the content container
// was found.
func ParseArticle(doc *goquery.Document, articleURL string) (domain.Article, bool, error) {
	title := normalizeSpace(doc.Find(titleSelector).First().Text())
	if title == "" {
		return domain.Article{}, false, fmt.Errorf("%w: no title heading on %s", domain.ErrParse, articleURL)
	}

	article := domain.Article{
		Title: title,
		URL:   articleURL,
	}

	if author := normalizeSpace(doc.Find(authorSelector).First().Text()); author != "" {
		article.Author = &author
	}

	if published, ok := doc.Find(timeSelector).First().Attr("datetime"); ok {
		if published = strings.TrimSpace(published); published != "" {
			article.PublishedDate = &published
		}
	}

	container := doc.Find(contentSelector).First()
	if container.Length() == 0 {
		return article, false, nil
	}

	var paragraphs []string
	container.Find(paragraphSelector).Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	article.Content = strings.Join(paragraphs, "\n\n")

	return article, true, nil
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
