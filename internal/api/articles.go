package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"BlogScraper/internal/domain"
)

// ArticleRequest is the body accepted by POST and PUT /articles.
type ArticleRequest struct {
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	Content       *string  `json:"content"`
	Author        *string  `json:"author"`
	PublishedDate *string  `json:"published_date"`
	Source        string   `json:"source"`
	Status        string   `json:"status"`
	SourceType    string   `json:"source_type"`
	References    []string `json:"references"`
}

// toArticle validates required fields and applies defaults.
func (r ArticleRequest) toArticle() (domain.Article, error) {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return domain.Article{}, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	url := strings.TrimSpace(r.URL)
	if err := domain.ValidateURL(url); err != nil {
		return domain.Article{}, err
	}
	if r.Content == nil {
		return domain.Article{}, fmt.Errorf("%w: content is required", domain.ErrValidation)
	}

	status, err := domain.ParseStatus(r.Status)
	if err != nil {
		return domain.Article{}, err
	}
	sourceType, err := domain.ParseSourceType(r.SourceType)
	if err != nil {
		return domain.Article{}, err
	}

	source := strings.TrimSpace(r.Source)
	if source == "" {
		source = domain.DefaultSource
	}
	refs := r.References
	if refs == nil {
		refs = []string{}
	}

	return domain.Article{
		Title:         title,
		URL:           url,
		Author:        blankToNil(r.Author),
		Content:       *r.Content,
		PublishedDate: blankToNil(r.PublishedDate),
		Source:        source,
		Status:        status,
		SourceType:    sourceType,
		References:    refs,
	}, nil
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (s *Server) handleListArticles(c *gin.Context) {
	articles, err := s.repo.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, articles)
}

func (s *Server) handleGetArticle(c *gin.Context) {
	id, err := domain.ParseID(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	article, err := s.repo.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

func (s *Server) handleCreateArticle(c *gin.Context) {
	article, ok := s.bindArticle(c)
	if !ok {
		return
	}
	article.CreatedAt = time.Now().UTC()

	id, err := s.repo.Insert(c.Request.Context(), &article)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Article created successfully", "id": id})
}

func (s *Server) handleUpdateArticle(c *gin.Context) {
	id, err := domain.ParseID(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	article, ok := s.bindArticle(c)
	if !ok {
		return
	}

	if err := s.repo.Update(c.Request.Context(), id, article); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Article updated successfully"})
}

func (s *Server) handleDeleteArticle(c *gin.Context) {
	id, err := domain.ParseID(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	if err := s.repo.Delete(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Article deleted successfully"})
}

func (s *Server) handleScrapeOldest(c *gin.Context) {
	result, err := s.ingester.IngestOldest(c.Request.Context(), s.targetCount)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":           "Oldest articles scraped and stored",
		"inserted_articles": result.Inserted,
		"collected":         result.Collected,
		"duplicates":        result.Duplicates,
		"failed":            result.Failed,
	})
}

func (s *Server) bindArticle(c *gin.Context) (domain.Article, bool) {
	var req ArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err))
		return domain.Article{}, false
	}

	article, err := req.toArticle()
	if err != nil {
		s.respondError(c, err)
		return domain.Article{}, false
	}
	return article, true
}
