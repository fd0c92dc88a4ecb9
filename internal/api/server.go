package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"BlogScraper/internal/domain"
	"BlogScraper/internal/ports"
)

// Options tunes the HTTP surface.
type Options struct {
	TargetCount    int
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Server exposes the article store and the scrape trigger over HTTP.
type Server struct {
	repo           ports.ArticleRepository
	ingester       ports.Ingester
	targetCount    int
	allowedOrigins map[string]struct{}
	logger         *slog.Logger
}

// NewServer wires the repository and the ingestion pipeline.
func NewServer(repo ports.ArticleRepository, ingester ports.Ingester, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	target := opts.TargetCount
	if target <= 0 {
		target = 5
	}

	origins := make(map[string]struct{}, len(opts.AllowedOrigins))
	for _, origin := range opts.AllowedOrigins {
		origins[origin] = struct{}{}
	}

	return &Server{
		repo:           repo,
		ingester:       ingester,
		targetCount:    target,
		allowedOrigins: origins,
		logger:         logger,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger(), s.cors())

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
	})

	router.GET("/health", s.handleHealth)

	articles := router.Group("/articles")
	articles.GET("", s.handleListArticles)
	articles.POST("", s.handleCreateArticle)
	articles.GET("/:id", s.handleGetArticle)
	articles.PUT("/:id", s.handleUpdateArticle)
	articles.DELETE("/:id", s.handleDeleteArticle)

	router.POST("/scrape/oldest", s.handleScrapeOldest)

	return router
}

// handleHealth reports 503 while the store cannot be reached.
func (s *Server) handleHealth(c *gin.Context) {
	if err := s.repo.Ping(c.Request.Context()); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// cors admits the configured origins with any method and header.
func (s *Server) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		_, allowed := s.allowedOrigins[origin]
		preflight := c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != ""

		if !allowed {
			if preflight {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "Disallowed CORS origin"})
				return
			}
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Add("Vary", "Origin")

		if preflight {
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS, HEAD")
			if requested := c.GetHeader("Access-Control-Request-Headers"); requested != "" {
				h.Set("Access-Control-Allow-Headers", requested)
			}
			h.Set("Access-Control-Max-Age", "600")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		s.logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(started),
		)
	}
}

// respondError maps the domain error taxonomy onto status codes.
func (s *Server) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateURL):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrNetwork), errors.Is(err, domain.ErrParse):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"detail": err.Error()})
}
