package storage

import (
	"context"
	"fmt"
	"strings"

	"BlogScraper/internal/domain"
	"BlogScraper/internal/ports"
)

// Open picks the adapter from the URI scheme: mongodb:// and mongodb+srv://
// go to MongoDB, sqlite:// and file: go to SQLite. The returned repository
// has already been reached at least once.
func Open(ctx context.Context, opts Options) (ports.ArticleRepository, error) {
	uri := strings.TrimSpace(opts.URI)
	switch {
	case uri == "":
		return nil, fmt.Errorf("%w: empty store uri", domain.ErrStoreUnavailable)
	case strings.HasPrefix(uri, "mongodb://"), strings.HasPrefix(uri, "mongodb+srv://"):
		opts.URI = uri
		repo, err := NewMongoRepository(ctx, opts)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case strings.HasPrefix(uri, "sqlite://"), strings.HasPrefix(uri, "file:"):
		repo, err := NewSQLiteRepository(ctx, strings.TrimPrefix(uri, "sqlite://"))
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("%w: unsupported store uri scheme in %q", domain.ErrStoreUnavailable, redact(uri))
	}
}

// redact drops credentials so the uri can be logged.
func redact(uri string) string {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return uri
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		return scheme + "://***@" + rest[at+1:]
	}
	return uri
}
