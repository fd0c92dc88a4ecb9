package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/mattn/go-sqlite3"

	"BlogScraper/internal/domain"
	"BlogScraper/internal/ports"
)

const articlesTable = "articles"

var articleColumns = []string{
	"id", "title", "url", "author", "content", "published_date",
	"source", "status", "source_type", "refs", "created_at",
}

// SQLiteRepository stores articles in a single SQLite table.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ports.ArticleRepository = (*SQLiteRepository)(nil)

// NewSQLiteRepository opens the database file and creates the schema.
func NewSQLiteRepository(ctx context.Context, path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite %s: %v", domain.ErrStoreUnavailable, path, err)
	}
	// One handle for the whole process; this also keeps ":memory:" databases
	// from splitting across pooled connections.
	db.SetMaxOpenConns(1)

	repo := &SQLiteRepository{db: db}
	if err := repo.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: init schema: %v", domain.ErrStoreUnavailable, err)
	}

	return repo, nil
}

func (r *SQLiteRepository) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		url TEXT NOT NULL UNIQUE,
		author TEXT,
		content TEXT NOT NULL DEFAULT '',
		published_date TEXT,
		source TEXT NOT NULL,
		status TEXT NOT NULL,
		source_type TEXT NOT NULL,
		refs TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_articles_created ON articles(created_at);
	`

	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Insert assigns a fresh id and stores the article.
func (r *SQLiteRepository) Insert(ctx context.Context, article *domain.Article) (string, error) {
	if err := article.Validate(); err != nil {
		return "", err
	}

	refs, err := encodeRefs(article.References)
	if err != nil {
		return "", err
	}

	article.ID = domain.NewID()
	if article.CreatedAt.IsZero() {
		article.CreatedAt = time.Now().UTC()
	}

	query, args, err := sq.Insert(articlesTable).
		Columns(articleColumns...).
		Values(
			article.ID, article.Title, article.URL, article.Author, article.Content, article.PublishedDate,
			article.Source, string(article.Status), string(article.SourceType), refs, article.CreatedAt.UTC(),
		).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		article.ID = ""
		return "", translateSQLiteErr("insert article", err)
	}

	return article.ID, nil
}

// FindByURL returns the article stored under url.
func (r *SQLiteRepository) FindByURL(ctx context.Context, url string) (domain.Article, error) {
	return r.findOne(ctx, sq.Eq{"url": url})
}

// Get returns the article with the given id.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (domain.Article, error) {
	return r.findOne(ctx, sq.Eq{"id": id})
}

// List returns every article, oldest ingestion first.
func (r *SQLiteRepository) List(ctx context.Context) ([]domain.Article, error) {
	query, args, err := sq.Select(articleColumns...).
		From(articlesTable).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}

	articles := make([]domain.Article, 0)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		articles = append(articles, article)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return articles, nil
}

// Update replaces every mutable field of the article with the given id.
func (r *SQLiteRepository) Update(ctx context.Context, id string, article domain.Article) error {
	if err := article.Validate(); err != nil {
		return err
	}

	refs, err := encodeRefs(article.References)
	if err != nil {
		return err
	}

	query, args, err := sq.Update(articlesTable).
		SetMap(map[string]interface{}{
			"title":          article.Title,
			"url":            article.URL,
			"author":         article.Author,
			"content":        article.Content,
			"published_date": article.PublishedDate,
			"source":         article.Source,
			"status":         string(article.Status),
			"source_type":    string(article.SourceType),
			"refs":           refs,
		}).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translateSQLiteErr("update article", err)
	}

	return requireAffected(res, id)
}

// Delete removes the article with the given id.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	query, args, err := sq.Delete(articlesTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}

	return requireAffected(res, id)
}

// Ping checks that the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Close releases the database handle.
func (r *SQLiteRepository) Close(context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) findOne(ctx context.Context, where sq.Eq) (domain.Article, error) {
	query, args, err := sq.Select(articleColumns...).
		From(articlesTable).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return domain.Article{}, fmt.Errorf("build select: %w", err)
	}

	article, err := scanArticle(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Article{}, domain.ErrNotFound
	}
	return article, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (domain.Article, error) {
	var (
		article       domain.Article
		author        sql.NullString
		publishedDate sql.NullString
		status        string
		sourceType    string
		refs          string
	)

	err := row.Scan(
		&article.ID, &article.Title, &article.URL, &author, &article.Content, &publishedDate,
		&article.Source, &status, &sourceType, &refs, &article.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Article{}, err
		}
		return domain.Article{}, fmt.Errorf("scan article: %w", err)
	}

	if author.Valid {
		article.Author = &author.String
	}
	if publishedDate.Valid {
		article.PublishedDate = &publishedDate.String
	}
	article.Status = domain.Status(status)
	article.SourceType = domain.SourceType(sourceType)

	article.References = []string{}
	if refs != "" {
		if err := json.Unmarshal([]byte(refs), &article.References); err != nil {
			return domain.Article{}, fmt.Errorf("decode references of %s: %w", article.ID, err)
		}
	}

	return article, nil
}

func encodeRefs(refs []string) (string, error) {
	if refs == nil {
		refs = []string{}
	}
	raw, err := json.Marshal(refs)
	if err != nil {
		return "", fmt.Errorf("encode references: %w", err)
	}
	return string(raw), nil
}

func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return nil
}

func translateSQLiteErr(op string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%s: %w", op, domain.ErrDuplicateURL)
	}
	return fmt.Errorf("%s: %w", op, err)
}
