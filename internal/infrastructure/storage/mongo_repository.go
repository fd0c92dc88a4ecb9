package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"BlogScraper/internal/domain"
	"BlogScraper/internal/ports"
)

// MongoRepository keeps articles in a MongoDB collection.
type MongoRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

var _ ports.ArticleRepository = (*MongoRepository)(nil)

// Options carries the store URI plus the MongoDB database objects and
// connect budget; the SQLite adapter only reads URI.
type Options struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

// NewMongoRepository connects, pings and ensures the unique url index. Any
// failure within the connect budget is domain.ErrStoreUnavailable.
func NewMongoRepository(ctx context.Context, opts Options) (*MongoRepository, error) {
	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	clientOpts := options.Client().
		ApplyURI(opts.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: connect mongo: %v", domain.ErrStoreUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: ping mongo: %v", domain.ErrStoreUnavailable, err)
	}

	collection := client.Database(opts.Database).Collection(opts.Collection)
	_, err = collection.Indexes().CreateOne(pingCtx, mongo.IndexModel{
		Keys:    bson.D{{Key: "url", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("url_unique"),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: ensure url index: %v", domain.ErrStoreUnavailable, err)
	}

	return newMongoRepository(client, collection), nil
}

func newMongoRepository(client *mongo.Client, collection *mongo.Collection) *MongoRepository {
	return &MongoRepository{client: client, collection: collection}
}

// Insert assigns a fresh id and stores the article document.
func (r *MongoRepository) Insert(ctx context.Context, article *domain.Article) (string, error) {
	if err := article.Validate(); err != nil {
		return "", err
	}
	if article.References == nil {
		article.References = []string{}
	}
	if article.CreatedAt.IsZero() {
		article.CreatedAt = time.Now().UTC()
	}
	article.ID = domain.NewID()

	if _, err := r.collection.InsertOne(ctx, article); err != nil {
		article.ID = ""
		return "", translateMongoErr("insert article", err)
	}

	return article.ID, nil
}

// FindByURL returns the article stored under url.
func (r *MongoRepository) FindByURL(ctx context.Context, url string) (domain.Article, error) {
	return r.findOne(ctx, bson.M{"url": url})
}

// Get returns the article with the given id.
func (r *MongoRepository) Get(ctx context.Context, id string) (domain.Article, error) {
	return r.findOne(ctx, idFilter(id))
}

// List returns every article, oldest ingestion first.
func (r *MongoRepository) List(ctx context.Context) ([]domain.Article, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find articles: %w", err)
	}

	articles := make([]domain.Article, 0)
	if err := cursor.All(ctx, &articles); err != nil {
		return nil, fmt.Errorf("decode articles: %w", err)
	}

	for i := range articles {
		normalize(&articles[i])
	}
	return articles, nil
}

// Update replaces every mutable field of the article with the given id.
func (r *MongoRepository) Update(ctx context.Context, id string, article domain.Article) error {
	if err := article.Validate(); err != nil {
		return err
	}
	if article.References == nil {
		article.References = []string{}
	}

	set := bson.M{
		"title":          article.Title,
		"url":            article.URL,
		"author":         article.Author,
		"content":        article.Content,
		"published_date": article.PublishedDate,
		"source":         article.Source,
		"status":         article.Status,
		"source_type":    article.SourceType,
		"references":     article.References,
	}

	res, err := r.collection.UpdateOne(ctx, idFilter(id), bson.M{"$set": set})
	if err != nil {
		return translateMongoErr("update article", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return nil
}

// Delete removes the article with the given id.
func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, idFilter(id))
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return nil
}

// Ping checks the primary is reachable.
func (r *MongoRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Close disconnects the client.
func (r *MongoRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (domain.Article, error) {
	var article domain.Article
	err := r.collection.FindOne(ctx, filter).Decode(&article)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Article{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("find article: %w", err)
	}

	normalize(&article)
	return article, nil
}

// idFilter matches id as stored by Insert and, for a 24-hex id, the ObjectId
// that documents from earlier deployments carry. Those decode into
// Article.ID as the same hex string.
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{id, oid}}}
	}
	return bson.M{"_id": id}
}

// normalize fills defaults for documents written by older versions that
// predate source_type and references.
func normalize(article *domain.Article) {
	if article.References == nil {
		article.References = []string{}
	}
	if article.SourceType == "" {
		article.SourceType = domain.SourceTypeScraped
	}
	if status, err := domain.ParseStatus(string(article.Status)); err == nil {
		article.Status = status
	}
	article.CreatedAt = article.CreatedAt.UTC()
}

func translateMongoErr(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, domain.ErrDuplicateURL)
	}
	return fmt.Errorf("%s: %w", op, err)
}
