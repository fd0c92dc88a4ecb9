package domain

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultSource tags records scraped from the BeyondChats blog.
const DefaultSource = "beyondchats"

// Article is the persisted record for a single blog post.
type Article struct {
	ID            string     `json:"id" bson:"_id"`
	Title         string     `json:"title" bson:"title"`
	URL           string     `json:"url" bson:"url"`
	Author        *string    `json:"author" bson:"author"`
	Content       string     `json:"content" bson:"content"`
	PublishedDate *string    `json:"published_date" bson:"published_date"`
	Source        string     `json:"source" bson:"source"`
	Status        Status     `json:"status" bson:"status"`
	SourceType    SourceType `json:"source_type" bson:"source_type"`
	References    []string   `json:"references" bson:"references"`
	CreatedAt     time.Time  `json:"created_at" bson:"created_at"`
}

// ArticleReference points at an article page found on a listing.
type ArticleReference struct {
	Title string
	URL   string
}

// Status enumerates record lifecycle states.
type Status string

// StatusOriginal is the only lifecycle state: the record holds the article as
// published. Scraped and manually created records share it.
const StatusOriginal Status = "original"

// ParseStatus normalizes user supplied status values. The legacy "Extracted"
// tag is folded into StatusOriginal.
func ParseStatus(raw string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "original", "extracted":
		return StatusOriginal, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, raw)
	}
}

// SourceType records how an article entered the store.
type SourceType string

const (
	SourceTypeScraped SourceType = "scraped"
	SourceTypeManual  SourceType = "manual"
)

// ParseSourceType defaults to SourceTypeManual, which is what API clients create.
func ParseSourceType(raw string) (SourceType, error) {
	switch SourceType(strings.ToLower(strings.TrimSpace(raw))) {
	case "", SourceTypeManual:
		return SourceTypeManual, nil
	case SourceTypeScraped:
		return SourceTypeScraped, nil
	default:
		return "", fmt.Errorf("%w: unknown source_type %q", ErrValidation, raw)
	}
}

// IngestResult reports the outcome of one ingestion batch.
type IngestResult struct {
	Requested  int `json:"requested"`
	Collected  int `json:"collected"`
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed"`
}

// Validate checks the record before it crosses the store boundary.
func (a Article) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if err := ValidateURL(a.URL); err != nil {
		return err
	}
	if a.Status != StatusOriginal {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, a.Status)
	}
	if a.SourceType != SourceTypeScraped && a.SourceType != SourceTypeManual {
		return fmt.Errorf("%w: unknown source_type %q", ErrValidation, a.SourceType)
	}
	return nil
}

// ValidateURL accepts absolute http and https URLs only.
func ValidateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%w: url is required", ErrValidation)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: invalid url %q: %v", ErrValidation, raw, err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%w: url must start with http:// or https://", ErrValidation)
	}
	return nil
}

// NewID returns a fresh record identifier.
func NewID() string {
	return uuid.NewString()
}

// ParseID accepts ids issued by NewID and the 24-hex ObjectId form carried
// by records from earlier deployments. Anything else is ErrValidation.
func ParseID(raw string) (string, error) {
	if id, err := uuid.Parse(raw); err == nil {
		return id.String(), nil
	}
	if isObjectIDHex(raw) {
		return strings.ToLower(raw), nil
	}
	return "", fmt.Errorf("%w: invalid article id %q", ErrValidation, raw)
}

func isObjectIDHex(raw string) bool {
	if len(raw) != 24 {
		return false
	}
	_, err := hex.DecodeString(raw)
	return err == nil
}
