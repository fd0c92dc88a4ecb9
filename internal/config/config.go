package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv    = "BLOGSCRAPER_CONFIG"
	storeURIEnv      = "STORE_URI"
	legacyMongoEnv   = "MONGO_URI"
	httpAddrEnv      = "HTTP_ADDR"
	logLevelEnv      = "LOG_LEVEL"
	logFormatEnv     = "LOG_FORMAT"
	scraperBaseEnv   = "SCRAPER_BASE_URL"
	defaultBlogsURL  = "https://beyondchats.com/blogs/"
	defaultTarget    = 5
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// Validation errors returned by Config.Validate.
var (
	ErrMissingStoreURI    = errors.New("store.uri is required (set STORE_URI)")
	ErrMissingBaseURL     = errors.New("scraper.baseUrl is required")
	ErrInvalidTargetCount = errors.New("scraper.targetCount must be at least 1")
	ErrInvalidDirection   = errors.New("scraper.direction must be 'backward' or 'forward'")
	ErrInvalidTimeout     = errors.New("timeouts must be positive")
	ErrInvalidLogLevel    = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat   = errors.New("logging.format must be 'text' or 'json'")
)

// Config holds high-level settings required across the application.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Scraper ScraperConfig `yaml:"scraper"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig describes the HTTP API listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	AllowedOrigins  []string      `yaml:"allowedOrigins"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// StoreConfig selects the record store. The URI scheme picks the adapter.
type StoreConfig struct {
	URI            string        `yaml:"uri"`
	Database       string        `yaml:"database"`
	Collection     string        `yaml:"collection"`
	ConnectTimeout time.Duration `yaml:"connectTimeout"`
}

// ScraperConfig describes the single blog being ingested.
type ScraperConfig struct {
	BaseURL     string        `yaml:"baseUrl"`
	Source      string        `yaml:"source"`
	UserAgent   string        `yaml:"userAgent"`
	Timeout     time.Duration `yaml:"timeout"`
	TargetCount int           `yaml:"targetCount"`
	// Direction is "backward" (highest page holds the oldest posts) or
	// "forward" (page 1 holds them). It depends on the site layout.
	Direction string `yaml:"direction"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load applies defaults, then the YAML file at path (or $BLOGSCRAPER_CONFIG),
// then environment overrides, and validates the result.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg = mergeConfig(cfg, fileCfg)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Store.URI) == "" {
		return ErrMissingStoreURI
	}
	if strings.TrimSpace(c.Scraper.BaseURL) == "" {
		return ErrMissingBaseURL
	}
	if c.Scraper.TargetCount < 1 {
		return ErrInvalidTargetCount
	}
	switch strings.ToLower(c.Scraper.Direction) {
	case "backward", "forward":
	default:
		return ErrInvalidDirection
	}
	if c.Scraper.Timeout <= 0 || c.Store.ConnectTimeout <= 0 || c.Server.ShutdownTimeout <= 0 {
		return ErrInvalidTimeout
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return ErrInvalidLogLevel
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return ErrInvalidLogFormat
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(legacyMongoEnv); v != "" {
		c.Store.URI = v
	}
	if v := os.Getenv(storeURIEnv); v != "" {
		c.Store.URI = v
	}
	if v := os.Getenv(httpAddrEnv); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(logFormatEnv); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv(scraperBaseEnv); v != "" {
		c.Scraper.BaseURL = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}
	if len(override.Server.AllowedOrigins) > 0 {
		base.Server.AllowedOrigins = override.Server.AllowedOrigins
	}
	if override.Server.ShutdownTimeout != 0 {
		base.Server.ShutdownTimeout = override.Server.ShutdownTimeout
	}

	if override.Store.URI != "" {
		base.Store.URI = override.Store.URI
	}
	if override.Store.Database != "" {
		base.Store.Database = override.Store.Database
	}
	if override.Store.Collection != "" {
		base.Store.Collection = override.Store.Collection
	}
	if override.Store.ConnectTimeout != 0 {
		base.Store.ConnectTimeout = override.Store.ConnectTimeout
	}

	if override.Scraper.BaseURL != "" {
		base.Scraper.BaseURL = override.Scraper.BaseURL
	}
	if override.Scraper.Source != "" {
		base.Scraper.Source = override.Scraper.Source
	}
	if override.Scraper.UserAgent != "" {
		base.Scraper.UserAgent = override.Scraper.UserAgent
	}
	if override.Scraper.Timeout != 0 {
		base.Scraper.Timeout = override.Scraper.Timeout
	}
	if override.Scraper.TargetCount != 0 {
		base.Scraper.TargetCount = override.Scraper.TargetCount
	}
	if override.Scraper.Direction != "" {
		base.Scraper.Direction = override.Scraper.Direction
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8000",
			AllowedOrigins:  []string{"http://localhost:5173", "http://localhost:3000"},
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Database:       "beyondchats",
			Collection:     "articles",
			ConnectTimeout: 10 * time.Second,
		},
		Scraper: ScraperConfig{
			BaseURL:     defaultBlogsURL,
			Source:      "beyondchats",
			UserAgent:   defaultUserAgent,
			Timeout:     15 * time.Second,
			TargetCount: defaultTarget,
			Direction:   "backward",
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}
