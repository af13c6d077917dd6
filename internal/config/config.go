// Package config loads feedsync settings from defaults, an optional YAML
// file, and environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultFeedURL       = "https://aws.amazon.com/jp/blogs/news/author/yhiroaky/feed/"
	defaultAllowedOrigin = "https://aws.amazon.com/jp/blogs/news/"
	defaultArticlePrefix = "https://aws.amazon.com/jp/blogs/news/"
	defaultDataDir       = "src/data/blog"
	defaultCachePath     = "src/data/blog/rss-cache.xml"
	defaultCatalogPath   = "src/data/blog/aws-articles.json"
	defaultFetchTimeout  = 30 * time.Second
	defaultMaxFeedBytes  = 5 << 20
	defaultUserAgent     = "feedsync/1.0 (+rss)"
	defaultLogLevel      = "info"
	defaultDBPort        = 3306
	defaultDBUser        = "root"
	defaultDBName        = "feedsync"
)

// Validation errors.
var (
	ErrMissingFeedURL     = errors.New("feed_url is required")
	ErrNoAllowedOrigins   = errors.New("allowed_origins must contain at least one entry")
	ErrInvalidOrigin      = errors.New("allowed_origins entries must be absolute https URLs")
	ErrMissingPrefix      = errors.New("article_prefix is required")
	ErrMissingDataDir     = errors.New("data_dir is required")
	ErrMissingCachePath   = errors.New("cache_path is required")
	ErrMissingCatalogPath = errors.New("catalog_path is required")
	ErrInvalidTimeout     = errors.New("fetch_timeout must be positive")
	ErrInvalidMaxBytes    = errors.New("max_feed_bytes must be positive")
	ErrInvalidLogLevel    = errors.New("log_level must be one of: debug, info, warn, error")
)

// Config holds runtime configuration.
type Config struct {
	FeedURL        string        `yaml:"feed_url"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ArticlePrefix  string        `yaml:"article_prefix"`
	DataDir        string        `yaml:"data_dir"`
	CachePath      string        `yaml:"cache_path"`
	CatalogPath    string        `yaml:"catalog_path"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
	MaxFeedBytes   int64         `yaml:"max_feed_bytes"`
	UserAgent      string        `yaml:"user_agent"`
	LogLevel       string        `yaml:"log_level"`
	MySQL          MySQL         `yaml:"mysql"`
}

// MySQL configures the optional catalog mirror. An empty Host disables it.
type MySQL struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// Enabled reports whether a mirror database is configured.
func (m MySQL) Enabled() bool {
	return m.Host != ""
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		FeedURL:        defaultFeedURL,
		AllowedOrigins: []string{defaultAllowedOrigin},
		ArticlePrefix:  defaultArticlePrefix,
		DataDir:        defaultDataDir,
		CachePath:      defaultCachePath,
		CatalogPath:    defaultCatalogPath,
		FetchTimeout:   defaultFetchTimeout,
		MaxFeedBytes:   defaultMaxFeedBytes,
		UserAgent:      defaultUserAgent,
		LogLevel:       defaultLogLevel,
		MySQL: MySQL{
			Port:     defaultDBPort,
			User:     defaultDBUser,
			Database: defaultDBName,
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty), and environment variables. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.FeedURL = stringWithDefault("FEED_URL", c.FeedURL)
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitAndTrim(v)
	}
	c.ArticlePrefix = stringWithDefault("ARTICLE_PREFIX", c.ArticlePrefix)
	c.DataDir = stringWithDefault("DATA_DIR", c.DataDir)
	c.CachePath = stringWithDefault("CACHE_PATH", c.CachePath)
	c.CatalogPath = stringWithDefault("CATALOG_PATH", c.CatalogPath)
	c.FetchTimeout = durationWithDefault("FETCH_TIMEOUT", c.FetchTimeout)
	c.MaxFeedBytes = int64(intWithDefault("MAX_FEED_BYTES", int(c.MaxFeedBytes)))
	c.UserAgent = stringWithDefault("USER_AGENT", c.UserAgent)
	c.LogLevel = stringWithDefault("LOG_LEVEL", c.LogLevel)
	c.MySQL.Host = stringWithDefault("DB_HOST", c.MySQL.Host)
	c.MySQL.Port = intWithDefault("DB_PORT", c.MySQL.Port)
	c.MySQL.User = stringWithDefault("DB_USER", c.MySQL.User)
	c.MySQL.Password = stringWithDefault("DB_PASSWORD", c.MySQL.Password)
	c.MySQL.Database = stringWithDefault("DB_NAME", c.MySQL.Database)
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.FeedURL) == "" {
		return ErrMissingFeedURL
	}
	if len(c.AllowedOrigins) == 0 {
		return ErrNoAllowedOrigins
	}
	for i, origin := range c.AllowedOrigins {
		u, err := url.Parse(origin)
		if err != nil || u.Scheme != "https" || u.Host == "" {
			return fmt.Errorf("%w: allowed_origins[%d]", ErrInvalidOrigin, i)
		}
	}
	if c.ArticlePrefix == "" {
		return ErrMissingPrefix
	}
	if c.DataDir == "" {
		return ErrMissingDataDir
	}
	if c.CachePath == "" {
		return ErrMissingCachePath
	}
	if c.CatalogPath == "" {
		return ErrMissingCatalogPath
	}
	if c.FetchTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxFeedBytes <= 0 {
		return ErrInvalidMaxBytes
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}
	return nil
}

func stringWithDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			return parsed
		}
		log.Printf("invalid %s=%s, using default %d", key, v, fallback)
	}
	return fallback
}

func durationWithDefault(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
		log.Printf("invalid %s=%s, using default %s", key, v, fallback)
	}
	return fallback
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
