package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the byshoes configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Cache      CacheConfig      `yaml:"cache"`
	Pagination PaginationConfig `yaml:"pagination"`
	Crawler    CrawlerConfig    `yaml:"crawler"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds product store settings.
type DatabaseConfig struct {
	Driver           string `yaml:"driver"` // mongo, memory (default: mongo)
	URI              string `yaml:"uri"`
	Database         string `yaml:"database"`
	Collection       string `yaml:"collection"`
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`
	QueryTimeoutSec  int    `yaml:"query_timeout_sec"`
}

// CacheConfig holds the Redis cache settings. No addrs disables the cache.
type CacheConfig struct {
	Addrs         []string `yaml:"addrs"`
	Password      string   `yaml:"password"`
	NoveltyTTLSec int      `yaml:"novelty_ttl_sec"`
}

// Enabled reports whether a cache is configured.
func (c CacheConfig) Enabled() bool { return len(c.Addrs) > 0 }

// PaginationConfig holds page size limits.
type PaginationConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
}

// SiteConfig points the crawler at one shop.
type SiteConfig struct {
	BaseURL    string   `yaml:"base_url"`
	StartPaths []string `yaml:"start_paths"` // empty = built-in sections
}

// CrawlerConfig holds crawl pacing and retry settings.
type CrawlerConfig struct {
	Sites          map[string]SiteConfig `yaml:"sites"`
	Rate           float64               `yaml:"rate"` // requests per second per site
	Burst          int                   `yaml:"burst"`
	Concurrency    int                   `yaml:"concurrency"`
	RequestTimeout time.Duration         `yaml:"request_timeout"`
	MaxRetries     int                   `yaml:"max_retries"`
	MinBackoff     time.Duration         `yaml:"min_backoff"`
	MaxBackoff     time.Duration         `yaml:"max_backoff"`
	BatchSize      int                   `yaml:"batch_size"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes a YAML document, substituting ${VAR} references, then applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mongo"
	}
	if c.Database.Database == "" {
		c.Database.Database = "byshoes"
	}
	if c.Database.Collection == "" {
		c.Database.Collection = "byshoes-collection"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.QueryTimeoutSec <= 0 {
		c.Database.QueryTimeoutSec = 30
	}
	c.Cache.Addrs = slices.DeleteFunc(c.Cache.Addrs, func(a string) bool { return strings.TrimSpace(a) == "" })
	if c.Cache.NoveltyTTLSec <= 0 {
		c.Cache.NoveltyTTLSec = 3600
	}
	if c.Pagination.DefaultPageSize <= 0 {
		c.Pagination.DefaultPageSize = 50
	}
	if c.Pagination.MaxPageSize <= 0 {
		c.Pagination.MaxPageSize = 100
	}
	if c.Crawler.Rate <= 0 {
		c.Crawler.Rate = 1
	}
	if c.Crawler.Burst <= 0 {
		c.Crawler.Burst = 1
	}
	if c.Crawler.Concurrency <= 0 {
		c.Crawler.Concurrency = 8
	}
	if c.Crawler.RequestTimeout <= 0 {
		c.Crawler.RequestTimeout = 30 * time.Second
	}
	if c.Crawler.MaxRetries <= 0 {
		c.Crawler.MaxRetries = 3
	}
	if c.Crawler.MinBackoff <= 0 {
		c.Crawler.MinBackoff = time.Second
	}
	if c.Crawler.MaxBackoff <= 0 {
		c.Crawler.MaxBackoff = 30 * time.Second
	}
	if c.Crawler.BatchSize <= 0 {
		c.Crawler.BatchSize = 100
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "mongo":
		if c.Database.URI == "" {
			return fmt.Errorf("database.uri is required for the mongo driver")
		}
	case "memory":
		// ok
	default:
		return fmt.Errorf("database.driver must be \"mongo\" or \"memory\", got %q", c.Database.Driver)
	}
	if c.Pagination.DefaultPageSize > c.Pagination.MaxPageSize {
		return fmt.Errorf(
			"pagination.default_page_size (%d) exceeds pagination.max_page_size (%d)",
			c.Pagination.DefaultPageSize, c.Pagination.MaxPageSize,
		)
	}
	if c.Crawler.MinBackoff > c.Crawler.MaxBackoff {
		return fmt.Errorf("crawler.min_backoff must not exceed crawler.max_backoff")
	}
	for name, site := range c.Crawler.Sites {
		if site.BaseURL == "" {
			return fmt.Errorf("crawler.sites.%s.base_url is required", name)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
