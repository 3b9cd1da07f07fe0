package config

import (
	"embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/matheuskafuri/bookshelf/internal/content"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// OriginEnv overrides edge.origin when set.
const OriginEnv = "BOOKSHELF_ORIGIN"

var (
	ErrUnknownLogLevel = errors.New("unknown log level")
	ErrBadOrigin       = errors.New("origin must be an absolute http(s) URL")
	ErrEmptyManifest   = errors.New("edge manifest must list at least one path")
	ErrBadLimit        = errors.New("limit must be positive")
	ErrBadFeed         = errors.New("invalid feed")
)

type Feed struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
	Enabled  bool   `yaml:"enabled"`
}

type Library struct {
	ContentDir string `yaml:"content_dir"`
	Feeds      []Feed `yaml:"feeds"`
}

type Search struct {
	SuggestLimit int    `yaml:"suggest_limit"`
	HistoryLimit int    `yaml:"history_limit"`
	Debounce     string `yaml:"debounce"`
}

type Site struct {
	Dir    string `yaml:"dir"`
	Listen string `yaml:"listen"`
}

type Edge struct {
	Listen       string   `yaml:"listen"`
	Origin       string   `yaml:"origin"`
	CacheVersion string   `yaml:"cache_version"`
	Manifest     []string `yaml:"manifest"`
	Housekeeping string   `yaml:"housekeeping"`
}

type Logging struct {
	Level string `yaml:"level"`
}

type Config struct {
	Library Library `yaml:"library"`
	Search  Search  `yaml:"search"`
	Site    Site    `yaml:"site"`
	Edge    Edge    `yaml:"edge"`
	Logging Logging `yaml:"logging"`
}

func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Search.Debounce)
	if err != nil || d <= 0 {
		return 300 * time.Millisecond
	}
	return d
}

// HousekeepingInterval accepts Go durations and an "Nd" day form.
func (c *Config) HousekeepingInterval() time.Duration {
	const fallback = 24 * time.Hour
	s := c.Edge.Housekeeping
	if s == "" {
		return fallback
	}
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil && days > 0 {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Origin returns the edge origin, preferring the environment override.
func (c *Config) Origin() string {
	if v := os.Getenv(OriginEnv); v != "" {
		return v
	}
	return c.Edge.Origin
}

// SiteDir returns where the static site lives.
func (c *Config) SiteDir() string {
	if c.Site.Dir != "" {
		return c.Site.Dir
	}
	return filepath.Join(xdg.CacheHome, "bookshelf", "site")
}

func (c *Config) EnabledFeeds() []content.FeedSource {
	var out []content.FeedSource
	for _, f := range c.Library.Feeds {
		if !f.Enabled {
			continue
		}
		cat, _ := content.ParseCategory(f.Category)
		out = append(out, content.FeedSource{Name: f.Name, URL: f.URL, Category: cat})
	}
	return out
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "bookshelf", "config.yaml")
}

func CachePath() string {
	return filepath.Join(xdg.CacheHome, "bookshelf", "bookshelf.db")
}

func LogPath() string {
	return filepath.Join(xdg.StateHome, "bookshelf", "bookshelf.log")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads the config at path over the embedded defaults. A missing file
// is created from the defaults.
func Load(path string) (*Config, error) {
	cfg, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Non-fatal: the embedded defaults still apply.
			_ = writeDefaults(path)
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q (valid: debug, info, warn, error)", ErrUnknownLogLevel, c.Logging.Level)
	}

	if c.Search.SuggestLimit <= 0 {
		return fmt.Errorf("search.suggest_limit: %w", ErrBadLimit)
	}
	if c.Search.HistoryLimit <= 0 {
		return fmt.Errorf("search.history_limit: %w", ErrBadLimit)
	}

	u, err := url.Parse(c.Origin())
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("edge.origin %q: %w", c.Origin(), ErrBadOrigin)
	}
	if len(c.Edge.Manifest) == 0 {
		return ErrEmptyManifest
	}

	for i, f := range c.Library.Feeds {
		if f.Name == "" {
			return fmt.Errorf("%w: feed %d: name is required", ErrBadFeed, i)
		}
		u, err := url.Parse(f.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("%w: feed %q: url must be http or https", ErrBadFeed, f.Name)
		}
		if f.Category != "" {
			if _, err := content.ParseCategory(f.Category); err != nil {
				return fmt.Errorf("%w: feed %q: %w", ErrBadFeed, f.Name, err)
			}
		}
	}
	return nil
}
