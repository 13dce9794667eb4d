package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	StoreElasticsearch = "elasticsearch"
	StoreSqlite        = "sqlite"

	FetcherBrowser = "browser"
	FetcherColly   = "colly"
)

// Default returns the configuration used for every field the JSON leaves out.
func Default() *Config {
	var cfg Config
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Server.Addr = ":5060"
	cfg.Server.RateLimit = 1
	cfg.Server.RateLimitBurst = 5
	cfg.Store.Driver = StoreElasticsearch
	cfg.Sqlite.Path = "searchagent.db"

	cfg.Rod.Headless = true
	cfg.Rod.DisableBlinkFeatures = "AutomationControlled"
	cfg.Rod.DisableDevShmUsage = true
	cfg.Rod.NoSandbox = true
	cfg.Rod.Leakless = true
	cfg.Rod.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	cfg.Rod.BlockedResourceTypes = []string{"Image", "Font", "Media"}

	cfg.Chromedp.LifeTime = 600
	cfg.Chromedp.Headless = true
	cfg.Chromedp.NoSandbox = true
	cfg.Chromedp.DisableDevShmUsage = true
	cfg.Chromedp.UserAgent = cfg.Rod.UserAgent

	cfg.Colly.UserAgent = cfg.Rod.UserAgent
	cfg.Colly.TimeoutSeconds = 25
	cfg.Colly.IgnoreRobotsTxt = true

	cfg.Embedder.Host = "http://localhost"
	cfg.Embedder.Port = 11434
	cfg.Embedder.BatchSize = 16

	cfg.Discovery.TestKeyword = "automationtest123"
	cfg.Discovery.InputThreshold = 3
	cfg.Discovery.UrlThreshold = 2
	cfg.Discovery.SettleTimeoutMs = 5000
	cfg.Discovery.IconInputWaitMs = 3000
	cfg.Discovery.UrlFastTimeoutMs = 8000
	cfg.Discovery.UrlSlowTimeoutMs = 15000
	cfg.Discovery.RestoreAfterProbe = true
	cfg.Discovery.RestoreTimeoutMs = 8000
	cfg.Discovery.MinResultAnchorCount = 5

	cfg.Batch.Concurrency = 2
	cfg.Batch.BatchSize = 100
	cfg.Batch.NavigationTimeoutMs = 10000
	cfg.Batch.NavigationAttempts = 2
	cfg.Batch.PostLoadWaitMs = 500
	cfg.Batch.DiscoveryTimeoutMs = 20000

	cfg.Scrape.Fetcher = FetcherBrowser
	cfg.Scrape.NavigationTimeoutMs = 25000
	cfg.Scrape.SearchNavigationTimeoutMs = 20000
	cfg.Scrape.FallbackSettleMs = 500
	cfg.Scrape.IconWaitMs = 800
	cfg.Scrape.ResultWaitMs = 1500
	cfg.Scrape.TermPauseMs = 1000
	cfg.Scrape.ArticleWaitMs = 1000
	cfg.Scrape.InsertBatchSize = 20
	cfg.Scrape.RecencyDays = 730
	cfg.Scrape.MaxJobs = 200
	return &cfg
}

func ParseConfig(byteConfig []byte) (*Config, error) {
	cfg := Default()
	if len(byteConfig) > 0 {
		if err := json.Unmarshal(byteConfig, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	applyEnv(cfg)

	for _, dir := range []*string{&cfg.Rod.UserDataDir, &cfg.Chromedp.UserDataDir} {
		if *dir == "" {
			continue
		}
		absPath, err := filepath.Abs(*dir)
		if err != nil {
			return nil, err
		}
		*dir = absPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func ParseConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return ParseConfig(data)
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ES_ADDRESS"); v != "" {
		cfg.Elasticsearch.Address = v
	}
	if v := os.Getenv("ES_USERNAME"); v != "" {
		cfg.Elasticsearch.Username = v
	}
	if v := os.Getenv("ES_PASSWORD"); v != "" {
		cfg.Elasticsearch.Password = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Sqlite.Path = v
	}
}

// Validate checks the preconditions the process cannot run without.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreElasticsearch:
		if c.Elasticsearch.Address == "" {
			return fmt.Errorf("elasticsearch.address is required for store driver %q", c.Store.Driver)
		}
	case StoreSqlite:
		if c.Sqlite.Path == "" {
			return fmt.Errorf("sqlite.path is required for store driver %q", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch c.Scrape.Fetcher {
	case FetcherBrowser, FetcherColly:
	default:
		return fmt.Errorf("unknown scrape fetcher %q", c.Scrape.Fetcher)
	}
	if c.Batch.Concurrency <= 0 {
		return fmt.Errorf("batch.concurrency must be positive, got %d", c.Batch.Concurrency)
	}
	if c.Batch.NavigationAttempts <= 0 {
		return fmt.Errorf("batch.navigation_attempts must be positive, got %d", c.Batch.NavigationAttempts)
	}
	if c.Discovery.TestKeyword == "" {
		return fmt.Errorf("discovery.test_keyword must not be empty")
	}
	return nil
}
